package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Display formatting for registry fields. These feed the list/summary API
// responses; raw values stay untouched in the database.

var nonDigitRe = regexp.MustCompile(`\D`)
var nonPhoneRe = regexp.MustCompile(`[^\d+]`)

// CitizenID formats a 12-digit ID as "XXX XXX XXX XXX". Anything else is
// returned unchanged.
func CitizenID(id string) string {
	if id == "" {
		return ""
	}
	clean := nonDigitRe.ReplaceAllString(id, "")
	if len(clean) != 12 {
		return id
	}
	return clean[0:3] + " " + clean[3:6] + " " + clean[6:9] + " " + clean[9:12]
}

// Phone formats Vietnamese phone numbers (+84 / 84 / 0 prefixed) into
// grouped form; unrecognized shapes pass through unchanged.
func Phone(phone string) string {
	if phone == "" {
		return ""
	}
	clean := nonPhoneRe.ReplaceAllString(phone, "")
	switch {
	case strings.HasPrefix(clean, "+84") && len(clean) == 12:
		return "+84 " + clean[3:6] + " " + clean[6:9] + " " + clean[9:12]
	case strings.HasPrefix(clean, "84") && len(clean) == 11:
		return "+84 " + clean[2:5] + " " + clean[5:8] + " " + clean[8:11]
	case strings.HasPrefix(clean, "0") && len(clean) == 10:
		return clean[0:4] + " " + clean[4:7] + " " + clean[7:10]
	}
	return phone
}

// Date renders a timestamp as DD/MM/YYYY; zero values render empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// DateTime renders a timestamp as DD/MM/YYYY HH:MM.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// QRPayloadDisplay shows the payload, or the UID marked as fallback when
// the payload is empty.
func QRPayloadDisplay(payload, uid string) string {
	clean := strings.TrimSpace(payload)
	if clean != "" {
		return clean
	}
	return uid + " (fallback)"
}

// Age renders a date of birth as "N years old"; zero values render empty.
func Age(dob time.Time) string {
	if dob.IsZero() {
		return ""
	}
	now := time.Now()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return fmt.Sprintf("%d years old", years)
}

// TimeAgo renders a timestamp as a coarse relative string.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)
	switch {
	case diff >= 24*time.Hour:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d %s ago", days, plural(days, "day"))
	case diff >= time.Hour:
		hours := int(diff.Hours())
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour"))
	case diff >= time.Minute:
		mins := int(diff.Minutes())
		return fmt.Sprintf("%d %s ago", mins, plural(mins, "minute"))
	}
	return "Just now"
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// Truncate shortens text to max runes, appending "..." when cut.
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// UserSummary builds a one-line display string for list views.
func UserSummary(name, citizenID, email string) string {
	return fmt.Sprintf("%s (%s) - %s", name, CitizenID(citizenID), email)
}

var dateOnlyLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

var dateTimeLayouts = []string{
	"02/01/2006 15:04",
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
}

// ParseDateInput parses free-form date input in the accepted layouts.
// Returns the zero time and false when nothing matches.
func ParseDateInput(s string) (time.Time, bool) {
	t, _, ok := parseDateInput(s)
	return t, ok
}

// ParseDateRangeEnd parses an end-of-range input. A date-only value
// extends to the last instant of that day; a value with a time component
// is used as given.
func ParseDateRangeEnd(s string) (time.Time, bool) {
	t, dateOnly, ok := parseDateInput(s)
	if !ok {
		return time.Time{}, false
	}
	if dateOnly {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

func parseDateInput(s string) (t time.Time, dateOnly, ok bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, false, false
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, true, true
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}
