package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/civicreg/citizen-admin/internal/audit"
	"github.com/civicreg/citizen-admin/internal/registry/repository"
	"github.com/civicreg/citizen-admin/internal/registry/service"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewService(repository.NewMemoryRepo(), audit.NewService(audit.NewMemoryRepository(), 365), 20, 100)
	r := gin.New()
	NewHandler(svc).Register(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody(citizenID string) gin.H {
	return gin.H{
		"profile": gin.H{
			"full_name":     "Nguyễn Văn A",
			"email":         "a@example.com",
			"phone_number":  "0912345678",
			"citizen_id":    citizenID,
			"date_of_birth": "15/08/1990",
			"gender":        "Nam",
		},
	}
}

func TestCreateAndGetUser(t *testing.T) {
	r := newTestRouter()

	w := doJSON(r, "POST", "/api/v1/users", createBody("012345678901"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "012345678901", created["uid"])

	w = doJSON(r, "GET", "/api/v1/users/012345678901", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec struct {
		Profile struct {
			UID      string `json:"uid"`
			Passcode string `json:"passcode"`
			QRHome   string `json:"qr_home"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Equal(t, "012345678901", rec.Profile.UID)
	require.Equal(t, "789789", rec.Profile.Passcode)
	require.Equal(t, "012345678901", rec.Profile.QRHome)
}

func TestCreateUser_ValidationAndDuplicate(t *testing.T) {
	r := newTestRouter()

	bad := createBody("12345") // not 12 digits
	w := doJSON(r, "POST", "/api/v1/users", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "validation", resp["category"])

	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", createBody("012345678901")).Code)
	w = doJSON(r, "POST", "/api/v1/users", createBody("012345678901"))
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestListUsers_SearchAndPaging(t *testing.T) {
	r := newTestRouter()
	for i := 0; i < 3; i++ {
		body := createBody(fmt.Sprintf("01234567890%d", i))
		body["profile"].(gin.H)["email"] = fmt.Sprintf("user%d@example.com", i)
		require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", body).Code)
	}

	w := doJSON(r, "GET", "/api/v1/users?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Users []map[string]interface{} `json:"users"`
		Total int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Users, 2)
	require.EqualValues(t, 3, list.Total)
	// display formatting applied in summaries
	require.Contains(t, list.Users[0]["citizen_id_display"], " ")

	w = doJSON(r, "GET", "/api/v1/users?search_term=user1&search_field=email", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Users, 1)
	require.Equal(t, "user1@example.com", list.Users[0]["email"])
}

func TestUpdateProfile_RoundTrip(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", createBody("012345678901")).Code)

	w := doJSON(r, "PUT", "/api/v1/users/012345678901", gin.H{"full_name": "Trần Thị B"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "GET", "/api/v1/users/012345678901", nil)
	var rec struct {
		Profile struct {
			FullName string `json:"full_name"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Equal(t, "Trần Thị B", rec.Profile.FullName)

	// empty update rejected
	w = doJSON(r, "PUT", "/api/v1/users/012345678901", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// unknown user
	w = doJSON(r, "PUT", "/api/v1/users/999999999999", gin.H{"full_name": "Nobody Here"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser_RequiresConfirmation(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", createBody("012345678901")).Code)

	// wrong confirmation
	w := doJSON(r, "DELETE", "/api/v1/users/012345678901", gin.H{"name": "Wrong Name"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// case-insensitive name match succeeds
	w = doJSON(r, "DELETE", "/api/v1/users/012345678901", gin.H{"name": "nguyễn văn a"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Deleted repository.DeletedCounts `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.EqualValues(t, 1, resp.Deleted.Profile)

	w = doJSON(r, "GET", "/api/v1/users/012345678901", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletionImpact(t *testing.T) {
	r := newTestRouter()
	body := createBody("012345678901")
	body["household_members"] = []gin.H{
		{"full_name": "Nguyễn Văn B", "relation_to_head": "Con"},
	}
	body["residence"] = gin.H{
		"permanent_address": "12 Lê Lợi, Quận 1",
		"current_address":   "12 Lê Lợi, Quận 1",
	}
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", body).Code)

	w := doJSON(r, "GET", "/api/v1/users/012345678901/impact", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var impact service.DeletionImpact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &impact))
	require.True(t, impact.ResidenceExist)
	require.EqualValues(t, 1, impact.MemberCount)
	require.NotEmpty(t, impact.Warnings)
}

func TestSoftDeleteRestoreFlow(t *testing.T) {
	r := newTestRouter()
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", createBody("012345678901")).Code)

	require.Equal(t, http.StatusOK, doJSON(r, "POST", "/api/v1/users/012345678901/soft-delete", nil).Code)

	// hidden from default listing
	w := doJSON(r, "GET", "/api/v1/users", nil)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.EqualValues(t, 0, list.Total)

	// restoring a non-deleted user fails
	require.Equal(t, http.StatusOK, doJSON(r, "POST", "/api/v1/users/012345678901/restore", nil).Code)
	require.Equal(t, http.StatusBadRequest, doJSON(r, "POST", "/api/v1/users/012345678901/restore", nil).Code)
}

func TestMemberRoutes(t *testing.T) {
	r := newTestRouter()
	body := createBody("012345678901")
	body["residence"] = gin.H{
		"permanent_address": "12 Lê Lợi, Quận 1",
		"current_address":   "12 Lê Lợi, Quận 1",
	}
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", body).Code)

	w := doJSON(r, "POST", "/api/v1/users/012345678901/members", gin.H{
		"full_name":        "Nguyễn Văn B",
		"relation_to_head": "Con",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var added map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	require.NotEmpty(t, added["member_id"])

	// duplicate (name, relation) pair rejected
	w = doJSON(r, "POST", "/api/v1/users/012345678901/members", gin.H{
		"full_name":        "nguyễn văn b",
		"relation_to_head": "Con",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, "GET", "/api/v1/users/012345678901/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Members []map[string]interface{} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members.Members, 1)

	w = doJSON(r, "DELETE", "/api/v1/users/012345678901/members/"+added["member_id"], nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestGenerateID(t *testing.T) {
	r := newTestRouter()
	w := doJSON(r, "GET", "/api/v1/users/generate-id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp["citizen_id"], 13)
}

func TestPurge_EmptyRegistry(t *testing.T) {
	r := newTestRouter()
	w := doJSON(r, "POST", "/api/v1/users/purge", gin.H{"days_threshold": 30})
	require.Equal(t, http.StatusOK, w.Code)
	var resp service.PurgeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Zero(t, resp.DeletedCount)
}

func TestUsersByDomainRoute(t *testing.T) {
	r := newTestRouter()
	for i, email := range []string{"a@company.com", "b@company.com", "c@other.org"} {
		body := createBody(fmt.Sprintf("01234567890%d", i))
		body["profile"].(gin.H)["email"] = email
		require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/api/v1/users", body).Code)
	}

	w := doJSON(r, "GET", "/api/v1/users/by-domain?domain=company.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Users []map[string]interface{} `json:"users"`
		Count int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Users, 2)

	// missing domain is a validation error
	w = doJSON(r, "GET", "/api/v1/users/by-domain", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
