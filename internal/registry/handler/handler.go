package handler

import (
	"net/http"
	"strconv"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/format"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/internal/registry/repository"
	"github.com/civicreg/citizen-admin/internal/registry/service"
	"github.com/civicreg/citizen-admin/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler exposes the registry operations over HTTP.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the user routes on the given group (mounted at /api/v1).
func (h *Handler) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.GET("", h.listUsers)
	users.POST("", h.createUser)
	users.POST("/batch", h.createUserBatch)
	users.POST("/batch-get", h.batchGetUsers)
	users.GET("/recent", h.recentUsers)
	users.GET("/by-domain", h.usersByDomain)
	users.GET("/generate-id", h.generateID)
	users.POST("/purge", h.purge)
	users.GET("/:uid", h.getUser)
	users.PUT("/:uid", h.updateProfile)
	users.DELETE("/:uid", h.deleteUser)
	users.GET("/:uid/impact", h.deletionImpact)
	users.PUT("/:uid/card", h.updateCard)
	users.PUT("/:uid/residence", h.updateResidence)
	users.PUT("/:uid/qr", h.updateQR)
	users.POST("/:uid/soft-delete", h.softDelete)
	users.POST("/:uid/restore", h.restore)
	users.GET("/:uid/members", h.listMembers)
	users.POST("/:uid/members", h.addMember)
	users.PUT("/:uid/members", h.syncMembers)
	users.PUT("/:uid/members/:memberID", h.updateMember)
	users.DELETE("/:uid/members/:memberID", h.deleteMember)
}

func fail(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error":    apperr.MessageOf(err),
		"category": apperr.CategoryOf(err),
	})
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{Email: middleware.AdminEmail(c), IP: c.ClientIP()}
}

// userSummary is the trimmed list-view shape, with display formatting
// applied to the citizen ID and phone number.
func userSummary(p *models.UserProfile) gin.H {
	return gin.H{
		"uid":                p.UID,
		"full_name":          p.FullName,
		"email":              p.Email,
		"phone_number":       format.Phone(p.PhoneNumber),
		"citizen_id":         p.CitizenID,
		"citizen_id_display": format.CitizenID(p.CitizenID),
		"deleted":            p.Deleted,
		"created_at":         p.CreatedAt,
		"created_ago":        format.TimeAgo(p.CreatedAt),
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	q := repository.ListQuery{
		SearchTerm:  c.Query("search_term"),
		SearchField: c.DefaultQuery("search_field", repository.SearchFieldAll),
	}
	q.Limit, _ = strconv.Atoi(c.Query("limit"))
	q.Offset, _ = strconv.Atoi(c.Query("offset"))
	q.IncludeDeleted = c.Query("include_deleted") == "true"
	if t, ok := format.ParseDateInput(c.Query("created_from")); ok {
		q.CreatedFrom = &t
	}
	if t, ok := format.ParseDateRangeEnd(c.Query("created_to")); ok {
		q.CreatedTo = &t
	}

	users, total, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "total": total})
}

func (h *Handler) getUser(c *gin.Context) {
	rec, err := h.svc.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) createUser(c *gin.Context) {
	var in service.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uid, err := h.svc.CreateUser(c.Request.Context(), in, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uid": uid})
}

func (h *Handler) createUserBatch(c *gin.Context) {
	var items []service.CreateUserInput
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.svc.CreateUserBatch(c.Request.Context(), items, actor(c))
	status := http.StatusCreated
	if len(result.Successful) == 0 && len(result.Failed) > 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func (h *Handler) batchGetUsers(c *gin.Context) {
	var req struct {
		UIDs []string `json:"uids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	users, err := h.svc.BatchGetUsers(c.Request.Context(), req.UIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) recentUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	users, err := h.svc.RecentUsers(c.Request.Context(), limit, days)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *Handler) usersByDomain(c *gin.Context) {
	users, err := h.svc.UsersByEmailDomain(c.Request.Context(), c.Query("domain"))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "count": len(out)})
}

func (h *Handler) generateID(c *gin.Context) {
	id, err := h.svc.GenerateUniqueCitizenID(c.Request.Context(), c.Query("base"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"citizen_id": id})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var upd service.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateProfile(c.Request.Context(), c.Param("uid"), upd, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid")})
}

func (h *Handler) updateCard(c *gin.Context) {
	var card models.CitizenCard
	if err := c.ShouldBindJSON(&card); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateCard(c.Request.Context(), c.Param("uid"), &card, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid")})
}

func (h *Handler) updateResidence(c *gin.Context) {
	var res models.Residence
	if err := c.ShouldBindJSON(&res); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateResidence(c.Request.Context(), c.Param("uid"), &res, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid")})
}

func (h *Handler) updateQR(c *gin.Context) {
	var payloads map[string]string
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateQRPayloads(c.Request.Context(), c.Param("uid"), payloads, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid")})
}

func (h *Handler) deleteUser(c *gin.Context) {
	var confirm service.Confirmation
	if err := c.ShouldBindJSON(&confirm); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation body required (name or citizen_id)"})
		return
	}
	counts, err := h.svc.DeleteUser(c.Request.Context(), c.Param("uid"), &confirm, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": counts})
}

func (h *Handler) deletionImpact(c *gin.Context) {
	impact, err := h.svc.GetDeletionImpact(c.Request.Context(), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, impact)
}

func (h *Handler) softDelete(c *gin.Context) {
	if err := h.svc.SoftDelete(c.Request.Context(), c.Param("uid"), actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid"), "deleted": true})
}

func (h *Handler) restore(c *gin.Context) {
	if err := h.svc.Restore(c.Request.Context(), c.Param("uid"), actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": c.Param("uid"), "restored": true})
}

func (h *Handler) purge(c *gin.Context) {
	var req struct {
		DaysThreshold int `json:"days_threshold"`
	}
	// body is optional; default threshold applies
	_ = c.ShouldBindJSON(&req)
	result, err := h.svc.PurgeSoftDeleted(c.Request.Context(), req.DaysThreshold, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context(), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) addMember(c *gin.Context) {
	var m models.HouseholdMember
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.AddMember(c.Request.Context(), c.Param("uid"), &m, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member_id": m.MemberID})
}

func (h *Handler) updateMember(c *gin.Context) {
	var m models.HouseholdMember
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateMember(c.Request.Context(), c.Param("uid"), c.Param("memberID"), &m, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member_id": c.Param("memberID")})
}

func (h *Handler) deleteMember(c *gin.Context) {
	if err := h.svc.DeleteMember(c.Request.Context(), c.Param("uid"), c.Param("memberID"), actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) syncMembers(c *gin.Context) {
	var members []models.HouseholdMember
	if err := c.ShouldBindJSON(&members); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SyncMembers(c.Request.Context(), c.Param("uid"), members, actor(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(members)})
}
