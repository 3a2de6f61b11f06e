package assets

import (
	"io"
	"net/http"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/registry/service"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"github.com/civicreg/citizen-admin/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler serves user avatar/badge assets. Uploads also record the
// object key on the profile so list/detail views can show what exists.
type Handler struct {
	store *Storage
	svc   *service.Service
}

func NewHandler(store *Storage, svc *service.Service) *Handler {
	return &Handler{store: store, svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.PUT("/users/:uid/assets/:kind", h.upload)
	rg.GET("/users/:uid/assets/:kind", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	uid := c.Param("uid")
	kind := c.Param("kind")
	if !ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset kind must be avatar or badge"})
		return
	}
	// require the user to exist before accepting the object
	if _, err := h.svc.GetUser(c.Request.Context(), uid); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.MessageOf(err)})
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key, err := h.store.Upload(c.Request.Context(), uid, kind, c.Request.Body, c.Request.ContentLength, contentType)
	if err != nil {
		logger.Errorf("asset upload failed for %s/%s: %v", uid, kind, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "asset upload failed"})
		return
	}

	upd := service.ProfileUpdate{}
	switch kind {
	case KindAvatar:
		upd.AvatarAsset = &key
	case KindBadge:
		upd.BadgeAsset = &key
	}
	actor := service.Actor{Email: middleware.AdminEmail(c), IP: c.ClientIP()}
	if err := h.svc.UpdateProfile(c.Request.Context(), uid, upd, actor); err != nil {
		logger.Warnf("asset key not recorded on profile %s: %v", uid, err)
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h *Handler) download(c *gin.Context) {
	uid := c.Param("uid")
	kind := c.Param("kind")
	if !ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset kind must be avatar or badge"})
		return
	}

	if c.Query("presign") == "true" {
		u, err := h.store.PresignedURL(c.Request.Context(), uid, kind, 15*time.Minute)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": u})
		return
	}

	obj, err := h.store.Download(c.Request.Context(), uid, kind)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	defer obj.Close()
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		logger.Warnf("asset stream interrupted for %s/%s: %v", uid, kind, err)
	}
}
