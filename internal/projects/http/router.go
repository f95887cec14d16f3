package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OwnerHeader carries the authenticated owner id, set by the gateway in
// front of this service.
const OwnerHeader = "X-User-Id"

const ownerKey = "owner_id"

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.Use(withOwner())

	rg.POST("", h.requireOwner, h.create)
	rg.GET("", h.requireOwner, h.list)
	rg.GET("/by-slug/:slug", h.getBySlug)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.requireOwner, h.update)
	rg.DELETE("/:id", h.requireOwner, h.delete)
}

func withOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if owner := strings.TrimSpace(c.GetHeader(OwnerHeader)); owner != "" {
			c.Set(ownerKey, owner)
		}
		c.Next()
	}
}

func (h *Handler) requireOwner(c *gin.Context) {
	if c.GetString(ownerKey) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing " + OwnerHeader + " header"})
		return
	}
	c.Next()
}
