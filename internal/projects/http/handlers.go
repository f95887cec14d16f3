package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body: " + err.Error()})
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), c.GetString(ownerKey), req)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListUserProjects(c.Request.Context(), c.GetString(ownerKey))
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) getBySlug(c *gin.Context) {
	p, err := h.svc.GetProjectBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "get_by_slug", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	var patch domain.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body: " + err.Error()})
		return
	}

	p, err := h.svc.UpdateProject(c.Request.Context(), c.GetString(ownerKey), c.Param("id"), patch)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.DeleteProject(c.Request.Context(), c.GetString(ownerKey), c.Param("id")); err != nil {
		h.fail(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrOwnerRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrIDRequired),
		errors.Is(err, domain.ErrInvalidProject),
		errors.Is(err, domain.ErrUnknownSectionType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), "http").Error(op, err)
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}
