package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/requestdata"
	"github.com/quillhq/rfpdesk-backend/internal/services"
)

type VersionHandler struct {
	log       *logger.Logger
	lifecycle services.VersionLifecycleManager
	sync      services.SyncAnalyzer
}

func NewVersionHandler(log *logger.Logger, lifecycle services.VersionLifecycleManager, sync services.SyncAnalyzer) *VersionHandler {
	return &VersionHandler{
		log:       log.With("handler", "VersionHandler"),
		lifecycle: lifecycle,
		sync:      sync,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *VersionHandler) CreateInitial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	version, err := h.lifecycle.CreateInitial(c.Request.Context(), userID, projectID)
	if err != nil {
		h.log.Error("CreateInitial failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": version})
}

func (h *VersionHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	version, answers, err := h.lifecycle.GetVersion(c.Request.Context(), userID, versionID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"version": version, "answers": answers})
}

func (h *VersionHandler) Clone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	next, err := h.lifecycle.CloneAsNextVersion(c.Request.Context(), userID, versionID)
	if err != nil {
		h.log.Error("Clone failed", "error", err, "version_id", versionID)
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": next})
}

func (h *VersionHandler) Sync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	status, err := h.sync.Analyze(c.Request.Context(), userID, versionID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"sync": status})
}
