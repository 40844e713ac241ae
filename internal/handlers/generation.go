package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/services"
)

type GenerationHandler struct {
	log     *logger.Logger
	planner services.BatchPlanner
}

func NewGenerationHandler(log *logger.Logger, planner services.BatchPlanner) *GenerationHandler {
	return &GenerationHandler{
		log:     log.With("handler", "GenerationHandler"),
		planner: planner,
	}
}

// StartBatch kicks off background generation for every open question in the
// version and returns 202 with the run record.
func (h *GenerationHandler) StartBatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	run, err := h.planner.StartBatch(c.Request.Context(), userID, versionID)
	if err != nil {
		h.log.Error("StartBatch failed", "error", err, "version_id", versionID)
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

func (h *GenerationHandler) GetRun(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	versionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	run, err := h.planner.GetRun(c.Request.Context(), userID, versionID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}
