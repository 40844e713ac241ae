package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/services"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

type AnswerHandler struct {
	log       *logger.Logger
	answers   services.AnswerService
	staleness services.StalenessDetector
	planner   services.BatchPlanner
}

func NewAnswerHandler(
	log *logger.Logger,
	answers services.AnswerService,
	staleness services.StalenessDetector,
	planner services.BatchPlanner,
) *AnswerHandler {
	return &AnswerHandler{
		log:       log.With("handler", "AnswerHandler"),
		answers:   answers,
		staleness: staleness,
		planner:   planner,
	}
}

type updateAnswerRequest struct {
	Text   string             `json:"text"`
	Status types.AnswerStatus `json:"status"`
}

func (h *AnswerHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	answerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if req.Status == "" {
		req.Status = types.AnswerStatusDraft
	}
	answer, err := h.answers.UpdateText(c.Request.Context(), userID, answerID, req.Text, req.Status)
	if err != nil {
		h.log.Error("Update failed", "error", err, "answer_id", answerID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"answer": answer})
}

func (h *AnswerHandler) Staleness(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	answerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.staleness.CheckAnswer(c.Request.Context(), userID, answerID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"staleness": result})
}

func (h *AnswerHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	answerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	answer, err := h.planner.GenerateOne(c.Request.Context(), userID, answerID)
	if err != nil {
		h.log.Error("Generate failed", "error", err, "answer_id", answerID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"answer": answer})
}
