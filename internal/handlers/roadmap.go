package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type RoadmapHandler struct {
	log            *logger.Logger
	roadmapService services.RoadmapService
}

func NewRoadmapHandler(log *logger.Logger, roadmapService services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{
		log:            log.With("handler", "RoadmapHandler"),
		roadmapService: roadmapService,
	}
}

func (h *RoadmapHandler) Generate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	candidates, err := h.roadmapService.Generate(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("Generate roadmap failed", "error", err, "session_id", id)
		RespondServiceError(c, "generate_roadmap_failed", err)
		return
	}
	RespondOK(c, gin.H{"candidates": candidates})
}

func (h *RoadmapHandler) List(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	candidates, err := h.roadmapService.ListBySession(c.Request.Context(), nil, id, c.Query("tier"))
	if err != nil {
		RespondServiceError(c, "list_roadmap_failed", err)
		return
	}
	RespondOK(c, gin.H{"candidates": candidates})
}

func candidateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("candidateId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_candidate_id", fmt.Errorf("invalid candidate id %q", c.Param("candidateId")))
		return uuid.Nil, false
	}
	return id, true
}

func (h *RoadmapHandler) Update(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}
	var req services.CandidateUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	candidate, err := h.roadmapService.Update(c.Request.Context(), nil, id, req)
	if err != nil {
		RespondServiceError(c, "update_candidate_failed", err)
		return
	}
	RespondOK(c, gin.H{"candidate": candidate})
}

type bulkRoadmapRequest struct {
	Tier     string `json:"tier"`
	Selected *bool  `json:"selected" binding:"required"`
}

func (h *RoadmapHandler) BulkSetSelected(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req bulkRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	report, err := h.roadmapService.BulkSetSelected(c.Request.Context(), nil, id, req.Tier, *req.Selected)
	if err != nil {
		h.log.Error("Bulk roadmap update failed", "error", err, "session_id", id)
		RespondServiceError(c, "bulk_roadmap_failed", err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

type linkIntakeRequest struct {
	IntakeRequestID uuid.UUID `json:"intake_request_id" binding:"required"`
}

func (h *RoadmapHandler) LinkIntake(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}
	var req linkIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	candidate, err := h.roadmapService.LinkIntake(c.Request.Context(), nil, id, req.IntakeRequestID)
	if err != nil {
		RespondServiceError(c, "link_intake_failed", err)
		return
	}
	RespondOK(c, gin.H{"candidate": candidate})
}
