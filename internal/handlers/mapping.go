package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type MappingHandler struct {
	log            *logger.Logger
	mappingService services.MappingService
}

func NewMappingHandler(log *logger.Logger, mappingService services.MappingService) *MappingHandler {
	return &MappingHandler{
		log:            log.With("handler", "MappingHandler"),
		mappingService: mappingService,
	}
}

func (h *MappingHandler) List(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	mappings, err := h.mappingService.ListBySession(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, "list_mappings_failed", err)
		return
	}
	RespondOK(c, gin.H{"mappings": mappings})
}

func (h *MappingHandler) Run(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	mapped, err := h.mappingService.RunForSession(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("Run mapping failed", "error", err, "session_id", id)
		RespondServiceError(c, "run_mapping_failed", err)
		return
	}
	RespondOK(c, gin.H{"mapped": mapped})
}

func (h *MappingHandler) Confirm(c *gin.Context) {
	mappingID, err := uuid.Parse(c.Param("mappingId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_mapping_id", fmt.Errorf("invalid mapping id %q", c.Param("mappingId")))
		return
	}
	m, err := h.mappingService.Confirm(c.Request.Context(), nil, mappingID)
	if err != nil {
		RespondServiceError(c, "confirm_mapping_failed", err)
		return
	}
	RespondOK(c, gin.H{"mapping": m})
}

type setOccupationRequest struct {
	OccupationCode  string `json:"occupation_code" binding:"required"`
	OccupationTitle string `json:"occupation_title"`
}

func (h *MappingHandler) SetOccupation(c *gin.Context) {
	mappingID, err := uuid.Parse(c.Param("mappingId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_mapping_id", fmt.Errorf("invalid mapping id %q", c.Param("mappingId")))
		return
	}
	var req setOccupationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	m, err := h.mappingService.SetOccupation(c.Request.Context(), nil, mappingID, req.OccupationCode, req.OccupationTitle)
	if err != nil {
		RespondServiceError(c, "set_occupation_failed", err)
		return
	}
	RespondOK(c, gin.H{"mapping": m})
}

type bulkConfirmRequest struct {
	Threshold *float64 `json:"threshold"`
}

func (h *MappingHandler) BulkConfirm(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req bulkConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	threshold := 0.85
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		RespondError(c, http.StatusBadRequest, "invalid_threshold", fmt.Errorf("threshold must be within [0,1]"))
		return
	}
	report, err := h.mappingService.BulkConfirm(c.Request.Context(), nil, id, threshold)
	if err != nil {
		h.log.Error("BulkConfirm failed", "error", err, "session_id", id)
		RespondServiceError(c, "bulk_confirm_failed", err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}
