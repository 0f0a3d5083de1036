package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:             log.With("handler", "ActivityHandler"),
		activityService: activityService,
	}
}

func (h *ActivityHandler) Load(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	created, err := h.activityService.LoadForSession(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("Load activities failed", "error", err, "session_id", id)
		RespondServiceError(c, "load_activities_failed", err)
		return
	}
	RespondOK(c, gin.H{"created": created})
}

func (h *ActivityHandler) List(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if mappingQuery := c.Query("mapping_id"); mappingQuery != "" {
		mappingID, err := uuid.Parse(mappingQuery)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_mapping_id", fmt.Errorf("invalid mapping id %q", mappingQuery))
			return
		}
		selections, err := h.activityService.ListByMapping(c.Request.Context(), nil, mappingID)
		if err != nil {
			RespondServiceError(c, "list_activities_failed", err)
			return
		}
		RespondOK(c, gin.H{"selections": selections})
		return
	}
	selections, err := h.activityService.ListBySession(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, "list_activities_failed", err)
		return
	}
	RespondOK(c, gin.H{"selections": selections})
}

type toggleRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

func (h *ActivityHandler) Toggle(c *gin.Context) {
	selectionID, err := uuid.Parse(c.Param("selectionId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_selection_id", fmt.Errorf("invalid selection id %q", c.Param("selectionId")))
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sel, err := h.activityService.Toggle(c.Request.Context(), nil, selectionID, *req.Selected)
	if err != nil {
		RespondServiceError(c, "toggle_activity_failed", err)
		return
	}
	RespondOK(c, gin.H{"selection": sel})
}

// bulkSelectRequest drives the three bulk modes: select_all, deselect_all,
// or threshold (requires Threshold).
type bulkSelectRequest struct {
	Mode      string   `json:"mode" binding:"required"`
	Threshold *float64 `json:"threshold"`
}

func (h *ActivityHandler) BulkSelect(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req bulkSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var (
		updated int64
		err     error
	)
	switch req.Mode {
	case "select_all":
		updated, err = h.activityService.SetAll(c.Request.Context(), nil, id, true)
	case "deselect_all":
		updated, err = h.activityService.SetAll(c.Request.Context(), nil, id, false)
	case "threshold":
		if req.Threshold == nil {
			RespondError(c, http.StatusBadRequest, "invalid_threshold", fmt.Errorf("threshold mode requires a threshold"))
			return
		}
		updated, err = h.activityService.SelectByThreshold(c.Request.Context(), nil, id, *req.Threshold)
	default:
		RespondError(c, http.StatusBadRequest, "invalid_mode", fmt.Errorf("unknown mode %q", req.Mode))
		return
	}
	if err != nil {
		h.log.Error("BulkSelect failed", "error", err, "session_id", id, "mode", req.Mode)
		RespondServiceError(c, "bulk_select_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": updated})
}
