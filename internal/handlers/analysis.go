package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type AnalysisHandler struct {
	log             *logger.Logger
	analysisService services.AnalysisService
}

func NewAnalysisHandler(log *logger.Logger, analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log.With("handler", "AnalysisHandler"),
		analysisService: analysisService,
	}
}

func (h *AnalysisHandler) Run(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	results, err := h.analysisService.Run(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("Analysis run failed", "error", err, "session_id", id)
		RespondServiceError(c, "run_analysis_failed", err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

func (h *AnalysisHandler) List(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	results, err := h.analysisService.ListBySession(c.Request.Context(), nil, id, c.Query("dimension"))
	if err != nil {
		RespondServiceError(c, "list_analysis_failed", err)
		return
	}
	if tier := c.Query("tier"); tier != "" {
		filtered := make([]*types.AnalysisResult, 0, len(results))
		for _, r := range results {
			if r.PriorityTier == tier {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	RespondOK(c, gin.H{"results": results})
}
