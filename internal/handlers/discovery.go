package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/services"
)

type DiscoveryHandler struct {
	log              *logger.Logger
	discoveryService services.DiscoveryService
}

func NewDiscoveryHandler(log *logger.Logger, discoveryService services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		log:              log.With("handler", "DiscoveryHandler"),
		discoveryService: discoveryService,
	}
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", fmt.Errorf("invalid session id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

type createSessionRequest struct {
	OwnerUserID uuid.UUID  `json:"owner_user_id" binding:"required"`
	OrgID       *uuid.UUID `json:"org_id"`
	Name        string     `json:"name"`
}

func (h *DiscoveryHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.discoveryService.CreateSession(c.Request.Context(), nil, req.OwnerUserID, req.OrgID, req.Name)
	if err != nil {
		h.log.Error("CreateSession failed", "error", err, "user_id", req.OwnerUserID)
		RespondServiceError(c, "create_session_failed", err)
		return
	}
	RespondCreated(c, gin.H{"session": sess})
}

func (h *DiscoveryHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.discoveryService.GetSession(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, "load_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": sess})
}

func (h *DiscoveryHandler) ListSessions(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_owner_user_id", fmt.Errorf("owner_user_id query param required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sessions, err := h.discoveryService.ListSessions(c.Request.Context(), nil, ownerID, limit)
	if err != nil {
		h.log.Error("ListSessions failed", "error", err, "user_id", ownerID)
		RespondServiceError(c, "list_sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

type rosterRequest struct {
	Entries []services.RosterEntry `json:"entries" binding:"required"`
}

func (h *DiscoveryHandler) RegisterRoster(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req rosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mappings, err := h.discoveryService.RegisterRoster(c.Request.Context(), nil, id, req.Entries)
	if err != nil {
		h.log.Error("RegisterRoster failed", "error", err, "session_id", id)
		RespondServiceError(c, "register_roster_failed", err)
		return
	}
	RespondCreated(c, gin.H{"mappings": mappings})
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *DiscoveryHandler) PostMessage(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	resp, err := h.discoveryService.ProcessMessage(c.Request.Context(), id, req.Message)
	if err != nil {
		h.log.Error("PostMessage failed", "error", err, "session_id", id)
		RespondServiceError(c, "process_message_failed", err)
		return
	}
	RespondOK(c, gin.H{"response": resp})
}

type overrideStepRequest struct {
	Step string `json:"step" binding:"required"`
}

func (h *DiscoveryHandler) OverrideStep(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req overrideStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.discoveryService.OverrideStep(c.Request.Context(), id, req.Step)
	if err != nil {
		h.log.Warn("OverrideStep failed", "error", err, "session_id", id, "step", req.Step)
		RespondServiceError(c, "override_step_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": sess})
}

func (h *DiscoveryHandler) GetTranscript(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := h.discoveryService.Transcript(c.Request.Context(), nil, id, limit)
	if err != nil {
		RespondServiceError(c, "load_transcript_failed", err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}
