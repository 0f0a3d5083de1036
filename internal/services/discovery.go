package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/wizard"
	"github.com/cartographai/discovery-backend/internal/pkg/dbctx"
	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// RosterEntry is one ingested roster row group: a free-text role plus the
// org attributes the analysis dimensions slice on. Headcount <= 0 counts
// as 1.
type RosterEntry struct {
	Role           string `json:"role"`
	Headcount      int    `json:"headcount"`
	Department     string `json:"department,omitempty"`
	Geography      string `json:"geography,omitempty"`
	LineOfBusiness string `json:"line_of_business,omitempty"`
}

type DiscoveryService interface {
	CreateSession(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, orgID *uuid.UUID, name string) (*types.DiscoverySession, error)
	GetSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.DiscoverySession, error)
	ListSessions(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.DiscoverySession, error)
	// RegisterRoster dedupes the entries into role-mapping shells. A
	// re-upload replaces the previous roster and everything derived from it.
	RegisterRoster(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, entries []RosterEntry) ([]*types.RoleMapping, error)
	// ProcessMessage routes one chat turn through the wizard.
	ProcessMessage(ctx context.Context, sessionID uuid.UUID, message string) (wizard.Response, error)
	// OverrideStep jumps or rewinds the wizard; the only non-linear path.
	OverrideStep(ctx context.Context, sessionID uuid.UUID, step string) (*types.DiscoverySession, error)
	Transcript(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.SessionMessage, error)
}

type discoveryService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.SessionRepo
	messageRepo repos.MessageRepo
	mappingRepo repos.RoleMappingRepo
	mappingSvc  MappingService
	activitySvc ActivityService
	analysisSvc AnalysisService
	roadmapSvc  RoadmapService

	mu            sync.Mutex
	orchestrators map[uuid.UUID]*wizard.Orchestrator
}

func NewDiscoveryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	messageRepo repos.MessageRepo,
	mappingRepo repos.RoleMappingRepo,
	mappingSvc MappingService,
	activitySvc ActivityService,
	analysisSvc AnalysisService,
	roadmapSvc RoadmapService,
) DiscoveryService {
	return &discoveryService{
		db:            db,
		log:           baseLog.With("service", "DiscoveryService"),
		sessionRepo:   sessionRepo,
		messageRepo:   messageRepo,
		mappingRepo:   mappingRepo,
		mappingSvc:    mappingSvc,
		activitySvc:   activitySvc,
		analysisSvc:   analysisSvc,
		roadmapSvc:    roadmapSvc,
		orchestrators: map[uuid.UUID]*wizard.Orchestrator{},
	}
}

func (s *discoveryService) CreateSession(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, orgID *uuid.UUID, name string) (*types.DiscoverySession, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id: %w", pkgerrors.ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Discovery Session"
	}
	return s.sessionRepo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, &types.DiscoverySession{
		OwnerUserID: ownerUserID,
		OrgID:       orgID,
		Name:        name,
		Status:      types.StatusDraft,
		CurrentStep: types.StepUpload,
	})
}

func (s *discoveryService) GetSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.DiscoverySession, error) {
	return s.sessionRepo.GetByID(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID)
}

func (s *discoveryService) ListSessions(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.DiscoverySession, error) {
	return s.sessionRepo.ListByOwner(dbctx.Context{Ctx: ctx, Tx: tx}, ownerUserID, limit)
}

func (s *discoveryService) RegisterRoster(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, entries []RosterEntry) ([]*types.RoleMapping, error) {
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	sess, err := s.sessionRepo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == types.StatusFinalized {
		return nil, fmt.Errorf("session is finalized, roster is locked: %w", pkgerrors.ErrConflict)
	}

	// Aggregate by normalized role; first-seen org attributes win.
	order := []string{}
	byRole := map[string]*types.RoleMapping{}
	for _, e := range entries {
		role := strings.TrimSpace(e.Role)
		if role == "" {
			continue
		}
		headcount := e.Headcount
		if headcount <= 0 {
			headcount = 1
		}
		key := strings.ToLower(role)
		if existing, ok := byRole[key]; ok {
			existing.RowCount += headcount
			continue
		}
		byRole[key] = &types.RoleMapping{
			SessionID:       sessionID,
			SourceRole:      role,
			RowCount:        headcount,
			Department:      strings.TrimSpace(e.Department),
			Geography:       strings.TrimSpace(e.Geography),
			LineOfBusiness:  strings.TrimSpace(e.LineOfBusiness),
			ConfidenceTier:  types.TierLow,
			ConfidenceScore: 0,
		}
		order = append(order, key)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("roster has no usable roles: %w", pkgerrors.ErrInvalidArgument)
	}

	rows := make([]*types.RoleMapping, 0, len(order))
	for _, key := range order {
		rows = append(rows, byRole[key])
	}

	if _, err := s.mappingRepo.DeleteBySession(dbc, sessionID); err != nil {
		return nil, err
	}
	out, err := s.mappingRepo.CreateBulk(dbc, rows)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateFields(dbc, sessionID, map[string]interface{}{
		"status": types.StatusInProgress,
	}); err != nil {
		return nil, err
	}
	s.log.Info("Roster registered", "session_id", sessionID, "entries", len(entries), "distinct_roles", len(out))
	return out, nil
}

func (s *discoveryService) ProcessMessage(ctx context.Context, sessionID uuid.UUID, message string) (wizard.Response, error) {
	if strings.TrimSpace(message) == "" {
		return wizard.Response{}, fmt.Errorf("empty message: %w", pkgerrors.ErrInvalidArgument)
	}
	o, err := s.orchestratorFor(ctx, sessionID)
	if err != nil {
		return wizard.Response{}, err
	}

	// The step the turn was processed under, not the step it advanced to:
	// only a completion absorbed by the terminal step finalizes the session.
	stepBefore := o.CurrentStep()
	resp, err := o.Process(ctx, message)
	if err != nil {
		return wizard.Response{}, err
	}

	if resp.StepComplete && stepBefore == types.StepRoadmap {
		if err := s.sessionRepo.UpdateFields(dbctx.Context{Ctx: ctx}, sessionID, map[string]interface{}{
			"status": types.StatusFinalized,
		}); err != nil {
			return wizard.Response{}, err
		}
	}
	return resp, nil
}

func (s *discoveryService) OverrideStep(ctx context.Context, sessionID uuid.UUID, step string) (*types.DiscoverySession, error) {
	o, err := s.orchestratorFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := o.OverrideStep(ctx, step); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
}

func (s *discoveryService) Transcript(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.SessionMessage, error) {
	return s.messageRepo.ListBySession(dbctx.Context{Ctx: ctx, Tx: tx}, sessionID, limit)
}

// orchestratorFor returns the session's cached orchestrator, building one
// from the persisted step on first touch. Subagents hold conversational
// state, so the instance must survive across turns.
func (s *discoveryService) orchestratorFor(ctx context.Context, sessionID uuid.UUID) (*wizard.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orchestrators[sessionID]; ok {
		return o, nil
	}

	sess, err := s.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		return nil, err
	}

	store := &sessionStore{svc: s, sessionID: sessionID}
	sink := &transcriptSink{svc: s, sessionID: sessionID}
	onStep := func(ctx context.Context, newStep string) error {
		return s.sessionRepo.UpdateFields(dbctx.Context{Ctx: ctx}, sessionID, map[string]interface{}{
			"current_step": newStep,
		})
	}
	o, err := wizard.NewOrchestrator(s.log, sess.CurrentStep, wizard.NewSubagents(s.log, store), sink, onStep)
	if err != nil {
		return nil, err
	}
	s.orchestrators[sessionID] = o
	return o, nil
}

// transcriptSink appends wizard turns to the session transcript with a
// monotonically increasing sequence.
type transcriptSink struct {
	svc       *discoveryService
	sessionID uuid.UUID
}

func (t *transcriptSink) Append(ctx context.Context, role, content string, choices []string) error {
	dbc := dbctx.Context{Ctx: ctx}
	maxSeq, err := t.svc.messageRepo.GetMaxSeq(dbc, t.sessionID)
	if err != nil {
		return err
	}
	var choicesJSON datatypes.JSON
	if len(choices) > 0 {
		raw, err := json.Marshal(choices)
		if err != nil {
			return err
		}
		choicesJSON = datatypes.JSON(raw)
	}
	_, err = t.svc.messageRepo.Create(dbc, []*types.SessionMessage{{
		SessionID: t.sessionID,
		Role:      role,
		Content:   content,
		Choices:   choicesJSON,
		Seq:       maxSeq + 1,
	}})
	return err
}

// sessionStore adapts the service layer to the wizard's persistence surface.
type sessionStore struct {
	svc       *discoveryService
	sessionID uuid.UUID
}

func (st *sessionStore) SessionID() uuid.UUID { return st.sessionID }

func (st *sessionStore) RosterSummary(ctx context.Context) (int, int, error) {
	mappings, err := st.svc.mappingRepo.ListBySession(dbctx.Context{Ctx: ctx}, st.sessionID)
	if err != nil {
		return 0, 0, err
	}
	rows := 0
	for _, m := range mappings {
		rows += m.RowCount
	}
	return len(mappings), rows, nil
}

func (st *sessionStore) MappingSummary(ctx context.Context) (int, int, int, error) {
	mappings, err := st.svc.mappingRepo.ListBySession(dbctx.Context{Ctx: ctx}, st.sessionID)
	if err != nil {
		return 0, 0, 0, err
	}
	total, unmapped, confirmed := len(mappings), 0, 0
	for _, m := range mappings {
		if m.OccupationCode == nil {
			unmapped++
		}
		if m.UserConfirmed {
			confirmed++
		}
	}
	return total, unmapped, confirmed, nil
}

func (st *sessionStore) RunMapping(ctx context.Context) (int, error) {
	return st.svc.mappingSvc.RunForSession(ctx, nil, st.sessionID)
}

func (st *sessionStore) ConfirmMappings(ctx context.Context, threshold float64) (int, error) {
	report, err := st.svc.mappingSvc.BulkConfirm(ctx, nil, st.sessionID, threshold)
	if err != nil {
		return 0, err
	}
	return report.Processed, nil
}

func (st *sessionStore) LoadActivities(ctx context.Context) (int, error) {
	return st.svc.activitySvc.LoadForSession(ctx, nil, st.sessionID)
}

func (st *sessionStore) ActivitySummary(ctx context.Context) (int, int, error) {
	selections, err := st.svc.activitySvc.ListBySession(ctx, nil, st.sessionID)
	if err != nil {
		return 0, 0, err
	}
	selected := 0
	for _, sel := range selections {
		if sel.Selected {
			selected++
		}
	}
	return len(selections), selected, nil
}

func (st *sessionStore) SetAllActivities(ctx context.Context, selected bool) (int, error) {
	n, err := st.svc.activitySvc.SetAll(ctx, nil, st.sessionID, selected)
	return int(n), err
}

func (st *sessionStore) RunAnalysis(ctx context.Context) (int, error) {
	results, err := st.svc.analysisSvc.Run(ctx, nil, st.sessionID)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

func (st *sessionStore) AnalysisSummary(ctx context.Context) (int, string, float64, error) {
	all, err := st.svc.analysisSvc.ListBySession(ctx, nil, st.sessionID, "")
	if err != nil {
		return 0, "", 0, err
	}
	roleRows, err := st.svc.analysisSvc.ListBySession(ctx, nil, st.sessionID, types.DimensionRole)
	if err != nil {
		return 0, "", 0, err
	}
	topRole, topPriority := "", 0.0
	if len(roleRows) > 0 {
		topRole = roleRows[0].DimensionValue
		topPriority = roleRows[0].PriorityScore
	}
	return len(all), topRole, topPriority, nil
}

func (st *sessionStore) GenerateRoadmap(ctx context.Context) (int, error) {
	candidates, err := st.svc.roadmapSvc.Generate(ctx, nil, st.sessionID)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

func (st *sessionStore) RoadmapSummary(ctx context.Context) (int, int, error) {
	candidates, err := st.svc.roadmapSvc.ListBySession(ctx, nil, st.sessionID, "")
	if err != nil {
		return 0, 0, err
	}
	selected, err := st.svc.roadmapSvc.CountSelectedForBuild(ctx, nil, st.sessionID)
	if err != nil {
		return 0, 0, err
	}
	return len(candidates), int(selected), nil
}

func (st *sessionStore) SelectTopCandidate(ctx context.Context) (string, error) {
	c, err := st.svc.roadmapSvc.SelectTop(ctx, nil, st.sessionID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}
