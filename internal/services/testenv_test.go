package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	"github.com/cartographai/discovery-backend/internal/data/repos/testutil"
	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/engine/mapping"
	"github.com/cartographai/discovery-backend/internal/engine/scoring"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

// stubMapper returns canned results per role and records what it was asked
// to map. Unknown roles take the low-confidence fallback shape.
type stubMapper struct {
	results map[string]mapping.Result
	asked   [][]string
}

func (m *stubMapper) MapRoles(_ context.Context, roles []string) []mapping.Result {
	m.asked = append(m.asked, roles)
	out := make([]mapping.Result, len(roles))
	for i, role := range roles {
		if res, ok := m.results[role]; ok {
			res.Role = role
			out[i] = res
			continue
		}
		out[i] = mapping.Result{Role: role, Tier: types.TierLow, Confidence: 0.5, Reasoning: "no match"}
	}
	return out
}

// stubCatalog serves detailed activities per occupation code; a non-nil err
// simulates the live catalog being down.
type stubCatalog struct {
	activities map[string][]onet.DetailedActivity
	calls      int
	err        error
}

func (c *stubCatalog) ActivitiesForOccupation(_ context.Context, code string) ([]onet.DetailedActivity, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.activities[code], nil
}

// env wires the full service graph over a fresh in-memory database.
type env struct {
	db *gorm.DB

	sessionRepo    repos.SessionRepo
	messageRepo    repos.MessageRepo
	mappingRepo    repos.RoleMappingRepo
	selectionRepo  repos.ActivitySelectionRepo
	resultRepo     repos.AnalysisResultRepo
	candidateRepo  repos.RoadmapCandidateRepo
	occupationRepo repos.OccupationRepo
	activityRepo   repos.ActivityRepo

	mapper  *stubMapper
	catalog *stubCatalog

	mappingSvc  MappingService
	activitySvc ActivityService
	analysisSvc AnalysisService
	roadmapSvc  RoadmapService
	discovery   DiscoveryService
}

func newEnv(tb testing.TB) *env {
	tb.Helper()
	db := testutil.DB(tb)
	log := testutil.Logger(tb)

	e := &env{
		db:             db,
		sessionRepo:    repos.NewSessionRepo(db, log),
		messageRepo:    repos.NewMessageRepo(db, log),
		mappingRepo:    repos.NewRoleMappingRepo(db, log),
		selectionRepo:  repos.NewActivitySelectionRepo(db, log),
		resultRepo:     repos.NewAnalysisResultRepo(db, log),
		candidateRepo:  repos.NewRoadmapCandidateRepo(db, log),
		occupationRepo: repos.NewOccupationRepo(db, log),
		activityRepo:   repos.NewActivityRepo(db, log),
		mapper:         &stubMapper{results: map[string]mapping.Result{}},
		catalog:        &stubCatalog{activities: map[string][]onet.DetailedActivity{}},
	}

	e.mappingSvc = NewMappingService(db, log, e.mappingRepo, e.occupationRepo, e.mapper)
	e.activitySvc = NewActivityService(db, log, e.mappingRepo, e.selectionRepo, e.activityRepo, e.catalog)
	e.analysisSvc = NewAnalysisService(db, log, e.sessionRepo, e.mappingRepo, e.selectionRepo, e.resultRepo, scoring.DefaultWeights())
	e.roadmapSvc = NewRoadmapService(db, log, e.resultRepo, e.candidateRepo)
	e.discovery = NewDiscoveryService(db, log, e.sessionRepo, e.messageRepo, e.mappingRepo,
		e.mappingSvc, e.activitySvc, e.analysisSvc, e.roadmapSvc)
	return e
}

func (e *env) session(tb testing.TB, ctx context.Context) *types.DiscoverySession {
	tb.Helper()
	return testutil.SeedSession(tb, ctx, e.db, uuid.New())
}
