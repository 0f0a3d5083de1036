// Package wizard drives the five-step discovery conversation: a fixed
// linear step order, one subagent per step, and an orchestrator that routes
// each user turn to the active subagent and advances the state machine when
// a subagent reports its step complete.
package wizard

import (
	"context"

	"github.com/google/uuid"
)

// Response is one assistant turn: a message, optional quick-action choices,
// and whether the active step just finished.
type Response struct {
	Message      string   `json:"message"`
	Choices      []string `json:"choices,omitempty"`
	StepComplete bool     `json:"step_complete"`
}

// Subagent owns the conversational behavior of one wizard step. It may keep
// step-local state between turns of the same session. Only the subagent for
// a step may declare that step complete.
type Subagent interface {
	Process(ctx context.Context, message string) (Response, error)
}

// Store is the persistence surface the subagents act through. It is scoped
// to one session; the services layer implements it.
type Store interface {
	SessionID() uuid.UUID

	// Roster / upload
	RosterSummary(ctx context.Context) (roles int, rows int, err error)

	// Role mapping
	MappingSummary(ctx context.Context) (total, unmapped, confirmed int, err error)
	RunMapping(ctx context.Context) (mapped int, err error)
	ConfirmMappings(ctx context.Context, threshold float64) (confirmed int, err error)

	// Activity selection
	LoadActivities(ctx context.Context) (created int, err error)
	ActivitySummary(ctx context.Context) (total, selected int, err error)
	SetAllActivities(ctx context.Context, selected bool) (updated int, err error)

	// Analysis
	RunAnalysis(ctx context.Context) (results int, err error)
	AnalysisSummary(ctx context.Context) (results int, topRole string, topPriority float64, err error)

	// Roadmap
	GenerateRoadmap(ctx context.Context) (candidates int, err error)
	RoadmapSummary(ctx context.Context) (total int, selectedForBuild int, err error)
	SelectTopCandidate(ctx context.Context) (name string, err error)
}

// TranscriptSink receives transcript turns. Append order per processed
// message is user turn first, then assistant turn.
type TranscriptSink interface {
	Append(ctx context.Context, role, content string, choices []string) error
}
