// Package mapping maps free-text roster roles onto catalog occupations:
// candidate lookup per role, one text-completion per batch of roles, and a
// deterministic low-confidence fallback whenever a batch cannot be parsed.
package mapping

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	types "github.com/cartographai/discovery-backend/internal/domain"
	"github.com/cartographai/discovery-backend/internal/observability"
	"github.com/cartographai/discovery-backend/internal/pkg/jsonx"
	"github.com/cartographai/discovery-backend/internal/platform/llm"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

const (
	defaultBatchSize         = 12
	defaultCandidateLimit    = 20
	defaultLookupConcurrency = 4
	maxCandidateDescription  = 200
)

// Result is one role's mapping outcome. Code and Title are nil when no
// occupation could be matched; Confidence always equals TierScore(Tier).
type Result struct {
	Role       string
	Code       *string
	Title      *string
	Tier       string
	Confidence float64
	Reasoning  string
}

// TierScore is the fixed tier→score table. Unrecognized tiers count as LOW.
func TierScore(tier string) float64 {
	switch NormalizeTier(tier) {
	case types.TierHigh:
		return 0.95
	case types.TierMedium:
		return 0.75
	default:
		return 0.50
	}
}

// NormalizeTier folds model output onto the three tier tokens, defaulting
// to LOW.
func NormalizeTier(tier string) string {
	switch strings.ToUpper(strings.TrimSpace(tier)) {
	case types.TierHigh:
		return types.TierHigh
	case types.TierMedium:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

// Config tunes the agent; zero values take the defaults.
type Config struct {
	BatchSize         int
	CandidateLimit    int
	LookupConcurrency int
}

type Agent struct {
	log     *logger.Logger
	catalog onet.Client
	gateway llm.Client
	cfg     Config
}

func NewAgent(log *logger.Logger, catalog onet.Client, gateway llm.Client, cfg Config) *Agent {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = defaultLookupConcurrency
	}
	return &Agent{
		log:     log.With("service", "RoleMappingAgent"),
		catalog: catalog,
		gateway: gateway,
		cfg:     cfg,
	}
}

// MapRoles maps every role to an occupation match. The output always has
// exactly one Result per input role, in input order: batch failures fall
// back per role instead of dropping anything.
func (a *Agent) MapRoles(ctx context.Context, roles []string) []Result {
	if len(roles) == 0 {
		return []Result{}
	}

	candidates := a.lookupCandidates(ctx, roles)

	out := make([]Result, 0, len(roles))
	for start := 0; start < len(roles); start += a.cfg.BatchSize {
		end := start + a.cfg.BatchSize
		if end > len(roles) {
			end = len(roles)
		}
		batch := roles[start:end]
		batchCands := candidates[start:end]

		if err := ctx.Err(); err != nil {
			// Cancelled mid-run: already-produced results are kept, the
			// remaining batches take the fallback path without calling out.
			out = append(out, a.fallbackBatch(batch, batchCands, "mapping cancelled: "+err.Error())...)
			continue
		}
		out = append(out, a.mapBatch(ctx, batch, batchCands)...)
	}
	return out
}

// lookupCandidates fetches candidate occupations per role. Lookups run
// concurrently but share the catalog client's rate limiter, so the outbound
// pacing invariant holds regardless of concurrency. A failed lookup records
// zero candidates and never aborts the run.
func (a *Agent) lookupCandidates(ctx context.Context, roles []string) [][]onet.Occupation {
	candidates := make([][]onet.Occupation, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.LookupConcurrency)
	for i, role := range roles {
		g.Go(func() error {
			hits, err := a.catalog.Search(gctx, role, a.cfg.CandidateLimit)
			if err != nil {
				a.log.Warn("Candidate lookup failed, continuing with zero candidates",
					"role", role, "kind", onet.KindOf(err), "error", err.Error())
				return nil
			}
			candidates[i] = hits
			return nil
		})
	}
	_ = g.Wait()
	return candidates
}

type batchRow struct {
	Role       string  `json:"role"`
	OnetCode   *string `json:"onet_code"`
	OnetTitle  *string `json:"onet_title"`
	Confidence string  `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (a *Agent) mapBatch(ctx context.Context, batch []string, candidates [][]onet.Occupation) []Result {
	text, err := a.gateway.Complete(ctx, systemPrompt, buildUserPrompt(batch, candidates))
	if err != nil {
		kind := llm.Classify(err)
		observability.Current().IncMappingFallback("gateway_" + kind.String())
		a.log.Warn("Batch completion failed, using fallback", "kind", kind.String(), "batch_size", len(batch), "error", err.Error())
		return a.fallbackBatch(batch, candidates, fmt.Sprintf("completion failed (%s)", kind))
	}

	var rows []batchRow
	if err := jsonx.Unmarshal(text, &rows); err != nil {
		observability.Current().IncMappingFallback("parse_error")
		a.log.Warn("Batch response unparseable, using fallback", "batch_size", len(batch), "error", err.Error())
		return a.fallbackBatch(batch, candidates, "unparseable model response")
	}

	return a.alignRows(batch, candidates, rows)
}

// alignRows matches response rows to batch roles case-insensitively, falling
// back to position when the model rewrote the role string. Roles left
// without a row get the per-role fallback.
func (a *Agent) alignRows(batch []string, candidates [][]onet.Occupation, rows []batchRow) []Result {
	used := make([]bool, len(rows))
	out := make([]Result, len(batch))

	for i, role := range batch {
		idx := -1
		for j, row := range rows {
			if !used[j] && strings.EqualFold(strings.TrimSpace(row.Role), strings.TrimSpace(role)) {
				idx = j
				break
			}
		}
		if idx == -1 && i < len(rows) && !used[i] {
			idx = i
		}
		if idx == -1 {
			out[i] = a.fallbackResult(role, candidates[i], "missing from model response")
			continue
		}
		used[idx] = true
		out[i] = resultFromRow(role, rows[idx])
	}
	return out
}

func resultFromRow(role string, row batchRow) Result {
	tier := NormalizeTier(row.Confidence)
	code := trimPtr(row.OnetCode)
	title := trimPtr(row.OnetTitle)
	if code == nil {
		title = nil
	}
	return Result{
		Role:       role,
		Code:       code,
		Title:      title,
		Tier:       tier,
		Confidence: TierScore(tier),
		Reasoning:  strings.TrimSpace(row.Reasoning),
	}
}

func (a *Agent) fallbackBatch(batch []string, candidates [][]onet.Occupation, reason string) []Result {
	out := make([]Result, len(batch))
	for i, role := range batch {
		out[i] = a.fallbackResult(role, candidates[i], reason)
	}
	return out
}

// fallbackResult keeps the role in the output: top candidate at LOW when we
// have one, a null-code LOW result otherwise.
func (a *Agent) fallbackResult(role string, candidates []onet.Occupation, reason string) Result {
	r := Result{
		Role:       role,
		Tier:       types.TierLow,
		Confidence: TierScore(types.TierLow),
		Reasoning:  "Fallback: " + reason,
	}
	if len(candidates) > 0 {
		code := candidates[0].Code
		title := candidates[0].Title
		r.Code = &code
		r.Title = &title
	}
	return r
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
