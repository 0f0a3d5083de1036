package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cartographai/discovery-backend/internal/platform/logger"
	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

type fakeCatalog struct {
	hits    map[string][]onet.Occupation
	failFor map[string]bool
	calls   int
}

func (f *fakeCatalog) Search(_ context.Context, keyword string, _ int) ([]onet.Occupation, error) {
	f.calls++
	if f.failFor[keyword] {
		return nil, &onet.CatalogError{Kind: onet.KindRateLimited, StatusCode: 429}
	}
	return f.hits[keyword], nil
}

func (f *fakeCatalog) ActivitiesForOccupation(context.Context, string) ([]onet.DetailedActivity, error) {
	return nil, errors.New("not implemented")
}

type fakeGateway struct {
	respond func(user string) (string, error)
	calls   int
}

func (f *fakeGateway) Complete(_ context.Context, _ string, user string) (string, error) {
	f.calls++
	return f.respond(user)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// echoGateway answers every role in the prompt with a fixed-tier match.
func echoGateway(tier string) *fakeGateway {
	return &fakeGateway{respond: func(user string) (string, error) {
		var rows []map[string]any
		for _, line := range strings.Split(user, "\n") {
			line = strings.TrimSpace(line)
			if !strings.Contains(line, "Role: ") {
				continue
			}
			role := strings.Trim(line[strings.Index(line, `"`):], `"`)
			code := "11-0000.00"
			rows = append(rows, map[string]any{
				"role": role, "onet_code": code, "onet_title": "Occ " + role,
				"confidence": tier, "reasoning": "match",
			})
		}
		raw, _ := json.Marshal(rows)
		return string(raw), nil
	}}
}

func TestMapRolesLengthInvariant(t *testing.T) {
	roles := make([]string, 30)
	hits := map[string][]onet.Occupation{}
	for i := range roles {
		roles[i] = fmt.Sprintf("Role %02d", i)
		hits[roles[i]] = []onet.Occupation{{Code: fmt.Sprintf("%02d-0000.00", i), Title: "T"}}
	}
	catalog := &fakeCatalog{hits: hits}
	gateway := echoGateway("HIGH")
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	out := agent.MapRoles(context.Background(), roles)
	if len(out) != len(roles) {
		t.Fatalf("got %d results for %d roles", len(out), len(roles))
	}
	// 30 roles at batch size 12 means 3 gateway calls.
	if gateway.calls != 3 {
		t.Fatalf("expected 3 batch calls, got %d", gateway.calls)
	}
	for i, r := range out {
		if r.Role != roles[i] {
			t.Fatalf("result %d out of order: %q", i, r.Role)
		}
		if r.Tier != "HIGH" || r.Confidence != 0.95 {
			t.Fatalf("result %d: tier=%s conf=%v", i, r.Tier, r.Confidence)
		}
	}
}

func TestTierScoreTable(t *testing.T) {
	cases := map[string]float64{
		"HIGH": 0.95, "high": 0.95,
		"MEDIUM": 0.75, " medium ": 0.75,
		"LOW": 0.50, "": 0.50, "VERY_HIGH": 0.50,
	}
	for tier, want := range cases {
		if got := TierScore(tier); got != want {
			t.Fatalf("%q: got %v want %v", tier, got, want)
		}
	}
}

func TestGatewayFailureFallsBackPerRole(t *testing.T) {
	catalog := &fakeCatalog{hits: map[string][]onet.Occupation{
		"Nurse": {{Code: "29-1141.00", Title: "Registered Nurses"}},
	}}
	gateway := &fakeGateway{respond: func(string) (string, error) {
		return "", errors.New("boom")
	}}
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	out := agent.MapRoles(context.Background(), []string{"Nurse", "Unicorn Wrangler"})
	if len(out) != 2 {
		t.Fatalf("got %d results", len(out))
	}
	// Role with candidates: top candidate at LOW.
	if out[0].Code == nil || *out[0].Code != "29-1141.00" || out[0].Tier != "LOW" || out[0].Confidence != 0.50 {
		t.Fatalf("candidate fallback wrong: %+v", out[0])
	}
	// Role without candidates: null code at LOW.
	if out[1].Code != nil || out[1].Tier != "LOW" {
		t.Fatalf("null fallback wrong: %+v", out[1])
	}
	if !strings.Contains(out[0].Reasoning, "Fallback") {
		t.Fatalf("reasoning should name the failure: %q", out[0].Reasoning)
	}
}

func TestUnparseableResponseFallsBack(t *testing.T) {
	catalog := &fakeCatalog{hits: map[string][]onet.Occupation{
		"Clerk": {{Code: "43-9061.00", Title: "Office Clerks"}},
	}}
	gateway := &fakeGateway{respond: func(string) (string, error) {
		return "I'm sorry, I can't produce JSON today.", nil
	}}
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	out := agent.MapRoles(context.Background(), []string{"Clerk"})
	if len(out) != 1 || out[0].Tier != "LOW" || out[0].Code == nil || *out[0].Code != "43-9061.00" {
		t.Fatalf("unexpected fallback: %+v", out)
	}
}

func TestFencedResponseParses(t *testing.T) {
	catalog := &fakeCatalog{hits: map[string][]onet.Occupation{}}
	gateway := &fakeGateway{respond: func(string) (string, error) {
		return "```json\n[{\"role\":\"Driver\",\"onet_code\":\"53-3032.00\",\"onet_title\":\"Heavy Truck Drivers\",\"confidence\":\"MEDIUM\",\"reasoning\":\"close match\"}]\n```", nil
	}}
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	out := agent.MapRoles(context.Background(), []string{"Driver"})
	if len(out) != 1 || out[0].Tier != "MEDIUM" || out[0].Confidence != 0.75 {
		t.Fatalf("fenced parse failed: %+v", out)
	}
}

func TestCandidateLookupFailureIsIsolated(t *testing.T) {
	catalog := &fakeCatalog{
		hits:    map[string][]onet.Occupation{"Nurse": {{Code: "29-1141.00", Title: "Registered Nurses"}}},
		failFor: map[string]bool{"Analyst": true},
	}
	gateway := &fakeGateway{respond: func(string) (string, error) {
		return "", errors.New("down")
	}}
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	out := agent.MapRoles(context.Background(), []string{"Analyst", "Nurse"})
	if len(out) != 2 {
		t.Fatalf("got %d results", len(out))
	}
	if out[0].Code != nil {
		t.Fatalf("failed lookup should produce null-code fallback: %+v", out[0])
	}
	if out[1].Code == nil {
		t.Fatalf("healthy role should keep its candidate: %+v", out[1])
	}
}

func TestCancelledContextFallsBackRemainingBatches(t *testing.T) {
	catalog := &fakeCatalog{hits: map[string][]onet.Occupation{}}
	gateway := &fakeGateway{respond: func(string) (string, error) {
		return "[]", nil
	}}
	agent := NewAgent(testLogger(t), catalog, gateway, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := agent.MapRoles(ctx, []string{"A", "B", "C"})
	if len(out) != 3 {
		t.Fatalf("got %d results", len(out))
	}
	if gateway.calls != 0 {
		t.Fatalf("cancelled run must not call the gateway, got %d calls", gateway.calls)
	}
	for _, r := range out {
		if r.Tier != "LOW" {
			t.Fatalf("cancelled fallback should be LOW: %+v", r)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	agent := NewAgent(testLogger(t), &fakeCatalog{}, &fakeGateway{respond: func(string) (string, error) { return "[]", nil }}, Config{})
	if out := agent.MapRoles(context.Background(), nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %+v", out)
	}
}
