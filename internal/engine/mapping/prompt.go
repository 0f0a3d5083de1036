package mapping

import (
	"fmt"
	"strings"

	"github.com/cartographai/discovery-backend/internal/platform/onet"
)

const systemPrompt = `You map free-text job titles to O*NET occupations.
For every role you are given, pick the best occupation from its candidate
list, or null when none fits. Respond with ONLY a JSON array, one object per
role, in the same order, with exactly these keys:
  role        - the role string, verbatim
  onet_code   - the chosen occupation code, or null
  onet_title  - the chosen occupation title, or null
  confidence  - one of HIGH, MEDIUM, LOW
  reasoning   - one sentence explaining the choice
Do not add prose, markdown, or keys beyond these five.`

func buildUserPrompt(roles []string, candidates [][]onet.Occupation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map the following %d roles:\n", len(roles))
	for i, role := range roles {
		fmt.Fprintf(&b, "\n%d. Role: %q\n", i+1, role)
		cands := candidates[i]
		if len(cands) == 0 {
			b.WriteString("   Candidates: none found\n")
			continue
		}
		b.WriteString("   Candidates:\n")
		for _, c := range cands {
			desc := c.Description
			if len(desc) > maxCandidateDescription {
				desc = desc[:maxCandidateDescription] + "..."
			}
			if desc != "" {
				fmt.Fprintf(&b, "   - %s %s: %s\n", c.Code, c.Title, desc)
			} else {
				fmt.Fprintf(&b, "   - %s %s\n", c.Code, c.Title)
			}
		}
	}
	return b.String()
}
