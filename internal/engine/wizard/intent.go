package wizard

import "strings"

// hasIntent reports whether the message contains any of the keywords,
// case-insensitively. Subagents dispatch on small fixed vocabularies.
func hasIntent(message string, keywords ...string) bool {
	m := strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(m, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
