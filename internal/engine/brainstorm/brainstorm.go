// Package brainstorm is the one-question-at-a-time dialog primitive the
// step subagents use for pending confirmations. Questions queue FIFO; the
// choice set a user is answering against is frozen ("armed") the first time
// the question is surfaced, so a late mutation of the question can never
// race the answer parse.
package brainstorm

import "strings"

const maxChoices = 5

// Question is what a subagent enqueues. Choices beyond maxChoices are
// truncated and blank choices dropped at enqueue time.
type Question struct {
	ID            string
	Prompt        string
	Choices       []string
	AllowFreeform bool
}

// Outcome of parsing one user reply.
type Outcome int

const (
	NoMatch Outcome = iota
	MatchedChoice
	Freeform
)

type ParseResult struct {
	Outcome Outcome
	// Choice is the canonical choice string on MatchedChoice.
	Choice string
	// Text is the trimmed input on Freeform.
	Text string
}

type queued struct {
	question Question
	answer   string
	answered bool
}

type snapshot struct {
	choices  []string
	freeform bool
}

// Handler is session-scoped and not safe for concurrent use; one wizard
// turn drives it at a time.
type Handler struct {
	queue    []*queued
	armed    *snapshot
	answered []queued
}

func New() *Handler {
	return &Handler{}
}

// Enqueue adds a question after sanitizing its choices. The stored copy is
// never mutated again.
func (h *Handler) Enqueue(q Question) {
	clean := make([]string, 0, maxChoices)
	for _, c := range q.Choices {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		clean = append(clean, c)
		if len(clean) == maxChoices {
			break
		}
	}
	q.Choices = clean
	h.queue = append(h.queue, &queued{question: q})
}

func (h *Handler) Pending() int {
	return len(h.queue)
}

// GetNextQuestion returns the head question. The first call after a
// question reaches the head arms the parsing snapshot; repeat calls before
// MarkAnswered return the same snapshot without re-arming.
func (h *Handler) GetNextQuestion() (Question, bool) {
	if len(h.queue) == 0 {
		return Question{}, false
	}
	head := h.queue[0]
	if h.armed == nil {
		h.armed = &snapshot{
			choices:  append([]string(nil), head.question.Choices...),
			freeform: head.question.AllowFreeform,
		}
	}
	q := head.question
	q.Choices = append([]string(nil), h.armed.choices...)
	q.AllowFreeform = h.armed.freeform
	return q, true
}

// MarkAnswered pops the head, records the literal answer for audit, and
// disarms the snapshot so the next question re-arms on its first surface.
func (h *Handler) MarkAnswered(answer string) (Question, bool) {
	if len(h.queue) == 0 {
		return Question{}, false
	}
	head := h.queue[0]
	h.queue = h.queue[1:]
	head.answer = answer
	head.answered = true
	h.answered = append(h.answered, *head)
	h.armed = nil
	return head.question, true
}

// Answered returns the audit trail of answered questions in answer order.
func (h *Handler) Answered() []Question {
	out := make([]Question, 0, len(h.answered))
	for _, a := range h.answered {
		out = append(out, a.question)
	}
	return out
}

// AnswerFor returns the recorded literal answer for a question ID.
func (h *Handler) AnswerFor(id string) (string, bool) {
	for _, a := range h.answered {
		if a.question.ID == id {
			return a.answer, true
		}
	}
	return "", false
}

// ParseResponse matches input against the armed snapshot. Empty or
// whitespace-only input is always NoMatch, never Freeform. Choice matching
// is case-insensitive exact.
func (h *Handler) ParseResponse(input string) ParseResult {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ParseResult{Outcome: NoMatch}
	}
	if h.armed == nil {
		return ParseResult{Outcome: NoMatch}
	}
	for _, c := range h.armed.choices {
		if strings.EqualFold(trimmed, c) {
			return ParseResult{Outcome: MatchedChoice, Choice: c}
		}
	}
	if h.armed.freeform {
		return ParseResult{Outcome: Freeform, Text: trimmed}
	}
	return ParseResult{Outcome: NoMatch}
}
