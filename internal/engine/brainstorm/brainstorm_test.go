package brainstorm

import "testing"

func TestEnqueueSanitizesChoices(t *testing.T) {
	h := New()
	h.Enqueue(Question{
		ID:      "q1",
		Prompt:  "pick",
		Choices: []string{"A", "  ", "B", "", "C", "D", "E", "F", "G"},
	})
	q, ok := h.GetNextQuestion()
	if !ok {
		t.Fatal("expected a question")
	}
	want := []string{"A", "B", "C", "D", "E"}
	if len(q.Choices) != len(want) {
		t.Fatalf("choices: %v", q.Choices)
	}
	for i := range want {
		if q.Choices[i] != want[i] {
			t.Fatalf("choices: %v", q.Choices)
		}
	}
}

func TestEmptyInputNeverFreeform(t *testing.T) {
	h := New()
	h.Enqueue(Question{ID: "q1", Choices: []string{"Yes", "No"}, AllowFreeform: true})
	h.GetNextQuestion()

	for _, in := range []string{"", "   ", "\t\n"} {
		res := h.ParseResponse(in)
		if res.Outcome != NoMatch {
			t.Fatalf("input %q: got outcome %v", in, res.Outcome)
		}
	}
}

func TestCaseInsensitiveChoiceMatch(t *testing.T) {
	h := New()
	h.Enqueue(Question{ID: "q1", Choices: []string{"Select All"}})
	h.GetNextQuestion()

	res := h.ParseResponse("  sElEcT aLl ")
	if res.Outcome != MatchedChoice || res.Choice != "Select All" {
		t.Fatalf("got %+v", res)
	}
}

func TestFreeformOnlyWhenAllowed(t *testing.T) {
	h := New()
	h.Enqueue(Question{ID: "q1", Choices: []string{"Yes"}, AllowFreeform: false})
	h.GetNextQuestion()
	if res := h.ParseResponse("something else"); res.Outcome != NoMatch {
		t.Fatalf("strict question: got %+v", res)
	}
	h.MarkAnswered("Yes")

	h.Enqueue(Question{ID: "q2", Choices: []string{"Yes"}, AllowFreeform: true})
	h.GetNextQuestion()
	res := h.ParseResponse("something else")
	if res.Outcome != Freeform || res.Text != "something else" {
		t.Fatalf("freeform question: got %+v", res)
	}
}

func TestArmedSnapshotIsStable(t *testing.T) {
	h := New()
	h.Enqueue(Question{ID: "q1", Choices: []string{"A", "B"}})

	first, _ := h.GetNextQuestion()
	// Mutating the returned question must not affect parsing.
	first.Choices[0] = "Z"

	second, _ := h.GetNextQuestion()
	if second.Choices[0] != "A" {
		t.Fatalf("snapshot leaked mutation: %v", second.Choices)
	}
	if res := h.ParseResponse("a"); res.Outcome != MatchedChoice {
		t.Fatalf("parse against snapshot failed: %+v", res)
	}
}

func TestMarkAnsweredAdvancesAndRearms(t *testing.T) {
	h := New()
	h.Enqueue(Question{ID: "q1", Choices: []string{"One"}})
	h.Enqueue(Question{ID: "q2", Choices: []string{"Two"}})

	h.GetNextQuestion()
	answered, ok := h.MarkAnswered("One")
	if !ok || answered.ID != "q1" {
		t.Fatalf("got %+v ok=%v", answered, ok)
	}
	if got, _ := h.AnswerFor("q1"); got != "One" {
		t.Fatalf("audit answer: %q", got)
	}

	q, ok := h.GetNextQuestion()
	if !ok || q.ID != "q2" {
		t.Fatalf("next question: %+v", q)
	}
	if res := h.ParseResponse("two"); res.Outcome != MatchedChoice {
		t.Fatalf("re-armed parse: %+v", res)
	}
}

func TestParseWithoutQuestionIsNoMatch(t *testing.T) {
	h := New()
	if res := h.ParseResponse("hello"); res.Outcome != NoMatch {
		t.Fatalf("got %+v", res)
	}
}

func TestMarkAnsweredOnEmptyQueue(t *testing.T) {
	h := New()
	if _, ok := h.MarkAnswered("x"); ok {
		t.Fatal("expected ok=false on empty queue")
	}
}
