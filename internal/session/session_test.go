package session

import (
	"context"
	"testing"
)

func TestNewSessionStartsAtLanguagePrompt(t *testing.T) {
	s := New(42)
	if s.State() != StateChoosingLanguage {
		t.Errorf("new session state = %q, want %q", s.State(), StateChoosingLanguage)
	}
	if s.AttemptID == "" {
		t.Error("new session has no attempt id")
	}
	if s.UserID != 42 {
		t.Errorf("UserID = %d, want 42", s.UserID)
	}
}

func TestFullTransitionSequence(t *testing.T) {
	ctx := context.Background()
	s := New(1)

	steps := []struct {
		event string
		want  string
	}{
		{EventChooseLanguage, StateEnteringName},
		{EventEnterName, StateEnteringEmail},
		{EventEnterEmail, StateConfirmingConsent},
		{EventGiveConsent, StateChoosingCategory},
		{EventChooseCategory, StateChoosingDifficulty},
		{EventChooseDifficulty, StateAnswering},
		{EventFinish, StateFinished},
	}

	for _, st := range steps {
		if err := s.Fire(ctx, st.event); err != nil {
			t.Fatalf("Fire(%s) error: %v", st.event, err)
		}
		if s.State() != st.want {
			t.Fatalf("after %s state = %q, want %q", st.event, s.State(), st.want)
		}
	}
}

func TestInvalidEventLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New(1)

	if err := s.Fire(ctx, EventGiveConsent); err == nil {
		t.Fatal("consent event accepted in language state")
	}
	if s.State() != StateChoosingLanguage {
		t.Errorf("state = %q after invalid event, want %q", s.State(), StateChoosingLanguage)
	}
	if s.Can(EventFinish) {
		t.Error("Can(finish) = true in language state")
	}
}

func TestRecordAnswerKeepsCursorInvariant(t *testing.T) {
	s := New(1)
	for i := 0; i < 5; i++ {
		s.RecordAnswer(i%3, i%2 == 0)
		if s.Current != len(s.Answers) {
			t.Fatalf("after answer %d: Current = %d, len(Answers) = %d", i, s.Current, len(s.Answers))
		}
	}
	if len(s.Answers) != 5 {
		t.Errorf("len(Answers) = %d, want 5", len(s.Answers))
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(9)
	s.Language = "en"
	if err := s.Fire(ctx, EventChooseLanguage); err != nil {
		t.Fatal(err)
	}
	s.Name = "Jo"
	s.Email = "jo@x.co"
	s.Category = "history"
	s.Difficulty = "basic"
	s.RecordAnswer(1, true)
	s.LastMessageID = 77

	restored := FromRecord(s.Record())
	if restored.State() != s.State() {
		t.Errorf("restored state = %q, want %q", restored.State(), s.State())
	}
	if restored.UserID != 9 || restored.AttemptID != s.AttemptID {
		t.Error("restored identity fields differ")
	}
	if restored.Name != "Jo" || restored.Email != "jo@x.co" {
		t.Error("restored contact fields differ")
	}
	if restored.Current != 1 || len(restored.Answers) != 1 || !restored.Answers[0].Correct {
		t.Error("restored answer progress differs")
	}
	if restored.LastMessageID != 77 {
		t.Errorf("restored LastMessageID = %d, want 77", restored.LastMessageID)
	}

	// The restored machine keeps working from the stored state.
	if err := restored.Fire(ctx, EventEnterName); err != nil {
		t.Errorf("restored session rejected valid event: %v", err)
	}
}
