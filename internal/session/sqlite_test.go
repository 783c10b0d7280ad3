package session

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	st, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}

	s := New(5)
	s.Language = "ru"
	s.Name = "Аня"
	s.RecordAnswer(2, true)
	if err := st.Put(s); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, ok := reopened.Get(5)
	if !ok {
		t.Fatal("session not found after reopen")
	}
	if got.State() != StateChoosingLanguage {
		t.Errorf("state = %q, want %q", got.State(), StateChoosingLanguage)
	}
	if got.Language != "ru" || got.Name != "Аня" {
		t.Error("restored fields differ")
	}
	if got.Current != 1 || len(got.Answers) != 1 {
		t.Error("restored progress differs")
	}

	// The same pointer comes back on a second Get.
	again, ok := reopened.Get(5)
	if !ok || again != got {
		t.Error("cache did not return the same session instance")
	}
}

func TestSQLiteStoreDeleteAndPrune(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	stale := New(1)
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	fresh := New(2)
	if err := st.Put(stale); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(fresh); err != nil {
		t.Fatal(err)
	}

	n, err := st.PruneIdle(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("PruneIdle removed %d sessions, want 1", n)
	}
	if _, ok := st.Get(1); ok {
		t.Error("stale session survived prune")
	}

	if err := st.Delete(2); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Get(2); ok {
		t.Error("session still present after Delete")
	}
}
