package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()

	done, err := sink.HasCompleted(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("empty sink reports a completed attempt")
	}

	rec := Record{
		UserID:     1,
		Name:       "Jo",
		Email:      "jo@x.co",
		Language:   "en",
		Category:   "history",
		Difficulty: "basic",
		Score:      2,
		Timestamp:  time.Now(),
	}
	if err := sink.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}

	done, err = sink.HasCompleted(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("appended attempt not reported as completed")
	}

	done, _ = sink.HasCompleted(ctx, 2)
	if done {
		t.Error("unknown user reported as completed")
	}

	records := sink.Records()
	if len(records) != 1 || records[0].Score != 2 {
		t.Errorf("Records() = %+v, want one record with score 2", records)
	}
}
