package session

import (
	"sync"
	"testing"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

func TestGetOrCreateLazily(t *testing.T) {
	store := NewStore(0)

	sess := store.GetOrCreate("conv-1")
	if sess.ID != "conv-1" {
		t.Fatalf("unexpected session ID: %s", sess.ID)
	}
	if sess.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be recorded")
	}
	if sess.Complete() {
		t.Fatal("fresh session should not be complete")
	}
}

func TestMergeOnlyOverwritesPresentFields(t *testing.T) {
	store := NewStore(0)
	name := "John Smith"
	date := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}

	store.Merge("conv-1", convo.Update{RequesterName: &name, MeetingDate: &date})

	// A pass that resolved nothing for name must not blank it.
	tod := schedule.TimeOfDay{Hour: 14}
	merged := store.Merge("conv-1", convo.Update{MeetingTime: &tod})

	if merged.RequesterName != name {
		t.Fatalf("name lost on merge: %q", merged.RequesterName)
	}
	if merged.MeetingDate == nil || *merged.MeetingDate != date {
		t.Fatalf("date lost on merge: %v", merged.MeetingDate)
	}
	if merged.MeetingTime == nil || *merged.MeetingTime != tod {
		t.Fatalf("time not merged: %v", merged.MeetingTime)
	}
}

func TestMergeNewerValueWins(t *testing.T) {
	store := NewStore(0)
	monday := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}
	tuesday := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 24}

	store.Merge("conv-1", convo.Update{MeetingDate: &monday})
	merged := store.Merge("conv-1", convo.Update{MeetingDate: &tuesday})

	if *merged.MeetingDate != tuesday {
		t.Fatalf("expected newer date to win, got %s", merged.MeetingDate)
	}
}

func TestMarkBookedOnce(t *testing.T) {
	store := NewStore(0)

	if !store.MarkBooked("conv-1") {
		t.Fatal("first MarkBooked should report the transition")
	}
	if store.MarkBooked("conv-1") {
		t.Fatal("second MarkBooked should be a no-op")
	}
	if !store.GetOrCreate("conv-1").BookingCompleted {
		t.Fatal("booking flag not persisted")
	}
}

func TestWithSessionSerializesPerConversation(t *testing.T) {
	store := NewStore(0)
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithSession("conv-1", func(sess *convo.Session) error {
				// Classic read-then-write; lost updates would show up as
				// a short title.
				sess.Title += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	if got := store.GetOrCreate("conv-1").Title; len(got) != workers {
		t.Fatalf("lost updates: got %d writes, want %d", len(got), workers)
	}
}

func TestSnapshotIsolatesCallers(t *testing.T) {
	store := NewStore(0)
	date := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}
	store.Merge("conv-1", convo.Update{MeetingDate: &date})

	sess := store.GetOrCreate("conv-1")
	sess.MeetingDate.Day = 1

	if store.GetOrCreate("conv-1").MeetingDate.Day != 23 {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	store := NewStore(time.Minute)
	base := time.Date(2026, time.February, 18, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	store.GetOrCreate("stale")

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	store.GetOrCreate("fresh")

	if evicted := store.sweep(); evicted != 1 {
		t.Fatalf("sweep evicted %d, want 1", evicted)
	}

	store.mu.Lock()
	_, staleExists := store.entries["stale"]
	_, freshExists := store.entries["fresh"]
	store.mu.Unlock()

	if staleExists {
		t.Fatal("stale session should have been evicted")
	}
	if !freshExists {
		t.Fatal("fresh session should survive the sweep")
	}
}
