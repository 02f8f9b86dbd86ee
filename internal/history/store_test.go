package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecentPasses(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	start := time.Now().Add(-time.Minute)
	rec := PassRecord{
		ID:           "pass-1",
		StartedAt:    start,
		EndedAt:      start.Add(30 * time.Second),
		StoriesSeen:  10,
		StoriesNew:   3,
		FetchSuccess: 12,
		FetchFailure: 1,
		BytesWritten: 4096,
	}
	if err := s.RecordPass(ctx, rec); err != nil {
		t.Fatalf("RecordPass() error = %v", err)
	}

	recent, err := s.RecentPasses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPasses() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("RecentPasses() returned %d records, want 1", len(recent))
	}
	if recent[0].ID != "pass-1" {
		t.Errorf("recent[0].ID = %q, want %q", recent[0].ID, "pass-1")
	}
	if recent[0].StoriesNew != 3 {
		t.Errorf("recent[0].StoriesNew = %d, want 3", recent[0].StoriesNew)
	}
	if recent[0].BytesWritten != 4096 {
		t.Errorf("recent[0].BytesWritten = %d, want 4096", recent[0].BytesWritten)
	}
}

func TestRecentPassesOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"pass-a", "pass-b", "pass-c"} {
		rec := PassRecord{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if err := s.RecordPass(ctx, rec); err != nil {
			t.Fatalf("RecordPass(%s) error = %v", id, err)
		}
	}

	recent, err := s.RecentPasses(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPasses() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("RecentPasses() returned %d records, want 2", len(recent))
	}
	if recent[0].ID != "pass-c" || recent[1].ID != "pass-b" {
		t.Errorf("RecentPasses() order = [%s, %s], want [pass-c, pass-b]", recent[0].ID, recent[1].ID)
	}
}
