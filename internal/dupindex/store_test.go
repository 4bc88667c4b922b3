package dupindex

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"docfactory/internal/fingerprint"
)

func openTestStore(t *testing.T, threshold float64) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "dupindex.db"), threshold)
	if err != nil {
		t.Fatalf("OpenPath returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return store
}

func TestResolveAppendsEveryDocument(t *testing.T) {
	store := openTestStore(t, 0.95)
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "DOC_20250102_080000_aaaaaaaaaaaa", fingerprint.Fingerprint(0)); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if _, err := store.Resolve(ctx, "DOC_20250102_080100_bbbbbbbbbbbb", fingerprint.Fingerprint(0)); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got := store.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2 (duplicates are appended too)", got)
	}
}

func TestResolveReportsNearMatch(t *testing.T) {
	store := openTestStore(t, 0.95)
	ctx := context.Background()

	original := fingerprint.Fingerprint(0)
	// Three differing bits out of 64 keeps similarity at 0.953, above threshold.
	near := fingerprint.Fingerprint(0b111)

	if _, err := store.Resolve(ctx, "DOC_20250102_080000_aaaaaaaaaaaa", original); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	matches, err := store.Resolve(ctx, "DOC_20250102_080500_cccccccccccc", near)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].DocumentID != "DOC_20250102_080000_aaaaaaaaaaaa" {
		t.Errorf("matched %s, want original document", matches[0].DocumentID)
	}
	if matches[0].Similarity < 0.95 {
		t.Errorf("similarity = %v, want >= 0.95", matches[0].Similarity)
	}
}

func TestResolveIgnoresDistantEntries(t *testing.T) {
	store := openTestStore(t, 0.95)
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "DOC_20250102_080000_aaaaaaaaaaaa", fingerprint.Fingerprint(0)); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	// Sixteen differing bits puts similarity at 0.75.
	matches, err := store.Resolve(ctx, "DOC_20250102_081000_dddddddddddd", fingerprint.Fingerprint(0xFFFF))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %v, want none", matches)
	}
}

func TestMatchesRankedBySimilarityThenAge(t *testing.T) {
	store := openTestStore(t, 0.90)
	ctx := context.Background()

	exact := fingerprint.Fingerprint(0)
	oneOff := fingerprint.Fingerprint(0b1)

	// Two identical early entries, then a slightly different one.
	for _, id := range []string{
		"DOC_20250101_080000_aaaaaaaaaaaa",
		"DOC_20250101_090000_bbbbbbbbbbbb",
	} {
		if _, err := store.Resolve(ctx, id, exact); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if _, err := store.Resolve(ctx, "DOC_20250101_100000_cccccccccccc", oneOff); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	matches := store.Matches(exact)
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}
	if matches[0].DocumentID != "DOC_20250101_080000_aaaaaaaaaaaa" {
		t.Errorf("first match = %s, want earliest exact entry", matches[0].DocumentID)
	}
	if matches[1].DocumentID != "DOC_20250101_090000_bbbbbbbbbbbb" {
		t.Errorf("second match = %s, want later exact entry", matches[1].DocumentID)
	}
	if matches[2].DocumentID != "DOC_20250101_100000_cccccccccccc" {
		t.Errorf("third match = %s, want the near entry", matches[2].DocumentID)
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dupindex.db")

	store, err := OpenPath(path, 0.95)
	if err != nil {
		t.Fatalf("OpenPath returned error: %v", err)
	}
	if _, err := store.Resolve(context.Background(), "DOC_20250102_080000_aaaaaaaaaaaa", fingerprint.Fingerprint(42)); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := OpenPath(path, 0.95)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Count(); got != 1 {
		t.Fatalf("Count after reopen = %d, want 1", got)
	}
	matches := reopened.Matches(fingerprint.Fingerprint(42))
	if len(matches) != 1 || matches[0].DocumentID != "DOC_20250102_080000_aaaaaaaaaaaa" {
		t.Fatalf("matches after reopen = %v, want the persisted entry", matches)
	}
}

func TestResolveSameDocumentTwiceIsNotADuplicate(t *testing.T) {
	store := openTestStore(t, 0.95)
	ctx := context.Background()

	fp := fingerprint.Fingerprint(42)
	if _, err := store.Resolve(ctx, "DOC_20250102_080000_aaaaaaaaaaaa", fp); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	// A resumed run resolves the same document again: it must not match its
	// own entry or grow the index.
	matches, err := store.Resolve(ctx, "DOC_20250102_080000_aaaaaaaaaaaa", fp)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %v, want none for the document's own entry", matches)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestResolveRequiresDocumentID(t *testing.T) {
	store := openTestStore(t, 0.95)
	if _, err := store.Resolve(context.Background(), "", fingerprint.Fingerprint(0)); err == nil {
		t.Fatal("Resolve accepted an empty document id")
	}
}

func TestResolveIsSafeUnderConcurrency(t *testing.T) {
	store := openTestStore(t, 0.95)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fingerprint.Fingerprint(uint64(n) << 8)
			doc := "DOC_20250102_08000" + string(rune('0'+n)) + "_aaaaaaaaaaaa"
			if _, err := store.Resolve(ctx, doc, id); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Resolve returned error: %v", err)
	}

	if got := store.Count(); got != writers {
		t.Fatalf("Count = %d, want %d", got, writers)
	}
}
