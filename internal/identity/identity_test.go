package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDocumentIDFormat(t *testing.T) {
	detected := time.Date(2026, 8, 29, 10, 15, 42, 0, time.UTC)
	hash := HashBytes([]byte("invoice body"))

	id := NewDocumentID(hash, detected)
	if !Valid(id) {
		t.Fatalf("generated ID %q does not match expected format", id)
	}
	if want := "DOC_20260829_101542_" + hash[:12]; id != want {
		t.Fatalf("id = %q, want %q", id, want)
	}
}

func TestSameContentSameSecondSameID(t *testing.T) {
	detected := time.Date(2026, 8, 29, 10, 15, 42, 123456, time.UTC)
	hash := HashBytes([]byte("identical content"))

	a := NewDocumentID(hash, detected)
	b := NewDocumentID(hash, detected.Add(500*time.Millisecond))
	if a != b {
		t.Fatalf("identical content within the same second should share an ID: %q vs %q", a, b)
	}
}

func TestDistinctContentSameSecondDistinctIDs(t *testing.T) {
	detected := time.Now().UTC().Truncate(time.Second)
	a := NewDocumentID(HashBytes([]byte("first")), detected)
	b := NewDocumentID(HashBytes([]byte("second")), detected)
	if a == b {
		t.Fatalf("distinct content must yield distinct IDs, both %q", a)
	}
}

func TestUniquenessAcrossSeconds(t *testing.T) {
	base := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := NewDocumentID(HashBytes([]byte{byte(i)}), base.Add(time.Duration(i)*time.Second))
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	content := []byte("file content for hashing")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromFile != HashBytes(content) {
		t.Fatal("file hash should equal in-memory hash of the same bytes")
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "absent.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"DOC_2026_101542_abcdefabcdef",
		"DOC_20260829_101542_ABCDEFABCDEF",
		"DOC_20260829_101542_abc",
		"doc_20260829_101542_abcdefabcdef",
	}
	for _, id := range bad {
		if Valid(id) {
			t.Fatalf("Valid(%q) = true, want false", id)
		}
	}
}
