package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docfactory/internal/records"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ninput_dir = %q\noriginals_dir = %q\noutput_dir = %q\narchive_dir = %q\nindex_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "input"),
		filepath.Join(base, "originals"),
		filepath.Join(base, "output"),
		filepath.Join(base, "archive"),
		filepath.Join(base, "index"),
		filepath.Join(base, "logs"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecordsCommandEmptyStore(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	output, err := runCommand(t, "--config", configPath, "records")
	if err != nil {
		t.Fatalf("records command: %v", err)
	}
	if !strings.Contains(output, "No records found") {
		t.Fatalf("expected empty-store message, got %q", output)
	}
}

func TestRecordsCommandListsAndFilters(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	indexDir := filepath.Join(base, "index")
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := records.Open(filepath.Join(indexDir, "records.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	done := records.DocumentRecord{
		DocumentID: "DOC_20260810_093015_abcdef123456",
		SourceFile: "invoice.pdf",
		Status:     records.StatusDone,
		DetectedAt: time.Date(2026, 8, 10, 9, 30, 15, 0, time.UTC),
		PageCount:  5,
		Analysis:   &records.Analysis{DocumentType: "invoice", Supplier: "Acme GmbH"},
	}
	dup := records.DocumentRecord{
		DocumentID:  "DOC_20260811_101500_fedcba654321",
		SourceFile:  "invoice-copy.pdf",
		Status:      records.StatusDuplicate,
		Duplicate:   true,
		DuplicateOf: done.DocumentID,
		DetectedAt:  time.Date(2026, 8, 11, 10, 15, 0, 0, time.UTC),
	}
	for _, record := range []records.DocumentRecord{done, dup} {
		if err := store.Save(record); err != nil {
			t.Fatal(err)
		}
	}

	output, err := runCommand(t, "--config", configPath, "records")
	if err != nil {
		t.Fatalf("records command: %v", err)
	}
	for _, want := range []string{done.DocumentID, "invoice", "Acme GmbH", "duplicate of " + done.DocumentID} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, output)
		}
	}

	output, err = runCommand(t, "--config", configPath, "records", "--status", records.StatusDone)
	if err != nil {
		t.Fatalf("records --status: %v", err)
	}
	if strings.Contains(output, dup.DocumentID) {
		t.Fatalf("status filter leaked duplicate record:\n%s", output)
	}
	if !strings.Contains(output, done.DocumentID) {
		t.Fatalf("status filter dropped done record:\n%s", output)
	}
}

func TestStatusCommandReportsCounts(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	indexDir := filepath.Join(base, "index")
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := records.Open(filepath.Join(indexDir, "records.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(records.DocumentRecord{
		DocumentID: "DOC_20260810_093015_abcdef123456",
		SourceFile: "invoice.pdf",
		Status:     records.StatusDone,
		DetectedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(output, "Daemon running: no") {
		t.Fatalf("expected daemon not running, got:\n%s", output)
	}
	if !strings.Contains(output, "Documents: 1 total (1 done)") {
		t.Fatalf("expected document counts, got:\n%s", output)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "generated", "config.toml")

	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Fatalf("expected generated path in output, got:\n%s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Second init without --overwrite refuses to clobber the file.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	configPath := writeTestConfig(t, base)
	if _, err := runCommand(t, "--config", configPath, "config", "validate"); err != nil {
		t.Fatalf("config validate: %v", err)
	}
}

func TestTestNotifyWithoutWebhook(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	output, err := runCommand(t, "--config", configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(strings.ToLower(output), "no webhook") {
		t.Fatalf("expected no-webhook notice, got:\n%s", output)
	}
}
