package remoteindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppendPostsRow(t *testing.T) {
	var got Row
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode row: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	row := Row{
		DocumentID:   "DOC_20250102_080000_aaaaaaaaaaaa",
		SourceFile:   "invoice.pdf",
		DocumentType: "invoice",
		Status:       "done",
	}
	if err := client.Append(context.Background(), row); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if got.DocumentID != row.DocumentID || got.DocumentType != "invoice" {
		t.Errorf("posted row = %+v", got)
	}
}

func TestAppendSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Append(context.Background(), Row{DocumentID: "DOC_20250102_080000_aaaaaaaaaaaa"})
	if err == nil || !strings.Contains(err.Error(), "http 503") {
		t.Fatalf("err = %v, want http 503", err)
	}
}

func TestAppendValidatesInput(t *testing.T) {
	client := NewClient("")
	if err := client.Append(context.Background(), Row{DocumentID: "x"}); err == nil {
		t.Fatal("Append succeeded without endpoint")
	}
	client = NewClient("http://127.0.0.1:0")
	if err := client.Append(context.Background(), Row{}); err == nil {
		t.Fatal("Append accepted empty document id")
	}
}
