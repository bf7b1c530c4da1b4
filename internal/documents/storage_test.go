package documents

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	t.Setenv("STORAGE_DIR", t.TempDir())

	storage, err := NewLocalStorage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := []byte("%PDF-1.7 test bytes")
	path, err := storage.Save(data)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(path, ".pdf") {
		t.Errorf("expected .pdf suffix, got %q", path)
	}
	if filepath.Base(path) == "" {
		t.Errorf("expected generated file name, got %q", path)
	}

	got, err := storage.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("read back %q, want %q", got, data)
	}

	if err := storage.Delete(path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file gone after delete")
	}

	// Deleting again is not an error.
	if err := storage.Delete(path); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLocalStorageUniqueNames(t *testing.T) {
	t.Setenv("STORAGE_DIR", t.TempDir())

	storage, err := NewLocalStorage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := storage.Save([]byte("%PDF-a"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := storage.Save([]byte("%PDF-b"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct paths, both %q", a)
	}
}

func TestCountPDFPages(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{
			"spaced names",
			"%PDF-1.4 <</Type /Pages /Count 2>> <</Type /Page>> <</Type /Page>>",
			2,
		},
		{
			"compact names",
			"%PDF-1.4 <</Type/Pages/Count 1>> <</Type/Page>>",
			1,
		},
		{"no page objects", "%PDF-1.4 nothing here", 0},
		{"catalog only", "%PDF-1.4 <</Type /Pages>>", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountPDFPages([]byte(tt.data)); got != tt.want {
				t.Errorf("CountPDFPages() = %d, want %d", got, tt.want)
			}
		})
	}
}
