package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSaveAndRemove(t *testing.T) {
	store, err := NewUploadStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	up, err := store.Save("job-1", "pitch deck.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(up.Path) != "job-1-pitch_deck.pdf" {
		t.Fatalf("unexpected path %q", up.Path)
	}
	if up.Filename != "pitch deck.pdf" || up.ContentType != "application/pdf" {
		t.Fatalf("unexpected upload: %+v", up)
	}
	data, err := os.ReadFile(up.Path)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}

	if err := store.Remove("job-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(up.Path); !os.IsNotExist(err) {
		t.Fatalf("upload still present")
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"talk.mp3":             "talk.mp3",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\talk.wav`: "talk.wav",
		"..":                   "upload",
		"":                     "upload",
		"ünïcode name.m4a":     "_n_code_name.m4a",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
