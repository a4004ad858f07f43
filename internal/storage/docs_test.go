package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAndRead(t *testing.T) {
	docs, err := NewDocs(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocs: %v", err)
	}

	in := payload{Name: "creatures", Count: 3}
	if err := docs.Write("creatures", in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var out payload
	if err := docs.Read("creatures", &out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestReadMissingDocument(t *testing.T) {
	docs, err := NewDocs(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var out payload
	if err := docs.Read("absent", &out); !errors.Is(err, ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	docs, err := NewDocs(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := docs.Write("doc", payload{Name: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := docs.Write("doc", payload{Name: "v2"}); err != nil {
		t.Fatal(err)
	}

	var out payload
	if err := docs.Read("doc", &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "v2" {
		t.Errorf("name = %q, want v2", out.Name)
	}

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "doc.json" {
			t.Errorf("leftover file: %s", e.Name())
		}
	}
}

func TestInvalidDocumentNames(t *testing.T) {
	docs, err := NewDocs(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", "../escape", "nested/doc", "..", "a/../../b"} {
		if err := docs.Write(name, payload{}); err == nil {
			t.Errorf("Write(%q) succeeded, want error", name)
		}
		var out payload
		if err := docs.Read(name, &out); err == nil || errors.Is(err, ErrNoDocument) {
			t.Errorf("Read(%q) = %v, want validation error", name, err)
		}
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	docs, err := NewDocs(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := docs.Write("doc", payload{Name: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := docs.Remove("doc"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("document still on disk")
	}

	// Removing a missing document is a no-op.
	if err := docs.Remove("doc"); err != nil {
		t.Errorf("second Remove = %v, want nil", err)
	}
}
