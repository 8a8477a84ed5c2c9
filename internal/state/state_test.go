package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jorge-barreto/refcollect/internal/catalog"
)

func TestLoad_NoExistingState(t *testing.T) {
	st, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatalf("expected nil state, got %+v", st)
	}
}

func TestNewRun_HasUUID(t *testing.T) {
	a, b := NewRun("p"), NewRun("p")
	if _, err := uuid.Parse(a.RunID); err != nil {
		t.Fatalf("RunID %q: %v", a.RunID, err)
	}
	if a.RunID == b.RunID {
		t.Fatal("run IDs should differ")
	}
	if a.Status != StatusRunning {
		t.Fatalf("Status = %q", a.Status)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := NewRun("/proj/.refcollect/playbook.yaml")
	st.Record(OriginRun{Component: "url", Version: "1.85", Status: StatusCompleted, Files: 12})
	st.Record(OriginRun{Component: "url", Version: "1.84", Status: StatusFailed, Error: "boom"})
	st.Finish(StatusFailed)
	if err := st.Save(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.RunID != st.RunID || loaded.Status != StatusFailed || len(loaded.Origins) != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.Failed() != 1 {
		t.Fatalf("Failed = %d", loaded.Failed())
	}
	if loaded.FinishedAt.IsZero() {
		t.Fatal("FinishedAt not persisted")
	}
}

func TestEnsureDir(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache")
	if err := EnsureDir(cache); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{LogsDir(cache), WorktreesDir(cache), ReferenceDir(cache)} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Fatalf("%s not created: %v", d, err)
		}
	}
}

func TestOutputDir(t *testing.T) {
	if got, want := OutputDir("/c", "url", "1.85"), filepath.Join("/c", "reference", "url", "versioned", "1.85"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := OutputDir("/c", "url", ""), filepath.Join("/c", "reference", "url", "main"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCommandLogPath(t *testing.T) {
	got := CommandLogPath("/c", "url/core", "1.85", 0)
	want := filepath.Join("/c", "logs", "url_core-1.85-1.log")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCatalog_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	origin := &catalog.Origin{URL: "https://github.com/boostorg/url.git", RefName: "develop"}
	cv := &catalog.ComponentVersion{Name: "url", Version: "1.85", Files: []*catalog.File{{
		Path:    "modules/reference/pages/index.adoc",
		Size:    42,
		ModTime: time.Unix(1700000000, 0).UTC(),
		Src:     catalog.FileSrc{Path: "modules/reference/pages/index.adoc", Scanned: "index.adoc", Origin: origin},
	}}}
	if err := SaveCatalog(dir, []*catalog.ComponentVersion{cv}); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCatalog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || len(loaded[0].Files) != 1 {
		t.Fatalf("loaded = %+v", loaded)
	}
	f := loaded[0].Files[0]
	if f.Src.OriginSource != origin.URL || f.Src.OriginRef != "develop" || f.Src.Scanned != "index.adoc" {
		t.Fatalf("src = %+v", f.Src)
	}
}

func TestLoadCatalog_Missing(t *testing.T) {
	got, err := LoadCatalog(t.TempDir())
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
}
