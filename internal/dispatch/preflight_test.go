package dispatch

import (
	"runtime"
	"strings"
	"testing"

	"github.com/jorge-barreto/refcollect/internal/config"
)

func TestPreflight_Found(t *testing.T) {
	if err := Preflight([]string{"sh"}); err != nil {
		t.Fatalf("expected sh to be found, got: %v", err)
	}
}

func TestPreflight_Empty(t *testing.T) {
	if err := Preflight(nil); err != nil {
		t.Fatal(err)
	}
}

func TestPreflight_MissingBinary(t *testing.T) {
	err := Preflight([]string{"sh", "refcollect-no-such-binary"})
	if err == nil || !strings.Contains(err.Error(), "refcollect-no-such-binary") {
		t.Fatalf("got %v", err)
	}
	if strings.Contains(err.Error(), "sh,") {
		t.Fatalf("found binary reported missing: %v", err)
	}
}

func TestRequiredBinaries(t *testing.T) {
	cfg := &config.Config{Generator: config.Generator{Path: "/opt/mrdocs/bin/mrdocs"}}
	if got := RequiredBinaries(cfg); len(got) != 0 {
		t.Fatalf("got %v", got)
	}

	cfg = &config.Config{Dependencies: []config.Dependency{{Name: "boost"}}}
	got := RequiredBinaries(cfg)
	archiver := "tar"
	if runtime.GOOS == "windows" {
		archiver = "7z"
	}
	if len(got) != 2 || !contains(got, "git") || !contains(got, archiver) {
		t.Fatalf("got %v", got)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
