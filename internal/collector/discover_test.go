package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindConfig(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		startPath  string
		configured string
		want       string
	}{
		{"root default", []string{"mrdocs.yml"}, "", "", "mrdocs.yml"},
		{"docs default", []string{"docs/mrdocs.yml"}, "", "", "docs/mrdocs.yml"},
		{"doc default", []string{"doc/mrdocs.yml"}, "", "", "doc/mrdocs.yml"},
		{"configured wins", []string{"mrdocs.yml", "ref/custom.yml"}, "", "ref/custom.yml", "ref/custom.yml"},
		{"configured under start path", []string{"antora/custom.yml"}, "antora", "custom.yml", "antora/custom.yml"},
		{"default under start path", []string{"antora/mrdocs.yml"}, "antora", "", "antora/mrdocs.yml"},
		{"root before start path", []string{"mrdocs.yml", "antora/mrdocs.yml"}, "antora", "", "mrdocs.yml"},
		{"configured missing falls back", []string{"doc/mrdocs.yml"}, "", "missing.yml", "doc/mrdocs.yml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, filepath.FromSlash(f)))
			}
			got, ok := FindConfig(dir, tt.startPath, tt.configured)
			assert.True(t, ok)
			assert.Equal(t, filepath.Join(dir, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestFindConfig_NoneFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "docs", "mrdocs.yml", "nested"))
	_, ok := FindConfig(dir, "", "")
	assert.False(t, ok, "directories are not configs")
}
