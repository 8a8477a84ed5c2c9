package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/refcollect/internal/catalog"
)

func catalogPath(cacheDir string) string {
	return filepath.Join(cacheDir, "catalog.json")
}

// SaveCatalog writes the collected reference files of every component version.
func SaveCatalog(cacheDir string, components []*catalog.ComponentVersion) error {
	for _, cv := range components {
		for _, f := range cv.Files {
			if o := f.Src.Origin; o != nil {
				f.Src.OriginSource = o.Source()
				f.Src.OriginRef = o.RefName
			}
		}
	}
	data, err := json.MarshalIndent(components, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(catalogPath(cacheDir), data, 0644)
}

// LoadCatalog reads the catalog written by SaveCatalog. Returns nil, nil when absent.
func LoadCatalog(cacheDir string) ([]*catalog.ComponentVersion, error) {
	data, err := os.ReadFile(catalogPath(cacheDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*catalog.ComponentVersion
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
