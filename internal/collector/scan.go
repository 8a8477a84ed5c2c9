package collector

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/refcollect/internal/catalog"
)

// ModulePrefix is where reference pages live in a component version.
const ModulePrefix = "modules/reference/pages"

type stamp struct {
	size    int64
	modTime time.Time
}

// Snapshot records the files in an output directory before a generator
// run, keyed by slash-separated relative path.
type Snapshot map[string]stamp

// TakeSnapshot records every file under dir. A missing dir yields an empty
// snapshot.
func TakeSnapshot(dir string) (Snapshot, error) {
	snap := Snapshot{}
	err := walkFiles(dir, func(_, rel string, info fs.FileInfo) error {
		snap[rel] = stamp{size: info.Size(), modTime: info.ModTime()}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	return snap, err
}

func (s Snapshot) unchanged(rel string, info fs.FileInfo) bool {
	st, ok := s[rel]
	return ok && st.size == info.Size() && st.modTime.Equal(info.ModTime())
}

func walkFiles(dir string, fn func(p, rel string, info fs.FileInfo) error) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return fn(p, filepath.ToSlash(rel), info)
	})
}

// Scan adds the files under outputDir that are new or changed since before
// to cv. A nil before scans everything. A file already at the target path
// gets the new content; its source information is left as is. It returns
// the number of files scanned.
func Scan(outputDir string, cv *catalog.ComponentVersion, o *catalog.Origin, before Snapshot) (int, error) {
	n := 0
	err := walkFiles(outputDir, func(p, rel string, info fs.FileInfo) error {
		if before.unchanged(rel, info) {
			return nil
		}
		modulePath := path.Join(ModulePrefix, rel)
		n++

		if existing := cv.FindFile(modulePath); existing != nil {
			existing.Content = p
			existing.Size = info.Size()
			existing.ModTime = info.ModTime()
			return nil
		}

		base := path.Base(rel)
		ext := path.Ext(base)
		src := catalog.FileSrc{
			Path:     modulePath,
			Basename: base,
			Stem:     strings.TrimSuffix(base, ext),
			Extname:  ext,
			Abspath:  p,
			Scanned:  rel,
			Origin:   o,
		}
		// Managed worktrees are temporary; only the scanned path stays meaningful.
		if o.Worktree == "" {
			src.Realpath = src.Abspath
			src.Abspath = src.Scanned
		}
		cv.Files = append(cv.Files, &catalog.File{
			Path:    modulePath,
			Content: p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Src:     src,
		})
		return nil
	})
	return n, err
}
