// Package toolchain locates the C and C++ compilers the reference generator
// uses to parse the documented sources.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

type language struct {
	title     string
	names     []string
	inputEnv  []string
	outputEnv []string
}

// Names are listed in order of preference.
var languages = []language{
	{
		title:     "C++",
		names:     []string{"clang++", "g++", "cl"},
		inputEnv:  []string{"CXX_COMPILER", "CXX"},
		outputEnv: []string{"CMAKE_CXX_COMPILER", "CXX"},
	},
	{
		title:     "C",
		names:     []string{"clang", "gcc", "cl"},
		inputEnv:  []string{"C_COMPILER", "CC"},
		outputEnv: []string{"CMAKE_C_COMPILER", "CC"},
	},
}

// Toolchain holds the discovered compiler paths.
type Toolchain struct {
	CXX string
	C   string
}

// Env returns the variables exported to child processes.
func (t *Toolchain) Env() map[string]string {
	return map[string]string{
		"CMAKE_CXX_COMPILER": t.CXX,
		"CXX":                t.CXX,
		"CMAKE_C_COMPILER":   t.C,
		"CC":                 t.C,
	}
}

// Finder searches a PATH list for executables.
type Finder struct {
	Path   string
	GOOS   string
	Getenv func(string) string
}

// DefaultFinder reads PATH and the environment of the current process.
func DefaultFinder() *Finder {
	return &Finder{Path: os.Getenv("PATH"), GOOS: runtime.GOOS, Getenv: os.Getenv}
}

// Discover finds a C++ and a C compiler. PATH is searched first; the
// input environment variables are the fallback.
func Discover() (*Toolchain, error) {
	return DefaultFinder().Discover()
}

// Discover finds a C++ and a C compiler using f.
func (f *Finder) Discover() (*Toolchain, error) {
	var found [2]string
	for i, lang := range languages {
		exe := f.Find(lang.names...)
		if exe == "" {
			for _, key := range lang.inputEnv {
				if v := f.Getenv(key); v != "" {
					exe = v
					break
				}
			}
		}
		if exe == "" {
			return nil, fmt.Errorf("could not find a %s compiler; set the %s environment variable", lang.title, lang.inputEnv[0])
		}
		if f.GOOS == "windows" {
			exe = strings.ReplaceAll(exe, `\`, "/")
		}
		found[i] = exe
	}
	return &Toolchain{CXX: found[0], C: found[1]}, nil
}

func (f *Finder) extensions() []string {
	if f.GOOS == "windows" {
		return []string{".exe", ".bat", ".cmd"}
	}
	return []string{""}
}

func (f *Finder) dirs() []string {
	return filepath.SplitList(f.Path)
}

// Find returns the first of names found on PATH. Each name is tried exactly
// first, then as the highest versioned "name-N" executable.
func (f *Finder) Find(names ...string) string {
	for _, name := range names {
		if p := f.exact(name); p != "" {
			return p
		}
		if p := f.versioned(name); p != "" {
			return p
		}
	}
	return ""
}

func (f *Finder) exact(name string) string {
	for _, dir := range f.dirs() {
		for _, ext := range f.extensions() {
			p := filepath.Join(dir, name+ext)
			if f.isExecutable(p) {
				return p
			}
		}
	}
	return ""
}

func (f *Finder) versioned(name string) string {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-(\d+)$`)
	best, bestVersion := "", -1
	for _, dir := range f.dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			file := e.Name()
			base, ok := f.trimExtension(file)
			if !ok {
				continue
			}
			m := re.FindStringSubmatch(base)
			if m == nil {
				continue
			}
			p := filepath.Join(dir, file)
			if !f.isExecutable(p) {
				continue
			}
			v, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if v > bestVersion {
				best, bestVersion = p, v
			}
		}
	}
	return best
}

func (f *Finder) trimExtension(file string) (string, bool) {
	for _, ext := range f.extensions() {
		if ext == "" {
			return file, true
		}
		if strings.HasSuffix(strings.ToLower(file), ext) {
			return file[:len(file)-len(ext)], true
		}
	}
	return "", false
}

func (f *Finder) isExecutable(p string) bool {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return false
	}
	if f.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}
