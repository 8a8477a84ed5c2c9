// Package doctor diagnoses the environment a collection run needs and
// explains the failures of the last run.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/config"
	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/jorge-barreto/refcollect/internal/generator"
	"github.com/jorge-barreto/refcollect/internal/state"
	"github.com/jorge-barreto/refcollect/internal/toolchain"
	"github.com/jorge-barreto/refcollect/internal/ux"
)

const maxLogLines = 40

// Check levels.
const (
	LevelOK   = "ok"
	LevelWarn = "warn"
	LevelFail = "fail"
)

// Check is the outcome of one diagnosis step.
type Check struct {
	Name   string
	Level  string
	Detail string
}

// Doctor holds what the checks look at.
type Doctor struct {
	CacheDir string
	Config   *config.Config
	Finder   *toolchain.Finder
	LookPath func(string) (string, error)
	GOOS     string
}

// New returns a Doctor inspecting the current process environment.
func New(cacheDir string, cfg *config.Config) *Doctor {
	return &Doctor{
		CacheDir: cacheDir,
		Config:   cfg,
		Finder:   toolchain.DefaultFinder(),
		LookPath: exec.LookPath,
		GOOS:     runtime.GOOS,
	}
}

// Checks runs every environment check in a fixed order.
func (d *Doctor) Checks() []Check {
	checks := []Check{d.checkToolchain()}
	checks = append(checks, d.checkBinaries()...)
	checks = append(checks, d.checkRepositories(), d.checkGenerator(), d.checkCache())
	return checks
}

func (d *Doctor) checkRepositories() Check {
	var missing []string
	origins := d.Config.Origins()
	for _, o := range origins {
		if info, err := os.Stat(o.GitDir); err != nil || !info.IsDir() {
			missing = append(missing, o.GitDir)
		}
	}
	if len(missing) > 0 {
		return Check{Name: "repos", Level: LevelFail, Detail: "missing git dirs: " + strings.Join(missing, ", ")}
	}
	return Check{Name: "repos", Level: LevelOK, Detail: fmt.Sprintf("%d origins", len(origins))}
}

func (d *Doctor) checkToolchain() Check {
	tc, err := d.Finder.Discover()
	if err != nil {
		return Check{Name: "compilers", Level: LevelFail, Detail: err.Error()}
	}
	return Check{Name: "compilers", Level: LevelOK, Detail: fmt.Sprintf("CXX=%s CC=%s", tc.CXX, tc.C)}
}

func (d *Doctor) checkBinaries() []Check {
	var out []Check
	for _, bin := range dispatch.RequiredBinaries(d.Config) {
		p, err := d.LookPath(bin)
		if err != nil {
			out = append(out, Check{Name: bin, Level: LevelFail, Detail: "not found in PATH"})
			continue
		}
		out = append(out, Check{Name: bin, Level: LevelOK, Detail: p})
	}
	return out
}

func (d *Doctor) checkGenerator() Check {
	if p := d.Config.Generator.Path; p != "" {
		g, err := generator.FromPath(p)
		if err != nil {
			return Check{Name: "generator", Level: LevelFail, Detail: err.Error()}
		}
		return Check{Name: "generator", Level: LevelOK, Detail: g.Exe}
	}
	pattern := filepath.Join(d.CacheDir, "mrdocs", d.GOOS, "*", "bin", generator.ExeName(d.GOOS))
	matches, _ := filepath.Glob(pattern)
	if len(matches) == 0 {
		return Check{Name: "generator", Level: LevelWarn, Detail: "not installed; downloaded from " + d.Config.Generator.ReleasesURL + " on the next run"}
	}
	sort.Strings(matches)
	return Check{Name: "generator", Level: LevelOK, Detail: strings.Join(matches, ", ")}
}

func (d *Doctor) checkCache() Check {
	if err := state.EnsureDir(d.CacheDir); err != nil {
		return Check{Name: "cache", Level: LevelFail, Detail: err.Error()}
	}
	f, err := os.CreateTemp(d.CacheDir, ".doctor-*")
	if err != nil {
		return Check{Name: "cache", Level: LevelFail, Detail: fmt.Sprintf("%s is not writable: %v", d.CacheDir, err)}
	}
	f.Close()
	os.Remove(f.Name())
	return Check{Name: "cache", Level: LevelOK, Detail: d.CacheDir}
}

// Run prints the checks and the failures of the last run. It returns an
// error when a check failed.
func (d *Doctor) Run(st *state.RunState) error {
	fmt.Fprintf(ux.Out, "\n%s%s══ Doctor ══%s\n\n", ux.Bold, ux.Cyan, ux.Reset)
	failed := 0
	for _, c := range d.Checks() {
		if c.Level == LevelFail {
			failed++
		}
		fmt.Fprintf(ux.Out, "  %s %-10s %s\n", mark(c.Level), c.Name, c.Detail)
	}

	if st != nil && (st.Status == state.StatusFailed || st.Status == state.StatusInterrupted) {
		fmt.Fprintf(ux.Out, "\n%sLast run %s (%s)%s\n", ux.Bold, st.Status, st.RunID, ux.Reset)
		for _, o := range st.Origins {
			if o.Status != state.StatusFailed {
				continue
			}
			fmt.Fprintf(ux.Out, "\n  %s%s%s %s@%s\n  %s%s%s\n", ux.Bold, o.Component, ux.Reset, o.Source, o.Ref, ux.Red, o.Error, ux.Reset)
			fmt.Fprintf(ux.Out, "%s\n", indent(gatherLog(d.CacheDir, o.Component, o.Version)))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func mark(level string) string {
	switch level {
	case LevelOK:
		return ux.Green + "✓" + ux.Reset
	case LevelWarn:
		return ux.Yellow + "!" + ux.Reset
	default:
		return ux.Red + "✗" + ux.Reset
	}
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// latestLog returns the most recently written generator log of a component version.
func latestLog(cacheDir, component, version string) string {
	pattern := strings.TrimSuffix(state.CommandLogPath(cacheDir, component, version, 0), "-1.log") + "-*.log"
	matches, _ := filepath.Glob(pattern)
	var best string
	var bestTime int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); best == "" || t >= bestTime {
			best, bestTime = m, t
		}
	}
	return best
}

func gatherLog(cacheDir, component, version string) string {
	path := latestLog(cacheDir, component, version)
	if path == "" {
		return "(no log file found)"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "(no log file found)"
	}
	text := strings.TrimRight(string(data), "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
		return fmt.Sprintf("... (truncated to last %d lines)\n%s", maxLogLines, strings.Join(lines, "\n"))
	}
	return text
}
