package dispatch

import (
	"os"
	"strings"
)

// EnvPrefix namespaces the variables refcollect exports to child processes.
const EnvPrefix = "REFCOLLECT_"

// Environment holds the execution context for external commands.
type Environment struct {
	ProjectRoot string
	CacheDir    string
	RunID       string
	WorkDir     string
	OutputDir   string
	Component   string
	Version     string
	// Extra is exported verbatim: compiler paths, dependency locations, MRDOCS_ROOT.
	Extra       map[string]string
	CustomVars  map[string]string
	filteredEnv []string // lazily populated base env (os.Environ minus REFCOLLECT_*)
}

// Clone returns a deep copy of the Environment.
func (e *Environment) Clone() *Environment {
	cp := *e
	cp.Extra = cloneMap(e.Extra)
	cp.CustomVars = cloneMap(e.CustomVars)
	if e.filteredEnv != nil {
		cp.filteredEnv = make([]string, len(e.filteredEnv))
		copy(cp.filteredEnv, e.filteredEnv)
	}
	return &cp
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SetExtra records a variable exported to children as-is.
func (e *Environment) SetExtra(key, value string) {
	if e.Extra == nil {
		e.Extra = make(map[string]string)
	}
	e.Extra[key] = value
}

// Builtins returns the built-in variables.
func (e *Environment) Builtins() map[string]string {
	return map[string]string{
		"PROJECT_ROOT": e.ProjectRoot,
		"CACHE_DIR":    e.CacheDir,
		"RUN_ID":       e.RunID,
		"WORKTREE":     e.WorkDir,
		"OUTPUT_DIR":   e.OutputDir,
		"COMPONENT":    e.Component,
		"VERSION":      e.Version,
	}
}

// Vars returns the variable substitution map for configured commands and paths.
// Extra and custom vars come first; built-ins always win.
func (e *Environment) Vars() map[string]string {
	m := make(map[string]string, 7+len(e.Extra)+len(e.CustomVars))
	for k, v := range e.Extra {
		m[k] = v
	}
	for k, v := range e.CustomVars {
		m[k] = v
	}
	for k, v := range e.Builtins() {
		m[k] = v
	}
	return m
}

// BuildEnv returns the environment variables for child processes.
// It inherits the current environment minus stale REFCOLLECT_ variables,
// adds Extra verbatim and the REFCOLLECT_ variables.
func BuildEnv(env *Environment) []string {
	if env.filteredEnv == nil {
		for _, kv := range os.Environ() {
			key, _, _ := strings.Cut(kv, "=")
			if strings.HasPrefix(key, EnvPrefix) {
				continue
			}
			env.filteredEnv = append(env.filteredEnv, kv)
		}
	}
	result := make([]string, len(env.filteredEnv), len(env.filteredEnv)+7+len(env.Extra)+len(env.CustomVars))
	copy(result, env.filteredEnv)
	for k, v := range env.Extra {
		result = append(result, k+"="+v)
	}
	for k, v := range env.CustomVars {
		result = append(result, EnvPrefix+k+"="+v)
	}
	for k, v := range env.Builtins() {
		result = append(result, EnvPrefix+k+"="+v)
	}
	return result
}
