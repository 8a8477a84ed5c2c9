package config

import (
	"fmt"
	"regexp"

	"github.com/jorge-barreto/refcollect/internal/catalog"
)

var varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Builtins are the variable names the runner always defines.
var Builtins = map[string]bool{
	"PROJECT_ROOT": true, "CACHE_DIR": true, "RUN_ID": true,
	"WORKTREE": true, "OUTPUT_DIR": true, "COMPONENT": true, "VERSION": true,
}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config, projectRoot string) error {
	if cfg.Name == "" {
		return fmt.Errorf("config: 'name' is required")
	}

	switch cfg.CreateWorktrees {
	case "":
		cfg.CreateWorktrees = CreateAuto
	case CreateAuto, CreateAlways:
	default:
		return fmt.Errorf("config: 'create-worktrees' must be auto or always, got %q", cfg.CreateWorktrees)
	}

	seenVars := make(map[string]bool)
	for _, v := range cfg.Vars {
		if v.Key == "" {
			return fmt.Errorf("config: vars: empty variable name")
		}
		if !varNameRe.MatchString(v.Key) {
			return fmt.Errorf("config: vars: %q is not a valid variable name (must match [A-Za-z_][A-Za-z0-9_]*)", v.Key)
		}
		if Builtins[v.Key] {
			return fmt.Errorf("config: vars: %q overrides a built-in variable", v.Key)
		}
		if seenVars[v.Key] {
			return fmt.Errorf("config: vars: duplicate variable %q", v.Key)
		}
		seenVars[v.Key] = true
	}

	if cfg.Generator.ReleasesURL == "" {
		cfg.Generator.ReleasesURL = DefaultReleasesURL
	}
	cfg.Generator.Path = absFrom(projectRoot, cfg.Generator.Path)

	if len(cfg.Components) == 0 {
		return fmt.Errorf("config: at least one component is required")
	}
	seen := make(map[string]bool)
	for i, cv := range cfg.Components {
		if cv == nil || cv.Name == "" {
			return fmt.Errorf("config: component %d: 'name' is required", i+1)
		}
		key := cv.Name + "@" + cv.Version
		if seen[key] {
			return fmt.Errorf("config: duplicate component %q version %q", cv.Name, cv.Version)
		}
		seen[key] = true
		if cv.Title == "" {
			cv.Title = cv.Name
		}
		for j, o := range cv.Origins {
			if err := validateOrigin(o, projectRoot); err != nil {
				return fmt.Errorf("config: component %q origin %d: %w", cv.Name, j+1, err)
			}
		}
		cv.LinkOrigins()
	}
	return nil
}

func validateOrigin(o *catalog.Origin, projectRoot string) error {
	if o == nil {
		return fmt.Errorf("empty origin")
	}
	if o.GitDir == "" {
		return fmt.Errorf("'gitdir' is required")
	}
	if o.RefName == "" {
		return fmt.Errorf("'refname' is required")
	}
	switch o.RefType {
	case catalog.RefTypeBranch, catalog.RefTypeTag, catalog.RefTypeCommit:
	case "":
		return fmt.Errorf("'reftype' is required")
	default:
		return fmt.Errorf("unknown reftype %q (must be branch, tag, or commit)", o.RefType)
	}
	o.GitDir = absFrom(projectRoot, o.GitDir)
	o.Worktree = absFrom(projectRoot, o.Worktree)
	for k, c := range o.Collectors {
		switch c.Worktree.Create {
		case "", CreateAuto, CreateAlways:
		default:
			return fmt.Errorf("reference %d: worktree.create must be auto or always, got %q", k+1, c.Worktree.Create)
		}
	}
	return nil
}
