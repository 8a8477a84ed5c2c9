package dispatch

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/config"
)

// RequiredBinaries lists the executables a playbook needs on PATH.
func RequiredBinaries(cfg *config.Config) []string {
	needed := make(map[string]bool)
	if len(cfg.Dependencies) > 0 {
		needed["git"] = true
	}
	if cfg.Generator.Path == "" {
		if runtime.GOOS == "windows" {
			needed["7z"] = true
		} else {
			needed["tar"] = true
		}
	}
	out := make([]string, 0, len(needed))
	for bin := range needed {
		out = append(out, bin)
	}
	sort.Strings(out)
	return out
}

// Preflight checks that the given binaries are available on PATH.
func Preflight(binaries []string) error {
	var missing []string
	for _, bin := range binaries {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
