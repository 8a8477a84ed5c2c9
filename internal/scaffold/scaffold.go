package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/go-git/go-git/v5"
	"github.com/jorge-barreto/refcollect/internal/ux"
)

const playbookTemplate = `name: {{printf "%q" .Name}}
cache-dir: ${PROJECT_ROOT}/.cache/refcollect
create-worktrees: auto
keep-worktrees: false

# vars:
#   BOOST_ROOT: ${PROJECT_ROOT}/../boost

# dependencies:
#   - name: boost
#     repo: https://github.com/boostorg/boost.git
#     tag: boost-1.85.0
#     variable: BOOST_SRC_DIR
#     system-env: BOOST_SRC_DIR

generator:
  path: ""

components:
  - name: {{printf "%q" .Name}}
    version: ""
    origins:
      - url: {{printf "%q" .URL}}
        gitdir: .git
        worktree: .
        reftype: branch
        refname: {{printf "%q" .Branch}}
        start-path: {{printf "%q" .StartPath}}
        reference:
          config: mrdocs.yml
          worktree:
            keep: false
`

// Project describes the repository the playbook is written for.
type Project struct {
	Name      string
	URL       string
	Branch    string
	StartPath string
}

// Detect reads the project name, origin URL and current branch from the
// repository in dir, and locates its generator config. Missing information
// gets a default.
func Detect(dir string) Project {
	p := Project{Name: filepath.Base(dir), Branch: "develop"}
	p.StartPath, _ = findStartPath(dir)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return p
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		p.Branch = head.Name().Short()
	}
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		p.URL = remote.Config().URLs[0]
		name := strings.TrimSuffix(filepath.Base(filepath.ToSlash(p.URL)), ".git")
		if name != "" && name != "." && name != "/" {
			p.Name = name
		}
	}
	return p
}

// Init creates a new .refcollect/ directory with an example playbook.
func Init(targetDir string) error {
	dir := filepath.Join(targetDir, ".refcollect")
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf(".refcollect directory already exists in %s", targetDir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating .refcollect: %w", err)
	}

	var b strings.Builder
	tmpl := template.Must(template.New("playbook").Parse(playbookTemplate))
	if err := tmpl.Execute(&b, Detect(targetDir)); err != nil {
		return err
	}
	path := filepath.Join(dir, "playbook.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing playbook.yaml: %w", err)
	}

	fmt.Fprintf(ux.Out, "\n%s%s✓ Initialized .refcollect/ directory%s\n\n", ux.Bold, ux.Green, ux.Reset)
	fmt.Fprintf(ux.Out, "  Created:\n")
	fmt.Fprintf(ux.Out, "    %s.refcollect/playbook.yaml%s  components and their origins\n\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "  Next steps:\n")
	fmt.Fprintf(ux.Out, "    1. Edit %s.refcollect/playbook.yaml%s to list your components\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    2. Run %srefcollect doctor%s to check the environment\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    3. Run %srefcollect run%s to collect the reference\n\n", ux.Cyan, ux.Reset)
	return nil
}
