package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with refcollect",
		Content: topicQuickstart,
	},
	{
		Name:    "playbook",
		Title:   "Playbook Reference",
		Summary: "Playbook schema, fields, and defaults",
		Content: topicPlaybook,
	},
	{
		Name:    "worktrees",
		Title:   "Managed Worktrees",
		Summary: "How origins map to worktree directories and how they are checked out",
		Content: topicWorktrees,
	},
	{
		Name:    "retention",
		Title:   "Worktree Retention",
		Summary: "keep: true, false and until:<event>",
		Content: topicRetention,
	},
	{
		Name:    "variables",
		Title:   "Variables and Environment",
		Summary: "Built-in vars, custom vars, and what child processes see",
		Content: topicVariables,
	},
	{
		Name:    "generator",
		Title:   "Reference Generator",
		Summary: "How the generator is found, downloaded, and invoked",
		Content: topicGenerator,
	},
	{
		Name:    "cache",
		Title:   "Cache Directory",
		Summary: "Structure of the cache directory and what gets saved",
		Content: topicCache,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    cd your-project
    refcollect init

   This creates .refcollect/playbook.yaml with one example component.

2. Edit .refcollect/playbook.yaml. Each component version lists the
   origins its reference pages are generated from. An origin is a
   repository, a ref and a start path.

3. Check the environment:

    refcollect doctor

4. Collect the reference:

    refcollect run

   Every origin gets a worktree, the generator runs in it, and the
   generated pages are written to the catalog.

5. Inspect the last run:

    refcollect status
    refcollect worktrees list
`

const topicPlaybook = `Playbook Reference
==================

The playbook lives at .refcollect/playbook.yaml. refcollect finds it by
walking up from the current directory.

Top-level fields:

  name               Required. Name of the documentation project.
  cache-dir          Cache directory. Default: ${PROJECT_ROOT}/.cache/refcollect
  create-worktrees   auto (default) or always. With auto, an origin that
                     has its own working copy is used in place.
  keep-worktrees     Default retention for managed worktrees (false).
  quiet              Do not echo generator output to the terminal.
  vars               Custom variables, expanded in declaration order.
  dependencies       Libraries cloned before the generator runs.
  generator          path: explicit executable (skips the download)
                     releases-url: where releases are listed
                     args: extra generator arguments
  components         Component versions and their origins.

Origin fields:

  url          Repository URL (identity of the origin).
  gitdir       Git directory of the local clone. Required.
  reftype      branch, tag or commit. Required.
  refname      Branch, tag or commit id. Required.
  remote       Remote holding tracking branches. Default: origin
  worktree     Working copy of the origin, if it has one.
  start-path   Directory of the component inside the repository.
  reference    One collector mapping or a list of them.

Collector fields:

  config       Generator config. Default candidates: mrdocs.yml,
               docs/mrdocs.yml, doc/mrdocs.yml
  worktree     {create: always, checkout: bool, keep: <retention>}
               worktree: false is short for {create: always}.

Only the first collector of an origin decides how its worktree is
managed.
`

const topicWorktrees = `Managed Worktrees
=================

A managed worktree is a directory under <cache-dir>/worktrees that
shares the object database of the origin's repository. Its .git
directory holds only an index, a HEAD file and a commondir file
pointing at the shared git directory.

Directory names:

  A named clone such as url-2c1a9b.git becomes "url-2c1a9b". Any
  other repository becomes "<basename>-<sha1 of the normalized URL>".
  URLs are lower-cased, backslashes become slashes, and a trailing
  ".git" or slash is dropped, so equivalent spellings share a name.
  Retained worktrees carry the ref name: "url@develop-<sha1>".

Sharing:

  Origins that map to the same directory share one worktree entry.
  The worktree is checked out once per ref; a second origin on the
  same ref reuses it.

Checkout:

  The shared repository's index is moved aside while the worktree is
  checked out, and restored afterwards even when the checkout fails.
  The worktree keeps its own index so the next checkout is
  incremental. Branches of origins without a working copy are reset
  to their remote-tracking branch.
`

const topicRetention = `Worktree Retention
==================

Each managed worktree has a retention policy, set with the keep field
of a collector's worktree options or with keep-worktrees:

  false            Removed as soon as the reference has been collected.
  true             Never removed. The directory is reused by later runs.
  until:<event>    Removed when <event> fires.

Events:

  contentAggregated    The playbook has been loaded.
  referenceGenerated   Every origin has been processed.
  catalogWritten       catalog.json has been written.
  contextClosed        The run is shutting down. Alias: exit

Any other name is a user event; fire it at the end of a run with:

    refcollect run --emit <name>

Removal is idempotent: a worktree removed twice, or one whose
directory is already gone, is not an error. Worktrees whose event
never fires are left on disk; list and clean them with:

    refcollect worktrees list
    refcollect worktrees prune
`

const topicVariables = `Variables and Environment
=========================

Built-in variables (available in vars and generator.path):

  $PROJECT_ROOT   Directory containing .refcollect/
  $CACHE_DIR      Resolved cache directory
  $RUN_ID         UUID of the current run
  $WORKTREE       Worktree the generator runs in
  $OUTPUT_DIR     Output directory of the current generator run
  $COMPONENT      Component name
  $VERSION        Component version

Custom variables:

  vars:
    BOOST_ROOT: $PROJECT_ROOT/../boost
    INCLUDE: $BOOST_ROOT/include

Later variables may refer to earlier ones. Names must start with a
letter or underscore and may not shadow a built-in.

Child processes receive every variable prefixed with REFCOLLECT_, plus
the compiler paths (CMAKE_CXX_COMPILER, CXX, CMAKE_C_COMPILER, CC),
MRDOCS_ROOT and each dependency's variable. Inherited REFCOLLECT_*
variables are removed first.
`

const topicGenerator = `Reference Generator
===================

With generator.path set, that executable is used as is. Otherwise the
newest release with a binary for the platform is downloaded from
generator.releases-url into <cache-dir>/mrdocs/<os>/<version>. Set
GITHUB_TOKEN to raise the API rate limit.

Archives are unpacked with tar (7z on Windows). A single top-level
directory in the archive is flattened.

The generator runs once per collector, in the worktree:

  mrdocs --config=<config> --output=<dir> --generate=adoc --multipage=true

Output goes to <cache-dir>/reference/<component>/versioned/<version>,
or .../main for unversioned components. Every generated file becomes a
catalog page under modules/reference/pages/.
`

const topicCache = `Cache Directory
===============

  <cache-dir>/
    state.json          Last run: origins, outcomes, worktrees
    timing.json         Per-origin durations
    catalog.json        Collected reference pages
    logs/
      refcollect.log    Structured log (--debug for more detail)
      <c>-<v>-<n>.log   Output of each generator run
    worktrees/          Managed worktrees
    reference/          Generator output
    mrdocs/             Downloaded generator releases
    dependencies/       Cloned dependencies
`
