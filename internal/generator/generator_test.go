package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jorge-barreto/refcollect/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, releases func(base string) []Release) (*httptest.Server, *int) {
	t.Helper()
	downloads := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/releases":
			json.NewEncoder(w).Encode(releases(srv.URL))
		case "/missing.tar.gz":
			http.NotFound(w, r)
		default:
			downloads++
			w.Write([]byte("archive-bytes"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &downloads
}

// tarMock simulates tar extracting an archive with a single top-level directory.
func tarMock(t *testing.T) *dispatch.MockExecutor {
	m := dispatch.NewMockExecutor()
	m.AddPrefixMatch([]string{"tar"}, dispatch.MockResponse{Do: func(c dispatch.Command) error {
		dest := c.Argv[len(c.Argv)-1]
		bin := filepath.Join(dest, "MrDocs-0.8.0-Linux", "bin")
		if err := os.MkdirAll(bin, 0755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(bin, "mrdocs"), []byte("#!/bin/sh\n"), 0755)
	}})
	return m
}

func TestSelectRelease_SkipsReleasesWithoutPlatformAsset(t *testing.T) {
	releases := []Release{
		{TagName: "v0.9.0-release", Assets: []Asset{{URL: "https://x/MrDocs-0.9.0-win64.7z"}}},
		{TagName: "v0.8.0-release", Assets: []Asset{{URL: "https://x/MrDocs-0.8.0-Linux.tar.gz"}}},
	}
	r, url, err := SelectRelease(releases, "linux")
	require.NoError(t, err)
	assert.Equal(t, "v0.8.0", r.Version())
	assert.Equal(t, "https://x/MrDocs-0.8.0-Linux.tar.gz", url)

	r, url, err = SelectRelease(releases, "windows")
	require.NoError(t, err)
	assert.Equal(t, "v0.9.0", r.Version())
	assert.Equal(t, "https://x/MrDocs-0.9.0-win64.7z", url)

	_, _, err = SelectRelease(releases[:1], "linux")
	assert.Error(t, err)
}

func TestClient_ReleasesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := NewClientWithHTTP(srv.Client(), srv.URL).Releases(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestInstall_DownloadsExtractsAndFlattens(t *testing.T) {
	srv, downloads := releaseServer(t, func(base string) []Release {
		return []Release{{TagName: "v0.8.0-release", Assets: []Asset{{URL: base + "/MrDocs-0.8.0-Linux.tar.gz"}}}}
	})
	cache := t.TempDir()
	m := tarMock(t)
	in := &Installer{CacheDir: cache, Client: NewClientWithHTTP(srv.Client(), srv.URL+"/releases"), Exec: m, GOOS: "linux"}

	g, err := in.Install(context.Background())
	require.NoError(t, err)
	root := filepath.Join(cache, "mrdocs", "linux", "v0.8.0")
	assert.Equal(t, root, g.Root)
	assert.Equal(t, filepath.Join(root, "bin", "mrdocs"), g.Exe)
	assert.FileExists(t, g.Exe)
	assert.NoDirExists(t, root+"-temp")
	assert.NoFileExists(t, filepath.Join(cache, "mrdocs", "linux", "MrDocs-0.8.0-Linux.tar.gz"))
	assert.Equal(t, 1, *downloads)
	assert.Equal(t, "tar", m.Calls()[0].Command.Argv[0])

	// Second install finds the cached executable.
	_, err = in.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *downloads)
	assert.Len(t, m.Calls(), 1)
	assert.Equal(t, map[string]string{"MRDOCS_ROOT": root}, g.Env())
}

func TestInstall_MissingExecutableAfterExtract(t *testing.T) {
	srv, _ := releaseServer(t, func(base string) []Release {
		return []Release{{TagName: "v1", Assets: []Asset{{URL: base + "/pkg-Linux.tar.gz"}}}}
	})
	in := &Installer{CacheDir: t.TempDir(), Client: NewClientWithHTTP(srv.Client(), srv.URL+"/releases"), Exec: dispatch.NewMockExecutor(), GOOS: "linux"}
	_, err := in.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find generator executable")
}

func TestInstall_DownloadFailure(t *testing.T) {
	srv, _ := releaseServer(t, func(base string) []Release {
		return []Release{{TagName: "v1", Assets: []Asset{{URL: base + "/missing.tar.gz"}}}}
	})
	in := &Installer{CacheDir: t.TempDir(), Client: NewClientWithHTTP(srv.Client(), srv.URL+"/releases"), Exec: dispatch.NewMockExecutor(), GOOS: "linux"}
	_, err := in.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFromPath(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	exe := filepath.Join(bin, "mrdocs")
	require.NoError(t, os.WriteFile(exe, nil, 0755))

	g, err := FromPath(exe)
	require.NoError(t, err)
	assert.Equal(t, root, g.Root)

	_, err = FromPath(filepath.Join(bin, "nope"))
	assert.Error(t, err)
	_, err = FromPath(bin)
	assert.Error(t, err)
}

func TestRun_Argv(t *testing.T) {
	g := &Generator{Exe: "/opt/mrdocs/bin/mrdocs", Root: "/opt/mrdocs"}
	m := dispatch.NewMockExecutor()
	err := g.Run(context.Background(), m, &dispatch.Environment{}, Invocation{Config: "/wt/mrdocs.yml", OutputDir: "/out", Dir: "/wt"})
	require.NoError(t, err)
	c := m.Calls()[0].Command
	assert.Equal(t, []string{"/opt/mrdocs/bin/mrdocs", "--config=/wt/mrdocs.yml", "--output=/out", "--generate=adoc", "--multipage=true"}, c.Argv)
	assert.Equal(t, "/wt", c.Dir)

	m.AddPrefixMatch([]string{g.Exe}, dispatch.MockResponse{ExitCode: 1})
	err = g.Run(context.Background(), m, nil, Invocation{Config: "c"})
	assert.ErrorContains(t, err, "generating reference for c")
}

func TestArgv_ExtraArgs(t *testing.T) {
	g := &Generator{Exe: "mrdocs", Args: []string{"--log-level=debug", "--concurrency=2"}}
	argv := g.Argv(Invocation{Config: "c.yml", OutputDir: "out"})
	assert.Equal(t, []string{"mrdocs", "--config=c.yml", "--output=out", "--generate=adoc", "--multipage=true", "--log-level=debug", "--concurrency=2"}, argv)
}
