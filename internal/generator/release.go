package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/refcollect/internal/logger"
)

const httpTimeout = 5 * time.Minute

// Release is one published generator release.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable release artifact.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

// Version is the tag name without the "-release" suffix.
func (r Release) Version() string {
	return strings.TrimSuffix(r.TagName, "-release")
}

// Client talks to the release listing.
type Client struct {
	httpClient  *http.Client
	releasesURL string
}

// NewClient creates a client for the given releases endpoint.
func NewClient(releasesURL string) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: httpTimeout}, releasesURL)
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(hc *http.Client, releasesURL string) *Client {
	return &Client{httpClient: hc, releasesURL: releasesURL}
}

// Releases lists releases, newest first.
func (c *Client) Releases(ctx context.Context) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releasesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releases: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("releases endpoint returned status %d", resp.StatusCode)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("failed to parse releases: %w", err)
	}
	logger.WithComponent("generator").Debug("listed releases", slog.Int("count", len(releases)))
	return releases, nil
}

// AssetSuffix is the binary archive suffix for goos.
func AssetSuffix(goos string) string {
	if goos == "windows" {
		return "win64.7z"
	}
	return "Linux.tar.gz"
}

// SelectRelease returns the first release carrying a binary for goos and the
// asset download URL.
func SelectRelease(releases []Release, goos string) (Release, string, error) {
	suffix := AssetSuffix(goos)
	log := logger.WithComponent("generator")
	for _, r := range releases {
		for _, a := range r.Assets {
			if strings.HasSuffix(a.URL, suffix) {
				return r, a.URL, nil
			}
		}
		log.Warn("release has no binaries for platform", slog.String("tag", r.TagName), slog.String("goos", goos))
	}
	return Release{}, "", fmt.Errorf("could not find generator binaries for %s", goos)
}

// Download writes url to path.
func (c *Client) Download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s (status %d)", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
