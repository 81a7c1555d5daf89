// Package hub provides a pure Go client for downloading model weights.
//
// The package implements the three download helpers the build pipeline is
// composed of: single-file downloads from a Hugging Face repository,
// filtered repository snapshot downloads, and plain URL downloads. It talks
// directly to the hub's HTTP API without Python dependencies or external
// binaries.
//
// Every helper follows the same cache-and-link discipline: the artifact is
// downloaded into a shared cache directory (skipped when already cached,
// unless forced) and a symbolic link is created at the artifact's expected
// location inside the application's model directory tree. There are no
// retries, checksums, or partial-download recovery: any failure aborts the
// surrounding build.
//
// Example usage:
//
//	client := hub.NewClient()
//	path, err := client.DownloadFile(ctx, hub.FileRequest{
//	    Repo:     "comfyanonymous/flux_text_encoders",
//	    File:     "clip_l.safetensors",
//	    CacheDir: "/cache",
//	    SaveDir:  "/root/comfy/ComfyUI/models/text_encoders",
//	})
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the default Hugging Face Hub endpoint.
	DefaultEndpoint = "https://huggingface.co"

	// DefaultUserAgent is the user agent string for HTTP requests.
	DefaultUserAgent = "comfydock/1.0 (Go)"

	// DefaultRevision is the repository revision downloads resolve against.
	DefaultRevision = "main"
)

// Client downloads model artifacts from the Hugging Face Hub and plain URLs.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the hub endpoint. Used by tests and mirrors.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new hub client with default settings.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 0, // No timeout for large model downloads
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FileRequest describes a single-file download from a hub repository.
type FileRequest struct {
	// Repo is the hub repository, e.g. "black-forest-labs/FLUX.1-schnell".
	Repo string

	// File is the path of the file inside the repository.
	File string

	// CacheDir is the shared cache directory the file is downloaded into.
	CacheDir string

	// SaveDir is the directory the symbolic link is created in. It must
	// already exist.
	SaveDir string

	// SaveAs is the name of the symbolic link. Defaults to the base name
	// of File.
	SaveAs string

	// Token is an optional bearer token for gated repositories.
	Token string

	// Force bypasses the cache and re-downloads the file.
	Force bool
}

// SnapshotRequest describes a filtered repository snapshot download.
type SnapshotRequest struct {
	// Repo is the hub repository, e.g. "ACE-Step/ACE-Step-v1-3.5B".
	Repo string

	// DirName is the name of the symbolic link created for the snapshot
	// directory.
	DirName string

	// CacheDir is the shared cache directory the snapshot is downloaded
	// into.
	CacheDir string

	// SaveDir is the directory the symbolic link is created in. It must
	// already exist.
	SaveDir string

	// AllowPatterns restricts the snapshot to files matching any pattern.
	// Empty means all files are downloaded.
	AllowPatterns []string

	// IgnorePatterns excludes files matching any pattern.
	IgnorePatterns []string

	// Token is an optional bearer token for gated repositories.
	Token string

	// Force bypasses the cache and re-downloads every file.
	Force bool
}

// URLRequest describes a plain HTTP download.
type URLRequest struct {
	// URL is the location of the file to download.
	URL string

	// Filename is the name the file is cached and linked under.
	Filename string

	// CacheDir is the shared cache directory the file is downloaded into.
	CacheDir string

	// SaveDir is the directory the symbolic link is created in. It must
	// already exist.
	SaveDir string

	// Force bypasses the cache and re-downloads the file.
	Force bool
}

// DownloadFile fetches one named file from a hub repository into the cache
// directory, then creates a symbolic link to it from the model tree.
//
// The cached copy lives at CacheDir/Repo/File. When it already exists the
// download is skipped unless Force is set; the link is (re)validated either
// way.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: The download request
//
// Returns:
//   - The path of the cached file
//   - Error if the remote file does not exist, the fetch fails, or the
//     link cannot be created
func (c *Client) DownloadFile(ctx context.Context, req FileRequest) (string, error) {
	if req.Repo == "" || req.File == "" {
		return "", fmt.Errorf("hub file download requires repo and file")
	}

	cachePath := filepath.Join(req.CacheDir, req.Repo, filepath.FromSlash(req.File))
	fileURL := fmt.Sprintf("%s/%s/resolve/%s/%s",
		c.endpoint, req.Repo, DefaultRevision, escapePath(req.File))

	if err := c.fetch(ctx, fileURL, cachePath, req.Token, req.Force); err != nil {
		return "", fmt.Errorf("failed to download %s/%s: %w", req.Repo, req.File, err)
	}

	saveAs := req.SaveAs
	if saveAs == "" {
		saveAs = path.Base(req.File)
	}
	if err := createLink(cachePath, filepath.Join(req.SaveDir, saveAs)); err != nil {
		return "", err
	}

	return cachePath, nil
}

// DownloadSnapshot fetches a filtered snapshot of a hub repository into the
// cache directory, then links the snapshot directory from the model tree.
//
// The snapshot lives at CacheDir/Repo with the repository's internal file
// layout preserved. Files already cached are skipped unless Force is set.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: The snapshot request
//
// Returns:
//   - The path of the cached snapshot directory
//   - Error if the repository listing or any file download fails
func (c *Client) DownloadSnapshot(ctx context.Context, req SnapshotRequest) (string, error) {
	if req.Repo == "" || req.DirName == "" {
		return "", fmt.Errorf("hub snapshot download requires repo and dir name")
	}

	files, err := c.listRepoFiles(ctx, req.Repo, req.Token)
	if err != nil {
		return "", fmt.Errorf("failed to list files of %s: %w", req.Repo, err)
	}

	snapshotDir := filepath.Join(req.CacheDir, req.Repo)
	for _, f := range files {
		if !matchesPatterns(f, req.AllowPatterns, req.IgnorePatterns) {
			continue
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		fileURL := fmt.Sprintf("%s/%s/resolve/%s/%s",
			c.endpoint, req.Repo, DefaultRevision, escapePath(f))
		cachePath := filepath.Join(snapshotDir, filepath.FromSlash(f))
		if err := c.fetch(ctx, fileURL, cachePath, req.Token, req.Force); err != nil {
			return "", fmt.Errorf("failed to download %s/%s: %w", req.Repo, f, err)
		}
	}

	if err := createLink(snapshotDir, filepath.Join(req.SaveDir, req.DirName)); err != nil {
		return "", err
	}

	return snapshotDir, nil
}

// DownloadURL fetches an arbitrary URL into the cache directory under the
// chosen filename, then links it from the model tree.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: The URL request
//
// Returns:
//   - The path of the cached file
//   - Error if the fetch fails or the link cannot be created
func (c *Client) DownloadURL(ctx context.Context, req URLRequest) (string, error) {
	if req.URL == "" || req.Filename == "" {
		return "", fmt.Errorf("url download requires url and filename")
	}

	cachePath := filepath.Join(req.CacheDir, req.Filename)
	if err := c.fetch(ctx, req.URL, cachePath, "", req.Force); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", req.Filename, err)
	}

	if err := createLink(cachePath, filepath.Join(req.SaveDir, req.Filename)); err != nil {
		return "", err
	}

	return cachePath, nil
}

// fetch downloads a URL to destPath via a temporary file.
//
// An existing destination is treated as a cache hit and skipped unless
// force is set. The download streams into destPath+".tmp" and is renamed
// into place only on success, so an aborted build never leaves a truncated
// file behind as a cache entry.
func (c *Client) fetch(ctx context.Context, rawURL, destPath, token string, force bool) error {
	if !force {
		if _, err := os.Stat(destPath); err == nil {
			return nil // Cache hit
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("download returned status %d: %s", resp.StatusCode, string(body))
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, destPath)
}

// listRepoFiles queries the hub API for the recursive file listing of a
// repository at the default revision.
func (c *Client) listRepoFiles(ctx context.Context, repo, token string) ([]string, error) {
	listURL := fmt.Sprintf("%s/api/models/%s/tree/%s?recursive=true",
		c.endpoint, repo, DefaultRevision)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("listing returned status %d: %s", resp.StatusCode, string(body))
	}

	var entries []struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		files = append(files, e.Path)
	}

	return files, nil
}

// escapePath escapes each segment of a repository file path, keeping the
// path separators intact.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// matchesPatterns applies snapshot filtering: a file is downloaded when it
// matches at least one allow pattern (or no allow patterns are given) and
// matches no ignore pattern. Patterns are shell globs matched against both
// the full repository path and its base name.
func matchesPatterns(file string, allow, ignore []string) bool {
	matches := func(pattern string) bool {
		if ok, _ := path.Match(pattern, file); ok {
			return true
		}
		ok, _ := path.Match(pattern, path.Base(file))
		return ok
	}

	for _, p := range ignore {
		if matches(p) {
			return false
		}
	}

	if len(allow) == 0 {
		return true
	}
	for _, p := range allow {
		if matches(p) {
			return true
		}
	}
	return false
}
