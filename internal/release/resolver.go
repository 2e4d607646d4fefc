package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// userAgent is sent on every request to the distribution root.
	userAgent = "relayup/1.0"
	// maxRedirects caps redirect chains when talking to the root.
	maxRedirects = 10
	// metadataTimeout bounds the version and manifest requests. Binary
	// downloads get a longer budget in the Fetcher.
	metadataTimeout = 30 * time.Second
	// maxMetadataBytes caps how much of a version or manifest response
	// is read. Both are tiny in practice.
	maxMetadataBytes = 1 << 20
)

// Resolver resolves the release version and manifest, trying the remote
// distribution root first and the local mirror directory second. Each
// source gets exactly one attempt.
type Resolver struct {
	client   *http.Client
	root     string
	localDir string
}

// NewResolver creates a resolver for the given distribution root and
// local mirror directory. An empty root selects the default endpoint.
func NewResolver(root, localDir string) *Resolver {
	if root == "" {
		root = DefaultDistributionRoot
	}
	return &Resolver{
		client: &http.Client{
			Timeout: metadataTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		root:     strings.TrimRight(root, "/"),
		localDir: localDir,
	}
}

// Root returns the distribution root the resolver queries.
func (r *Resolver) Root() string {
	return r.root
}

// ResolveVersion determines the release version to install. The remote
// `latest` file is consulted first; if that fails for any reason, the
// local mirror's copy is used. Failure of both is fatal.
func (r *Resolver) ResolveVersion(ctx context.Context) (string, Source, error) {
	body, remoteErr := r.get(ctx, r.root+"/latest")
	if remoteErr == nil {
		version := strings.TrimSpace(string(body))
		if version != "" {
			return version, SourceRemote, nil
		}
		remoteErr = fmt.Errorf("remote latest file is empty")
	}

	local, localErr := os.ReadFile(filepath.Join(r.localDir, "latest"))
	if localErr == nil {
		version := strings.TrimSpace(string(local))
		if version != "" {
			return version, SourceLocalFallback, nil
		}
		localErr = fmt.Errorf("local latest file is empty")
	}

	return "", 0, fmt.Errorf("%w (remote: %v; local: %v)", ErrNoVersion, remoteErr, localErr)
}

// ResolveManifest fetches and parses the manifest for a version. The
// remote manifest is tried first; a transport or status failure falls
// back to the local mirror. A manifest that downloads but does not
// parse is fatal, whichever source produced it.
func (r *Resolver) ResolveManifest(ctx context.Context, version string) (*Manifest, Source, error) {
	url := fmt.Sprintf("%s/%s/manifest.json", r.root, version)
	body, remoteErr := r.get(ctx, url)
	if remoteErr == nil {
		manifest, err := parseManifest(body)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing remote manifest: %w", err)
		}
		return manifest, SourceRemote, nil
	}

	localPath := filepath.Join(r.localDir, version, "manifest.json")
	local, localErr := os.ReadFile(localPath)
	if localErr != nil {
		return nil, 0, fmt.Errorf("%w (remote: %v; local: %v)", ErrNoManifest, remoteErr, localErr)
	}

	manifest, err := parseManifest(local)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing local manifest %s: %w", localPath, err)
	}
	return manifest, SourceLocalFallback, nil
}

// get performs a single GET against the distribution root and returns
// the response body. Any non-2xx status is an error.
func (r *Resolver) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return body, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if len(manifest.Platforms) == 0 {
		return nil, fmt.Errorf("manifest lists no platforms")
	}
	return &manifest, nil
}
