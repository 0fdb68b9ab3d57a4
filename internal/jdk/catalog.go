package jdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Huy1073hello/jbundle/internal/platform"
)

const (
	// DefaultCatalogURL is the Adoptium v3 API root.
	DefaultCatalogURL = "https://api.adoptium.net/v3"
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "jbundle/1.0"
)

// Catalog resolves runtime releases through the Adoptium assets API.
type Catalog struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewCatalog creates a catalog client for baseURL. A nil client uses http.DefaultClient.
func NewCatalog(baseURL string, client *http.Client) *Catalog {
	if baseURL == "" {
		baseURL = DefaultCatalogURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Catalog{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		userAgent: DefaultUserAgent,
	}
}

// asset mirrors the fields jbundle reads from one /assets/latest entry.
type asset struct {
	Binary struct {
		Package struct {
			Link          string `json:"link"`
			Checksum      string `json:"checksum"`
			Size          int64  `json:"size"`
			Name          string `json:"name"`
			SignatureLink string `json:"signature_link"`
		} `json:"package"`
	} `json:"binary"`
	ReleaseName string `json:"release_name"`
	Version     struct {
		Major int `json:"major"`
	} `json:"version"`
}

// ReleaseURL returns the query URL for (version, target).
func (c *Catalog) ReleaseURL(version int, target platform.Target) string {
	q := url.Values{}
	q.Set("architecture", target.AdoptiumArch())
	q.Set("image_type", "jdk")
	q.Set("os", target.AdoptiumOS())
	q.Set("vendor", "eclipse")
	return fmt.Sprintf("%s/assets/latest/%d/hotspot?%s", c.baseURL, version, q.Encode())
}

// Latest returns the newest HotSpot JDK build for version on target.
// It never substitutes a different major version; failures are not retried.
func (c *Catalog) Latest(ctx context.Context, version int, target platform.Target) (*Release, error) {
	if version <= 0 {
		return nil, fmt.Errorf("%w: invalid runtime version %d", ErrNoMatchingRelease, version)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleaseURL(version, target), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog request: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: JDK %d for %s", ErrNoMatchingRelease, version, target)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: catalog returned status %d: %s", ErrDownload, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var assets []asset
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return nil, fmt.Errorf("%w: parse catalog response: %w", ErrDownload, err)
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: JDK %d for %s", ErrNoMatchingRelease, version, target)
	}

	first := assets[0]
	if first.Version.Major != 0 && first.Version.Major != version {
		return nil, fmt.Errorf("%w: catalog offered JDK %d when %d was requested", ErrNoMatchingRelease, first.Version.Major, version)
	}

	pkg := first.Binary.Package
	if pkg.Link == "" || pkg.Checksum == "" || pkg.Name == "" {
		return nil, fmt.Errorf("%w: incomplete release descriptor for JDK %d on %s", ErrDownload, version, target)
	}

	return &Release{
		DownloadURL:  pkg.Link,
		Checksum:     strings.ToLower(pkg.Checksum),
		Size:         pkg.Size,
		FileName:     pkg.Name,
		SignatureURL: pkg.SignatureLink,
		Name:         first.ReleaseName,
	}, nil
}
