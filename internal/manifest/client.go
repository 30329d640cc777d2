package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/walletboot/internal/config"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/retry"
	"git.home.luguber.info/inful/walletboot/internal/version"
)

// maxBodyBytes bounds how much of a manifest response is decoded.
const maxBodyBytes = 1 << 20

// Client fetches manifests over HTTP. It implements VersionSource and MigrationSource.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	versionsPath  string
	migrationPath string
	policy        retry.Policy
	userAgent     string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPolicy replaces the retry policy derived from configuration.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient builds a Client from the manifest configuration section.
func NewClient(cfg config.ManifestConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultManifestTimeout
	}
	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       cfg.BaseURL,
		versionsPath:  cfg.VersionsPath,
		migrationPath: cfg.MigrationPath,
		policy:        retry.FromConfig(cfg.Retry),
		userAgent:     "walletboot/" + version.Version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchVersions retrieves the version manifest.
func (c *Client) FetchVersions(ctx context.Context) (VersionManifest, error) {
	var m VersionManifest
	if err := c.fetch(ctx, c.versionsPath, &m); err != nil {
		return VersionManifest{}, err
	}
	return m, nil
}

// FetchMigrationStatus retrieves the migration tool status.
func (c *Client) FetchMigrationStatus(ctx context.Context) (MigrationStatus, error) {
	var s MigrationStatus
	if err := c.fetch(ctx, c.migrationPath, &s); err != nil {
		return MigrationStatus{}, err
	}
	return s, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	target, err := c.resolve(endpoint)
	if err != nil {
		return err
	}

	start := time.Now()
	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		return c.get(ctx, target, out)
	})
	slog.Debug("Fetched manifest",
		logfields.URL(target),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
		logfields.Error(err))
	return err
}

// resolve joins endpoint onto the base URL, preserving any base path and
// query string in endpoint.
func (c *Client) resolve(endpoint string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", ErrNotConfigured.Wrap(err).WithContext("base_url", c.baseURL)
	}
	clean := strings.TrimPrefix(endpoint, "/")
	if idx := strings.Index(clean, "?"); idx != -1 {
		u.RawQuery = clean[idx+1:]
		clean = clean[:idx]
	}
	u.Path = path.Join("/", strings.TrimSuffix(u.Path, "/"), clean)
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return ErrRejected.Wrap(err).WithContext("url", target)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrUnavailable.Wrap(err).WithContext("url", target)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		cause := fmt.Errorf("%s: %s", resp.Status, strings.ReplaceAll(string(limited), "\n", " "))
		sentinel := ErrRejected
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			sentinel = ErrUnavailable
		}
		return sentinel.Wrap(cause).
			WithContext("url", target).
			WithContext("code", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return ErrMalformed.Wrap(err).WithContext("url", target)
	}
	return nil
}
