package assets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fetcher retrieves asset bytes for a URL reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// maxAssetBytes bounds a single fetched asset.
const maxAssetBytes = 64 << 20

// HTTPFetcher resolves data: URLs locally, fetches same-origin references
// directly and routes everything else through the local proxy chain, which
// exists specifically to sidestep cross-origin failures.
type HTTPFetcher struct {
	client    *http.Client
	origins   []string // origins allowed for direct fetch
	proxies   []string // proxy endpoints tried in order
	authToken string
	log       *zap.Logger
}

// FetchOptions configures an HTTPFetcher.
type FetchOptions struct {
	Timeout        time.Duration
	DirectOrigins  []string
	ProxyEndpoints []string
	AuthToken      string
}

// DefaultProxyEndpoints are the local proxy locations tried in order.
var DefaultProxyEndpoints = []string{
	"http://localhost:46789/api/proxy",
	"http://127.0.0.1:46789/api/proxy",
}

// NewHTTPFetcher creates a fetcher; zero options get sensible defaults.
func NewHTTPFetcher(opts FetchOptions, log *zap.Logger) *HTTPFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if len(opts.ProxyEndpoints) == 0 {
		opts.ProxyEndpoints = DefaultProxyEndpoints
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		origins:   opts.DirectOrigins,
		proxies:   opts.ProxyEndpoints,
		authToken: opts.AuthToken,
		log:       log.Named("fetch"),
	}
}

// Fetch retrieves the bytes behind ref.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case f.directAllowed(ref):
		return f.get(ctx, ref)
	default:
		return f.viaProxy(ctx, ref)
	}
}

// directAllowed reports whether ref may be fetched without the proxy.
func (f *HTTPFetcher) directAllowed(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range f.origins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func (f *HTTPFetcher) get(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s for %q", resp.Status, ref)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("asset %q exceeds size limit", ref)
	}
	return data, nil
}

// proxyEnvelope is the normalized proxy response: payload travels base64
// encoded and is decoded back to raw bytes here.
type proxyEnvelope struct {
	OK    bool   `json:"ok"`
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// viaProxy walks the configured proxy endpoints in order until one answers.
func (f *HTTPFetcher) viaProxy(ctx context.Context, ref string) ([]byte, error) {
	var lastErr error
	for _, endpoint := range f.proxies {
		data, err := f.proxyOnce(ctx, endpoint, ref)
		if err == nil {
			return data, nil
		}
		lastErr = err
		f.log.Debug("Proxy endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all proxy endpoints failed for %q: %w", ref, lastErr)
}

func (f *HTTPFetcher) proxyOnce(ctx context.Context, endpoint, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?url="+url.QueryEscape(ref), nil)
	if err != nil {
		return nil, err
	}
	if f.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.authToken)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy status %s", resp.Status)
	}
	var env proxyEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAssetBytes+1)).Decode(&env); err != nil {
		return nil, fmt.Errorf("bad proxy envelope: %w", err)
	}
	if !env.OK {
		return nil, fmt.Errorf("proxy refused: %s", env.Error)
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("bad proxy payload: %w", err)
	}
	return data, nil
}

// decodeDataURL extracts the payload of a data: URL.
func decodeDataURL(ref string) ([]byte, error) {
	idx := strings.IndexByte(ref, ',')
	if idx < 0 {
		return nil, fmt.Errorf("malformed data url")
	}
	meta, payload := ref[5:idx], ref[idx+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("bad base64 data url: %w", err)
		}
		return data, nil
	}
	unescaped, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("bad data url payload: %w", err)
	}
	return []byte(unescaped), nil
}

// DataURLMime returns the declared mime of a data: URL, if any.
func DataURLMime(ref string) string {
	if !strings.HasPrefix(ref, "data:") {
		return ""
	}
	idx := strings.IndexByte(ref, ',')
	if idx < 0 {
		return ""
	}
	meta := strings.TrimSuffix(ref[5:idx], ";base64")
	return meta
}
