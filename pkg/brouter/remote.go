package brouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 256 << 20

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second
)

// RemoteBackend talks to a brouter server over HTTP.
type RemoteBackend struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *zap.Logger
}

type RemoteOption func(*RemoteBackend)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(b *RemoteBackend) {
		b.httpClient = c
	}
}

func NewRemoteBackend(baseURL string, log *zap.Logger, opts ...RemoteOption) (*RemoteBackend, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("brouter: parse server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("brouter: server url %q must be http or https", baseURL)
	}

	b := &RemoteBackend{
		baseURL: u,
		log:     log,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        httpMaxIdleConns,
				MaxIdleConnsPerHost: httpMaxIdleConns,
				IdleConnTimeout:     httpIdleConnTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *RemoteBackend) Name() string {
	return "remote"
}

func (b *RemoteBackend) BaseURL() string {
	return b.baseURL.String()
}

// Fetch performs GET {base}/brouter?lonlats=...&profile=...
// Transport failures are util.ErrNetwork (util.ErrRemoteTimeout when the
// context deadline hit), non-2xx replies util.ErrRemote carrying a *util.StatusError.
func (b *RemoteBackend) Fetch(ctx context.Context, req *RouteRequest) ([]byte, error) {
	u := b.baseURL.JoinPath("brouter")
	u.RawQuery = req.Query().Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInvalidRequest, "build request")
	}

	b.log.Debug("requesting route from brouter server", zap.String("url", u.String()))
	return b.do(ctx, httpReq)
}

type uploadProfileResponse struct {
	ProfileID string `json:"profileid"`
	Error     string `json:"error"`
}

// UploadProfile posts a custom profile to {base}/brouter/profile.
func (b *RemoteBackend) UploadProfile(ctx context.Context, data []byte) (string, error) {
	u := b.baseURL.JoinPath("brouter", "profile")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return "", util.WrapErrorf(err, util.ErrInvalidRequest, "build profile upload request")
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	body, err := b.do(ctx, httpReq)
	if err != nil {
		return "", err
	}

	var resp uploadProfileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", util.WrapErrorf(err, util.ErrMalformedResponse, "decode profile upload reply %q", util.Excerpt(body, excerptLen))
	}
	if resp.Error != "" {
		return "", util.NewErrorf(util.ErrProfileUpload, "brouter rejected profile: %s", resp.Error)
	}
	if resp.ProfileID == "" {
		return "", util.NewErrorf(util.ErrMalformedResponse, "profile upload reply without profileid")
	}
	return resp.ProfileID, nil
}

func (b *RemoteBackend) do(ctx context.Context, httpReq *http.Request) ([]byte, error) {
	start := time.Now()
	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, b.transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, b.transportError(ctx, err)
	}

	b.log.Debug("brouter server replied", zap.Int("status", httpResp.StatusCode),
		zap.Int("bytes", len(body)), zap.Duration("elapsed", time.Since(start)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, util.WrapErrorf(&util.StatusError{StatusCode: httpResp.StatusCode, Body: string(body)},
			util.ErrRemote, "brouter server %s rejected request", b.baseURL.Host)
	}
	return body, nil
}

func (b *RemoteBackend) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return util.WrapErrorf(err, util.ErrRemoteTimeout, "brouter server %s timed out", b.baseURL.Host)
	}
	return util.WrapErrorf(err, util.ErrNetwork, "could not reach brouter server %s", b.baseURL.Host)
}
