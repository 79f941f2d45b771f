// internal/client/http.go - HTTP tile source implementation
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/apex/log"

	"trip-heatmap/internal"
	"trip-heatmap/internal/config"
	"trip-heatmap/internal/heatmap"
	"trip-heatmap/internal/metrics"
)

// HTTPSource implements the Source interface against the aggregate map
// endpoints, routing each query to the endpoint serving its map kind.
type HTTPSource struct {
	client  *http.Client
	cfg     *config.Config
	config  *config.ServerConfig
	network *config.NetworkConfig
	logger  log.Interface
}

// NewHTTPSource creates an HTTP-backed tile source from configuration
func NewHTTPSource(cfg *config.Config) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Network.MaxIdleConns,
		IdleConnTimeout:     cfg.Network.IdleConnTimeout,
		DisableKeepAlives:   cfg.Network.DisableKeepAlive,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if cfg.Network.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.Network.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &HTTPSource{
		client: &http.Client{
			Timeout:   cfg.Server.Timeout,
			Transport: transport,
		},
		cfg:     cfg,
		config:  &cfg.Server,
		network: &cfg.Network,
		logger:  log.WithField("component", "client"),
	}
}

// Query fetches tiles from the endpoint, retrying transient failures with
// quadratic backoff. Non-2xx statuses and malformed bodies surface as tagged
// network errors, never panics.
func (s *HTTPSource) Query(ctx context.Context, query *heatmap.TileQuery) ([]heatmap.AggregateTile, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, internal.NewError(internal.ErrorCodeTimeout, "query cancelled during backoff", ctx.Err())
			}
		}

		tiles, retryable, err := s.fetch(ctx, query)
		if err == nil {
			return tiles, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}
		s.logger.WithError(err).WithField("attempt", attempt+1).Warn("tile fetch failed")
	}

	return nil, internal.NewError(internal.ErrorCodeNetwork,
		fmt.Sprintf("tile fetch failed after %d attempts", s.config.MaxRetries+1), lastErr)
}

// fetch performs one request cycle and reports whether a failure is worth
// retrying (network errors and 5xx yes, 4xx and decode failures no).
func (s *HTTPSource) fetch(ctx context.Context, query *heatmap.TileQuery) ([]heatmap.AggregateTile, bool, error) {
	start := time.Now()

	req, err := s.buildRequest(ctx, query)
	if err != nil {
		return nil, false, internal.NewError(internal.ErrorCodeValidation, "failed to build tile request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, internal.NewError(internal.ErrorCodeNetwork, "tile request failed", err)
	}
	defer resp.Body.Close()

	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		retryable := resp.StatusCode >= 500
		return nil, retryable, internal.NewError(internal.ErrorCodeNetwork,
			fmt.Sprintf("tile endpoint returned HTTP %d", resp.StatusCode), nil)
	}

	var result heatmap.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, internal.NewError(internal.ErrorCodeProcessing, "failed to decode tile response", err)
	}

	tiles := result.Tiles()
	metrics.TilesReturned.Observe(float64(len(tiles)))
	return tiles, false, nil
}

// buildRequest constructs the endpoint request for a query, targeting the
// endpoint that serves the query's map kind
func (s *HTTPSource) buildRequest(ctx context.Context, query *heatmap.TileQuery) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.EndpointURL(query.Kind), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.URL.RawQuery = query.QueryValues().Encode()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.network.UserAgent)

	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}
	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
