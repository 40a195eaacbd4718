package transport

import (
	"appero/internal/providers"
	"appero/internal/structures"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	EndpointExperiences = "experiences"
	EndpointFeedback    = "feedback"

	DefaultTimeout = 10 * time.Second

	maxResponseSize = 1 << 20
)

// SenderInterface is what the sync engine needs from the backend client.
type SenderInterface interface {
	Send(ctx context.Context, endpoint string, fields any, method, authToken string) ([]byte, error)
}

// Client sends JSON requests to the Appero API with bearer authorization.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	timeout := conf.Api.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := "appero-go"
	if conf.Api.BuildVersion != "" {
		ua += "/" + conf.Api.BuildVersion
	}
	return &Client{
		baseURL:   strings.TrimRight(conf.Api.BaseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		userAgent: ua,
		logger:    logger,
		metrics:   metrics,
	}
}

// Send posts fields as JSON to endpoint and returns the raw response body on
// a 200..204 answer. An empty 2xx body yields ErrNoData.
func (c *Client) Send(ctx context.Context, endpoint string, fields any, method, authToken string) ([]byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveTransportDuration(endpoint, 0, time.Since(start))
		if isTimeout(err) {
			c.logger.Warnf(providers.TypeNet, "%s %s timed out after %s", req.Method, endpoint, time.Since(start))
			return nil, ErrTimeout
		}
		c.logger.Warnf(providers.TypeNet, "%s %s failed: %s", req.Method, endpoint, err)
		return nil, fmt.Errorf("%w: %s", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.ObserveTransportDuration(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %s", ErrNoResponse, err)
	}

	c.logger.Debugf(providers.TypeNet, "%s %s -> %d (%d bytes)", req.Method, endpoint, resp.StatusCode, len(data))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 204:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, ErrNoData
		}
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusUnprocessableEntity:
		var apiErr ServerMessageError
		if json.Unmarshal(data, &apiErr.Body) == nil && (apiErr.Body.Error != "" || apiErr.Body.Message != "") {
			apiErr.StatusCode = resp.StatusCode
			c.logger.Errorf(providers.TypeNet, "%s rejected: %s", endpoint, apiErr.Error())
			return nil, &apiErr
		}
	}
	return nil, &NetworkError{StatusCode: resp.StatusCode}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
