package gamenight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	gotils_strconv "github.com/savsgio/gotils/strconv"
)

const (
	contentTypeJSON = "application/json"
	defaultFileType = "application/octet-stream"

	// Default first retry delay. Later delays grow exponentially until the
	// retry budget is spent.
	DefaultRetryInterval = 250 * time.Millisecond
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// HTTPClient sends requests to the discord REST API. Every request is paced
// by the RateLimiter and 429 responses are retried within RetryBudget.
type HTTPClient struct {
	Logger zerolog.Logger

	HTTP        *http.Client
	RateLimiter *RateLimiter

	BaseURL       string
	RetryBudget   time.Duration
	RetryInterval time.Duration
}

// NewHTTPClient creates a client that authenticates every request with token.
func NewHTTPClient(logger zerolog.Logger, token string, configuration RESTConfiguration, rateLimiter *RateLimiter) *HTTPClient {
	return &HTTPClient{
		Logger: logger.With().Str("component", "rest").Logger(),
		HTTP: &http.Client{
			Timeout: configuration.Timeout,
			Transport: &authTransport{
				authorization: "Bot " + token,
				userAgent:     configuration.UserAgent,
				transport:     http.DefaultTransport,
			},
		},
		RateLimiter:   rateLimiter,
		BaseURL:       strings.TrimSuffix(configuration.BaseURL, "/"),
		RetryBudget:   configuration.RetryBudget,
		RetryInterval: DefaultRetryInterval,
	}
}

type authTransport struct {
	transport     http.RoundTripper
	authorization string
	userAgent     string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	authReq := req.Clone(req.Context())

	authReq.Header.Set("Authorization", t.authorization)

	if t.userAgent != "" {
		authReq.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.transport.RoundTrip(authReq)
	if err != nil {
		return nil, fmt.Errorf("failed to round trip: %w", err)
	}

	return resp, nil
}

// Request sends body to route and decodes the response into out. Files turn
// the request into a multipart upload with body as payload_json. A nil out or
// a 204 response skips decoding.
func (c *HTTPClient) Request(ctx context.Context, route Route, body any, files []discord.File, out any) error {
	payload, contentType, err := encodeBody(body, files)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", route.Name, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.RetryInterval
	policy.MaxElapsedTime = c.RetryBudget

	deadline := time.Now().Add(c.RetryBudget)

	var lastErr error

	attempt := func() error {
		// A retry that would wait on the bucket past the budget gives up now.
		if lastErr != nil && c.RetryBudget > 0 &&
			time.Now().Add(c.RateLimiter.Delay(route.Bucket)).After(deadline) {
			return backoff.Permanent(lastErr)
		}

		err := c.do(ctx, route, payload, contentType, out)
		if err != nil && !isRateLimited(err) {
			return backoff.Permanent(err)
		}

		lastErr = err

		return err
	}

	notify := func(err error, wait time.Duration) {
		RestMetrics.Retries.WithLabelValues(route.Name).Inc()

		// Reactions hit their limit constantly during games.
		if route.IsCreateReaction() && isRateLimited(err) {
			return
		}

		c.Logger.Warn().
			Err(err).
			Str("route", route.Name).
			Dur("wait", wait).
			Msg("Retrying request")
	}

	return backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), notify)
}

func (c *HTTPClient) do(ctx context.Context, route Route, payload []byte, contentType string, out any) error {
	if err := c.RateLimiter.Wait(ctx, route.Bucket); err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, c.BaseURL+route.Path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, route.Method, route.Name, err)
	}

	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)

	headers := resp.Header
	if resp.StatusCode == http.StatusTooManyRequests && headers.Get(HeaderRateLimitRemaining) == "" {
		headers = headers.Clone()
		headers.Set(HeaderRateLimitRemaining, "0")
	}

	c.RateLimiter.Record(route.Bucket, headers)

	RestMetrics.Requests.WithLabelValues(route.Name, strconv.Itoa(resp.StatusCode)).Inc()
	RestMetrics.RequestDuration.WithLabelValues(route.Name).Observe(time.Since(start).Seconds())

	if readErr != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, route.Method, route.Name, readErr)
	}

	c.Logger.Trace().
		Str("route", route.Name).
		Int("status", resp.StatusCode).
		Str("body", gotils_strconv.B2S(respBody)).
		Msg("Received response")

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(respBody) == 0 {
			return nil
		}

		if err := gamejson.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrDecode, route.Method, route.Name, err)
		}

		return nil
	}

	if restErr := discord.NewRestError(req, resp, respBody); restErr != nil {
		return restErr
	}

	return &StatusError{
		Method:     route.Method,
		Route:      route.Name,
		Body:       respBody,
		StatusCode: resp.StatusCode,
	}
}

// StatusCode returns the HTTP status carried by a REST error, or 0.
func StatusCode(err error) int {
	var restErr *discord.RestError
	if errors.As(err, &restErr) {
		return restErr.StatusCode
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}

func isRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

func encodeBody(body any, files []discord.File) (payload []byte, contentType string, err error) {
	if len(files) == 0 {
		if body == nil {
			return nil, "", nil
		}

		payload, err = gamejson.Marshal(body)
		if err != nil {
			return nil, "", err
		}

		return payload, contentTypeJSON, nil
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	if body != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="payload_json"`)
		header.Set("Content-Type", contentTypeJSON)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}

		if err = gamejson.MarshalToWriter(part, body); err != nil {
			return nil, "", err
		}
	}

	for i, file := range files {
		fileType := file.ContentType
		if fileType == "" {
			fileType = defaultFileType
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[%d]"; filename="%s"`, i, quoteEscaper.Replace(file.Name)))
		header.Set("Content-Type", fileType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}

		if _, err = io.Copy(part, file.Reader); err != nil {
			return nil, "", fmt.Errorf("failed to copy %s: %w", file.Name, err)
		}
	}

	if err = writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
