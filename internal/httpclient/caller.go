package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/scrub"
)

// DefaultBaseURL is the public Bale Bot API endpoint.
const DefaultBaseURL = "https://tapi.bale.ai"

// DefaultMaxResponseSize caps how much of a response body is read.
const DefaultMaxResponseSize = 10 << 20 // 10MB

// Envelope is the response format shared by every Bot API method.
type Envelope struct {
	OK          bool                     `json:"ok"`
	Result      json.RawMessage          `json:"result,omitempty"`
	ErrorCode   int                      `json:"error_code,omitempty"`
	Description string                   `json:"description,omitempty"`
	Parameters  *bale.ResponseParameters `json:"parameters,omitempty"`
}

// Caller performs Bot API method calls for one bot token.
// It is safe for concurrent use.
type Caller struct {
	client          *http.Client
	baseURL         string
	token           bale.SecretToken
	maxResponseSize int64
}

// NewCaller creates a Caller. A nil client uses NewDefault and an empty
// baseURL uses DefaultBaseURL.
func NewCaller(client *http.Client, baseURL string, token bale.SecretToken) *Caller {
	if client == nil {
		client = NewDefault()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Caller{
		client:          client,
		baseURL:         strings.TrimRight(baseURL, "/"),
		token:           token,
		maxResponseSize: DefaultMaxResponseSize,
	}
}

// SetMaxResponseSize changes the response body cap. Values <= 0 are ignored.
func (c *Caller) SetMaxResponseSize(n int64) {
	if n > 0 {
		c.maxResponseSize = n
	}
}

// Client returns the underlying HTTP client.
func (c *Caller) Client() *http.Client { return c.client }

// Token returns the bot token.
func (c *Caller) Token() bale.SecretToken { return c.token }

// URL returns the endpoint of a Bot API method.
func (c *Caller) URL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token.Value(), method)
}

// FileURL returns the download URL of a file path returned by getFile.
func (c *Caller) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token.Value(), filePath)
}

// CallJSON posts params as JSON and decodes the result into out.
// A nil out discards the result.
func (c *Caller) CallJSON(ctx context.Context, method string, params, out any) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("balego: %s: marshal request: %w", method, err)
	}
	raw, err := c.Do(ctx, method, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return Decode(method, raw, out)
}

// Do posts body to method and returns the raw result of a successful call.
// Unsuccessful calls return a *bale.APIError. Transport failures wrap
// bale.ErrTimeout or bale.ErrNetwork, except cancellation which unwraps to
// context.Canceled.
func (c *Caller) Do(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(method), body)
	if err != nil {
		return nil, fmt.Errorf("balego: %s: create request: %w", method, scrub.TokenFromError(err, c.token))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, c.transportError(method, err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, fmt.Errorf("balego: %s: %w", method, bale.ErrResponseTooLarge)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("balego: %s: decode response (status %d): %w", method, resp.StatusCode, err)
	}

	if !env.OK {
		code := env.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		apiErr := bale.NewAPIError(method, code, env.Description)
		apiErr.Parameters = env.Parameters
		apiErr.RetryAfter = retryAfter(env.Parameters, resp.Header)
		return nil, apiErr
	}

	return env.Result, nil
}

// Decode unmarshals a raw result into out. A nil out is a no-op.
func Decode(method string, raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("balego: %s: decode result: %w", method, err)
	}
	return nil
}

func (c *Caller) transportError(method string, err error) error {
	err = scrub.TokenFromError(err, c.token)
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("balego: %s: %w", method, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", bale.ErrTimeout, method, err)
	}
	return fmt.Errorf("%w: %s: %w", bale.ErrNetwork, method, err)
}

// retryAfter prefers the JSON body and falls back to the Retry-After header.
func retryAfter(params *bale.ResponseParameters, header http.Header) time.Duration {
	if params != nil && params.RetryAfter > 0 {
		return time.Duration(params.RetryAfter) * time.Second
	}
	if v := header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
