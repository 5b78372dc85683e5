package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"csfe-soap/internal/common"
	"csfe-soap/internal/config"
	"csfe-soap/internal/consts"

	"github.com/avast/retry-go/v4"
	CharmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// RequestContext is the CSFE header block sent with every request.
type RequestContext struct {
	XMLName   xml.Name `xml:"urn:zimbra context"`
	AuthToken string   `xml:"authToken,omitempty"`
	RequestID string   `xml:"requestId,omitempty"`
}

// Client invokes CSFE operations over HTTP and interprets the responses.
type Client struct {
	endpoint    string
	authToken   string
	attempts    uint
	delay       time.Duration
	httpClient  *http.Client
	interpreter Interpreter
	logger      *CharmLog.Logger
}

func NewClient(cfg config.ClientConfig, loggerParent *CharmLog.Logger) *Client {
	if loggerParent == nil {
		loggerParent = CharmLog.Default()
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		authToken:   cfg.AuthToken,
		attempts:    attempts,
		delay:       cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		interpreter: Interpreter{Extractor: Extractor{Strict: cfg.StrictFaults}},
		logger:      loggerParent.WithPrefix("CSFE Client"),
	}
}

// Invoke sends body as a SOAP request. Transport failures are retried; a
// SOAP fault is an answer and is never retried. The returned Result is never
// nil.
func (c *Client) Invoke(ctx context.Context, body interface{}) *Result {
	requestID := uuid.NewString()
	logger := c.logger.With("requestId", requestID)

	payload, err := NewEnvelopeBuilder().
		WithHeader(RequestContext{AuthToken: c.authToken, RequestID: requestID}).
		WithBody(body).
		Build()
	if err != nil {
		return NewResult(&TransportError{Op: "build", Err: err}, true, nil)
	}

	var raw []byte
	err = retry.Do(
		func() error {
			raw, err = c.post(ctx, payload)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			transportErr = &TransportError{Op: "invoke", Err: err}
		}
		logger.Error("request failed", "error", transportErr)
		return NewResult(transportErr, true, nil)
	}

	result := c.interpreter.InterpretBytes(raw)
	if result.IsException() {
		logger.Warn("request returned a failure", "error", result.Exception())
	} else {
		logger.Debug("request succeeded")
	}
	return result
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Unrecoverable(&TransportError{Op: "request", Err: err})
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer func() {
		_ = res.Body.Close()
	}()

	raw, err := common.ReadLimited(res.Body, consts.MAX_BODY_BYTES)
	if errors.Is(err, common.ErrTooLarge) {
		return nil, retry.Unrecoverable(&TransportError{Op: "read", StatusCode: res.StatusCode, Err: err})
	}
	if err != nil {
		return nil, &TransportError{Op: "read", StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode != http.StatusOK {
		// CSFE servers report faults with error statuses; those are answers.
		if env, perr := ParseEnvelope(raw); perr == nil && env.Fault != nil {
			return raw, nil
		}
		return nil, &TransportError{
			Op:         "post",
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", snippet(raw)),
		}
	}
	return raw, nil
}

func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode != 0 {
		return transportErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func snippet(raw []byte) string {
	const max = 256
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
