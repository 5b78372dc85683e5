package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"csfe-soap/internal/common"
	"csfe-soap/internal/config"
	"csfe-soap/internal/consts"

	"github.com/beevik/etree"
	CharmLog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, attempts uint) *Client {
	return NewClient(config.ClientConfig{
		Endpoint:   url,
		AuthToken:  "valid-token",
		Timeout:    2 * time.Second,
		Attempts:   attempts,
		RetryDelay: time.Millisecond,
	}, CharmLog.New(io.Discard))
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	out, err := NewEnvelopeBuilder().WithBody(body).Build()
	if !assert.NoError(t, err) {
		return
	}
	w.Header().Set("Content-Type", "application/soap+xml")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

type pingResponse struct {
	XMLName xml.Name `xml:"urn:zimbraAccount PingResponse"`
	Message string   `xml:"message"`
}

func TestClient_Invoke_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		env, err := ParseEnvelope(raw)
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "valid-token", env.Header.FindElement("./context/authToken").Text())
		assert.NotEmpty(t, env.Header.FindElement("./context/requestId").Text())
		assert.Equal(t, "PingRequest", env.Payload.Tag)

		writeEnvelope(t, w, http.StatusOK, pingResponse{Message: env.Payload.SelectElement("message").Text()})
	}))
	defer ts.Close()

	r := newTestClient(ts.URL, 1).Invoke(context.Background(), pingRequest{Message: "hello"})

	data, err := r.Response()
	require.NoError(t, err)
	payload := data.(*etree.Element)
	assert.Equal(t, "PingResponse", payload.Tag)
	assert.Equal(t, "hello", payload.SelectElement("message").Text())
}

func TestClient_Invoke_FaultIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(t, w, http.StatusInternalServerError, FaultBody(&Fault{
			Code:      Receiver,
			Reason:    "system failure",
			ErrorCode: "service.FAILURE",
		}))
	}))
	defer ts.Close()

	r := newTestClient(ts.URL, 3).Invoke(context.Background(), pingRequest{})

	fault, ok := r.Fault()
	require.True(t, ok)
	assert.Equal(t, Receiver, fault.Code)
	assert.Equal(t, "service.FAILURE", fault.ErrorCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Invoke_RetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(t, w, http.StatusOK, pingResponse{Message: "ok"})
	}))
	defer ts.Close()

	r := newTestClient(ts.URL, 3).Invoke(context.Background(), pingRequest{})

	assert.False(t, r.IsException())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Invoke_ClientErrorIsTransportFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "missing api key", http.StatusUnauthorized)
	}))
	defer ts.Close()

	r := newTestClient(ts.URL, 3).Invoke(context.Background(), pingRequest{})

	require.True(t, r.IsException())
	var transportErr *TransportError
	require.True(t, errors.As(r.Exception(), &transportErr))
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Contains(t, transportErr.Error(), "missing api key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Invoke_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	r := newTestClient(url, 2).Invoke(context.Background(), pingRequest{})

	require.True(t, r.IsException())
	var transportErr *TransportError
	require.True(t, errors.As(r.Exception(), &transportErr))
	assert.Equal(t, "post", transportErr.Op)
}

func TestClient_Invoke_BuildFailure(t *testing.T) {
	r := newTestClient("http://127.0.0.1:0", 1).Invoke(context.Background(), nil)

	var transportErr *TransportError
	require.True(t, errors.As(r.Exception(), &transportErr))
	assert.Equal(t, "build", transportErr.Op)
	assert.ErrorIs(t, r.Exception(), ErrNoBody)
}

func TestClient_Invoke_OversizedResponse(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(bytes.Repeat([]byte(" "), int(consts.MAX_BODY_BYTES)+1))
	}))
	defer ts.Close()

	r := newTestClient(ts.URL, 3).Invoke(context.Background(), pingRequest{Message: "hello"})

	require.True(t, r.IsException())
	assert.ErrorIs(t, r.Exception(), common.ErrTooLarge)
	var transportErr *TransportError
	require.True(t, errors.As(r.Exception(), &transportErr))
	assert.Equal(t, "read", transportErr.Op)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
