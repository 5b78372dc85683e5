package server

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"csfe-soap/internal/common"
	M "csfe-soap/internal/common/models"
	"csfe-soap/internal/config"
	"csfe-soap/internal/consts"
	"csfe-soap/internal/soap"

	"github.com/beevik/etree"
	CharmLog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(common.NewAuthenticator(""), consts.SOAP_PORT, CharmLog.New(io.Discard))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(ts *httptest.Server, token string) *soap.Client {
	return soap.NewClient(config.ClientConfig{
		Endpoint:  ts.URL + consts.SOAP_PATH,
		AuthToken: token,
		Timeout:   2 * time.Second,
		Attempts:  1,
	}, CharmLog.New(io.Discard))
}

func TestGetInfo(t *testing.T) {
	ts := newTestServer(t)

	r := newClient(ts, common.DefaultToken).Invoke(context.Background(), M.GetInfoRequest{})

	data, err := r.Response()
	require.NoError(t, err)
	payload := data.(*etree.Element)
	assert.Equal(t, "GetInfoResponse", payload.Tag)
	assert.Equal(t, "testuser@example.com", payload.SelectElement("name").Text())

	require.NotNil(t, r.Header())
	assert.NotEmpty(t, r.Header().FindElement("./context/requestId").Text())
}

func TestGetAccount(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(ts, common.DefaultToken)

	t.Run("by name", func(t *testing.T) {
		r := client.Invoke(context.Background(), M.GetAccountRequest{
			Account: M.AccountSelector{By: "name", Value: "alice@example.com"},
		})
		data, err := r.Response()
		require.NoError(t, err)
		account := data.(*etree.Element).SelectElement("account")
		require.NotNil(t, account)
		assert.Equal(t, "alice@example.com", account.SelectAttrValue("name", ""))
		assert.Equal(t, "premium", account.SelectElement("cos").Text())
	})

	t.Run("no such account", func(t *testing.T) {
		r := client.Invoke(context.Background(), M.GetAccountRequest{
			Account: M.AccountSelector{By: "name", Value: "nobody@example.com"},
		})
		fault, ok := r.Fault()
		require.True(t, ok)
		assert.Equal(t, soap.Sender, fault.Code)
		assert.Equal(t, "account.NO_SUCH_ACCOUNT", fault.ErrorCode)
		assert.Equal(t, "no such account: nobody@example.com", fault.Reason)
		assert.Equal(t, "nobody@example.com", fault.Args["name"])
		assert.NotEmpty(t, fault.Trace)
	})

	t.Run("missing selector", func(t *testing.T) {
		r := client.Invoke(context.Background(), M.GetAccountRequest{})
		fault, ok := r.Fault()
		require.True(t, ok)
		assert.Equal(t, "service.INVALID_REQUEST", fault.ErrorCode)
	})
}

func TestAuthFaults(t *testing.T) {
	ts := newTestServer(t)

	missing, ok := newClient(ts, "").Invoke(context.Background(), M.NoOpRequest{}).Fault()
	require.True(t, ok)
	assert.Equal(t, "service.AUTH_REQUIRED", missing.ErrorCode)

	expired, ok := newClient(ts, "stale").Invoke(context.Background(), M.NoOpRequest{}).Fault()
	require.True(t, ok)
	assert.Equal(t, "service.AUTH_EXPIRED", expired.ErrorCode)
}

func TestNoOpAndUnknownDocument(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(ts, common.DefaultToken)

	r := client.Invoke(context.Background(), M.NoOpRequest{})
	assert.False(t, r.IsException())

	type searchRequest struct {
		XMLName xml.Name `xml:"urn:zimbraMail SearchRequest"`
	}
	fault, ok := client.Invoke(context.Background(), searchRequest{}).Fault()
	require.True(t, ok)
	assert.Equal(t, soap.Sender, fault.Code)
	assert.Equal(t, "service.UNKNOWN_DOCUMENT", fault.ErrorCode)
}

func TestRawRequests(t *testing.T) {
	ts := newTestServer(t)

	post := func(t *testing.T, body string) (*http.Response, *soap.Result) {
		t.Helper()
		res, err := http.Post(ts.URL+consts.SOAP_PATH, "application/soap+xml", strings.NewReader(body))
		require.NoError(t, err)
		defer res.Body.Close()
		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res, soap.InterpretBytes(raw)
	}

	t.Run("malformed envelope", func(t *testing.T) {
		res, r := post(t, "not-xml")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		fault, ok := r.Fault()
		require.True(t, ok)
		assert.Equal(t, "service.PARSE_ERROR", fault.ErrorCode)
	})

	t.Run("soap 1.1 envelope", func(t *testing.T) {
		res, r := post(t, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><NoOpRequest/></soap:Body></soap:Envelope>`)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		fault, ok := r.Fault()
		require.True(t, ok)
		assert.Equal(t, soap.VersionMismatch, fault.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		res, r := post(t, `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Header><context xmlns="urn:zimbra"><authToken>valid-token</authToken></context></soap:Header>
  <soap:Body/>
</soap:Envelope>`)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		fault, ok := r.Fault()
		require.True(t, ok)
		assert.Equal(t, "service.INVALID_REQUEST", fault.ErrorCode)
	})
}

func TestWSDL(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{consts.SOAP_PATH + "?wsdl", consts.SOAP_PATH + "/wsdl"} {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		raw, _ := io.ReadAll(res.Body)
		res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Contains(t, string(raw), "MockCSFEService")
	}
}

func TestOversizedRequest(t *testing.T) {
	routes := New(common.NewAuthenticator(""), consts.SOAP_PORT, CharmLog.New(io.Discard)).Routes()
	body := strings.Repeat(" ", int(consts.MAX_BODY_BYTES)+1)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, consts.SOAP_PATH, strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fault, ok := soap.InterpretBytes(rec.Body.Bytes()).Fault()
	require.True(t, ok)
	assert.Equal(t, "service.INVALID_REQUEST", fault.ErrorCode)
	assert.Contains(t, fault.Reason, "exceeds")
}
