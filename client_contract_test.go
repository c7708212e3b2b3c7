package webull

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantrail/webull-openapi-go/internal/signing"
)

const (
	testAppKey    = "776da210ab4a452795d74e726ebd74b6"
	testAppSecret = "0f50a2e853334a9aae1a783bee120c1f"
	testTimestamp = "2022-01-04T03:55:31Z"
	testNonce     = "48ef5afed43d4d91ae514aaeafbc29ba"
)

// newTestClient pins the clock and nonce so signatures are reproducible.
func newTestClient(srvURL string) *Client {
	c := NewClient(
		Credentials{AppKey: testAppKey, AppSecret: testAppSecret},
		WithBaseURL(srvURL),
		WithMaxRetries(0),
	)
	c.now = func() time.Time { return time.Date(2022, 1, 4, 3, 55, 31, 0, time.UTC) }
	c.nonce = func() string { return testNonce }
	return c
}

// expectedSignature recomputes the signature the client should have produced
// for the given request parts.
func expectedSignature(t *testing.T, host, path string, query map[string]string, body []byte) string {
	t.Helper()
	sig, err := signing.Sign(signing.Request{
		Path:      path,
		Query:     query,
		Timestamp: testTimestamp,
		Nonce:     testNonce,
		AppKey:    testAppKey,
		Algorithm: signing.AlgorithmHMACSHA1,
		Version:   signing.SignatureVersion,
		Host:      host,
		Body:      body,
	}, testAppSecret)
	if err != nil {
		t.Fatalf("computing expected signature: %v", err)
	}
	return sig
}

func TestSignedHeadersOnWire(t *testing.T) {
	var gotHeader http.Header
	var gotHost string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointOpenOrders || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotHeader = r.Header.Clone()
		gotHost = r.Host
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.ListOpenOrders(context.Background(), "ACC1"); err != nil {
		t.Fatalf("list open orders: %v", err)
	}

	if gotHost != client.host {
		t.Errorf("wire host %q does not match signed host %q", gotHost, client.host)
	}
	if got := gotQuery["account_id"]; len(got) != 1 || got[0] != "ACC1" {
		t.Errorf("query not preserved: %v", gotQuery)
	}

	want := map[string]string{
		signing.HeaderAppKey:    testAppKey,
		signing.HeaderAlgorithm: signing.AlgorithmHMACSHA1,
		signing.HeaderVersion:   signing.SignatureVersion,
		signing.HeaderNonce:     testNonce,
		signing.HeaderTimestamp: testTimestamp,
	}
	for name, value := range want {
		if got := gotHeader.Get(name); got != value {
			t.Errorf("header %s mismatch: got %q want %q", name, got, value)
		}
	}

	wantSig := expectedSignature(t, client.host, EndpointOpenOrders,
		map[string]string{"account_id": "ACC1"}, nil)
	if got := gotHeader.Get(signing.HeaderSignature); got != wantSig {
		t.Errorf("signature mismatch\n  got:  %s\n  want: %s", got, wantSig)
	}
}

func TestPlaceOrderPayloadAndSignature(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header
	var gotHost string
	callCount := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointPlaceOrder || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		callCount++
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		gotHost = r.Host
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id":"ord-1","client_order_id":"cl-1"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	// Zero quantity must fail before any request is made.
	_, err := client.PlaceOrder(context.Background(), PlaceOrderArgs{
		AccountID:    "ACC1",
		InstrumentID: "913256135",
		Side:         Buy,
		OrderType:    Limit,
		LimitPrice:   decimal.RequireFromString("12.5"),
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "qty" {
		t.Fatalf("expected qty validation error, got: %v", err)
	}
	if callCount != 0 {
		t.Fatalf("expected no request on validation error, got %d", callCount)
	}

	ack, err := client.PlaceOrder(context.Background(), PlaceOrderArgs{
		AccountID:    "ACC1",
		InstrumentID: "913256135",
		Side:         Buy,
		OrderType:    Limit,
		Quantity:     decimal.RequireFromString("10"),
		LimitPrice:   decimal.RequireFromString("12.5"),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if ack.OrderID != "ord-1" {
		t.Errorf("unexpected ack: %+v", ack)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["account_id"] != "ACC1" || payload["side"] != "BUY" ||
		payload["qty"] != "10" || payload["limit_price"] != "12.5" {
		t.Errorf("payload mismatch: %v", payload)
	}
	if s, _ := payload["client_order_id"].(string); s == "" {
		t.Error("client_order_id was not generated")
	}

	// The signature must cover the exact bytes that arrived.
	wantSig := expectedSignature(t, gotHost, EndpointPlaceOrder, nil, gotBody)
	if got := gotHeader.Get(signing.HeaderSignature); got != wantSig {
		t.Errorf("body signature mismatch\n  got:  %s\n  want: %s", got, wantSig)
	}
}

func TestCancelOrderPayload(t *testing.T) {
	var payload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointCancelOrder || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if err := client.CancelOrder(context.Background(), "ACC1", "cl-42"); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if payload["account_id"] != "ACC1" || payload["client_order_id"] != "cl-42" {
		t.Errorf("cancel payload mismatch: %v", payload)
	}
}

func TestMissingCredentials(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Credentials{}, WithBaseURL(srv.URL))
	_, err := client.GetAccounts(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got: %v", err)
	}
	if callCount != 0 {
		t.Fatalf("expected no request without credentials, got %d", callCount)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`account not found`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetBalance(context.Background(), "NOPE")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got: %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "account not found" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if IsRetryable(err) {
		t.Error("404 must not be retryable")
	}
}

func TestGetOrdersPagination(t *testing.T) {
	var cursors []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointOrders {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		cursor := r.URL.Query().Get("next_cursor")
		cursors = append(cursors, cursor)
		w.Header().Set("Content-Type", "application/json")
		if cursor == "" {
			_, _ = w.Write([]byte(`{"data":[{"order_id":"o1"},{"order_id":"o2"}],"next_cursor":"c2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"order_id":"o3"}],"next_cursor":""}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	var ids []string
	for order, err := range client.GetOrders(context.Background(), OrderParams{AccountID: "ACC1"}) {
		if err != nil {
			t.Fatalf("iterating orders: %v", err)
		}
		ids = append(ids, order.OrderID)
	}

	if len(ids) != 3 || ids[0] != "o1" || ids[2] != "o3" {
		t.Errorf("unexpected order ids: %v", ids)
	}
	if len(cursors) != 2 || cursors[1] != "c2" {
		t.Errorf("unexpected cursor sequence: %v", cursors)
	}
}
