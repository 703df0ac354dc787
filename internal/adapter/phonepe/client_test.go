package phonepe

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell/coauthor/internal/domain/model"
)

const (
	testMerchant  = "MERCHANT1"
	testSaltKey   = "salt-key"
	testSaltIndex = "1"
)

func testChecksum(data string) string {
	sum := sha256.Sum256([]byte(data + testSaltKey))
	return hex.EncodeToString(sum[:]) + "###" + testSaltIndex
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL, testMerchant, testSaltKey, testSaltIndex, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestCreatePaymentSendsSignedEnvelope(t *testing.T) {
	var gotVerify, gotMerchant, gotEncoded string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v1/pay" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotVerify = r.Header.Get("X-VERIFY")
		gotMerchant = r.Header.Get("X-MERCHANT-ID")

		var body struct {
			Request string `json:"request"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		gotEncoded = body.Request

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"code":    "PAYMENT_INITIATED",
			"data": map[string]any{
				"merchantTransactionId": "tx-1",
				"instrumentResponse": map[string]any{
					"redirectInfo": map[string]any{"url": "https://pay.example/checkout/abc"},
				},
			},
		})
	}))

	intent, err := client.CreatePayment(context.Background(), CreateRequest{
		TransactionID: "tx-1",
		Amount:        99900,
		UserRef:       "user-7",
		RedirectURL:   "https://shop.example/api/payments/callback?mtid=tx-1",
		CallbackURL:   "https://shop.example/api/payments/callback?mtid=tx-1",
	})
	if err != nil {
		t.Fatalf("create payment returned error: %v", err)
	}
	if intent.CheckoutURL != "https://pay.example/checkout/abc" {
		t.Fatalf("unexpected checkout url %q", intent.CheckoutURL)
	}
	if gotMerchant != testMerchant {
		t.Fatalf("unexpected merchant header %q", gotMerchant)
	}
	if gotVerify != testChecksum(gotEncoded+"/pg/v1/pay") {
		t.Fatalf("X-VERIFY checksum mismatch: %q", gotVerify)
	}

	raw, err := base64.StdEncoding.DecodeString(gotEncoded)
	if err != nil {
		t.Fatalf("request payload is not base64: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("request payload is not JSON: %v", err)
	}
	if payload["merchantTransactionId"] != "tx-1" || payload["amount"] != float64(99900) {
		t.Fatalf("unexpected pay payload %v", payload)
	}
}

func TestCreatePaymentRejectedByProvider(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "code": "BAD_REQUEST"})
	}))

	if _, err := client.CreatePayment(context.Background(), CreateRequest{TransactionID: "tx-1", Amount: 100}); err == nil {
		t.Fatal("expected error for rejected init")
	}
}

func TestCreatePaymentProviderError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := client.CreatePayment(context.Background(), CreateRequest{TransactionID: "tx-1", Amount: 100}); err == nil {
		t.Fatal("expected error for provider 500")
	}
}

func TestFetchStatusSignsPath(t *testing.T) {
	path := "/pg/v1/status/" + testMerchant + "/tx-9"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-VERIFY"); got != testChecksum(path) {
			t.Errorf("X-VERIFY checksum mismatch: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"code":    "PAYMENT_SUCCESS",
			"data": map[string]any{
				"merchantTransactionId": "tx-9",
				"transactionId":         "prov-77",
				"state":                 "COMPLETED",
			},
		})
	}))

	result, err := client.FetchStatus(context.Background(), "tx-9")
	if err != nil {
		t.Fatalf("fetch status returned error: %v", err)
	}
	if result.State != model.PaymentStateCompleted {
		t.Fatalf("unexpected state %q", result.State)
	}
	if result.ProviderRef != "prov-77" {
		t.Fatalf("unexpected provider ref %q", result.ProviderRef)
	}
}

func TestFetchStatusUnknownTransaction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	if _, err := client.FetchStatus(context.Background(), "ghost"); err != ErrTransactionUnknown {
		t.Fatalf("expected ErrTransactionUnknown on 404, got %v", err)
	}

	client, _ = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "code": "PAYMENT_NOT_FOUND"})
	}))
	if _, err := client.FetchStatus(context.Background(), "ghost"); err != ErrTransactionUnknown {
		t.Fatalf("expected ErrTransactionUnknown on code, got %v", err)
	}
}

func TestFetchStatusMapsStates(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want model.PaymentState
	}{
		{
			name: "success code",
			body: map[string]any{"success": true, "code": "PAYMENT_SUCCESS", "data": map[string]any{"merchantTransactionId": "tx"}},
			want: model.PaymentStateCompleted,
		},
		{
			name: "completed state",
			body: map[string]any{"success": true, "code": "OK", "data": map[string]any{"merchantTransactionId": "tx", "state": "COMPLETED"}},
			want: model.PaymentStateCompleted,
		},
		{
			name: "response code success",
			body: map[string]any{"success": false, "code": "X", "data": map[string]any{"merchantTransactionId": "tx", "responseCode": "SUCCESS"}},
			want: model.PaymentStateCompleted,
		},
		{
			name: "pending",
			body: map[string]any{"success": true, "code": "PAYMENT_PENDING", "data": map[string]any{"merchantTransactionId": "tx"}},
			want: model.PaymentStatePending,
		},
		{
			name: "failed",
			body: map[string]any{"success": false, "code": "PAYMENT_ERROR", "data": map[string]any{"merchantTransactionId": "tx", "state": "FAILED"}},
			want: model.PaymentStateFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			result, err := client.FetchStatus(context.Background(), "tx")
			if err != nil {
				t.Fatalf("fetch status returned error: %v", err)
			}
			if result.State != tc.want {
				t.Fatalf("expected state %q, got %q", tc.want, result.State)
			}
		})
	}
}

func callbackEnvelope(t *testing.T, payload map[string]any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, err := json.Marshal(map[string]string{"response": encoded})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body, testChecksum(encoded)
}

func TestDecodeCallbackVerified(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	body, xVerify := callbackEnvelope(t, map[string]any{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data": map[string]any{
			"merchantTransactionId": "tx-5",
			"transactionId":         "prov-5",
			"state":                 "COMPLETED",
		},
	})

	result, err := client.DecodeCallback(body, xVerify)
	if err != nil {
		t.Fatalf("decode callback returned error: %v", err)
	}
	if result.TransactionID != "tx-5" || result.State != model.PaymentStateCompleted {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDecodeCallbackSignatureMismatch(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	body, _ := callbackEnvelope(t, map[string]any{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data":    map[string]any{"merchantTransactionId": "tx-5"},
	})

	if _, err := client.DecodeCallback(body, "f00d###1"); err != ErrSignatureMismatch {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
	if _, err := client.DecodeCallback(body, ""); err != ErrSignatureMismatch {
		t.Fatalf("expected ErrSignatureMismatch for missing header, got %v", err)
	}
}

func TestDecodeCallbackMalformed(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	for _, body := range [][]byte{
		[]byte("not json"),
		[]byte(`{}`),
		[]byte(`{"response":""}`),
	} {
		if _, err := client.DecodeCallback(body, "x"); err != ErrMalformedCallback {
			t.Fatalf("expected ErrMalformedCallback for %q, got %v", body, err)
		}
	}

	// Valid signature over an envelope that does not decode to provider JSON.
	encoded := base64.StdEncoding.EncodeToString([]byte("plain text"))
	body, _ := json.Marshal(map[string]string{"response": encoded})
	if _, err := client.DecodeCallback(body, testChecksum(encoded)); err != ErrMalformedCallback {
		t.Fatalf("expected ErrMalformedCallback for non-JSON payload, got %v", err)
	}

	// Provider JSON without a merchant transaction id.
	noTx, sig := callbackEnvelope(t, map[string]any{"success": true, "code": "PAYMENT_SUCCESS", "data": map[string]any{}})
	if _, err := client.DecodeCallback(noTx, sig); err != ErrMalformedCallback {
		t.Fatalf("expected ErrMalformedCallback without transaction id, got %v", err)
	}
}

func TestNewHTTPClientValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewHTTPClient("not-a-url", testMerchant, testSaltKey, "1", logger); err == nil {
		t.Fatal("expected error for relative url")
	}
	if _, err := NewHTTPClient("https://api.example", "", testSaltKey, "1", logger); err == nil {
		t.Fatal("expected error for missing merchant id")
	}
	if _, err := NewHTTPClient("https://api.example", testMerchant, "", "1", logger); err == nil {
		t.Fatal("expected error for missing salt key")
	}
}
