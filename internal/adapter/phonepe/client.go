package phonepe

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/inkwell/coauthor/internal/domain/model"
)

var (
	// ErrTransactionUnknown indicates the provider has no record of the
	// transaction yet.
	ErrTransactionUnknown = errors.New("transaction not registered with provider")
	// ErrSignatureMismatch indicates the callback X-VERIFY header does not
	// match the body. Callers must not mutate state on this error.
	ErrSignatureMismatch = errors.New("callback signature mismatch")
	// ErrMalformedCallback indicates the callback body matched none of the
	// known provider payload shapes.
	ErrMalformedCallback = errors.New("malformed callback payload")
)

const (
	payPath        = "/pg/v1/pay"
	statusPathTmpl = "/pg/v1/status/%s/%s"

	codePaymentSuccess = "PAYMENT_SUCCESS"
	codePaymentPending = "PAYMENT_PENDING"
	codeNotFound       = "PAYMENT_NOT_FOUND"
)

// CreateRequest carries everything needed to initialize a checkout. Amount is
// in minor currency units.
type CreateRequest struct {
	TransactionID string
	Amount        int64
	UserRef       string
	RedirectURL   string
	CallbackURL   string
}

// Client exposes operations against the payment gateway.
type Client interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*model.CheckoutIntent, error)
	FetchStatus(ctx context.Context, transactionID string) (*model.PaymentResult, error)
	DecodeCallback(body []byte, xVerify string) (*model.PaymentResult, error)
}

// HTTPClient implements Client via the provider HTTP API. All requests carry
// an X-VERIFY checksum: sha256(payload + path + saltKey) hex, suffixed with
// "###" and the salt index.
type HTTPClient struct {
	baseURL    *url.URL
	merchantID string
	saltKey    string
	saltIndex  string
	httpClient *http.Client
	logger     *slog.Logger
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type payRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type providerData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
	InstrumentResponse    struct {
		RedirectInfo struct {
			URL string `json:"url"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

// providerResponse mirrors the JSON envelope shared by the pay, status and
// server-to-server callback payloads.
type providerResponse struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Data    providerData `json:"data"`
}

// NewHTTPClient creates the provider client with default timeout.
func NewHTTPClient(baseURL, merchantID, saltKey, saltIndex string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("provider url must be absolute")
	}
	if merchantID == "" || saltKey == "" {
		return nil, fmt.Errorf("merchant id and salt key are required")
	}
	return &HTTPClient{
		baseURL:    parsed,
		merchantID: merchantID,
		saltKey:    saltKey,
		saltIndex:  saltIndex,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreatePayment initializes a checkout and returns the redirect URL. A single
// attempt is made: re-submitting a pay request without provider-side
// idempotency keys risks a double charge, so transient failures surface to
// the caller instead.
func (c *HTTPClient) CreatePayment(ctx context.Context, req CreateRequest) (*model.CheckoutIntent, error) {
	payload := payRequest{
		MerchantID:            c.merchantID,
		MerchantTransactionID: req.TransactionID,
		MerchantUserID:        req.UserRef,
		Amount:                req.Amount,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "POST",
		CallbackURL:           req.CallbackURL,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(payPath), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.checksum(encoded+payPath))
	httpReq.Header.Set("X-MERCHANT-ID", c.merchantID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := c.decodeResponse(resp)
	if err != nil {
		return nil, err
	}
	if !data.Success {
		return nil, fmt.Errorf("payment init rejected: %s", data.Code)
	}

	checkoutURL := data.Data.InstrumentResponse.RedirectInfo.URL
	if checkoutURL == "" {
		return nil, fmt.Errorf("payment init response carries no redirect url")
	}

	return &model.CheckoutIntent{TransactionID: req.TransactionID, CheckoutURL: checkoutURL}, nil
}

// FetchStatus queries the provider for a transaction outcome.
func (c *HTTPClient) FetchStatus(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	path := fmt.Sprintf(statusPathTmpl, c.merchantID, transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", c.checksum(path))
	req.Header.Set("X-MERCHANT-ID", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionUnknown
	}

	data, err := c.decodeResponse(resp)
	if err != nil {
		return nil, err
	}
	if data.Code == codeNotFound {
		return nil, ErrTransactionUnknown
	}

	result := toResult(data)
	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}
	return result, nil
}

// DecodeCallback verifies the X-VERIFY signature of a server-to-server
// callback and decodes the enveloped payload. Only the documented
// base64-envelope shape is accepted; anything else fails closed.
func (c *HTTPClient) DecodeCallback(body []byte, xVerify string) (*model.PaymentResult, error) {
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Response == "" {
		return nil, ErrMalformedCallback
	}

	if xVerify == "" || c.checksum(envelope.Response) != xVerify {
		return nil, ErrSignatureMismatch
	}

	raw, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, ErrMalformedCallback
	}

	var data providerResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrMalformedCallback
	}
	if data.Data.MerchantTransactionID == "" {
		return nil, ErrMalformedCallback
	}

	return toResult(&data), nil
}

func (c *HTTPClient) endpoint(path string) string {
	endpoint := *c.baseURL
	endpoint.Path = endpoint.Path + path
	return endpoint.String()
}

func (c *HTTPClient) checksum(data string) string {
	sum := sha256.Sum256([]byte(data + c.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.saltIndex
}

func (c *HTTPClient) decodeResponse(resp *http.Response) (*providerResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("provider request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("provider error: %s", resp.Status)
	}

	var data providerResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	return &data, nil
}

func toResult(data *providerResponse) *model.PaymentResult {
	state := model.PaymentStatePending
	switch {
	case data.Success && (data.Code == codePaymentSuccess || data.Data.State == string(model.PaymentStateCompleted)),
		data.Data.ResponseCode == "SUCCESS":
		state = model.PaymentStateCompleted
	case data.Code == codePaymentPending || data.Data.State == string(model.PaymentStatePending):
		state = model.PaymentStatePending
	default:
		state = model.PaymentStateFailed
	}

	return &model.PaymentResult{
		TransactionID: data.Data.MerchantTransactionID,
		ProviderRef:   data.Data.TransactionID,
		State:         state,
	}
}
