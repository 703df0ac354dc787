package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/inkwell/coauthor/internal/adapter/phonepe"
	"github.com/inkwell/coauthor/internal/config"
	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	testhelpers "github.com/inkwell/coauthor/internal/test"
	"github.com/inkwell/coauthor/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type facadeFixture struct {
	facade    *StoreFacade
	books     *testhelpers.BookRepositoryStub
	purchases *testhelpers.PurchaseRepositoryStub
	payments  *testhelpers.PaymentProviderStub
}

func newFacadeFixture() *facadeFixture {
	logger := discardLogger()
	books := &testhelpers.BookRepositoryStub{Books: []model.Book{{
		ID: 1, Slug: "first", Title: "First",
		TotalPositions: 10, AvailablePositions: 10,
		PricePerPosition: 49900, Status: model.BookStatusPublished,
	}}}
	purchases := &testhelpers.PurchaseRepositoryStub{}
	cache := testhelpers.NewCatalogCacheStub()
	payments := &testhelpers.PaymentProviderStub{}

	auth := usecase.NewAuthUseCase(testhelpers.NewUserRepositoryStub(), &testhelpers.ProfileRepositoryStub{}, testhelpers.HasherStub{}, testhelpers.SignerStub{})
	catalog := usecase.NewCatalogUseCase(books, cache)
	purchaseUC := usecase.NewPurchaseUseCase(books, purchases, cache, logger)
	cfg := &config.Config{
		PublicBaseURL:   "https://shop.example",
		PendingCheckAge: 2 * time.Minute,
	}

	return &facadeFixture{
		facade:    NewStoreFacade(auth, catalog, purchaseUC, payments, cfg, logger),
		books:     books,
		purchases: purchases,
		payments:  payments,
	}
}

func TestBeginPurchase(t *testing.T) {
	f := newFacadeFixture()

	intent, err := f.facade.BeginPurchase(context.Background(), 7, "first", 2, model.BuyerContact{Phone: "+911234567890"})
	if err != nil {
		t.Fatalf("begin purchase returned error: %v", err)
	}
	if intent.CheckoutURL == "" {
		t.Fatal("expected checkout url")
	}

	if len(f.payments.CreateCalls) != 1 {
		t.Fatalf("expected one payment init, got %d", len(f.payments.CreateCalls))
	}
	req := f.payments.CreateCalls[0]
	if req.Amount != 2*49900 {
		t.Fatalf("unexpected amount %d", req.Amount)
	}
	if req.TransactionID != intent.TransactionID {
		t.Fatalf("transaction id mismatch: %q vs %q", req.TransactionID, intent.TransactionID)
	}
	if want := "https://shop.example/api/payments/callback?mtid=" + req.TransactionID; req.CallbackURL != want {
		t.Fatalf("unexpected callback url %q", req.CallbackURL)
	}
	if req.RedirectURL != req.CallbackURL {
		t.Fatalf("expected redirect url to match callback url, got %q", req.RedirectURL)
	}
	if !strings.HasPrefix(req.UserRef, "user-") {
		t.Fatalf("unexpected user ref %q", req.UserRef)
	}
}

func TestBeginPurchaseProviderFailureAbortsReservation(t *testing.T) {
	f := newFacadeFixture()
	f.payments.CreateFn = func(context.Context, phonepe.CreateRequest) (*model.CheckoutIntent, error) {
		return nil, errors.New("gateway unavailable")
	}
	f.purchases.GetByTransactionIDFn = func(_ context.Context, transactionID string) (*model.Purchase, error) {
		return &model.Purchase{TransactionID: transactionID, Status: model.PaymentStatusPending, BookID: 1, Positions: 2}, nil
	}

	_, err := f.facade.BeginPurchase(context.Background(), 7, "first", 2, model.BuyerContact{Phone: "+911234567890"})
	if !errors.Is(err, domainErrors.ErrPaymentProvider) {
		t.Fatalf("expected payment provider error, got %v", err)
	}

	if len(f.purchases.SettleCalls) != 1 || f.purchases.SettleCalls[0].State != model.PaymentStateFailed {
		t.Fatalf("expected purchase to be aborted, got %v", f.purchases.SettleCalls)
	}
}

func TestSettleFromCallback(t *testing.T) {
	f := newFacadeFixture()
	f.purchases.Purchases = []model.Purchase{{ID: 1, TransactionID: "tx-1", Status: model.PaymentStatusPending}}
	f.payments.DecodeFn = func([]byte, string) (*model.PaymentResult, error) {
		return &model.PaymentResult{TransactionID: "tx-1", State: model.PaymentStateCompleted, ProviderRef: "prov-9"}, nil
	}

	result, err := f.facade.SettleFromCallback(context.Background(), []byte(`{}`), "checksum###1")
	if err != nil {
		t.Fatalf("settle returned error: %v", err)
	}
	if result.TransactionID != "tx-1" || result.State != model.PaymentStateCompleted {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(f.purchases.SettleCalls) != 1 {
		t.Fatalf("expected one settlement, got %d", len(f.purchases.SettleCalls))
	}
}

func TestSettleFromCallbackErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		decode  error
		wantErr error
	}{
		{"signature mismatch", phonepe.ErrSignatureMismatch, domainErrors.ErrInvalidSignature},
		{"malformed payload", phonepe.ErrMalformedCallback, domainErrors.ErrInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFacadeFixture()
			f.payments.DecodeFn = func([]byte, string) (*model.PaymentResult, error) {
				return nil, tc.decode
			}
			if _, err := f.facade.SettleFromCallback(context.Background(), []byte(`{}`), "bad"); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSettleFromCallbackUnknownTransaction(t *testing.T) {
	f := newFacadeFixture()
	f.payments.DecodeFn = func([]byte, string) (*model.PaymentResult, error) {
		return &model.PaymentResult{TransactionID: "tx-ghost", State: model.PaymentStateCompleted}, nil
	}

	result, err := f.facade.SettleFromCallback(context.Background(), []byte(`{}`), "checksum###1")
	if err != nil {
		t.Fatalf("expected unknown transaction to be tolerated, got %v", err)
	}
	if result.TransactionID != "tx-ghost" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestConfirmTransaction(t *testing.T) {
	f := newFacadeFixture()
	f.purchases.Purchases = []model.Purchase{{ID: 1, TransactionID: "tx-1", Status: model.PaymentStatusPending}}

	result, err := f.facade.ConfirmTransaction(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if result.State != model.PaymentStateCompleted {
		t.Fatalf("unexpected state %q", result.State)
	}
	if f.payments.StatusCalls[0] != "tx-1" {
		t.Fatalf("expected status check for tx-1, got %v", f.payments.StatusCalls)
	}
}

func TestConfirmTransactionErrors(t *testing.T) {
	f := newFacadeFixture()
	f.payments.StatusFn = func(context.Context, string) (*model.PaymentResult, error) {
		return nil, phonepe.ErrTransactionUnknown
	}
	if _, err := f.facade.ConfirmTransaction(context.Background(), "tx-ghost"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	f.payments.StatusFn = func(context.Context, string) (*model.PaymentResult, error) {
		return nil, errors.New("gateway timeout")
	}
	if _, err := f.facade.ConfirmTransaction(context.Background(), "tx-1"); !errors.Is(err, domainErrors.ErrPaymentProvider) {
		t.Fatalf("expected payment provider error, got %v", err)
	}
}

func TestWorkerSurface(t *testing.T) {
	f := newFacadeFixture()
	f.purchases.Purchases = []model.Purchase{{ID: 1, TransactionID: "tx-1", Status: model.PaymentStatusPending, CreatedAt: time.Now().Add(-time.Hour)}}

	stale, err := f.facade.StalePurchases(context.Background(), 10)
	if err != nil {
		t.Fatalf("stale purchases returned error: %v", err)
	}
	if len(stale) != 1 || stale[0].TransactionID != "tx-1" {
		t.Fatalf("unexpected stale set %+v", stale)
	}

	result, err := f.facade.CheckPayment(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("check payment returned error: %v", err)
	}

	if _, applied, err := f.facade.SettlePayment(context.Background(), result); err != nil || !applied {
		t.Fatalf("expected settlement to apply, got applied=%v err=%v", applied, err)
	}

	if err := f.facade.AbandonPurchase(context.Background(), "tx-1"); err != nil {
		t.Fatalf("abandon returned error: %v", err)
	}
	last := f.purchases.SettleCalls[len(f.purchases.SettleCalls)-1]
	if last.State != model.PaymentStateFailed {
		t.Fatalf("expected abandon to fail the purchase, got %+v", last)
	}
}
