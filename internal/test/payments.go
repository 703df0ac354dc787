package test

import (
	"context"

	"github.com/inkwell/coauthor/internal/adapter/phonepe"
	"github.com/inkwell/coauthor/internal/domain/model"
)

// PaymentProviderStub simulates the payment gateway client.
type PaymentProviderStub struct {
	CreateFn func(context.Context, phonepe.CreateRequest) (*model.CheckoutIntent, error)
	StatusFn func(context.Context, string) (*model.PaymentResult, error)
	DecodeFn func([]byte, string) (*model.PaymentResult, error)

	CreateCalls []phonepe.CreateRequest
	StatusCalls []string
}

// CreatePayment tracks invocations and returns configured responses.
func (s *PaymentProviderStub) CreatePayment(ctx context.Context, req phonepe.CreateRequest) (*model.CheckoutIntent, error) {
	s.CreateCalls = append(s.CreateCalls, req)
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	return &model.CheckoutIntent{
		TransactionID: req.TransactionID,
		CheckoutURL:   "https://pay.example/checkout/" + req.TransactionID,
	}, nil
}

// FetchStatus tracks invocations and returns configured responses.
func (s *PaymentProviderStub) FetchStatus(ctx context.Context, transactionID string) (*model.PaymentResult, error) {
	s.StatusCalls = append(s.StatusCalls, transactionID)
	if s.StatusFn != nil {
		return s.StatusFn(ctx, transactionID)
	}
	return &model.PaymentResult{TransactionID: transactionID, State: model.PaymentStateCompleted}, nil
}

// DecodeCallback delegates to the override or reports a completed payment.
func (s *PaymentProviderStub) DecodeCallback(body []byte, xVerify string) (*model.PaymentResult, error) {
	if s.DecodeFn != nil {
		return s.DecodeFn(body, xVerify)
	}
	return &model.PaymentResult{TransactionID: "tx", State: model.PaymentStateCompleted}, nil
}
