package phonepe

import (
	"io"
	"log/slog"
	"testing"

	"github.com/inkwell/coauthor/internal/config"
)

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{
		ProviderBaseURL: "https://api.phonepe.example",
		MerchantID:      "M1",
		MerchantSaltKey: "salt",
		MerchantSaltIdx: "1",
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := newClient(clientParams{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client instance")
	}
}

func TestNewClientRejectsIncompleteConfig(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if _, err := newClient(clientParams{Config: &config.Config{}, Logger: logger}); err == nil {
		t.Fatal("expected error for empty merchant settings")
	}
}
