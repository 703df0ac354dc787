package phonepe

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/inkwell/coauthor/internal/config"
)

// Module exposes payment gateway client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.ProviderBaseURL, p.Config.MerchantID, p.Config.MerchantSaltKey, p.Config.MerchantSaltIdx, p.Logger)
}
