package auth

import (
	"go.uber.org/fx"

	"github.com/inkwell/coauthor/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenSigner),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type signerParams struct {
	fx.In

	Config *config.Config
}

func newTokenSigner(p signerParams) TokenSigner {
	return NewHMACSigner(p.Config.AuthSecret, 0)
}
