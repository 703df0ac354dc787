package di

import (
	"github.com/inkwell/coauthor/internal/adapter/phonepe"
	"github.com/inkwell/coauthor/internal/app"
	"github.com/inkwell/coauthor/internal/config"
	"github.com/inkwell/coauthor/internal/logger"
	"github.com/inkwell/coauthor/internal/pkg/auth"
	"github.com/inkwell/coauthor/internal/server/http/handlers"
	"github.com/inkwell/coauthor/internal/server/http/router"
	"github.com/inkwell/coauthor/internal/storage/postgres"
	"github.com/inkwell/coauthor/internal/storage/rediscache"
	"github.com/inkwell/coauthor/internal/usecase"
	"go.uber.org/fx"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		rediscache.Module,
		phonepe.Module,
		usecase.Module,
		fx.Provide(func(client phonepe.Client) app.PaymentProvider { return client }),
		fx.Provide(func(facade *app.StoreFacade) handlers.StorefrontFacade { return facade }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
