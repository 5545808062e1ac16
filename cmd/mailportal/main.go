// Command mailportal serves the compose-and-send e-mail form.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dmitrymomot/mailportal/internal/config"
	"github.com/dmitrymomot/mailportal/internal/handlers"
	"github.com/dmitrymomot/mailportal/internal/middlewares"
	"github.com/dmitrymomot/mailportal/internal/web"
	"github.com/dmitrymomot/mailportal/pkg/cookie"
	"github.com/dmitrymomot/mailportal/pkg/logger"
	"github.com/dmitrymomot/mailportal/pkg/mailer"
	assets "github.com/dmitrymomot/mailportal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sentryEnv := cfg.Sentry.Environment
	if sentryEnv == "" {
		sentryEnv = cfg.App.Env
	}
	log, flush := logger.New(logger.Config{
		Level:             cfg.Log.Level,
		Format:            cfg.Log.Format,
		SentryDSN:         cfg.Sentry.DSN,
		SentryEnvironment: sentryEnv,
	}, middlewares.RequestIDExtractor())

	err = run(context.Background(), cfg, log)
	flush(2 * time.Second)
	if err != nil {
		log.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	app, res, err := newApp(ctx, cfg, log)
	if err != nil {
		res.shutdown(ctx)
		return err
	}

	log.Info("starting mail portal",
		slog.String("address", cfg.Server.Address),
		slog.String("env", cfg.App.Env),
		slog.String("provider", cfg.Mail.Provider),
		slog.String("directory", cfg.Directory.Source),
	)

	opts := []web.RunOption{
		web.Logger(log),
		web.ShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	for _, hook := range res.hooks {
		opts = append(opts, web.ShutdownHook(hook))
	}
	return app.Run(cfg.Server.Address, opts...)
}

// newApp opens every dependency and builds the HTTP application. The
// returned resources must be shut down even when err is not nil.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*web.App, *resources, error) {
	res := &resources{}

	cookies, err := cookie.New(cfg.Cookie.Secret, cookieOptions(cfg)...)
	if err != nil {
		return nil, res, err
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		return nil, res, err
	}

	users, err := newDirectory(ctx, cfg, log, res)
	if err != nil {
		return nil, res, err
	}

	format := mailer.BodyFormat(cfg.Mail.BodyFormat)
	mailing := handlers.NewMailingHandler(users, mailer.NewComposer(mailer.WithDefaultFormat(format)), sender,
		handlers.WithDefaultFrom(cfg.Mail.From),
		handlers.WithReplyTo(cfg.Mail.ReplyTo),
		handlers.WithBodyFormat(format),
		handlers.WithTags(cfg.Mail.Tags),
		handlers.WithSendTimeout(cfg.Mail.SendTimeout),
	)

	app, err := web.New(
		web.WithLogger(log),
		web.WithCookieManager(cookies),
		web.WithTrustedOrigins(cfg.Server.TrustedOrigins...),
		web.WithMiddleware(
			middlewares.RequestID(),
			middlewares.AccessLog(),
			middlewares.Recover(),
		),
		web.WithStaticFiles("/static/", assets.Assets, assets.StaticDir),
		web.WithHealthChecks(res.checks...),
		web.WithErrorHandler(handlers.ErrorHandler()),
		web.WithNotFoundHandler(handlers.NotFound),
		web.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		web.WithHandlers(mailing),
	)
	if err != nil {
		return nil, res, err
	}
	return app, res, nil
}

// cookieOptions maps the cookie settings. Production and SameSite=None
// always get Secure cookies.
func cookieOptions(cfg config.Config) []cookie.Option {
	sameSite := http.SameSiteLaxMode
	switch cfg.Cookie.SameSite {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return []cookie.Option{
		cookie.WithPath(cfg.Cookie.Path),
		cookie.WithDomain(cfg.Cookie.Domain),
		cookie.WithSameSite(sameSite),
		cookie.WithSecure(cfg.Cookie.Secure || cfg.IsProduction() || sameSite == http.SameSiteNoneMode),
	}
}
