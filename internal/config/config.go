// Package config loads the portal configuration.
//
// Values are layered: built-in defaults, then an optional YAML file named by
// MAILPORTAL_CONFIG_FILE, then MAILPORTAL_* environment variables, where a
// double underscore separates nested keys:
//
//	MAILPORTAL_MAIL__PROVIDER=resend  ->  mail.provider
//	MAILPORTAL_RESEND__API_KEY=re_x   ->  resend.api_key
//
// SENDGRID_API_KEY and MAIL_FROM are accepted as aliases of
// sendgrid.api_key and mail.from. The prefixed variables win when both are
// set.
//
// A .env file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dmitrymomot/mailportal/pkg/validator"
)

const (
	EnvPrefix = "MAILPORTAL_"
	// FileEnv names the variable holding the optional YAML config path.
	FileEnv = EnvPrefix + "CONFIG_FILE"
)

// envAliases maps unprefixed variable names to config keys.
var envAliases = map[string]string{
	"SENDGRID_API_KEY": "sendgrid.api_key",
	"MAIL_FROM":        "mail.from",
}

var (
	ErrLoad    = errors.New("config: failed to load")
	ErrInvalid = errors.New("config: invalid configuration")
)

// Mail providers.
const (
	ProviderStdout   = "stdout"
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderMSGraph  = "msgraph"
)

// Directory sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	App       App       `koanf:"app"`
	Server    Server    `koanf:"server"`
	Cookie    Cookie    `koanf:"cookie"`
	Log       Log       `koanf:"log"`
	Sentry    Sentry    `koanf:"sentry"`
	Mail      Mail      `koanf:"mail"`
	Directory Directory `koanf:"directory"`
	Database  Database  `koanf:"database"`
	Redis     Redis     `koanf:"redis"`

	// Provider credentials are checked only for the selected provider.
	Resend   Resend   `koanf:"resend" validate:"-"`
	SendGrid SendGrid `koanf:"sendgrid" validate:"-"`
	SES      SES      `koanf:"ses" validate:"-"`
	MSGraph  MSGraph  `koanf:"msgraph" validate:"-"`
}

type App struct {
	Env string `koanf:"env" label:"App environment" validate:"required"`
}

type Server struct {
	Address         string        `koanf:"address" label:"Server address" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" label:"Shutdown timeout" validate:"gt=0"`
	// TrustedOrigins may post the form cross-origin, e.g. behind a proxy
	// that rewrites the host.
	TrustedOrigins []string `koanf:"trusted_origins" label:"Trusted origins" validate:"dive,url"`
}

type Cookie struct {
	Secret string `koanf:"secret" label:"Cookie secret" validate:"required,min=32"`
	// Secure is forced on in production.
	Secure   bool   `koanf:"secure"`
	Path     string `koanf:"path" label:"Cookie path" validate:"required,startswith=/"`
	Domain   string `koanf:"domain" label:"Cookie domain" validate:"omitempty,hostname"`
	SameSite string `koanf:"same_site" label:"Cookie SameSite" validate:"oneof=lax strict none"`
}

type Log struct {
	Level  string `koanf:"level" label:"Log level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" label:"Log format" validate:"oneof=json text"`
}

type Sentry struct {
	DSN         string `koanf:"dsn" label:"Sentry DSN" validate:"omitempty,url"`
	Environment string `koanf:"environment"`
}

type Mail struct {
	Provider    string        `koanf:"provider" label:"Mail provider" validate:"oneof=stdout resend sendgrid ses msgraph"`
	From        string        `koanf:"from" label:"Default sender" validate:"omitempty,email"`
	ReplyTo     string        `koanf:"reply_to" label:"Reply-To" validate:"omitempty,email"`
	BodyFormat  string        `koanf:"body_format" label:"Body format" validate:"oneof=html markdown"`
	SendTimeout time.Duration `koanf:"send_timeout" label:"Send timeout" validate:"gt=0"`
	// Tags are attached to every message (categories, tags, email tags).
	Tags map[string]string `koanf:"tags"`
}

type Directory struct {
	Source   string        `koanf:"source" label:"Directory source" validate:"oneof=file postgres"`
	File     string        `koanf:"file" label:"Directory file" validate:"required_if=Source file"`
	CacheTTL time.Duration `koanf:"cache_ttl" label:"Directory cache TTL" validate:"gte=0"`
}

type Database struct {
	URL      string `koanf:"url" label:"Database URL"`
	MaxConns int32  `koanf:"max_conns" label:"Database max connections" validate:"gte=0"`
	// Migrate applies the users table migrations on start.
	Migrate bool `koanf:"migrate"`
}

type Redis struct {
	URL string `koanf:"url" label:"Redis URL"`
}

type Resend struct {
	APIKey string `koanf:"api_key" label:"Resend API key" validate:"required"`
}

type SendGrid struct {
	APIKey  string `koanf:"api_key" label:"SendGrid API key" validate:"required"`
	BaseURL string `koanf:"base_url" label:"SendGrid base URL" validate:"omitempty,url"`
}

type SES struct {
	Region          string `koanf:"region" label:"SES region" validate:"required"`
	AccessKeyID     string `koanf:"access_key_id" label:"SES access key id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `koanf:"secret_access_key" label:"SES secret access key" validate:"required_with=AccessKeyID"`
}

type MSGraph struct {
	TenantID     string `koanf:"tenant_id" label:"Graph tenant id" validate:"required"`
	ClientID     string `koanf:"client_id" label:"Graph client id" validate:"required"`
	ClientSecret string `koanf:"client_secret" label:"Graph client secret" validate:"required"`
	Sender       string `koanf:"sender" label:"Graph sender mailbox" validate:"required"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		App:    App{Env: "development"},
		Server: Server{Address: ":8080", ShutdownTimeout: 30 * time.Second},
		Cookie: Cookie{Path: "/", SameSite: "lax"},
		Log:    Log{Level: "info", Format: "json"},
		Mail: Mail{
			Provider:    ProviderStdout,
			BodyFormat:  "html",
			SendTimeout: 15 * time.Second,
		},
		Directory: Directory{Source: SourceFile, File: "users.yaml", CacheTTL: time.Minute},
		Database:  Database{MaxConns: 10, Migrate: true},
		SendGrid:  SendGrid{BaseURL: "https://api.sendgrid.com"},
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(os.Getenv(FileEnv))
}

func load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Join(ErrLoad, fmt.Errorf("read %s: %w", path, err))
		}
	}

	err := k.Load(env.ProviderWithValue("", ".", aliasValue), nil)
	if err != nil {
		return Config{}, errors.Join(ErrLoad, err)
	}
	err = k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil)
	if err != nil {
		return Config{}, errors.Join(ErrLoad, err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Join(ErrLoad, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envValue turns MAILPORTAL_A__B into a.b.
// List keys take comma separated values.
func envValue(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if key == "server.trusted_origins" {
		return key, strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return key, value
}

// aliasValue keeps only the variables listed in envAliases.
func aliasValue(key, value string) (string, any) {
	return envAliases[key], value
}

// Validate checks the common settings and those of the selected provider
// and directory source.
func (c Config) Validate() error {
	var errs validator.ValidationErrors
	collect := func(section string, err error) error {
		if err == nil {
			return nil
		}
		ve := validator.ExtractValidationErrors(err)
		if ve == nil {
			return err
		}
		for _, e := range ve {
			errs.Add(section+e.Field, e.Message)
		}
		return nil
	}

	if err := collect("", validator.Struct(c)); err != nil {
		return errors.Join(ErrInvalid, err)
	}

	var provider any
	switch c.Mail.Provider {
	case ProviderResend:
		provider = c.Resend
	case ProviderSendGrid:
		provider = c.SendGrid
	case ProviderSES:
		provider = c.SES
	case ProviderMSGraph:
		provider = c.MSGraph
	}
	if provider != nil {
		if err := collect(c.Mail.Provider+".", validator.Struct(provider)); err != nil {
			return errors.Join(ErrInvalid, err)
		}
	}

	if c.Directory.Source == SourcePostgres && c.Database.URL == "" {
		errs.Add("database.url", "Database URL is required for the postgres directory")
	}

	if !errs.IsEmpty() {
		return errors.Join(ErrInvalid, errs)
	}
	return nil
}

// IsProduction reports whether app.env is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
