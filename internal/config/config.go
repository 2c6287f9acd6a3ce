// Package config loads the service settings from the environment. Values in
// .env files are applied first, so a checkout can run without exporting
// anything by hand.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the full set of settings.
type Config struct {
	Env           string `env:"APP_ENV" env-default:"local"`
	Port          string `env:"APP_PORT" env-default:"8080"`
	DatabaseDSN   string `env:"DB_DSN" env-required:"true"`
	SessionSecret string `env:"SESSION_SECRET" env-default:"dev_fallback_secret"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`

	Storage    Storage
	Redis      Redis
	SMTP       SMTP
	Google     Google
	RajaOngkir RajaOngkir
	Auth       Auth
	Admin      Admin
}

// Storage selects where product images go.
type Storage struct {
	Driver           string `env:"STORAGE_DRIVER" env-default:"local"` // local | cloudinary
	UploadDir        string `env:"UPLOAD_DIR" env-default:"public/uploads"`
	UploadURL        string `env:"UPLOAD_URL" env-default:"/uploads"`
	CloudinaryURL    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"CLOUDINARY_FOLDER" env-default:"products"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST" env-default:"localhost"`
	Port     string `env:"SMTP_PORT" env-default:"1025"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" env-default:"no-reply@localhost"`
}

// Google OAuth client. Sign-in with Google is disabled when ClientID is empty.
type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	// CallbackURL defaults to PUBLIC_BASE_URL + /auth/google/callback.
	CallbackURL  string `env:"GOOGLE_CALLBACK_URL"`
}

type RajaOngkir struct {
	APIKey  string        `env:"RAJAONGKIR_API_KEY"`
	BaseURL string        `env:"RAJAONGKIR_BASE_URL" env-default:"https://api.rajaongkir.com/starter/"`
	Timeout time.Duration `env:"RAJAONGKIR_TIMEOUT" env-default:"10s"`
}

type Auth struct {
	OTPTTL        time.Duration `env:"OTP_TTL" env-default:"5m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" env-default:"1h"`
}

// Admin is the local administrator created at startup when Email is set.
type Admin struct {
	Email    string `env:"ADMIN_EMAIL"`
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
}

const devSessionSecret = "dev_fallback_secret"

// ErrDefaultSessionSecret is returned in prod when SESSION_SECRET is unset.
var ErrDefaultSessionSecret = errors.New("SESSION_SECRET must be set in prod")

// Load applies the given .env files (missing ones are skipped) and reads the
// environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	const op = "config.Load"
	for _, f := range envFiles {
		_ = godotenv.Overload(f)
	}
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Env == "prod" && (cfg.SessionSecret == "" || cfg.SessionSecret == devSessionSecret) {
		return nil, fmt.Errorf("%s: %w", op, ErrDefaultSessionSecret)
	}
	if cfg.Google.CallbackURL == "" {
		cfg.Google.CallbackURL = strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/auth/google/callback"
	}
	return &cfg, nil
}

// MustLoad loads .env from the working directory and its parents, the way the
// binary is started both from the repo root and from cmd/server.
func MustLoad() *Config {
	cfg, err := Load(".env", "../.env", "../../.env")
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}
