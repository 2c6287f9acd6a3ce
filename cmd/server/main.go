package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"secondhand/internal/config"
	mydb "secondhand/internal/db"
	"secondhand/internal/handlers"
	"secondhand/internal/lib/sl"
	"secondhand/internal/mail"
	"secondhand/internal/oauth"
	"secondhand/internal/otp"
	"secondhand/internal/repository"
	"secondhand/internal/service"
	"secondhand/internal/shipping"
	"secondhand/internal/storage"
)

func main() {
	cfg := config.MustLoad()
	log := sl.New(cfg.Env)
	log.Info("starting secondhand", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := mydb.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer mydb.Close(db, log)
	if err := mydb.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	store, uploadDir, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}

	rdb, err := otp.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("failed to close redis", sl.Err(err))
		}
	}()

	users := repository.NewUsers(db)
	auth := service.NewAuth(users, log)
	if cfg.Admin.Email != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}
		log.Info("admin account checked", slog.String("email", cfg.Admin.Email), slog.Bool("created", created))
	} else {
		log.Warn("ADMIN_EMAIL is empty, no admin account is created")
	}

	google := oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	if !google.Enabled() {
		log.Info("google sign-in disabled, GOOGLE_CLIENT_ID is empty")
	}

	h := handlers.New(handlers.Deps{
		Log:      log,
		Products: service.NewProducts(repository.NewProducts(db), store, log),
		Auth:     auth,
		Accounts: service.NewAccounts(
			users,
			otp.NewStore(rdb, cfg.Auth.OTPTTL),
			mail.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From),
			cfg.Auth.ResetTokenTTL,
			log,
		),
		Shipping: shipping.NewClient(cfg.RajaOngkir.BaseURL, cfg.RajaOngkir.APIKey, cfg.RajaOngkir.Timeout),
		Google:   google,
		DB:       sqlDB,
	})

	if cfg.Env != sl.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r, err := h.Router(handlers.RouterOptions{
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.Env == sl.EnvProd,
		UploadDir:     uploadDir,
		UploadURL:     cfg.Storage.UploadURL,
		Registry:      reg,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// openStorage picks the image backend. The returned directory is non-empty
// only for local storage, which the router then serves.
func openStorage(cfg config.Storage) (storage.ObjectStore, string, error) {
	switch cfg.Driver {
	case "local":
		l, err := storage.NewLocal(cfg.UploadDir, cfg.UploadURL)
		if err != nil {
			return nil, "", err
		}
		return l, cfg.UploadDir, nil
	case "cloudinary":
		c, err := storage.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			return nil, "", err
		}
		return c, "", nil
	default:
		return nil, "", fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Driver)
	}
}
