// avisame: servicio de verificación y notificaciones por email.
//
// Arranque: config YAML + overrides de ENV, logger singleton, store de OTP
// según driver, cola de dispatch y servidor HTTP, todo bajo un errgroup con
// shutdown ordenado.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/avisame/internal/bootstrap"
	"github.com/dropDatabas3/avisame/internal/config"
	"github.com/dropDatabas3/avisame/internal/email"
	"github.com/dropDatabas3/avisame/internal/flows"
	healthctl "github.com/dropDatabas3/avisame/internal/http/controllers/health"
	notifyctl "github.com/dropDatabas3/avisame/internal/http/controllers/notify"
	otpctl "github.com/dropDatabas3/avisame/internal/http/controllers/otp"
	mw "github.com/dropDatabas3/avisame/internal/http/middlewares"
	"github.com/dropDatabas3/avisame/internal/http/router"
	"github.com/dropDatabas3/avisame/internal/metrics"
	"github.com/dropDatabas3/avisame/internal/notify"
	"github.com/dropDatabas3/avisame/internal/notify/render"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
	"github.com/dropDatabas3/avisame/internal/otp"
	"github.com/dropDatabas3/avisame/internal/otp/store"
	pgstore "github.com/dropDatabas3/avisame/internal/otp/store/pg"
	redisstore "github.com/dropDatabas3/avisame/internal/otp/store/redis"
	"github.com/dropDatabas3/avisame/internal/rate"
)

var version = "dev" // seteado via -ldflags en release

func main() {
	// .env si existe; en prod las vars vienen del entorno.
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al config YAML (opcional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		// Logger todavía no inicializado.
		panic(err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "avisame",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Store de OTP ───
	otpStore, storeCloser, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("store open failed", logger.Err(err), logger.String("driver", cfg.Store.Driver))
	}
	defer func() { _ = storeCloser.Close() }()
	log.Info("otp store ready", logger.String("driver", cfg.Store.Driver))

	issuerOpts := []otp.IssuerOption{}
	if cfg.OTP.TTL > 0 {
		issuerOpts = append(issuerOpts, otp.WithTTL(cfg.OTP.TTL))
	}
	issuer := otp.NewIssuer(otpStore, issuerOpts...)

	// ─── Dispatcher + cola ───
	engine, err := render.New()
	if err != nil {
		log.Fatal("template engine failed", logger.Err(err))
	}

	var sender email.Sender
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			From:               cfg.SMTP.From,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			Timeout:            cfg.SMTPTimeout(),
		})
		log.Info("smtp sender ready", logger.String("host", cfg.SMTP.Host))
	} else {
		// Sin SMTP configurado los emails van al log. Sólo dev.
		sender = email.NewDevSender()
		log.Warn("no smtp host configured, using dev sender")
	}

	dispatcher, err := notify.New(engine, sender,
		notify.WithFrontendURL(cfg.Notify.FrontendURL),
		notify.WithSendTimeout(cfg.SendTimeout()),
	)
	if err != nil {
		// Catálogo roto: se corta en el boot, no en el primer dispatch.
		log.Fatal("dispatcher init failed", logger.Err(err))
	}

	queue := notify.NewQueue(dispatcher, notify.QueueConfig{
		Size:       cfg.Notify.QueueSize,
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	})

	fl := flows.New(issuer, queue)

	// ─── Rate limiter del issue endpoint ───
	var issueLimiter rate.Limiter
	if cfg.Rate.Enabled {
		if rs, ok := otpStore.(*redisstore.Store); ok {
			issueLimiter = rate.NewRedisLimiter(rs.Client(), "rl:", cfg.Rate.Issue.Limit, cfg.IssueWindow())
		} else {
			issueLimiter = rate.NewMemoryLimiter(cfg.Rate.Issue.Limit, cfg.IssueWindow())
		}
	}

	// ─── Bootstrap de admin (sólo driver pg) ───
	if cfg.Bootstrap.AdminEmail != "" {
		if ps, ok := otpStore.(*pgstore.Store); ok {
			adminStore := bootstrap.NewPGAdminStore(ps.Pool())
			if err := bootstrap.EnsureAdmin(ctx, adminStore, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
				log.Warn("admin bootstrap failed", logger.Err(err))
			}
		} else {
			log.Warn("admin bootstrap requires the pg store, skipping")
		}
	}

	// ─── HTTP ───
	pingers := map[string]healthctl.Pinger{}
	switch s := otpStore.(type) {
	case *pgstore.Store:
		pingers["postgres"] = healthctl.PingFunc(s.Ping)
	case *redisstore.Store:
		pingers["redis"] = healthctl.PingFunc(s.Ping)
	}

	handler := router.New(router.Deps{
		OTP:    otpctl.New(fl),
		Notify: notifyctl.New(queue, dispatcher),
		Health: healthctl.New(version, pingers),
		Auth: mw.AuthConfig{
			Secret: cfg.Auth.ServiceSecret,
			Issuer: cfg.Auth.Issuer,
		},
		IssueLimiter: issueLimiter,
		Metrics:      promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return queue.Run(ctx)
	})

	if cfg.OTP.GCInterval > 0 {
		g.Go(func() error {
			issuer.GC(ctx, cfg.OTP.GCInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server exited with error", logger.Err(err))
	}
	log.Info("bye")
}
