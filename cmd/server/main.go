package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"

	"github.com/tariel-x/weddingcards/internal/checkin"
	"github.com/tariel-x/weddingcards/internal/config"
	"github.com/tariel-x/weddingcards/internal/database"
	"github.com/tariel-x/weddingcards/internal/handlers"
	"github.com/tariel-x/weddingcards/internal/notify"
	"github.com/tariel-x/weddingcards/internal/planning"
	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/static"
	"github.com/tariel-x/weddingcards/internal/storage"
	"github.com/tariel-x/weddingcards/internal/websocket"
)

const AppVersion = "1.0.0"

// Build timestamp - set at compile time or use current time
var buildTimestamp = time.Now().Unix()

func main() {
	httpOnly := flag.Bool("http-only", false, "Run in backend-only mode (disable SSL/LE, use HTTP)")
	selfSigned := flag.Bool("self-signed", false, "Enable HTTPS using a generated self-signed certificate")
	flag.Parse()

	cfg := config.Load(*httpOnly)
	logger := newLogger(cfg.LogLevel)
	logger.Info().Str("version", AppVersion).Int64("build", buildTimestamp).Msg("weddingcards server")

	if *httpOnly && cfg.FrontendURI == "" {
		logger.Error().Msg("FRONTEND_URI is required when --http-only is specified")
		return
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
		return
	}

	store, err := storage.NewLocalStore(cfg.MediaDir, cfg.SiteURL+"/media")
	if err != nil {
		logger.Error().Err(err).Msg("failed to open media store")
		return
	}

	fonts, err := render.NewFontLoader(cfg.FontDirs, logger.With().Str("component", "fonts").Logger())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load fonts")
		return
	}
	renderer := render.NewRenderer(fonts, logger.With().Str("component", "render").Logger())

	plans := planning.New(db, renderer, store, cfg.SiteURL, logger.With().Str("component", "planning").Logger())
	checkins := checkin.NewService(db, logger.With().Str("component", "checkin").Logger())

	hub := websocket.NewHub(logger.With().Str("component", "feed").Logger())
	pusher := notify.New(db, notify.VAPIDKeys{
		Subject:    cfg.VAPIDKeys.Subject,
		PublicKey:  cfg.VAPIDKeys.PublicKey,
		PrivateKey: cfg.VAPIDKeys.PrivateKey,
	}, logger.With().Str("component", "push").Logger())
	checkins.Subscribe(hub)
	checkins.Subscribe(pusher)

	pages, err := static.LoadPages()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load page templates")
		return
	}

	h := handlers.New(cfg, plans, checkins, pusher, hub, store, pages, logger.With().Str("component", "http").Logger())
	router := setupRouter(h, logger)
	handler := corsHandler(cfg).Handler(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startServer(ctx, handler, cfg, *selfSigned, logger)

	pusher.Wait()
	logger.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func setupRouter(h *handlers.Handlers, logger zerolog.Logger) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), zerologGinLogger(logger))
	h.Routes(router)
	return router
}

// corsHandler allows the planner app. In http-only mode only FrontendURI
// may call the API; otherwise any origin may.
func corsHandler(cfg *config.Config) *cors.Cors {
	origins := []string{"*"}
	if cfg.HTTPOnly && cfg.FrontendURI != "" {
		origins = []string{cfg.FrontendURI}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		AllowCredentials: origins[0] != "*",
		MaxAge:           600,
	})
}

func newServer(addr string, handler http.Handler, logger zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     log.New(newTLSErrorWriter(logger), "", 0),
	}
}

// shutdownOnDone closes servers once ctx is cancelled.
func shutdownOnDone(ctx context.Context, logger zerolog.Logger, servers ...*http.Server) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("addr", srv.Addr).Msg("server shutdown")
		}
	}
}

func startServer(ctx context.Context, handler http.Handler, cfg *config.Config, selfSigned bool, logger zerolog.Logger) {
	if cfg.HTTPOnly {
		startHTTP(ctx, handler, cfg, logger)
		return
	}
	if selfSigned {
		startSelfSignedHTTPS(ctx, handler, cfg, logger)
		return
	}
	startAutocertHTTPS(ctx, handler, cfg, logger)
}

func startHTTP(ctx context.Context, handler http.Handler, cfg *config.Config, logger zerolog.Logger) {
	httpServer := newServer(":"+cfg.HTTPPort, handler, logger)
	go shutdownOnDone(ctx, logger, httpServer)

	logger.Info().Str("port", cfg.HTTPPort).Str("frontend_uri", cfg.FrontendURI).Str("site_url", cfg.SiteURL).Msg("starting HTTP server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("failed to start HTTP server")
	}
}

func startAutocertHTTPS(ctx context.Context, handler http.Handler, cfg *config.Config, logger zerolog.Logger) {
	certsDir := config.GetCertsDirectory()
	if err := os.MkdirAll(certsDir, 0700); err != nil {
		logger.Error().Err(err).Msg("failed to create certs directory")
		return
	}

	domain := normalizeDomain(cfg.Domain)
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		HostPolicy: func(ctx context.Context, host string) error {
			if normalizeDomain(host) != domain {
				return fmt.Errorf("host %q not configured (expected %q)", host, domain)
			}
			return nil
		},
		Cache: autocert.DirCache(certsDir),
	}

	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/.well-known/acme-challenge/") {
			m.HTTPHandler(nil).ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+r.RequestURI, http.StatusMovedPermanently)
	})

	httpServer := newServer(":"+cfg.HTTPPort, redirect, logger)
	httpsServer := newServer(":"+cfg.HTTPSPort, handler, logger)
	httpsServer.TLSConfig = m.TLSConfig()
	go shutdownOnDone(ctx, logger, httpServer, httpsServer)

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("HTTP server (ACME challenge & redirects) starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start HTTP server")
			os.Exit(1)
		}
	}()

	go startCertificateRenewal(ctx, m, domain, logger)

	logger.Info().Str("port", cfg.HTTPSPort).Str("domain", domain).Str("certs", certsDir).Msg("HTTPS server starting")
	if domain == "localhost" || domain == "127.0.0.1" {
		logger.Warn().Msg("Let's Encrypt will not work for localhost. Use --self-signed for local development.")
	}
	if err := httpsServer.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("failed to start HTTPS server")
	}
}

// normalizeDomain lowercases domain and strips a www. prefix.
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(domain, "www.")
}
