package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/iskr/internal/client/config"
	"github.com/dmitrijs2005/iskr/internal/client/gateway"
	"github.com/dmitrijs2005/iskr/internal/client/metrics"
	"github.com/dmitrijs2005/iskr/internal/client/services"
	"github.com/dmitrijs2005/iskr/internal/client/sessionstore"
	"github.com/dmitrijs2005/iskr/internal/client/storage"
	"github.com/dmitrijs2005/iskr/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	authService services.AuthService
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	db            *sql.DB
	metricsServer *http.Server
}

// NewApp opens the local database and wires the gateway, the session store
// and the auth service.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	mode, err := gateway.ParseRegistrationMode(c.RegistrationMode)
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	gw, err := gateway.New(c.ServerBaseURL,
		gateway.WithTimeout(c.RequestTimeout),
		gateway.WithRegistrationMode(mode),
		gateway.WithLogger(logger.With("component", "gateway")),
		gateway.WithMetrics(m),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := sessionstore.New(sessionstore.NewSQLiteRecord(db),
		sessionstore.WithLogger(logger.With("component", "sessionstore")),
		sessionstore.WithMetrics(m),
	)

	app := &App{
		config:      c,
		authService: services.NewAuthService(gw, store, logger.With("component", "auth")),
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		db:          db,
	}
	if c.MetricsAddr != "" {
		app.metricsServer = &http.Server{
			Addr:              c.MetricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return app, nil
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Run restores the stored session, starts the background workers and
// blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown(ctx)

	if a.metricsServer != nil {
		go func() {
			a.logger.Info(ctx, "metrics endpoint listening", "addr", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error(ctx, "metrics endpoint failed", "error", err)
			}
		}()
	}

	if err := a.authService.Start(ctx); err != nil {
		a.logger.Warn(ctx, "session start failed", "error", err)
	}

	printlnFn("Добро пожаловать в iskr (введите 'help' для списка команд)")
	if s := a.authService.Snapshot(); s.IsAuthenticated {
		printlnFn(fmt.Sprintf("Вы вошли как %s", s.User.DisplayName()))
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartSessionWatcher(watchCtx, a.config.SessionCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := a.authService.Close(ctx); err != nil {
		a.logger.Warn(ctx, "background calls not finished", "error", err)
	}
	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "close database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.Snapshot().IsAuthenticated
}

// StartSessionWatcher refreshes an authenticated session every interval
// and tells the user when the server ended it.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			before := a.authService.Snapshot()
			if !before.IsAuthenticated {
				continue
			}

			err := a.authService.CheckAuth(ctx)
			if err != nil && !errors.Is(err, services.ErrBusy) {
				a.logger.Debug(ctx, "session check failed", "error", err)
			}

			// a logout typed meanwhile leaves no error to report
			after := a.authService.Snapshot()
			if !after.IsAuthenticated && after.LastError != nil {
				printlnFn()
				printlnFn(after.LastError.String())
			}

		case <-ctx.Done():
			return
		}
	}
}
