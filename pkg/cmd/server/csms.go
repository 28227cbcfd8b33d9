package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Lyadalachanchu/voice4evs/config"
	"github.com/Lyadalachanchu/voice4evs/pkg/api"
	"github.com/Lyadalachanchu/voice4evs/pkg/centralsystem"
	"github.com/Lyadalachanchu/voice4evs/pkg/guardrails"
	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage/memory"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage/postgres"
)

type csmsServer struct {
	c      *config.Config
	quitCh chan bool
	doneCh chan bool

	nc *nats.Conn
	db *sqlx.DB
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func newCSMSServer(c *config.Config) (*csmsServer, error) {
	s := &csmsServer{
		c:      c,
		quitCh: make(chan bool),
		doneCh: make(chan bool),
	}

	// NATS is optional: without a broker the command path still works,
	// only the realtime event feed is unavailable.
	if c.NATSServerURL != "" {
		nc, err := nats.Connect(c.NATSServerURL,
			nats.DrainTimeout(10*time.Second))
		if err != nil {
			return nil, err
		}
		s.nc = nc
	} else {
		log.Warn("NATS_URL not set, realtime events are disabled")
	}

	// The database is optional as well: runtime state is volatile by
	// design, postgres only mirrors the audit history.
	if c.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		s.db = db
	}

	return s, nil
}

func (s *csmsServer) buildStore() storage.Interface {
	store := memory.NewStore()
	if s.db == nil {
		return store
	}

	log.Info("mirroring audit entries to postgres")
	mirrored := storage.NewMirroredAudit(store.Audit(), postgres.NewAuditStore(s.db))
	return storage.WithAudit(store, mirrored)
}

func (s *csmsServer) buildGuardrails() *guardrails.Enforcer {
	settings := guardrails.DefaultSettings()

	settings.AllowGenericConfig = s.c.AllowGenericConfig
	if keys := s.c.AllowedConfigKeySet(); len(keys) > 0 {
		settings.AllowedKeys = keys
	}
	if s.c.PowerLimitMinKW > 0 {
		settings.MinKW = s.c.PowerLimitMinKW
	}
	if s.c.PowerLimitMaxKW > 0 {
		settings.MaxKW = s.c.PowerLimitMaxKW
	}
	if s.c.RateLimitWindowSecs > 0 {
		settings.Window = time.Duration(s.c.RateLimitWindowSecs) * time.Second
	}
	if s.c.RateLimitMaxConfig > 0 {
		settings.MaxConfig = s.c.RateLimitMaxConfig
	}
	if s.c.RateLimitMaxPower > 0 {
		settings.MaxPower = s.c.RateLimitMaxPower
	}

	return guardrails.NewEnforcer(settings)
}

func (s *csmsServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	// Compose the controller with its collaborators. Everything is passed
	// explicitly, nothing hangs off package globals.
	store := s.buildStore()
	scenarios := scenario.NewEngine(store.Status())

	opts := centralsystem.DefaultOptions()
	if s.c.HeartbeatInterval > 0 {
		opts.HeartbeatInterval = s.c.HeartbeatInterval
	}
	if s.c.CallTimeoutSeconds > 0 {
		opts.CallTimeout = time.Duration(s.c.CallTimeoutSeconds) * time.Second
	}
	opts.AuditEnabled = s.c.AuditEnabled

	ctrl := centralsystem.NewController(s.nc, store, s.buildGuardrails(), scenarios, opts)

	// Register the charge point endpoint and the API endpoints
	centralsystem.NewHandler(ctrl).RegisterRoutes(e)
	api.NewHandler(s.nc, ctrl).RegisterRoutes(e)

	go func() {
		log.WithFields(log.Fields{
			"host": s.c.BindHost,
			"port": s.c.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.c.BindHost, s.c.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, err := strconv.ParseInt(reqSizeStr, 10, 0)
			if err != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func (s *csmsServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}
	if s.db != nil {
		s.db.Close()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

func RunServe(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newCSMSServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
