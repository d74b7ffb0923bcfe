package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kinbook/lineage/internal/db"
	"github.com/kinbook/lineage/internal/queue"
	mid "github.com/kinbook/lineage/internal/server/middleware"
	"github.com/kinbook/lineage/internal/storage"
	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/logger"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"
	"github.com/kinbook/lineage/pkg/tree"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"golang.org/x/net/netutil"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	migrationsDir := util.GetEnvString("MIGRATIONS_DIR", "migrations")
	if err := db.Migrate(databaseURL, migrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	st := pgstore.NewStore(conn)
	checkEvery := util.GetEnvInt("GRAPH_CHECK_SECONDS", 15)
	graphs := tree.NewProvider(tree.NewProviderParams{
		Load:       st.LoadGraph,
		CheckEvery: time.Duration(checkEvery) * time.Second,
	})

	app := &mid.App{
		DBConn: conn,
		Queue:  ch,
		S3:     s3,
		Graphs: graphs,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(util.GetEnvString("CORS_ALLOWED_ORIGINS", "*"), ","),
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		if maxConns := util.GetEnvInt("MAX_CONNS", 0); maxConns > 0 {
			ln, err := net.Listen("tcp", ":"+port)
			if err != nil {
				logger.Fatal("Failed to listen", "port", port, "err", err)
			}
			e.Listener = netutil.LimitListener(ln, maxConns)
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
