package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/berryware/berryrag/internal/bootstrap"
	"github.com/berryware/berryrag/internal/queue"
	mid "github.com/berryware/berryrag/internal/server/middleware"
	"github.com/berryware/berryrag/internal/storage"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/crawler"
	"github.com/berryware/berryrag/pkg/logger"
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

	authEnabled := util.GetEnvBool("AUTH_ENABLED", false)
	var key *keyfunc.Keyfunc
	if authEnabled {
		jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
		k, err := keyfunc.NewDefault([]string{jwksUrl})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	engine, pool, err := bootstrap.NewEngine(ctx, "pgx")
	if err != nil {
		logger.Fatal("Failed to build retrieval engine", "err", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.QueueNames()); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	crawl := crawler.NewCrawler(crawler.NewCrawlerParams{
		Fetcher: crawler.NewHTTPFetcher(crawler.NewHTTPFetcherParams{}),
		HostDelay: time.Duration(
			util.GetEnvInt("CRAWL_HOST_DELAY_MS", 1000),
		) * time.Millisecond,
	})

	app := &mid.App{
		DBConn:       pool,
		Queue:        ch,
		Key:          key,
		S3:           s3,
		Engine:       engine,
		Crawler:      crawl,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		AuthEnabled:  authEnabled,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("512M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
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
