package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/berryware/berryrag/internal/bootstrap"
	"github.com/berryware/berryrag/internal/mcp"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/crawler"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	// Stdout belongs to the MCP protocol; the console logger writes to
	// stderr.
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  util.GetEnvString("LOG_LEVEL", "info"),
		Prefix: "mcp",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, pool, err := bootstrap.NewEngine(ctx, "memory")
	if err != nil {
		logger.Fatal("Failed to build retrieval engine", "err", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	crawl := crawler.NewCrawler(crawler.NewCrawlerParams{
		Fetcher: crawler.NewHTTPFetcher(crawler.NewHTTPFetcherParams{}),
		HostDelay: time.Duration(
			util.GetEnvInt("CRAWL_HOST_DELAY_MS", 1000),
		) * time.Millisecond,
	})

	s := mcp.NewServer(engine, crawl)

	logger.Info("Serving MCP over stdio",
		"server", mcp.ServerName, "version", mcp.ServerVersion,
		"provider", engine.Provider().Name())

	done := make(chan error, 1)
	go func() {
		done <- mcpserver.ServeStdio(s)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Fatal("MCP server exited", "err", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, exiting...")
	}
}
