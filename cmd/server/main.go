package main

import (
	"github.com/berryware/berryrag/internal/server"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  util.GetEnvString("LOG_LEVEL", "info"),
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	server.Init()
}
