package main

import (
	"github.com/kinbook/lineage/internal/server"
	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level: util.GetEnvString("LOG_LEVEL", "info"),
	})
	logger.Init(consoleLogger)

	server.Init()
}
