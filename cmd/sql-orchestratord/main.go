package main

import (
	"os"

	"sql-orchestrator/internal/logger"
	"sql-orchestrator/internal/platform/autostart"
)

func main() {
	if runAsService() {
		return
	}

	if err := autostart.RunForeground(&serverApp{}); err != nil {
		logger.NewStderr().Error("sql-orchestratord stopped", err)
		os.Exit(1)
	}
}
