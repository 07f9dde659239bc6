package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"mediadex/internal/app"
	"mediadex/pkg/config"
	"mediadex/pkg/logger"
	"mediadex/pkg/shutdown"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		logger.Init()
		shutdown.Abort("failed to load config", err, dbVal)
	}

	logger.InitWithLevel(cfg.Logging.Level, cfg.Logging.Format)

	// Flags win over config/env when explicitly set.
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	dbPath := cfg.Storage.DBPath
	if dbPath == "" || setFlags["db"] {
		dbPath = dbVal
	}

	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "file")
	}

	eff := config.Effective{
		Config: cfg,
		Addr:   addr,
		DBPath: dbPath,
		Source: strings.Join(srcs, "+"),
	}

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, dbPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		if _, derr := shutdown.WriteCrashDump(dbPath, "server_error", err); derr != nil {
			logger.Warn("crash_dump_failed", "error", derr)
		}
		logger.Error("server_exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server_stopped")
}
