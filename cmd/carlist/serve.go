package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carlist/internal/config"
	"carlist/internal/logging"
	"carlist/internal/server"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings := serverSettings(cmd, cfg.Server)

	// The server has no UI, so logs default to stderr
	path := logPath
	if path == "" {
		path = "-"
	}
	logger, closeLog, err := logging.New(logging.Options{Path: path, Verbose: verbose})
	if err != nil {
		return err
	}
	defer closeLog()

	srv, err := server.New(settings.Data, server.Options{
		Path:    settings.Path,
		Latency: settings.Latency.Std(),
		Fail:    settings.Fail,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	logger.Info("serving listings",
		zap.String("addr", settings.Addr),
		zap.String("data", settings.Data),
		zap.String("path", settings.Path),
		zap.Duration("latency", settings.Latency.Std()),
		zap.Bool("fail", settings.Fail))

	return srv.ListenAndServe(ctx, settings.Addr)
}

// serverSettings applies the flags that were set on top of the config
func serverSettings(cmd *cobra.Command, s config.ServerSettings) config.ServerSettings {
	flags := cmd.Flags()
	if flags.Changed("data") {
		s.Data, _ = flags.GetString("data")
	}
	if flags.Changed("addr") {
		s.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("path") {
		s.Path, _ = flags.GetString("path")
	}
	if flags.Changed("latency") {
		latency, _ := flags.GetDuration("latency")
		s.Latency = config.Duration(latency)
	}
	if flags.Changed("fail") {
		s.Fail, _ = flags.GetBool("fail")
	}
	return s
}
