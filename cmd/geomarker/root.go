// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wneessen/geomarker/internal/config"
	"github.com/wneessen/geomarker/internal/i18n"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "geomarker",
	Short: "Marker map centered on the current device location",
	Long: `geomarker shows the device location on a map and lets you drop markers on it.
Tapping a marker looks up its address and shows it as a notification. The map is
written as GeoJSON to stdout or served over a websocket, map events are read from
stdin or the websocket.`,
	SilenceUsage: true,
	RunE:         runMap,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before the config")
}

func runMap(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		return err
	}

	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize geomarker service", logger.Err(err))
		return err
	}

	log.Info("starting geomarker", slog.String("version", version), slog.String("commit", commit),
		slog.String("date", date))
	if err = serv.Run(cmd.Context()); err != nil {
		log.Error("geomarker service failed", logger.Err(err))
		return err
	}
	log.Info("shutting down geomarker")
	return nil
}

// loadConfig loads the environment file, then the config from --config, the default config
// location or the environment alone, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load environment file: %w", err)
		}
	}

	if configPath != "" {
		return config.NewFromFile(filepath.Dir(configPath), filepath.Base(configPath))
	}
	if path, file := config.FindFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}
