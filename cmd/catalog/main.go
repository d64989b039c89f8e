// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the catalog CLI: a terminal client for
// the article catalog API with live update notifications.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/article-catalog/internal/catalog"
	"github.com/pdiddy/article-catalog/internal/download"
	"github.com/pdiddy/article-catalog/internal/httputil"
	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the catalog CLI.
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the academic article catalog from the terminal",
	Long: `catalog searches the article catalog, shows article and author records,
and follows live "article updated" notifications from the catalog hub.

Each screen of the catalog is a subcommand: search, article, author, and
filters. watch prints update notifications as they arrive, and tui opens the
interactive browser.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./catalog.yaml or ~/.config/catalog/catalog.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "catalog API base URL")
	rootCmd.PersistentFlags().String("hub-url", "", "notification hub URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotated file instead of stderr")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("hub.url", rootCmd.PersistentFlags().Lookup("hub-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// setDefaults registers every config key so that environment overrides
// reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", "article-catalog/"+version)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("api.burst", 10)

	v.SetDefault("hub.url", "http://localhost:8080/hubs/notifications")
	v.SetDefault("hub.skip_negotiation", false)
	v.SetDefault("hub.retry_delay", hub.DefaultRetryDelay.String())
	v.SetDefault("hub.max_retry_delay", hub.DefaultMaxRetryDelay.String())
	v.SetDefault("hub.keep_alive", hub.DefaultKeepAlive.String())
	v.SetDefault("hub.server_timeout", hub.DefaultServerTimeout.String())

	v.SetDefault("toast.duration", "7s")
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("catalog")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "catalog"))
		}
	}

	viper.SetEnvPrefix("CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// app holds the long-lived collaborators a command needs.
type app struct {
	cfg    types.Config
	log    *logrus.Logger
	client *catalog.Client
	hub    *hub.Client
}

// newApp builds the logger, API client and hub client from the config.
// logFile, when non-empty, replaces an unset log.file.
func newApp(logFile string) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Log.File == "" {
		cfg.Log.File = logFile
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		log:    log,
		client: catalog.New(cfg.API, cfg.Cache.TTL, logging.Component(log, "catalog")),
		hub:    hub.New(cfg.Hub, logging.Component(log, "hub")),
	}, nil
}

// downloader saves PDFs into dir. Downloads share the API rate limit and
// user agent but have no overall timeout.
func (a *app) downloader(dir string) *download.Downloader {
	log := logging.Component(a.log, "download")
	doer := httputil.NewDoer(&http.Client{}, httputil.Options{
		UserAgent:  a.cfg.API.UserAgent,
		MaxRetries: a.cfg.API.MaxRetries,
		RateLimit:  a.cfg.API.RateLimit,
		Burst:      a.cfg.API.Burst,
	}, log)
	return download.New(doer, dir, log)
}

// close releases the hub connection.
func (a *app) close() {
	_ = a.hub.Close()
}

// signalContext is canceled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
