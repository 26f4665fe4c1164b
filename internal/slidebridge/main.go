// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slidescore/slidebridge/core/config"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/spf13/cobra"
)

const Version = "1.4.0"

// app - state shared by all commands, filled in by the root command before any of them run
type app struct {
	// Flags
	configPath string
	slideURL   string
	logLevel   string
	logFormat  string

	cfg config.BridgeConfig
	log logger.ILogger

	metricsServer *http.Server
}

func main() {
	// Ctrl+C cancels uploads between chunks, they can be resumed from where they stopped
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	if err != nil {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "slidebridge",
		Short: "Moves annotations between image analysis tools and a slide scoring service",
		Long: `slidebridge reads questions, answers and TMA grids from a slide scoring service and
uploads annotations as answers, using chunked resumable uploads for large ones.

Configuration comes from --config (JSON or YAML), overridden by SLIDEBRIDGE_CONFIG_<Field>
environment variables, overridden by flags.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.shutdown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (.json, .yaml or .yml)")
	flags.StringVar(&a.slideURL, "slide-url", "", "Slide metadata URL, ending in SlideScoreMetadata.json")
	flags.StringVar(&a.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	flags.StringVar(&a.logFormat, "log-format", "", "text or json")

	root.AddCommand(
		newQuestionsCmd(a),
		newUploadCmd(a),
		newImportAnswersCmd(a),
		newImportTMACmd(a),
		newExportCmd(a),
		newTileCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = cfg.MakeLogger()
	if err != nil {
		return err
	}

	if len(cfg.SentryDSN) > 0 {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.EnvironmentName,
			Release:     Version,
		}); err != nil {
			a.log.Errorf("Sentry initialization failed: %v", err)
		}
	}

	if len(cfg.MetricsAddr) > 0 {
		a.startMetrics(cfg.MetricsAddr)
	}

	a.log.Debugf("slidebridge %v running %v", Version, cmd.CommandPath())
	return nil
}

func (a *app) loadConfig() (config.BridgeConfig, error) {
	var cfg config.BridgeConfig
	if len(a.configPath) > 0 {
		var err error
		cfg, err = config.NewConfigFromFile(a.configPath)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.NewConfigFromEnv()
	}

	// Flags win over file and env
	if len(a.slideURL) > 0 {
		cfg.SlideURL = a.slideURL
	}
	if len(a.logLevel) > 0 {
		lvl, err := logger.ParseLogLevel(a.logLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	if len(a.logFormat) > 0 {
		cfg.LogFormat = a.logFormat
	}

	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// Serves /metrics for the life of the command, so long uploads can be watched
func (a *app) startMetrics(addr string) {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	a.metricsServer = &http.Server{
		Addr:    addr,
		Handler: handlers.CombinedLoggingHandler(os.Stderr, router),
	}

	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Errorf("Metrics server on %v failed: %v", addr, err)
		}
	}()
	a.log.Infof("Serving metrics on %v/metrics", addr)
}

func (a *app) shutdown() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.metricsServer.Shutdown(ctx)
		a.metricsServer = nil
	}

	if zl, ok := a.log.(*logger.ZapLogger); ok {
		zl.Close()
	}
	sentry.Flush(2 * time.Second)
}

func (a *app) printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
