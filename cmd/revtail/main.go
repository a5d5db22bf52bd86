package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/revoltkit"
	"github.com/dgnsrekt/revoltkit/capture"
	"github.com/dgnsrekt/revoltkit/config"
	"github.com/dgnsrekt/revoltkit/model"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func setupLogger(verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	// Set log level from config
	if logCfg != nil && logCfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	// Add file output if enabled
	if logCfg != nil && logCfg.Enabled {
		if err := os.MkdirAll(logCfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("creating logs directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(logCfg.Directory, fmt.Sprintf("revtail_%s.log", timestamp))
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logFile)
	}

	return zapConfig.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "revtail",
		Short: "Connect to the chat gateway, mirror state, and log every event",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				var err error
				logger, err = setupLogger(verbose, nil)
				return err
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = setupLogger(verbose, &cfg.Logging)
			if err != nil {
				return err
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tail(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("REVTAIL_CONFIG"), "config file path (or set REVTAIL_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func tail(ctx context.Context) error {
	defer logger.Sync()

	opts := revoltkit.OptionsFromConfig(cfg, logger)

	if cfg.Capture.Enabled {
		recorder, err := capture.NewRecorder(cfg.Capture.Path)
		if err != nil {
			return err
		}
		defer recorder.Close()
		logger.Info("capturing raw frames", zap.String("path", cfg.Capture.Path))
		opts.Recorder = recorder
	}

	client := revoltkit.New(opts)

	events, cancelEvents := client.Events(256)
	defer cancelEvents()

	client.Start(ctx)
	logger.Info("gateway session starting", zap.String("url", cfg.Gateway.URL))

	for {
		select {
		case <-ctx.Done():
			client.Close()
			<-client.Done()
			return nil

		case <-client.Done():
			if err := client.Err(); err != nil {
				logger.Error("session ended", zap.Error(err))
				return err
			}
			return nil

		case ev := <-events:
			if ev == nil {
				continue
			}
			logger.Info("event",
				zap.String("type", ev.EventType()),
				zap.Int("cached_servers", client.Cache().Len(model.KindServer)),
				zap.Int("cached_channels", client.Cache().Len(model.KindChannel)),
			)
		}
	}
}
