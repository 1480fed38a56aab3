package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/berrythewa/clipstream"
	"github.com/berrythewa/clipstream/internal/config"
	"github.com/berrythewa/clipstream/internal/logging"
	"github.com/berrythewa/clipstream/pkg/format"
)

var (
	// Flags that apply to all commands
	cfgFile   string
	logLevel  string
	logFormat string

	// Flags for watch mode (the default command)
	interval      time.Duration
	maxSize       int64
	maxImageSize  int64
	customFormats []string
	bufferSize    int
	gatePrivacy   bool
	noColor       bool

	// The loaded configuration
	cfg *config.Config

	// Logger instance
	logger *zap.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "clipstream",
	Short: "Clipstream watches the system clipboard",
	Long: `Clipstream watches the system clipboard and prints every change as it
happens: text, HTML, images, file lists and any custom formats you ask for.

Running clipstream without a subcommand starts watching in the foreground.
Stop it with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		encoding := cfg.Log.Format
		if logFormat != "" {
			encoding = logFormat
		}

		logger, err = logging.New(level, encoding)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		logger.Debug("configuration loaded",
			zap.String("instance_id", cfg.InstanceID),
			zap.String("log_level", level))
		return nil
	},
	SilenceUsage: true,
}

// runWatch observes the clipboard until interrupted, printing each change to
// stdout and reporting read failures on the logger.
func runWatch() error {
	opts := clipstream.Options{
		Interval:      time.Duration(cfg.Watch.IntervalMS) * time.Millisecond,
		CustomFormats: cfg.Watch.CustomFormats,
		MaxSize:       cfg.Watch.MaxSize,
		MaxImageSize:  cfg.Watch.MaxImageSize,
		Logger:        logger,
	}
	if interval > 0 {
		opts.Interval = interval
	}
	if maxSize > 0 {
		opts.MaxSize = maxSize
	}
	if maxImageSize > 0 {
		opts.MaxImageSize = maxImageSize
	}
	if len(customFormats) > 0 {
		opts.CustomFormats = customFormats
	}
	if gatePrivacy {
		opts.Gatekeeper = privacyGatekeeper
	}

	listener, err := clipstream.Listen(opts)
	if err != nil {
		return err
	}
	defer listener.Close()

	stream := listener.NewStream(bufferSize)
	defer stream.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching clipboard",
		zap.String("instance_id", cfg.InstanceID),
		zap.Duration("interval", opts.Interval),
		zap.Strings("custom_formats", opts.CustomFormats))

	displayOpts := format.CompactOptions()
	displayOpts.UseColors = !noColor

	for {
		body, err := stream.Next(ctx)
		switch {
		case err == nil:
			logger.Debug("clipboard event",
				zap.String("kind", string(body.Kind)),
				zap.Int64("size", format.BodySize(body)),
				zap.Strings("paths", body.Paths))
			fmt.Println(format.Describe(body, displayOpts))
		case errors.Is(err, context.Canceled):
			logger.Info("shutting down")
			return nil
		case errors.Is(err, clipstream.ErrStreamClosed):
			return nil
		default:
			var monErr *clipstream.MonitorError
			if errors.As(err, &monErr) {
				logger.Error("clipboard monitor failed", zap.Error(monErr.Err))
				return monErr
			}
			logger.Warn("clipboard read failed", zap.Error(err))
		}
	}
}

// privacyGatekeeper skips changes whose owner asked clipboard monitors to
// stay away: the exclusion format's presence, or the history/cloud markers
// explicitly set to zero.
func privacyGatekeeper(ctx *clipstream.Context) bool {
	if ctx.HasFormat("ExcludeClipboardContentFromMonitorProcessing") {
		return false
	}
	if v, ok := ctx.Uint32("CanIncludeInClipboardHistory"); ok && v == 0 {
		return false
	}
	if v, ok := ctx.Uint32("CanUploadToCloudClipboard"); ok && v == 0 {
		return false
	}
	return true
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")

	RootCmd.Flags().DurationVar(&interval, "interval", 0, "poll interval between clipboard checks")
	RootCmd.Flags().Int64Var(&maxSize, "max-size", 0, "max bytes for custom payloads (0 = unlimited)")
	RootCmd.Flags().Int64Var(&maxImageSize, "max-image-size", 0, "max bytes for image payloads (0 = max-size)")
	RootCmd.Flags().StringSliceVar(&customFormats, "custom", nil, "custom format names to watch, highest priority first")
	RootCmd.Flags().IntVar(&bufferSize, "buffer", 16, "per-stream queue size before drops")
	RootCmd.Flags().BoolVar(&gatePrivacy, "gatekeeper-privacy", false, "skip changes marked private by their owner")
	RootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
