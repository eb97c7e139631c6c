// Command vgroidb converts Visual Genome VrR-VG scene graph annotations into a
// region-of-interest database. It also runs the wrapper presets and a small
// HTTP server for inspecting single annotations.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kuanghuei/scene-graph-TF-release/cmd/vgroidb/middleware"
	"github.com/kuanghuei/scene-graph-TF-release/internal/config"
	"github.com/kuanghuei/scene-graph-TF-release/internal/converter"
	"github.com/kuanghuei/scene-graph-TF-release/internal/h5io"
	"github.com/kuanghuei/scene-graph-TF-release/internal/handlers"
	"github.com/kuanghuei/scene-graph-TF-release/internal/logging"
	"github.com/kuanghuei/scene-graph-TF-release/internal/roidb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type runner interface {
	Run(ctx context.Context, opts config.Options) (*roidb.Report, error)
}

type runnerFactory func(logger zerolog.Logger) runner

func newConverter(logger zerolog.Logger) runner {
	return converter.New(h5io.NewReader(), h5io.NewWriter(), logger)
}

type app struct {
	logLevel  string
	logFormat string
	newRunner runnerFactory
	logger    zerolog.Logger
}

func newRootCmd(newRunner runnerFactory) *cobra.Command {
	a := &app{newRunner: newRunner, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "vgroidb",
		Short:         "Convert Visual Genome VrR-VG scene graphs into a region-of-interest database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Config{
				Level:  a.logLevel,
				Format: a.logFormat,
				Out:    cmd.OutOrStdout(),
				ErrOut: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			a.logger = logger
			log.Logger = logger
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", config.GetEnv(config.EnvLogLevel, "info"), "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", config.GetEnv(config.EnvLogFormat, logging.FormatConsole), "log format (console or json)")

	root.AddCommand(a.convertCmd(), a.presetCmd(), a.serveCmd())
	return root
}

func (a *app) convertCmd() *cobra.Command {
	opts := config.Defaults()
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Build the ROIDB HDF5 file and label dictionaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), opts)
		},
	}
	config.BindFlags(cmd.Flags(), &opts)
	return cmd
}

func (a *app) convert(ctx context.Context, opts config.Options) error {
	report, err := a.newRunner(a.logger).Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	a.logger.Info().
		Int("objects", report.NumObjects).
		Int("relationships", report.NumRelationships).
		Msg("wrote roidb")
	return nil
}

func (a *app) presetCmd() *cobra.Command {
	var (
		presetsFile string
		list        bool
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: "Run the converter with a named flag preset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := config.LoadPresets(presetsFile)
			if err != nil {
				return err
			}
			names := config.Names(presets)
			out := cmd.OutOrStdout()

			if list {
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("preset name required (available: %s)", strings.Join(names, ", "))
			}

			preset, ok := presets[args[0]]
			if !ok {
				return fmt.Errorf("unknown preset %q (available: %s)", args[0], strings.Join(names, ", "))
			}
			if dryRun {
				fmt.Fprintln(out, strings.Join(append([]string{"vgroidb", "convert"}, preset.Args()...), " "))
				return nil
			}

			opts, err := preset.Options()
			if err != nil {
				return fmt.Errorf("preset %s: %w", args[0], err)
			}
			return a.convert(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&presetsFile, "presets", "", "YAML file with additional presets")
	cmd.Flags().BoolVar(&list, "list", false, "list preset names and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the converter command line instead of running it")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation inspection API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.GetEnv(config.EnvAddr, ":8080"), "listen address")
	return cmd
}

func newRouter(logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.HandleFunc("/parse", handlers.ParseHandler)
	return middleware.Logger(logger)(middleware.Cors(mux))
}

func (a *app) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info().Msg("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newConverter).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
