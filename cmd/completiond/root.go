package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"completiond/internal/completion"
	"completiond/internal/config"
	"completiond/internal/httpapi"
	"completiond/internal/variant"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configPath   string
	addr         string
	variant      string
	defaultModel string
	modelsDir    string
	logLevel     string
	maxBodyBytes int64
	corsOrigins  string
	indexFile    string
}

func newRootCmd(lookup func(string) (string, bool)) *cobra.Command {
	return newRootCmdWith(lookup, &options{})
}

func newRootCmdWith(lookup func(string) (string, bool), o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "completiond",
		Short:         "Serve /completions from a static model registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o, lookup)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&o.addr, "addr", "", "HTTP listen address (defaults COMPLETIOND_ADDR or "+config.DefaultAddr+")")
	pf.StringVar(&o.variant, "variant", "", "Model registry preset: "+strings.Join(variant.Names(), "|"))
	pf.StringVar(&o.defaultModel, "default-model", "", "Model used when a request omits one")
	pf.StringVar(&o.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults COMPLETIOND_LOG_LEVEL or info)")
	pf.Int64Var(&o.maxBodyBytes, "max-body-bytes", 0, "Maximum request body size in bytes")
	pf.StringVar(&o.corsOrigins, "cors-origins", "", "Comma-separated origins allowed by CORS (empty disables CORS)")
	pf.StringVar(&o.indexFile, "index-file", "", "Vector index file for the multimodel variant")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  root.RunE,
	}
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the configured variant registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o, lookup)
			if err != nil {
				return err
			}
			return listModels(cfg, cmd.OutOrStdout())
		},
	}
	root.AddCommand(serveCmd, modelsCmd)
	return root
}

// resolveConfig layers flags over the config file over the environment over
// built-in defaults.
func resolveConfig(cmd *cobra.Command, o *options, lookup func(string) (string, bool)) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv(lookup)

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = o.addr
	}
	if flags.Changed("variant") {
		cfg.Variant = o.variant
	}
	if flags.Changed("default-model") {
		cfg.DefaultModel = o.defaultModel
	}
	if flags.Changed("models-dir") {
		cfg.ModelsDir = o.modelsDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("max-body-bytes") {
		cfg.MaxBodyBytes = o.maxBodyBytes
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = splitCSV(o.corsOrigins)
	}
	if flags.Changed("index-file") {
		cfg.OpenAI.IndexFile = o.indexFile
	}
	return cfg.WithDefaults(), nil
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func serve(parent context.Context, cfg config.Config, logOut io.Writer) error {
	log, err := newLogger(cfg.LogLevel, logOut)
	if err != nil {
		return err
	}
	set, err := variant.Build(cfg, log)
	if err != nil {
		return err
	}
	defer set.Close()

	svc := completion.New(completion.Config{
		Registry:     set.Registry,
		DefaultModel: set.DefaultModel,
		Publisher:    completion.LogPublisher{Logger: log},
		Logger:       &log,
	})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("variant", set.Name).
			Str("default_model", set.DefaultModel).
			Strs("models", set.Registry.IDs()).
			Msg("completiond listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func listModels(cfg config.Config, out io.Writer) error {
	set, err := variant.Build(cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	defer set.Close()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tTASK\tDEFAULT")
	for _, m := range set.Registry.Models() {
		def := ""
		if m.ID == set.DefaultModel {
			def = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Source, m.Task, def)
	}
	return tw.Flush()
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
