// Package cli implements the fsctl command tree.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/y0f/fsclient/internal/config"
	"github.com/y0f/fsclient/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "fsctl",
		Short:         "Inspect feature store connectors and validation results",
		Long:          "fsctl fetches storage connectors from a feature store and keeps a local journal of data validation results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "fsctl.yaml", "path to configuration file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConnectorCmd(opts))
	cmd.AddCommand(newValidationCmd(opts))
	cmd.AddCommand(newCodeCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}

// env is what a subcommand needs once configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: setupLogger(cfg.Logging, cmd.ErrOrStderr())}, nil
}

func (e *env) openStore() (storage.Store, error) {
	store, err := storage.NewSQLiteStore(e.cfg.Database.Path, e.cfg.Database.MaxReadConns)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("database opened", "path", e.cfg.Database.Path)
	return store, nil
}

func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
