package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"talksense/internal/app"
	"talksense/internal/config"
	"talksense/internal/integrations/openai"
	"talksense/internal/logging"
	"talksense/internal/normalize"
	"talksense/internal/server"
	"talksense/internal/usecase"
)

// serviceFactory builds the analyzer from configuration. Tests replace it.
type serviceFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (server.Analyzer, error)

func defaultServiceFactory(ctx context.Context, cfg config.Config, logger *zap.Logger) (server.Analyzer, error) {
	svc, err := app.NewAnalyzeService(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

type cli struct {
	getenv     func(string) string
	newService serviceFactory

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(getenv func(string) string, newService serviceFactory) *cobra.Command {
	c := &cli{getenv: getenv, newService: newService, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "talksense",
		Short:         "TalkSense chat analysis backend",
		Long:          "TalkSense forwards chat transcripts to a hosted model and reshapes the JSON it returns for the dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.AddCommand(c.serveCmd(), c.analyzeCmd(), c.normalizeCmd(), c.schemaCmd())
	return root
}

func (c *cli) init() error {
	if err := config.LoadDotEnv(c.getenv); err != nil {
		return err
	}
	cfg, err := config.Load(c.getenv)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.newService(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			srv, err := server.New(svc, server.Options{
				MaxBodyBytes:    c.cfg.MaxBodyBytes,
				ExposeRawOutput: c.cfg.ExposeRawOutput,
				Logger:          c.logger,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), c.cfg.Addr(), c.cfg.ShutdownTimeout)
		},
	}
}

func (c *cli) analyzeCmd() *cobra.Command {
	var normalized bool
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze one chat transcript and print the model's JSON",
		Long: `Reads a chat transcript from a file, or from stdin when the argument is
omitted or "-", sends it to the configured model and prints the JSON reply.
With --normalize the reply is reshaped into the dashboard format first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chat, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			svc, err := c.newService(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			out, err := svc.Analyze(cmd.Context(), usecase.AnalyzeInput{Chat: string(chat), RequestID: uuid.NewString()})
			if err != nil {
				var uerr *usecase.Error
				if errors.As(err, &uerr) && uerr.Code == usecase.ErrorInvalidJSON {
					fmt.Fprintln(cmd.ErrOrStderr(), uerr.Raw)
				}
				return err
			}
			if normalized {
				return writeJSON(cmd.OutOrStdout(), normalize.Normalize(out.Result))
			}
			return writeJSON(cmd.OutOrStdout(), out.Result)
		},
	}
	cmd.Flags().BoolVar(&normalized, "normalize", false, "print the normalized dashboard instead of the raw reply")
	return cmd
}

func (c *cli) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Reshape a saved model reply into the dashboard format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), normalize.Normalize(doc))
		},
	}
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the structured-output JSON schema sent to OpenAI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := openai.Schema()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), schema)
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
