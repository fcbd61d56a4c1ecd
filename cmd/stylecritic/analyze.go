package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Corphon/StyleCritic/internal/app"
	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/di"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/report"
	"github.com/Corphon/StyleCritic/internal/services"
	"github.com/Corphon/StyleCritic/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Critique a single page and print the report",
		Long: `Analyze renders the page locally, runs the same pipeline as the HTTP API
and prints the result.

Examples:
  # JSON, same shape as POST /analyze
  stylecritic analyze https://example.com

  # Markdown report written to a file
  stylecritic analyze -f markdown -o report.md https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("format", "f", report.FormatJSON, "Report format: json or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolP("parallel", "p", false, "Generate the category critiques concurrently")
	cmd.Flags().DurationP("timeout", "t", 0, "Overall timeout (default from configuration)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print progress to stderr")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if _, err := report.NewWriter(format, io.Discard); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("parallel") {
		cfg.ParallelCategories, _ = cmd.Flags().GetBool("parallel")
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	setupCLILogger(cmd)

	container := di.NewContainer()
	if err := app.InitServices(container, cfg); err != nil {
		return err
	}
	critic := di.MustResolve[services.Critic](container, di.ServiceCritique)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := createOutputFile(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var progress io.Writer
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		progress = cmd.ErrOrStderr()
	}
	return runAnalyze(ctx, critic, args[0], format, out, progress)
}

// runAnalyze critiques rawURL and writes the report in format to out.
func runAnalyze(ctx context.Context, critic services.Critic, rawURL, format string, out, progress io.Writer) error {
	writer, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}

	var onProgress services.ProgressFunc
	if progress != nil {
		onProgress = func(p int, message string) {
			fmt.Fprintf(progress, "[%3d%%] %s\n", p, message)
		}
	}

	resp, err := critic.Critique(ctx, models.AnalysisRequest{URL: rawURL}, uuid.NewString(), onProgress)
	if err != nil {
		return err
	}
	return writer.Write(resp)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadFrom(path)
}

// setupCLILogger sends logs to stderr so stdout carries only the report.
func setupCLILogger(cmd *cobra.Command) {
	logger := utils.GetLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLogLevel(utils.DEBUG)
		return
	}
	logger.SetLogLevel(utils.WARNING)
}

func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // user-chosen report path
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}
