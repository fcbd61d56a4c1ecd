package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stylecritic.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stylecritic",
		Short: "Critique the visual design of a web page",
		Long: `stylecritic renders a page in headless Chrome, extracts its CSS, colors
and fonts, and asks a language model for a critique of the color scheme,
typography, layout, design principles and imagery.

Run "stylecritic serve" for the HTTP API or "stylecritic analyze <url>" for a
one-off report.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: ./stylecritic.yaml or the XDG config dir)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
