// Command docextract extracts titled text sections from office documents,
// either once from the command line or as an HTTP or MCP service.
//
//	docextract extract deck.pptx
//	docextract probe report.docx
//	docextract markdown report.docx > report.md
//	docextract serve --config docextract.yaml
//	docextract mcp
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/docextract/docextract"
)

var (
	cfgFile  string
	logLevel string

	// Set by PersistentPreRunE.
	fileCfg *docextract.FileConfig
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract structured text from .pptx and .docx documents",
	Long: `docextract turns presentation and word-processor files into titled plain-text
sections, document metadata and embedded images. Every call is bounded by an
input size cap and a wall-clock deadline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := docextract.DefaultFileConfig()
		if cfgFile != "" {
			loaded, err := docextract.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		fileCfg = cfg
		// stdout carries command output; logs go to stderr.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func newExtractor() *docextract.Extractor {
	return docextract.New(fileCfg.Pipeline(logger))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docextract:", err)
		os.Exit(1)
	}
}
