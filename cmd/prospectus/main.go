package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/app"
	"github.com/ternarybob/prospectus/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths // Multiple -config flags supported
	outputFile   = flag.String("output", "", "Report output file (overrides [report] output_dir)")
	outputFileO  = flag.String("o", "", "Report output file (shorthand)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] STOCKID\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Generates a one-page peer comparison report for the given stock identifier.")
	fmt.Fprintln(os.Stderr, "Identifiers may be exchange qualified (ASX:MIN, MIN.AX) or bare (MIN).")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("prospectus version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one stock identifier is required")
		fmt.Fprintln(os.Stderr, "")
		usage()
		os.Exit(2)
	}
	stockID := flag.Arg(0)

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("prospectus.toml"); err == nil {
			configFiles = append(configFiles, "prospectus.toml")
		} else if _, err := os.Stat("deployments/local/prospectus.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/prospectus.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	output := *outputFile
	if *outputFileO != "" {
		output = *outputFileO
	}
	common.ApplyFlagOverrides(config, output)

	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler("logs")
	defer common.RecoverWithCrashFile()

	logger.Info().
		Strs("config_files", configFiles).
		Str("stock", stockID).
		Str("provider", string(config.LLM.Provider)).
		Msg("Application configuration loaded")

	// Ctrl+C cancels the in-flight network calls and aborts the run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	path, err := application.Run(ctx, stockID)
	if err != nil {
		logger.Fatal().Err(err).Str("stock", stockID).Msg("Report generation failed")
		os.Exit(1)
	}

	logger.Info().Str("stock", stockID).Str("path", path).Msg("Report complete")
	fmt.Println(path)
}
