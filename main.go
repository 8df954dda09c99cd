package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajkula/renegade/cmd/assess"
	"github.com/ajkula/renegade/cmd/report"
	"github.com/ajkula/renegade/cmd/vectors"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/console"
)

var (
	// Version information
	Version   = "1.0.0"
	BuildTime = "development"
	GitCommit = "unknown"

	// Global flags
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	noBanner   bool
)

const banner = `
██████╗ ███████╗███╗   ██╗███████╗ ██████╗  █████╗ ██████╗ ███████╗
██╔══██╗██╔════╝████╗  ██║██╔════╝██╔════╝ ██╔══██╗██╔══██╗██╔════╝
██████╔╝█████╗  ██╔██╗ ██║█████╗  ██║  ███╗███████║██║  ██║█████╗
██╔══██╗██╔══╝  ██║╚██╗██║██╔══╝  ██║   ██║██╔══██║██║  ██║██╔══╝
██║  ██║███████╗██║ ╚████║███████╗╚██████╔╝██║  ██║██████╔╝███████╗
╚═╝  ╚═╝╚══════╝╚═╝  ╚═══╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝╚═════╝ ╚══════╝

              AI Model Security & Compliance Assessment
                     Version %s | Build %s
`

func logger() *console.Logger {
	return console.New(console.Options{NoColor: noColor, Quiet: quiet, Verbose: verbose})
}

// printBanner displays the banner unless disabled
func printBanner() {
	if noBanner || quiet {
		return
	}

	c := color.New(color.FgCyan, color.Bold)
	if noColor {
		c.DisableColor()
	}
	c.Fprintf(color.Output, banner+"\n", Version, BuildTime)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "renegade",
	Short: "Security and compliance assessment engine for AI models",
	Long: `Renegade runs security and compliance assessments against AI-model endpoints.

Each assessment is a background job that works through a selection of test
vectors within a time budget, records findings as it goes, and produces a
report with a risk score once it completes.

Test vector categories:
• OWASP: injection, cross-site scripting, insecure output handling
• NIST: governance and transparency
• Fairness: demographic parity
• Privacy: GDPR compliance
• Exploit: jailbreaking resistance`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initCfg, _ := cmd.Flags().GetBool("init-config"); initCfg {
			return createDefaultConfig()
		}

		if cmd.Name() != "help" && cmd.Name() != "completion" && cmd.Name() != "version" {
			printBanner()
		}

		return initConfig()
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run assessments against AI-model targets",
	Long: `Run an assessment job for each selected target and save a report for every
job that completes. Targets are configured names or endpoint URLs; with no
--target every configured target is assessed.

Press Ctrl+C to cancel running assessments; partial results are displayed.

Example usage:
  renegade assess
  renegade assess --target "Local Model" --categories owasp,privacy
  renegade assess -t https://api.example.com/v1/chat -V prompt_injection,jailbreaking -d 30s`,

	RunE: assess.Execute,
}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-export saved assessment reports",
	Long: `Load JSON assessment reports, check their consistency, and export them in
other formats together with a risk analysis.

Supported formats:
• JSON: machine-readable report
• CSV: one row per vulnerability
• TXT: plain text for command-line review`,

	RunE: report.Execute,
}

// vectorsCmd represents the vectors command
var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "List available test vectors",
	RunE:  vectors.Execute,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Renegade AI Assessment Engine\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Printf("Built with Go %s\n", runtime.Version())
	},
}

// initConfig locates the config file; RENEGADE_* overrides are applied by config.ApplyEnvironment
func initConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("renegade")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.renegade")
		viper.AddConfigPath("/etc/renegade/")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		logger().Debugf("No configuration file found, using defaults")
	} else {
		logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	}

	return nil
}

// setupCommands configures all CLI commands and flags
func setupCommands() {
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(vectorsCmd)
	rootCmd.AddCommand(versionCmd)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file (default is ./renegade.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"quiet output (warnings and errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false,
		"disable banner display")
	rootCmd.PersistentFlags().Bool("init-config", false,
		"create default configuration file (renegade.yaml)")

	// Assess command specific flags
	assessCmd.Flags().StringSliceP("target", "t", nil,
		"targets to assess (configured names or endpoint URLs)")
	assessCmd.Flags().StringSliceP("vectors", "V", nil,
		"test vector IDs to run")
	assessCmd.Flags().StringSliceP("categories", "C", nil,
		"test vector categories to run (owasp,nist,fairness,privacy,exploit)")
	assessCmd.Flags().DurationP("duration", "d", 0,
		"time budget per target (default from configuration)")
	assessCmd.Flags().StringP("output", "o", "",
		"output directory for reports")
	assessCmd.Flags().StringSliceP("format", "f", nil,
		"report formats (json,csv,txt)")
	assessCmd.Flags().Int("steps", 0,
		"engine steps per assessment")

	// Report command specific flags
	reportCmd.Flags().StringP("input", "i", "",
		"input JSON report or directory of reports")
	reportCmd.Flags().StringP("output", "o", "",
		"output directory for reports")
	reportCmd.Flags().StringSliceP("format", "f", nil,
		"report formats (json,csv,txt)")

	// Vectors command specific flags
	vectorsCmd.Flags().StringSlice("category", nil,
		"only list these categories")
	vectorsCmd.Flags().Bool("json", false,
		"print the catalog as JSON")
}

// main is the entry point for Renegade
func main() {
	setupCommands()

	if err := rootCmd.Execute(); err != nil {
		logger().Error(err.Error())
		os.Exit(1)
	}
}

// createDefaultConfig writes the default configuration file
func createDefaultConfig() error {
	filename := configFile
	if filename == "" {
		filename = config.DefaultConfigFilename
	}

	if err := config.WriteDefaultConfig(filename); err != nil {
		return err
	}

	log := logger()
	log.Successf("Default configuration created: %s", filename)
	log.Info("Edit the targets section, then run: renegade assess")
	return nil
}
