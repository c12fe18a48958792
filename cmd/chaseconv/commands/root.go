// Package commands implements the CLI commands for chaseconv.
package commands

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gbrlfaria/chaseconv/internal/logging"
)

// version is set at build time via ldflags. Default for local builds.
const version = "0.1.0"

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase log verbosity (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("chaseconv version {{.Version}}\n")

	// Errors are printed once by Execute.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	viper.SetEnvPrefix("CHASECONV")
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:   "chaseconv",
	Short: "Convert GrandChase assets to and from GLTF",
	Long: `chaseconv converts GrandChase character assets between the game's
binary formats (.p3m models, .frm animations) and binary GLTF 2.0
(.glb), in both directions.

A conversion takes the files of one character: a model and optionally
an animation, or a single GLTF document carrying both.`,
	Example: `  # Game files to GLTF
  chaseconv convert elesis.p3m elesis_walk.frm --to gltf

  # GLTF back to game files
  chaseconv convert elesis.glb --to game -o out/`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// setupLogging installs the default logger per the verbosity flags.
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity > 0:
		level = slog.LevelDebug
	}

	logger := logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
	})
	slog.SetDefault(logger)
}

// Execute runs the root command, printing any error once.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}
