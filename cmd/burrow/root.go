package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/praetorian-inc/burrow/pkg/logging"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool
	noColor  bool
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - safe recursive archive extraction",
	Long: `Burrow recursively extracts archives under explicit safety budgets:
nesting depth, declared extracted size, run-wide total size, compression
ratio, and free disk space. Every file is tracked by content digest, every
skipped extraction is recorded as a warning, and identical content is never
extracted twice.

An archive that cannot be analyzed is never extracted blind.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/burrow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Bind flags to viper
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	// Add subcommands
	rootCmd.AddCommand(explodeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "burrow"))
	}

	viper.SetEnvPrefix("BURROW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the logger for one command invocation, writing to the
// command's stderr so stdout stays clean for machine-readable output.
func newLogger(cmd *cobra.Command) *log.Logger {
	if viper.GetBool("quiet") {
		return logging.New(cmd.ErrOrStderr(), logging.Config{
			Level: "error",
			JSON:  viper.GetBool("log_json"),
		})
	}
	return logging.New(cmd.ErrOrStderr(), logging.Config{
		Level: viper.GetString("log_level"),
		JSON:  viper.GetBool("log_json"),
	})
}

// colorEnabled decides whether human output gets ANSI colors: stdout must be
// a terminal, NO_COLOR must be unset, and --no-color must not be passed.
func colorEnabled() bool {
	if viper.GetBool("no_color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// applyColorMode sets the process-wide color switch for fatih/color styles.
func applyColorMode() {
	color.NoColor = !colorEnabled()
}
