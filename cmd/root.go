package cmd

import (
	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "wlwindow",
		Short: "wlwindow - a single window Wayland client",
		Long: `wlwindow opens one native Wayland window and drives it from a blocking
event loop: keyboard with auto-repeat, pointer, clipboard, file drops and
client-side decorations when the compositor draws none.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/wlwindow/wlwindow.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(globalsCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads the configuration before any command runs. The log
// level flag beats the config file, which beats LOG_LEVEL.
func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = config.Get().Logging.LogLevel
	}
	if level != "" {
		logger.SetLevel(level)
	}
	return nil
}
