package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wlwindow configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), formatConfig(config.Get(), config.GetConfigPath()))
		return nil
	},
}

func formatConfig(cfg *config.Config, path string) string {
	lines := []string{
		ui.FormatAppHeader("CONFIGURATION", path),
		"[window]",
		ui.FormatKeyValue("title", cfg.Window.Title),
		ui.FormatKeyValue("app_id", cfg.Window.AppID),
		ui.FormatKeyValue("size", fmt.Sprintf("%dx%d", cfg.Window.Width, cfg.Window.Height)),
		ui.FormatKeyValue("fullscreen", cfg.Window.Fullscreen),
		"[platform]",
		ui.FormatKeyValue("blocking_event_loop", cfg.Platform.BlockingEventLoop),
		ui.FormatKeyValue("fallback_decorations", cfg.Platform.FallbackDecorations),
		ui.FormatKeyValue("display", valueOr(cfg.Platform.Display, "$WAYLAND_DISPLAY")),
		"[keyboard]",
		ui.FormatKeyValue("repeat_delay_ms", cfg.Keyboard.RepeatDelayMs),
		ui.FormatKeyValue("repeat_rate", cfg.Keyboard.RepeatRate),
		"[ipc]",
		ui.FormatKeyValue("enabled", cfg.IPC.Enabled),
		ui.FormatKeyValue("socket_path", valueOr(cfg.IPC.SocketPath, "$XDG_RUNTIME_DIR/wlwindow-<pid>.sock")),
		"[logging]",
		ui.FormatKeyValue("log_level", valueOr(cfg.Logging.LogLevel, "$LOG_LEVEL")),
		ui.FormatKeyValue("trace_protocol", cfg.Logging.TraceProtocol),
	}
	return strings.Join(lines, "\n")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Write a configuration file. On a terminal a short form asks for the
window title, size and loop settings; otherwise, or with --defaults, the
current values are written as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			logger.Infof("Configuration file already exists at: %s", configPath)

			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		if noPrompt, _ := cmd.Flags().GetBool("defaults"); !noPrompt {
			if _, err := promptInit(config.Get()); err != nil {
				return err
			}
		}

		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration initialized at: %s", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
	configInitCmd.Flags().Bool("defaults", false, "Write defaults without prompting")
}
