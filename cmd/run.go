package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/ipc"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the window and run its event loop",
	Long: `Open a window and run the demo handler until the window is closed or a
quit is confirmed. Escape asks to quit, f toggles fullscreen, c copies the
last typed text and v logs the clipboard. Dropped files are logged.`,
	RunE: runWindow,
}

func init() {
	runCmd.Flags().String("title", "", "Window title")
	runCmd.Flags().Int32("width", 0, "Window width")
	runCmd.Flags().Int32("height", 0, "Window height")
	runCmd.Flags().Bool("fullscreen", false, "Start fullscreen")
	runCmd.Flags().Bool("blocking", false, "Only redraw when asked to")
	runCmd.Flags().Bool("no-ipc", false, "Do not listen for control requests")

	// Bind flags to viper
	_ = viper.BindPFlag("window.title", runCmd.Flags().Lookup("title"))
	_ = viper.BindPFlag("window.width", runCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("window.height", runCmd.Flags().Lookup("height"))
	_ = viper.BindPFlag("window.fullscreen", runCmd.Flags().Lookup("fullscreen"))
	_ = viper.BindPFlag("platform.blocking_event_loop", runCmd.Flags().Lookup("blocking"))
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if noIPC, _ := cmd.Flags().GetBool("no-ipc"); noIPC {
		cfg.IPC.Enabled = false
	}
	conf := window.ConfFromConfig(cfg)

	var server *ipc.SocketServer
	stopSignals := make(chan struct{})
	defer close(stopSignals)

	err := window.Run(conf, func(ctx *window.Context) event.Handler {
		go quitOnSignal(ctx, stopSignals)

		if cfg.IPC.Enabled {
			srv, err := ipc.NewSocketServer(cfg.IPC.SocketPath, newIPCHandler(ctx))
			if err == nil {
				err = srv.Start()
			}
			if err != nil {
				logger.Warnf("Control socket disabled: %v", err)
			} else {
				server = srv
			}
		}
		return newDemoHandler(ctx)
	})
	if server != nil {
		server.Stop()
	}
	if err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

// quitOnSignal turns SIGINT and SIGTERM into a quit request the handler
// may still veto.
func quitOnSignal(ctx *window.Context, done <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			logger.Infof("Received %s, asking to quit", sig)
			ctx.RequestQuit()
			ctx.ScheduleUpdate()
		case <-done:
			return
		}
	}
}
