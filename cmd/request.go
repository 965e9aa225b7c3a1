package cmd

import (
	"fmt"

	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/ipc"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/spf13/cobra"
)

var requestSocket string

var requestCmd = &cobra.Command{
	Use:   "request <fullscreen|windowed|redraw|quit>",
	Short: "Send a control request to a running window",
	Long: `Send a control request to a running window over its IPC socket. Without
--socket the most recently started window in XDG_RUNTIME_DIR is used.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"fullscreen", "windowed", "redraw", "quit"},
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseRequest(args[0])
		if err != nil {
			return err
		}

		path := requestSocket
		if path == "" {
			path = config.Get().IPC.SocketPath
		}
		client, err := ipc.NewClient(path)
		if err != nil {
			return err
		}
		if err := client.Send(req); err != nil {
			return err
		}
		logger.Infof("Sent %s to %s", args[0], client.Path())
		return nil
	},
}

func parseRequest(name string) (ipc.Request, error) {
	switch name {
	case "fullscreen":
		return ipc.Request{Type: ipc.RequestFullscreen, Fullscreen: true}, nil
	case "windowed":
		return ipc.Request{Type: ipc.RequestFullscreen}, nil
	case "redraw":
		return ipc.Request{Type: ipc.RequestScheduleUpdate}, nil
	case "quit":
		return ipc.Request{Type: ipc.RequestQuit}, nil
	}
	return ipc.Request{}, fmt.Errorf("unknown request %q (want fullscreen, windowed, redraw or quit)", name)
}

func init() {
	requestCmd.Flags().StringVarP(&requestSocket, "socket", "s", "", "IPC socket of the window")
}
