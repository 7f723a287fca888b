package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var (
	// Connection flags
	address   string
	nodeID    int
	timeout   time.Duration
	logFrames bool
)

var rootCmd = &cobra.Command{
	Use:   "epos-cli",
	Short: "Command line client for EPOS positioning controllers",
	Long: `epos-cli talks to an EPOS positioning controller over its serial command
interface, either through a local port or through a TCP serial device
server that bridges the port onto the network.

The address scheme selects the transport:
  Serial: --address serial:///dev/ttyUSB0
  TCP:    --address tcp://10.4.1.20:4001

Over a direct serial line the drive answers to node id 0, which is the
default. Behind a gateway pass the node id the drive is configured to.

Use 'epos-cli ports' to find the drive's serial port and --log-frames to
dump the raw frames of every transaction.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", "serial:///dev/ttyUSB0", "Drive address, serial://<device> or tcp://<host>:<port>")
	rootCmd.PersistentFlags().IntVarP(&nodeID, "node-id", "n", 0, "Node id of the drive, 0 over a direct serial line")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", time.Second, "Response timeout per transaction")
	rootCmd.PersistentFlags().BoolVar(&logFrames, "log-frames", false, "Log sent and received frames to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newHandler builds the client handler selected by the address flag.
func newHandler() (epos.ClientHandler, error) {
	if nodeID < 0 || nodeID > 255 {
		return nil, fmt.Errorf("node id %d does not fit the wire field", nodeID)
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "serial":
		h := epos.NewSerialClientHandler(u.Path)
		h.SetNodeID(byte(nodeID))
		h.ResponseTimeout = timeout
		if logFrames {
			h.Logger = newFrameLogger()
		}
		return h, nil
	case "tcp":
		h := epos.NewTCPClientHandler(u.Host)
		h.SetNodeID(byte(nodeID))
		h.Timeout = timeout
		if logFrames {
			h.Logger = newFrameLogger()
		}
		return h, nil
	}
	return nil, fmt.Errorf("unsupported scheme %q in address %q", u.Scheme, address)
}

// newFrameLogger bridges the handler's Printf logger onto slog at debug
// level. The default slog logger drops debug records, so the bridge gets
// its own handler.
func newFrameLogger() *debugAdapter {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &debugAdapter{slog.New(handler)}
}

// newClient connects the configured handler and returns a client plus the
// close function for defer.
func newClient() (epos.Client, func() error, error) {
	handler, err := newHandler()
	if err != nil {
		return nil, nil, err
	}
	if err := handler.Connect(); err != nil {
		return nil, nil, err
	}
	return epos.NewClient(handler), handler.Close, nil
}

// newDrive is newClient with the control layer on top.
func newDrive() (*epos.Drive, func() error, error) {
	client, closer, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	return epos.NewDrive(client), closer, nil
}
