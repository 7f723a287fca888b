package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports of this machine with USB metadata, USB bridges
first. Drives usually enumerate as a USB virtual COM port or sit behind
an FTDI adapter, so those are the rows to try:

  epos-cli --address serial://<port> status`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := epos.DetectPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PORT\tUSB\tVID:PID\tSERIAL\tPRODUCT\t\n")
	for _, p := range ports {
		usb, id := "", ""
		if p.IsUSB {
			usb = "yes"
			id = p.VID + ":" + p.PID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", p.Name, usb, id, p.SerialNumber, p.Product)
	}
	return w.Flush()
}
