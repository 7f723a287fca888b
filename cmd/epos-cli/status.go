package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show drive state and telemetry",
	Long: `Read the drive's state machine words and telemetry and print them as a
table. A faulted drive still answers, so this is the first command to run
when an axis misbehaves.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	status, err := drive.Statusword()
	if err != nil {
		return err
	}
	control, err := drive.Controlword()
	if err != nil {
		return err
	}
	mode, err := drive.Mode()
	if err != nil {
		return err
	}
	faulted, err := drive.Faulted()
	if err != nil {
		return err
	}
	position, err := drive.ActualPosition()
	if err != nil {
		return err
	}
	velocity, err := drive.ActualVelocity()
	if err != nil {
		return err
	}
	current, err := drive.ActualCurrent()
	if err != nil {
		return err
	}
	voltage, err := drive.Voltage()
	if err != nil {
		return err
	}
	temperature, err := drive.Temperature()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Statusword\t0x%04X\t\n", status)
	fmt.Fprintf(w, "Controlword\t0x%04X\t\n", control)
	fmt.Fprintf(w, "Mode\t%v\t\n", mode)
	fmt.Fprintf(w, "Faulted\t%v\t\n", faulted)
	fmt.Fprintf(w, "Position\t%d counts\t\n", position)
	fmt.Fprintf(w, "Velocity\t%d rpm\t\n", velocity)
	fmt.Fprintf(w, "Current\t%d mA\t\n", current)
	fmt.Fprintf(w, "Voltage\t%.1f V\t\n", voltage)
	fmt.Fprintf(w, "Temperature\t%.1f degC\t\n", float64(temperature)/10)
	return w.Flush()
}
