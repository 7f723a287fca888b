package main

import (
	"fmt"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var faultCmd = &cobra.Command{
	Use:   "fault",
	Short: "Show the fault state",
	Long: `Show whether the drive reports a fault. A non-zero error register means
the drive latched a fault and ignores motion commands until reset.`,
	Args: cobra.NoArgs,
	RunE: runFault,
}

var faultResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a latched fault",
	Long: `Reset a latched fault with a fault_low, fault_high edge on the
controlword. The cause has to be gone or the drive faults right again.`,
	Args: cobra.NoArgs,
	RunE: runFaultReset,
}

func init() {
	faultCmd.AddCommand(faultResetCmd)
	rootCmd.AddCommand(faultCmd)
}

func runFault(cmd *cobra.Command, args []string) error {
	client, closer, err := newClient()
	if err != nil {
		return err
	}
	defer closer()

	register, err := client.Read(epos.ObjectError)
	if err != nil {
		return err
	}
	if register == 0 {
		fmt.Println("no fault")
		return nil
	}
	fmt.Printf("faulted, error register 0x%02X\n", register)
	return nil
}

func runFaultReset(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	return drive.ResetFault()
}
