package main

import (
	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control <command>",
	Short: "Apply a controlword command",
	Long: `Apply a named controlword command. Each command writes only its masked
bits and leaves the rest of the controlword alone; commands tied to an
operating mode are rejected unless the drive is in it.

Power stage:   shutdown, switch_on, switch_on_and_enable, disable_voltage,
               quick_stop, disable_operation, enable_operation
Motion:        start, stop
Profile moves: absolute, relative, move_immediate, move_after_current,
               new_setpoint, clear_new_setpoint
Homing:        homing_start, clear_homing_start
Fault:         fault_low, fault_high

'initialize' runs the shutdown, switch_on bring-up sequence:

  epos-cli control initialize
  epos-cli control enable_operation`,
	Args: cobra.ExactArgs(1),
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	if args[0] == "initialize" {
		return drive.Initialize()
	}
	command, err := epos.CommandByName(args[0])
	if err != nil {
		return err
	}
	return drive.SetControl(command)
}
