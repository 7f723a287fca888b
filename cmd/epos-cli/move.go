package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	profileVelocity     int64
	profileAcceleration int64
	moveImmediate       bool
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Start a velocity or position move",
	Long: `Start a move. The power stage has to be up first:

  epos-cli control initialize
  epos-cli control enable_operation
  epos-cli move velocity 1500`,
}

var moveVelocityCmd = &cobra.Command{
	Use:   "velocity <rpm>",
	Short: "Spin at a constant velocity",
	Long: `Switch to profile velocity mode and spin at the given velocity in rpm
until told otherwise:

  epos-cli move velocity 1500
  epos-cli move velocity -- -300

Stop with 'epos-cli control stop' or 'epos-cli control quick_stop'.`,
	Args: cobra.ExactArgs(1),
	RunE: runMoveVelocity,
}

var movePositionCmd = &cobra.Command{
	Use:   "position <counts>",
	Short: "Move to an absolute position",
	Long: `Switch to profile position mode and move to an absolute position in
encoder counts:

  epos-cli move position 250000 --velocity 1000 --acceleration 10000

By default the setpoint queues behind a running move; --immediate makes
the drive abandon the running move and take the new target right away.`,
	Args: cobra.ExactArgs(1),
	RunE: runMovePosition,
}

func init() {
	movePositionCmd.Flags().Int64Var(&profileVelocity, "velocity", 1000, "Profile cruise velocity in rpm")
	movePositionCmd.Flags().Int64Var(&profileAcceleration, "acceleration", 10000, "Profile acceleration and deceleration in rpm/s")
	movePositionCmd.Flags().BoolVar(&moveImmediate, "immediate", false, "Interrupt a running move instead of queueing behind it")
	moveCmd.AddCommand(moveVelocityCmd)
	moveCmd.AddCommand(movePositionCmd)
	rootCmd.AddCommand(moveCmd)
}

func runMoveVelocity(cmd *cobra.Command, args []string) error {
	rpm, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("velocity %q: %v", args[0], err)
	}

	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	return drive.MoveWithVelocity(rpm)
}

func runMovePosition(cmd *cobra.Command, args []string) error {
	counts, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("position %q: %v", args[0], err)
	}

	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	return drive.MoveToPosition(counts, profileVelocity, profileAcceleration, moveImmediate)
}
