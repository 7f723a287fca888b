package main

import (
	"fmt"
	"time"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var homeWait time.Duration

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Home the axis",
	Long: `Establish the zero position of the axis, either by declaring the
current position home or by driving into a hard stop.`,
}

var homeInPlaceCmd = &cobra.Command{
	Use:   "in-place",
	Short: "Declare the current position home",
	Long: `Declare the current position to be zero without moving the axis, then
verify the drive reports position zero.`,
	Args: cobra.NoArgs,
	RunE: runHomeInPlace,
}

var homeCurrentLimitCmd = &cobra.Command{
	Use:   "current-limit",
	Short: "Home against a hard stop",
	Long: `Drive the axis into a hard stop and take the position where the motor
current crosses the homing current limit as home. The drive homes in the
background; --wait polls until it raises the homing attained bit:

  epos-cli home current-limit --wait 30s`,
	Args: cobra.NoArgs,
	RunE: runHomeCurrentLimit,
}

func init() {
	homeCurrentLimitCmd.Flags().DurationVar(&homeWait, "wait", 0, "Poll until homing is attained, 0 returns right away")
	homeCmd.AddCommand(homeInPlaceCmd)
	homeCmd.AddCommand(homeCurrentLimitCmd)
	rootCmd.AddCommand(homeCmd)
}

func runHomeInPlace(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	return drive.HomeInPlace()
}

func runHomeCurrentLimit(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	if err := drive.HomeToCurrentLimit(); err != nil {
		return err
	}
	if homeWait <= 0 {
		return nil
	}
	return waitHomingAttained(drive, homeWait)
}

// waitHomingAttained polls the statusword until the drive raises the homing
// attained bit or the deadline passes.
func waitHomingAttained(drive *epos.Drive, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		attained, err := drive.HomingAttained()
		if err != nil {
			return err
		}
		if attained {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("homing not attained after %v", wait)
		}
	}
	return nil
}
