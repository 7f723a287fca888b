package main

import (
	"fmt"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode [mode]",
	Short: "Show or set the operating mode",
	Long: `Without an argument, show the operating mode the drive reports. With
one, switch the drive and confirm the change against the mode display:

  epos-cli mode          prints PPM, PVM, HMM, CSP, CSV or CST
  epos-cli mode PVM      switches to profile velocity`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	if len(args) == 0 {
		mode, err := drive.Mode()
		if err != nil {
			return err
		}
		fmt.Println(mode)
		return nil
	}

	mode, err := epos.ModeByName(args[0])
	if err != nil {
		return err
	}
	return drive.SetMode(mode)
}
