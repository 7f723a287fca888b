package main

import (
	"fmt"
	"strconv"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write <object> <value>",
	Short: "Write an object dictionary entry",
	Long: `Write a value to an object dictionary entry.

The object is addressed like in read, by dictionary name or by a raw
index:subindex pair. The value is a signed integer in any base strconv
accepts; the drive takes every write as a 4-byte field:

  epos-cli write current_limit 5000
  epos-cli write 0x6040:0x00 0x000F`,
	Args: cobra.ExactArgs(2),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseInt(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("value %q: %v", args[1], err)
	}

	client, closer, err := newClient()
	if err != nil {
		return err
	}
	defer closer()

	if obj, lookupErr := epos.LookupObject(args[0]); lookupErr == nil {
		return client.Write(obj, value)
	}
	index, subindex, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	return client.WriteObject(index, subindex, value)
}
