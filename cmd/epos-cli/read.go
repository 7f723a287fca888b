package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var readEncoding string

var readCmd = &cobra.Command{
	Use:   "read <object>...",
	Short: "Read object dictionary entries",
	Long: `Read one or more object dictionary entries and print their values.

Objects are addressed by their dictionary name or by a raw index:subindex
pair, both numbers in any base strconv accepts:

  epos-cli read actual_position actual_velocity
  epos-cli read 0x6064:0x00 --encoding int32

Raw addresses are decoded with the --encoding width; named objects carry
their width in the dictionary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&readEncoding, "encoding", "int32", "Width of raw index:subindex reads: uint8, int8, uint16, int16, uint32 or int32")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	client, closer, err := newClient()
	if err != nil {
		return err
	}
	defer closer()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, arg := range args {
		value, enc, err := readArg(client, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", arg, value, enc)
	}
	return w.Flush()
}

// readArg reads either a dictionary name or a raw index:subindex address.
func readArg(client epos.Client, arg string) (int64, epos.Encoding, error) {
	if obj, err := epos.LookupObject(arg); err == nil {
		value, err := client.Read(obj)
		return value, obj.Encoding(), err
	}
	index, subindex, err := parseAddress(arg)
	if err != nil {
		return 0, 0, err
	}
	enc, err := epos.EncodingByName(readEncoding)
	if err != nil {
		return 0, 0, err
	}
	value, err := client.ReadObject(index, subindex, enc)
	return value, enc, err
}

// parseAddress splits an index:subindex pair.
func parseAddress(arg string) (uint16, byte, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("object %q is neither a dictionary name nor an index:subindex address", arg)
	}
	index, err := strconv.ParseUint(parts[0], 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("index of %q: %v", arg, err)
	}
	subindex, err := strconv.ParseUint(parts[1], 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("subindex of %q: %v", arg, err)
	}
	return uint16(index), byte(subindex), nil
}
