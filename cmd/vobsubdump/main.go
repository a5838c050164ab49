// Command vobsubdump inspects, extracts, and re-muxes VobSub .sub/.idx
// subtitle streams.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hekmon/vobsubcodec/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:           "vobsubdump",
	Short:         "Inspect and convert VobSub (.sub/.idx) subtitle streams",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var infoCmd = &cobra.Command{
	Use:   "info <file.idx>",
	Short: "Print the parsed idx header and caption table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Info(cmd.OutOrStdout(), args[0])
	},
}

var extractOutDir string

var extractCmd = &cobra.Command{
	Use:   "extract <file.idx>",
	Short: "Decode every caption into one PNG per subpicture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Extract(cmd.OutOrStdout(), args[0], extractOutDir)
	},
}

var muxIdxOut, muxSubOut string

var muxCmd = &cobra.Command{
	Use:   "mux <dir>",
	Short: "Mux a directory of PNGs back into a .sub/.idx pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Mux(cmd.OutOrStdout(), args[0], muxIdxOut, muxSubOut)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOutDir, "out", ".", "output directory for extracted PNGs")

	muxCmd.Flags().StringVar(&muxIdxOut, "idx", "out.idx", "output .idx path")
	muxCmd.Flags().StringVar(&muxSubOut, "sub", "out.sub", "output .sub path")

	rootCmd.AddCommand(infoCmd, extractCmd, muxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
