package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/john/gcodetime/dialect"
	"github.com/john/gcodetime/estimator"
	"github.com/john/gcodetime/gcode"
)

var (
	estimateDialect  string
	estimateJunction string
	estimateVerbose  bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <file>",
	Short: "Compute the estimated print time for a gcode file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			logrus.Fatalf("opening %s: %v", path, err)
		}
		defer f.Close()

		e := estimator.New()
		e.SetDialect(dialect.Parse(estimateDialect))
		e.SetJunctionMode(dialect.ParseJunctionMode(estimateJunction))

		if err := gcode.Scan(f, e); err != nil {
			logrus.Fatalf("scanning %s: %v", path, err)
		}

		total := e.GetTime()
		fmt.Printf("%s\n", e.GetTimeHMS())
		if estimateVerbose {
			fmt.Printf("dialect=%s blocks=%d seconds=%.3f\n", e.Dialect(), e.BlockCount(), total)
		}
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateDialect, "dialect", "marlin", "Firmware dialect (marlin, repetier, smoothieware, reprapfirmware, teacup)")
	estimateCmd.Flags().StringVar(&estimateJunction, "junction", "jerk", "Junction-velocity formulation (jerk, centripetal)")
	estimateCmd.Flags().BoolVarP(&estimateVerbose, "verbose", "v", false, "Print block count and dialect alongside the time")
	rootCmd.AddCommand(estimateCmd)
}
