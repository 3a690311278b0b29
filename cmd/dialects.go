package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/john/gcodetime/dialect"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List known firmware dialects and their per-dialect table entries",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range []dialect.Dialect{
			dialect.Marlin, dialect.Repetier, dialect.Smoothieware,
			dialect.RepRapFirmware, dialect.Teacup, dialect.Unknown,
		} {
			entry := dialect.Lookup(d)
			fmt.Printf("%-16s m203_divisor=%-4.0f m566_divisor=%-4.0f homing=%-6.1fs heat_wait=%-6.1fs\n",
				d, entry.M203FeedrateDivisor, entry.M566JerkDivisor, entry.HomingTimeSec, entry.HeatWaitPlaceholderSec)
		}
	},
}

func init() {
	rootCmd.AddCommand(dialectsCmd)
}
