package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every stored auction with its projected fields.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.inspector().ListRecords(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTITY\tSTATUS\tTOP BID\tPARTICIPANTS\tUPDATED")
		for _, r := range records {
			participants := "-"
			if r.Projected.ParticipantCount != nil {
				participants = strconv.Itoa(*r.Projected.ParticipantCount)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.Identity,
				orDash(r.Projected.AuctionStatus),
				orDash(r.Projected.TopBid),
				participants,
				r.UpdatedAt.Format("2006-01-02 15:04"),
			)
		}
		return tw.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
