package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/auction-watch/internal/repository"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Prints the stored record of one auction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.inspector().GetRecord(cmd.Context(), args[0])
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no stored record for %q", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "identity:    %s\n", rec.Identity)
		fmt.Fprintf(out, "url:         %s\n", rec.URL)
		fmt.Fprintf(out, "fingerprint: %s\n", rec.Fingerprint)
		fmt.Fprintf(out, "first seen:  %s\n", rec.FirstSeenAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "updated:     %s\n\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(out, rec.Record.Render())
		return nil
	},
}
