package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/y0f/fsclient/internal/metadata"
)

func newCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Work with commit code provenance records",
	}
	cmd.AddCommand(newCodeDecodeCmd())
	return cmd
}

func newCodeDecodeCmd() *cobra.Command {
	var (
		runType    string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a code provenance payload (single record or envelope)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rt metadata.RunType
			if runType != "" {
				var err error
				if rt, err = metadata.ParseRunType(runType); err != nil {
					return err
				}
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			codes, err := metadata.CodeFromResponseJSON(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			if jsonOutput {
				return renderJSON(cmd, codes)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if rt != "" {
				fmt.Fprintf(w, "RUN TYPE\t%s\n", rt)
			}
			fmt.Fprintln(w, "COMMIT TIME\tCOMMIT ID\tAPPLICATION\tCONTENT")
			for _, c := range codes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d bytes\n",
					commitTime(c.CommitTime), optionalID(c.FeatureGroupCommitID), orDash(c.ApplicationID), len(c.Content))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&runType, "run-type", "", "Where the code ran: JUPYTER, JOB or DATABRICKS")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func commitTime(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return time.UnixMilli(*ms).UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
