package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/y0f/fsclient/internal/storage"
	"github.com/y0f/fsclient/internal/validation"
)

func newValidationCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validation",
		Short: "Manage the local journal of validation results",
	}
	cmd.AddCommand(newValidationImportCmd(opts))
	cmd.AddCommand(newValidationListCmd(opts))
	cmd.AddCommand(newValidationShowCmd(opts))
	cmd.AddCommand(newValidationPurgeCmd(opts))
	return cmd
}

func newValidationImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Decode a validation result payload and journal every result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			results, err := validation.FromResponseJSON(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			source := filepath.Base(args[0])
			for i, v := range results {
				rec, err := storage.RecordFromResult(v, source)
				if err != nil {
					return fmt.Errorf("result %d: %w", i, err)
				}
				if err := store.InsertValidationResult(cmd.Context(), rec); err != nil {
					return fmt.Errorf("journal result %d: %w", i, err)
				}
				e.logger.Debug("validation result journaled", "id", rec.ID, "success", rec.Success, "source", source)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d validation results from %s\n", len(results), source)
			return nil
		},
	}
}

func newValidationListCmd(opts *options) *cobra.Command {
	var (
		filter     storage.ValidationFilter
		page       storage.Pagination
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled validation results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := store.ListValidationResults(cmd.Context(), filter, page)
			if err != nil {
				return fmt.Errorf("list validation results: %w", err)
			}
			if jsonOutput {
				return renderJSON(cmd, res)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUCCESS\tEXPECTATION\tTYPE\tRAISED\tSOURCE\tCREATED")
			for _, r := range res.Data.([]*storage.ValidationRecord) {
				v, err := r.ToResult()
				if err != nil {
					return fmt.Errorf("validation result %d: %w", r.ID, err)
				}
				ge := v.ToGEType()
				expType := ge.ExpectationType()
				if expType == "" {
					expType = "-"
				}
				fmt.Fprintf(w, "%d\t%t\t%s\t%s\t%t\t%s\t%s\n",
					r.ID, r.Success, optionalID(r.ExpectationID), expType, ge.RaisedException(),
					r.Source, r.CreatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(w, "page %d/%d, %d total\n", res.Page, res.TotalPages, res.Total)
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&filter.ExpectationID, "expectation-id", 0, "Only results for this expectation")
	cmd.Flags().BoolVar(&filter.FailedOnly, "failed", false, "Only unsuccessful results")
	cmd.Flags().StringVar(&filter.Source, "source", "", "Only results imported from this file name")
	cmd.Flags().IntVar(&page.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&page.PerPage, "per-page", 20, "Results per page (max 100)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newValidationShowCmd(opts *options) *cobra.Command {
	var geType bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journaled validation result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}

			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetValidationResult(cmd.Context(), id)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("validation result %d not found: %w", id, err)
			}
			if err != nil {
				return fmt.Errorf("get validation result %d: %w", id, err)
			}
			v, err := rec.ToResult()
			if err != nil {
				return fmt.Errorf("validation result %d: %w", id, err)
			}

			if geType {
				return renderJSON(cmd, v.ToGEType())
			}
			return renderJSON(cmd, v.ToJSONDict())
		},
	}
	cmd.Flags().BoolVar(&geType, "ge", false, "Output in the validation framework's native shape")
	return cmd
}

func newValidationPurgeCmd(opts *options) *cobra.Command {
	var (
		olderThan time.Duration
		watch     bool
	)
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete journaled results older than a duration or the retention window",
		Long: "Without --older-than the configured database.retention_days applies. " +
			"With --watch the purge repeats every database.retention_period until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			if watch && olderThan > 0 {
				return fmt.Errorf("--watch uses the configured retention window and cannot be combined with --older-than")
			}

			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			worker := storage.NewRetentionWorker(store, e.cfg.Database.RetentionDays, e.cfg.Database.RetentionPeriod, e.logger)
			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				e.logger.Info("retention worker started", "retention_days", e.cfg.Database.RetentionDays, "period", e.cfg.Database.RetentionPeriod)
				worker.Run(ctx)
				e.logger.Info("retention worker stopped")
				return nil
			}

			var deleted int64
			if olderThan > 0 {
				deleted, err = store.PurgeOldData(cmd.Context(), time.Now().Add(-olderThan))
			} else {
				deleted, err = worker.RunOnce(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d validation results\n", deleted)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Delete results created more than this long ago (e.g. 720h)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep purging on the retention period until interrupted")
	return cmd
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
