package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docfactory/internal/records"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List processed document records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := records.Open(filepath.Join(cfg.Paths.IndexDir, "records.json"), nil)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}

			filter := strings.ToLower(strings.TrimSpace(statusFilter))
			var rows [][]string
			for _, record := range store.List() {
				if filter != "" && record.Status != filter {
					continue
				}
				rows = append(rows, recordRow(record))
				if limit > 0 && len(rows) >= limit {
					break
				}
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No records found")
				return nil
			}

			headers := []string{"DOCUMENT", "FILE", "STATUS", "TYPE", "SUPPLIER", "PAGES", "DETECTED"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status (done, duplicate, errored, pending)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of records to show")
	return cmd
}

func recordRow(record records.DocumentRecord) []string {
	documentType := ""
	supplier := ""
	if record.Analysis != nil {
		documentType = record.Analysis.DocumentType
		supplier = record.Analysis.Supplier
	}

	status := record.Status
	if record.Duplicate && record.DuplicateOf != "" {
		status = fmt.Sprintf("duplicate of %s", record.DuplicateOf)
	}

	pages := ""
	if record.PageCount > 0 {
		pages = fmt.Sprintf("%d", record.PageCount)
		if record.RemovedPageCount > 0 {
			pages = fmt.Sprintf("%d (-%d blank)", record.PageCount, record.RemovedPageCount)
		}
	}

	return []string{
		record.DocumentID,
		record.SourceFile,
		status,
		documentType,
		supplier,
		pages,
		record.DetectedAt.Local().Format("2006-01-02 15:04"),
	}
}
