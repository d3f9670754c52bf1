package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
)

func addExport(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export content lists to CSV or PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addExportCreate(cmd, a)
	addExportStatus(cmd, a)
	topLevel.AddCommand(cmd)
}

func addExportCreate(parent *cobra.Command, a *app) {
	lo := &listOptions{}
	var format string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Queue an export of a content list",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl export create card --batch 12 --format pdf
consolectl export create reel --wait 30s
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			req := dto.ExportRequest{
				ContentType: contentType,
				Format:      models.ExportFormat(strings.ToLower(format)),
				Search:      lo.Search,
				Active:      activeFilter(cmd, &lo.pageOptions),
			}
			if lo.BatchID > 0 {
				batch := lo.BatchID
				req.BatchID = &batch
			}
			ctx := commandContext(cmd)
			job, err := a.client.CreateExport(ctx, req)
			if err != nil {
				return err
			}
			if wait <= 0 {
				printExportStatus(out(cmd), job.ID, job.Status, job.Progress, nil, nil)
				return nil
			}

			deadline := time.Now().Add(wait)
			for {
				status, err := a.client.ExportStatus(ctx, job.ID)
				if err != nil {
					return err
				}
				done := status.Status == models.ExportStatusFinished || status.Status == models.ExportStatusFailed
				if done || time.Now().After(deadline) {
					printExportStatus(out(cmd), status.ID, status.Status, status.Progress, status.ResultURL, status.Error)
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", string(models.ExportFormatCSV), "csv or pdf.")
	cmd.Flags().StringVarP(&lo.Search, "search", "s", "", "Search term.")
	cmd.Flags().BoolVar(&lo.Active, "active", false, "Only active rows; --active=false for inactive rows.")
	cmd.Flags().Int64Var(&lo.BatchID, "batch", 0, "Only items mapped to this batch.")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Poll until the export finishes or the duration passes.")
	parent.AddCommand(cmd)
}

func addExportStatus(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show export progress and the download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client.ExportStatus(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			printExportStatus(out(cmd), status.ID, status.Status, status.Progress, status.ResultURL, status.Error)
			return nil
		},
	}
	parent.AddCommand(cmd)
}
