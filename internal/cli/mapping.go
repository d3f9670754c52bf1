package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/content-console/internal/console"
	"github.com/noah-isme/content-console/internal/models"
)

type mappingOptions struct {
	selectionOptions
	TargetSearch string
	TargetPage   int
}

func addMappingFlags(cmd *cobra.Command, o *mappingOptions) {
	addSelectionFlags(cmd, &o.selectionOptions)
	cmd.Flags().StringVar(&o.TargetSearch, "target-search", "", "Search term for the batch list.")
	cmd.Flags().IntVar(&o.TargetPage, "target-page", 0, "Zero-based page of the batch list.")
}

// openMapDialog selects the source rows and opens the batch picker with the
// current mapping status resolved.
func (a *app) openMapDialog(ctx context.Context, cmd *cobra.Command, contentType models.ContentType, o *mappingOptions) (*console.MapDialog, func(), error) {
	list, err := a.selectRows(ctx, cmd, contentType, &o.selectionOptions)
	if err != nil {
		return nil, nil, err
	}
	picker := console.NewPicker(a.client, console.PickerConfig{
		Kind:     models.OptionKindBatch,
		Mode:     console.MultiSelect,
		PageSize: a.pageSize(0),
		Debounce: a.cfg.SearchDebounce,
		Logger:   a.logger,
	})
	picker.OnQueryChange(o.TargetSearch)

	dialog, err := list.NewMapDialog(picker, console.NewMappingResolver(a.client, contentType, a.logger), a.client)
	if err != nil {
		list.Detach()
		return nil, nil, err
	}
	cleanup := func() {
		dialog.Close()
		list.Detach()
	}
	if err := dialog.Open(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	if o.TargetPage > 0 {
		if err := picker.GoToPage(ctx, o.TargetPage); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return dialog, cleanup, nil
}

func addContentMapping(parent *cobra.Command, a *app) {
	mo := &mappingOptions{}
	cmd := &cobra.Command{
		Use:   "mapping <type>",
		Short: "Show which batches already hold the selected rows",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl content mapping card --ids 3,4 --target-search jee
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			dialog, cleanup, err := a.openMapDialog(commandContext(cmd), cmd, contentType, mo)
			if err != nil {
				return err
			}
			defer cleanup()

			w := out(cmd)
			_, _ = fmt.Fprintf(w, "%d %s item(s) selected\n", len(dialog.Sources()), contentType)
			printTargets(w, dialog.Targets())
			snap := dialog.Picker().Snapshot()
			pageFooter(w, snap.PageNumber, snap.TotalPages, snap.TotalElements)
			return nil
		},
	}
	addMappingFlags(cmd, mo)
	parent.AddCommand(cmd)
}

func addContentMap(parent *cobra.Command, a *app) {
	mo := &mappingOptions{}
	var targets []int64
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "map <type>",
		Short: "Copy the selected rows to other batches",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl content map carousel --batch 12 --ids 3,4 --targets 20,21
consolectl content map reel --all --targets 20 --dry-run
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			dialog, cleanup, err := a.openMapDialog(ctx, cmd, contentType, mo)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, id := range targets {
				opt, err := a.client.FetchOption(ctx, models.OptionKindBatch, id)
				if err != nil {
					return err
				}
				if _, err := dialog.ToggleTarget(*opt); err != nil {
					return err
				}
			}

			w := out(cmd)
			if dryRun {
				printTargets(w, dialog.Targets())
				for _, opt := range dialog.Picker().Selected() {
					_, _ = fmt.Fprintf(w, "would map %d item(s) to %s (%d)\n", len(dialog.Sources()), opt.Name, opt.ID)
				}
				return nil
			}

			outcome, err := dialog.Submit(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, success.Sprint(outcome.Message))
			_, _ = fmt.Fprintf(w, "%d item(s) mapped to %d batch(es)\n", outcome.MappedItems, outcome.Targets)
			return nil
		},
	}
	addMappingFlags(cmd, mo)
	cmd.Flags().Int64SliceVar(&targets, "targets", nil, "Batches to map to.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the targets without mapping.")
	parent.AddCommand(cmd)
}
