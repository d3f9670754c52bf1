package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/content-console/internal/console"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type pageOptions struct {
	Page     int
	PageSize int
	Search   string
	Active   bool
}

func addPageFlags(cmd *cobra.Command, o *pageOptions) {
	cmd.Flags().IntVar(&o.Page, "page", 0, "Zero-based page number.")
	cmd.Flags().IntVar(&o.PageSize, "page-size", 0, "Rows per page.")
	cmd.Flags().StringVarP(&o.Search, "search", "s", "", "Search term.")
	cmd.Flags().BoolVar(&o.Active, "active", false, "Only active rows; --active=false for inactive rows.")
}

// activeFilter returns nil unless --active was given.
func activeFilter(cmd *cobra.Command, o *pageOptions) *bool {
	if !cmd.Flags().Changed("active") {
		return nil
	}
	v := o.Active
	return &v
}

func parseKind(raw string) (models.OptionKind, error) {
	kind := models.OptionKind(strings.ToLower(raw))
	if !kind.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown option kind "+raw)
	}
	return kind, nil
}

func addOptions(topLevel *cobra.Command, a *app) {
	po := &pageOptions{}

	validArgs := make([]string, 0, len(models.OptionKinds()))
	for _, k := range models.OptionKinds() {
		validArgs = append(validArgs, string(k))
	}

	cmd := &cobra.Command{
		Use:       "options <kind>",
		Short:     "Browse batches, exams, grades, streams or tags",
		ValidArgs: validArgs,
		Args:      cobra.ExactArgs(1),
		Example: `
consolectl options batch --search jee
consolectl options tag --page 2 --page-size 20
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			picker := console.NewPicker(a.client, console.PickerConfig{
				Kind:     kind,
				Mode:     console.SingleSelect,
				PageSize: a.pageSize(po.PageSize),
				Debounce: a.cfg.SearchDebounce,
				Active:   activeFilter(cmd, po),
				Logger:   a.logger,
			})
			defer picker.Close()

			// the query is recorded before opening so the first fetch already uses it
			picker.OnQueryChange(po.Search)
			if err := picker.Open(ctx); err != nil {
				return err
			}
			if po.Page > 0 {
				if err := picker.GoToPage(ctx, po.Page); err != nil {
					return err
				}
			}
			printOptions(out(cmd), picker.Snapshot())
			return nil
		},
	}
	addPageFlags(cmd, po)

	topLevel.AddCommand(cmd)
}
