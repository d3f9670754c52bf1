package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/noah-isme/content-console/internal/console"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type listOptions struct {
	pageOptions
	BatchID int64
}

type selectionOptions struct {
	listOptions
	IDs []int64
	All bool
}

func addListFlags(cmd *cobra.Command, o *listOptions) {
	addPageFlags(cmd, &o.pageOptions)
	cmd.Flags().Int64Var(&o.BatchID, "batch", 0, "Only items mapped to this batch.")
}

func addSelectionFlags(cmd *cobra.Command, o *selectionOptions) {
	addListFlags(cmd, &o.listOptions)
	cmd.Flags().Int64SliceVar(&o.IDs, "ids", nil, "Rows to select on the page.")
	cmd.Flags().BoolVar(&o.All, "all", false, "Select every row on the page.")
}

func parseContentType(raw string) (models.ContentType, error) {
	t := models.ContentType(strings.ToLower(raw))
	if !t.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown content type "+raw)
	}
	return t, nil
}

func contentTypeArgs() []string {
	out := make([]string, 0, len(models.ContentTypes()))
	for _, t := range models.ContentTypes() {
		out = append(out, string(t))
	}
	return out
}

func (a *app) newContentList(cmd *cobra.Command, contentType models.ContentType, o *listOptions) *console.ContentList {
	filter := console.ListFilter{Search: o.Search, Active: activeFilter(cmd, &o.pageOptions)}
	if o.BatchID > 0 {
		batch := o.BatchID
		filter.BatchID = &batch
	}
	return console.NewContentList(a.client, contentType, console.NewStore(filter), a.pageSize(o.PageSize), a.logger)
}

// selectRows loads the requested page and selects rows on it. Rows can only be
// selected from the loaded page.
func (a *app) selectRows(ctx context.Context, cmd *cobra.Command, contentType models.ContentType, o *selectionOptions) (*console.ContentList, error) {
	list := a.newContentList(cmd, contentType, &o.listOptions)
	if err := list.GoToPage(ctx, o.Page); err != nil {
		return nil, err
	}
	if o.All {
		list.ToggleAll()
		return list, nil
	}
	if len(o.IDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select rows with --ids or --all")
	}
	visible := make(map[int64]models.ContentItem)
	for _, item := range list.Page().Content {
		visible[item.ID] = item
	}
	for _, id := range o.IDs {
		item, ok := visible[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d is not on page %d", contentType, id, o.Page))
		}
		if !list.Selection().IsSelected(id) {
			list.Toggle(item)
		}
	}
	return list, nil
}

func addContent(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "List, edit and map carousels, cards, notes and reels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addContentList(cmd, a)
	addContentGet(cmd, a)
	addContentCreate(cmd, a)
	addContentEdit(cmd, a)
	addContentDelete(cmd, a)
	addContentDuplicate(cmd, a)
	addContentMap(cmd, a)
	addContentMapping(cmd, a)

	topLevel.AddCommand(cmd)
}

func addContentList(parent *cobra.Command, a *app) {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:       "list <type>",
		Short:     "List a page of content",
		Args:      cobra.ExactArgs(1),
		ValidArgs: contentTypeArgs(),
		Example: `
consolectl content list carousel --batch 12
consolectl content list reel --search intro --page 1
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			list := a.newContentList(cmd, contentType, lo)
			defer list.Detach()
			if err := list.GoToPage(commandContext(cmd), lo.Page); err != nil {
				return err
			}
			printContent(out(cmd), list.Page(), nil)
			return nil
		},
	}
	addListFlags(cmd, lo)
	parent.AddCommand(cmd)
}

func addContentGet(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one item with its batch mappings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return appErrors.Clone(appErrors.ErrValidation, "invalid id "+args[1])
			}
			detail, err := a.client.FetchDetail(commandContext(cmd), contentType, id)
			if err != nil {
				return err
			}

			w := out(cmd)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("ID"), detail.ID)
			tbl.AddRow(bold.Sprint("Title"), detail.Title)
			tbl.AddRow(bold.Sprint("Order"), detail.DisplayOrder)
			tbl.AddRow(bold.Sprint("Active"), activeLabel(detail.Active))
			if detail.MediaURL != nil {
				tbl.AddRow(bold.Sprint("Media"), *detail.MediaURL)
			}
			if detail.DeepLink != nil {
				tbl.AddRow(bold.Sprint("Deep link"), *detail.DeepLink)
			}
			_, _ = fmt.Fprintln(w, tbl)

			if len(detail.LinkedTargets) == 0 {
				_, _ = fmt.Fprintln(w, faint.Sprint("Not mapped to any batch"))
				return nil
			}
			targets := newTable("BATCH", "NAME", "ORDER")
			for _, t := range detail.LinkedTargets {
				targets.AddRow(t.TargetID, t.Name, t.DisplayOrder)
			}
			_, _ = fmt.Fprintln(w, targets)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

type formOptions struct {
	Title        string
	Subtitle     string
	Description  string
	MediaURL     string
	ThumbnailURL string
	DeepLink     string
	Activity     string
	Params       []string
	ParamsJSON   string
	BodyHTML     string
	Order        int
	Inactive     bool
	Batches      []int64
}

func addFormFlags(cmd *cobra.Command, o *formOptions) {
	f := cmd.Flags()
	f.StringVar(&o.Title, "title", "", "Title.")
	f.StringVar(&o.Subtitle, "subtitle", "", "Subtitle.")
	f.StringVar(&o.Description, "description", "", "Description.")
	f.StringVar(&o.MediaURL, "media-url", "", "Image or video URL.")
	f.StringVar(&o.ThumbnailURL, "thumbnail-url", "", "Thumbnail URL.")
	f.StringVar(&o.DeepLink, "deep-link", "", "Deep link opened on tap.")
	f.StringVar(&o.Activity, "activity", "", "Activity opened on tap.")
	f.StringArrayVar(&o.Params, "param", nil, "Activity parameter as key=value, repeatable.")
	f.StringVar(&o.ParamsJSON, "params-json", "", "Free-form params as a JSON object.")
	f.StringVar(&o.BodyHTML, "body-html", "", "Note body.")
	f.IntVar(&o.Order, "order", 0, "Display order.")
	f.BoolVar(&o.Inactive, "inactive", false, "Create the item inactive.")
	f.Int64SliceVar(&o.Batches, "batch", nil, "Batches to map the item to.")
}

// apply copies the flags that were set onto the form.
func (o *formOptions) apply(cmd *cobra.Command, form *console.ContentForm) error {
	changed := cmd.Flags().Changed
	str := func(flag, value string, dst **string) {
		if changed(flag) {
			v := value
			*dst = &v
		}
	}
	if changed("title") {
		form.Fields.Title = o.Title
	}
	str("subtitle", o.Subtitle, &form.Fields.Subtitle)
	str("description", o.Description, &form.Fields.Description)
	str("media-url", o.MediaURL, &form.Fields.MediaURL)
	str("thumbnail-url", o.ThumbnailURL, &form.Fields.ThumbnailURL)
	str("deep-link", o.DeepLink, &form.Fields.DeepLink)
	str("activity", o.Activity, &form.Fields.Activity)
	str("body-html", o.BodyHTML, &form.Fields.BodyHTML)
	if changed("order") {
		form.Fields.DisplayOrder = o.Order
	}
	if changed("inactive") {
		active := !o.Inactive
		form.Fields.Active = &active
	}
	if changed("batch") {
		form.Fields.BatchIDs = o.Batches
	}
	if changed("params-json") {
		form.ParamsJSON = o.ParamsJSON
	}
	if changed("param") {
		form.Activity = console.NewParamList()
		for _, kv := range o.Params {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation, "--param must be key=value: "+kv)
			}
			form.Activity.Add(key, value)
		}
	}
	return nil
}

func addContentCreate(parent *cobra.Command, a *app) {
	fo := &formOptions{}
	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create a content item",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl content create carousel --title "JEE crash course" --media-url https://cdn.example.com/jee.png --batch 12
consolectl content create card --title Practice --activity quiz --param level=2
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			form := console.NewContentForm(contentType, validator.New())
			if err := fo.apply(cmd, form); err != nil {
				return err
			}
			item, err := form.Submit(commandContext(cmd), a.client)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out(cmd), success.Sprintf("Created %s %d", contentType, item.ID))
			return nil
		},
	}
	addFormFlags(cmd, fo)
	parent.AddCommand(cmd)
}

func addContentEdit(parent *cobra.Command, a *app) {
	fo := &formOptions{}
	cmd := &cobra.Command{
		Use:   "edit <type> <id>",
		Short: "Update fields of a content item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return appErrors.Clone(appErrors.ErrValidation, "invalid id "+args[1])
			}
			ctx := commandContext(cmd)
			detail, err := a.client.FetchDetail(ctx, contentType, id)
			if err != nil {
				return err
			}
			form := console.EditContentForm(*detail, validator.New())
			if err := fo.apply(cmd, form); err != nil {
				return err
			}
			if _, err := form.Submit(ctx, a.client); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out(cmd), success.Sprintf("Updated %s %d", contentType, id))
			return nil
		},
	}
	addFormFlags(cmd, fo)
	parent.AddCommand(cmd)
}

func addContentDelete(parent *cobra.Command, a *app) {
	so := &selectionOptions{}
	cmd := &cobra.Command{
		Use:   "delete <type>",
		Short: "Delete selected rows of a page",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl content delete note --ids 4,5
consolectl content delete reel --batch 12 --page 1 --all
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			list, err := a.selectRows(ctx, cmd, contentType, so)
			if err != nil {
				return err
			}
			defer list.Detach()
			result, err := list.BulkDelete(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out(cmd), success.Sprintf("Deleted %d of %d %s item(s)", result.Affected, result.Requested, contentType))
			return nil
		},
	}
	addSelectionFlags(cmd, so)
	parent.AddCommand(cmd)
}

func addContentDuplicate(parent *cobra.Command, a *app) {
	so := &selectionOptions{}
	cmd := &cobra.Command{
		Use:   "duplicate <type>",
		Short: "Copy selected rows of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentType(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			list, err := a.selectRows(ctx, cmd, contentType, so)
			if err != nil {
				return err
			}
			defer list.Detach()
			copies, err := list.BulkDuplicate(ctx)
			for _, c := range copies {
				_, _ = fmt.Fprintln(out(cmd), success.Sprintf("Created %s %d", contentType, c.ID))
			}
			return err
		},
	}
	addSelectionFlags(cmd, so)
	parent.AddCommand(cmd)
}
