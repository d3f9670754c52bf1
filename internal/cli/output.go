package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/noah-isme/content-console/internal/console"
	"github.com/noah-isme/content-console/internal/models"
)

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint)
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
)

func newTable(headers ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.Wrap = true
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = bold.Sprint(h)
	}
	tbl.AddRow(row...)
	return tbl
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func pageFooter(w io.Writer, pageNumber, totalPages, totalElements int) {
	pages := totalPages
	if pages == 0 {
		pages = 1
	}
	_, _ = fmt.Fprintln(w, faint.Sprintf("page %d of %d, %d total", pageNumber+1, pages, totalElements))
}

func printOptions(w io.Writer, snap console.PickerSnapshot) {
	if len(snap.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No options found")
		return
	}
	tbl := newTable("ID", "NAME", "CODE")
	for _, opt := range snap.Items {
		tbl.AddRow(opt.ID, opt.Name, deref(opt.Code))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
	pageFooter(w, snap.PageNumber, snap.TotalPages, snap.TotalElements)
}

func printContent(w io.Writer, page *models.ContentPage, selection *console.SelectionSet[models.ContentItem]) {
	if page == nil || len(page.Content) == 0 {
		_, _ = fmt.Fprintln(w, "No content found")
		return
	}
	tbl := newTable("", "ID", "TITLE", "ORDER", "ACTIVE")
	for _, item := range page.Content {
		mark := " "
		if selection != nil && selection.IsSelected(item.ID) {
			mark = "*"
		}
		tbl.AddRow(mark, item.ID, item.Title, item.DisplayOrder, activeLabel(item.Active))
	}
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(w, tbl)
	pageFooter(w, page.PageNumber, page.TotalPages, page.TotalElements)
}

func activeLabel(active bool) string {
	if active {
		return success.Sprint("yes")
	}
	return faint.Sprint("no")
}

func printTargets(w io.Writer, targets []console.TargetOption) {
	if len(targets) == 0 {
		_, _ = fmt.Fprintln(w, "No batches found")
		return
	}
	tbl := newTable("", "ID", "BATCH", "STATUS")
	for _, t := range targets {
		mark := " "
		if t.Selected {
			mark = "*"
		}
		tbl.AddRow(mark, t.ID, t.Name, badge(t.Mapping))
	}
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(w, tbl)
}

func badge(info models.MappingInfo) string {
	switch info.State {
	case models.MappingFull, models.MappingPartial:
		return warning.Sprint(info.Badge)
	default:
		if info.Disabled {
			return faint.Sprint("pending")
		}
		return success.Sprint("available")
	}
}

func printRoles(w io.Writer, page *models.Page[models.Role]) {
	tbl := newTable("ID", "CODE", "NAME", "SYSTEM", "PERMISSIONS")
	for _, role := range page.Content {
		system := ""
		if role.System {
			system = "yes"
		}
		tbl.AddRow(role.ID, role.Code, role.Name, system, strings.Join(role.Permissions, ", "))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
	pageFooter(w, page.PageNumber, page.TotalPages, page.TotalElements)
}

func printPermissions(w io.Writer, perms []models.Permission) {
	tbl := newTable("CODE", "DESCRIPTION")
	for _, p := range perms {
		tbl.AddRow(p.Code, deref(p.Description))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printExportStatus(w io.Writer, id string, status models.ExportStatus, progress int, resultURL, errMsg *string) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Job"), id)
	tbl.AddRow(bold.Sprint("Status"), exportStatusLabel(status))
	tbl.AddRow(bold.Sprint("Progress"), strconv.Itoa(progress)+"%")
	if resultURL != nil && *resultURL != "" {
		tbl.AddRow(bold.Sprint("Download"), *resultURL)
	}
	if errMsg != nil && *errMsg != "" {
		tbl.AddRow(bold.Sprint("Error"), failure.Sprint(*errMsg))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func exportStatusLabel(status models.ExportStatus) string {
	switch status {
	case models.ExportStatusFinished:
		return success.Sprint(status)
	case models.ExportStatusFailed:
		return failure.Sprint(status)
	default:
		return warning.Sprint(status)
	}
}
