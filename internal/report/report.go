// Package report renders the operator-facing console output of a run.
// Structured logs go through zap; this package only formats what a person
// at the terminal reads.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ginjaninja78/inventory-count-automation/internal/balance"
	"github.com/ginjaninja78/inventory-count-automation/internal/counter"
	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/schollz/progressbar/v3"
)

// Colors
var (
	accent  = lipgloss.Color("#00A3E0")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFB000")
	danger  = lipgloss.Color("#FF0000")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	stageStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	codeStyle    = lipgloss.NewStyle().Foreground(white)
)

const rule = "  ─────────────────────────────────────"

// maxListed caps how many not-found barcodes are printed one per line.
const maxListed = 50

// Printer writes formatted progress and results.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// Header prints the run banner.
func (p *Printer) Header(spec *layout.Spec, runID string) {
	p.println("")
	p.println(titleStyle.Render("  INVENTORY COUNT") + mutedStyle.Render(" · layout "+spec.Name()))
	if spec.Description() != "" {
		p.println(mutedStyle.Render("  " + spec.Description()))
	}
	p.println(mutedStyle.Render("  run " + runID))
}

// Stage prints a numbered stage header.
func (p *Printer) Stage(n int, title string) {
	p.println("")
	p.println(stageStyle.Render(fmt.Sprintf("▸ %d. %s", n, strings.ToUpper(title))))
}

// Info prints an indented label/value line.
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render(label+":"), codeStyle.Render(value))
}

// FileRead prints the outcome of reading one count file.
func (p *Printer) FileRead(scan types.FileScan) {
	line := fmt.Sprintf("  %s %s: %d barcode(s)", successStyle.Render("✓"), scan.Name, scan.Barcodes)
	if scan.Rejected > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" (%d line(s) rejected)", scan.Rejected))
	}
	p.println(line)
}

// NoBarcodes reports a run that found nothing to count.
func (p *Printer) NoBarcodes() {
	p.println(warnStyle.Render("  ⚠ No valid barcodes found. The spreadsheet was not modified."))
}

// CountSummary prints the aggregation figures.
func (p *Printer) CountSummary(s counter.Summary) {
	p.println(rule)
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render("Distinct products:"), titleStyle.Render(fmt.Sprint(s.Distinct)))
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render("Units counted:    "), titleStyle.Render(fmt.Sprint(s.Total)))
	p.println(rule)
}

// Duplicates warns about keys that appear on several rows.
func (p *Printer) Duplicates(dups []balance.Duplicate) {
	if len(dups) == 0 {
		return
	}
	p.println(warnStyle.Render(fmt.Sprintf("  ⚠ %d key(s) repeat in the key column; the last row was used:", len(dups))))
	for _, d := range dups {
		rows := make([]string, len(d.Rows))
		for i, r := range d.Rows {
			rows[i] = fmt.Sprint(r)
		}
		fmt.Fprintf(p.w, "    %s %s\n", d.Key, mutedStyle.Render("rows "+strings.Join(rows, ", ")))
	}
}

// Assignment prints the match partition.
func (p *Printer) Assignment(res *balance.Result, dryRun bool) {
	verb := "Rows updated"
	if dryRun {
		verb = "Rows that would be updated"
	}
	fmt.Fprintf(p.w, "  %s %s\n", successStyle.Render("✓"), fmt.Sprintf("%s: %d", verb, len(res.Matched)))

	if len(res.NotFound) == 0 {
		return
	}

	p.println(warnStyle.Render(fmt.Sprintf("  ⚠ %d barcode(s) not found in the spreadsheet:", len(res.NotFound))))
	for i, b := range res.NotFound {
		if i == maxListed {
			p.println(mutedStyle.Render(fmt.Sprintf("    … and %d more", len(res.NotFound)-maxListed)))
			break
		}
		p.println("    " + b)
	}
}

// Final prints the closing banner.
func (p *Printer) Final(s *types.RunSummary) {
	p.println("")
	p.println(rule)
	switch {
	case s.DryRun:
		p.println(successStyle.Render("  Dry run complete.") + mutedStyle.Render(" Nothing was written."))
	case s.Destination != "":
		p.println(successStyle.Render("  Done.") + " Saved to " + codeStyle.Render(s.Destination))
	default:
		p.println(successStyle.Render("  Done."))
	}
	p.println(mutedStyle.Render(fmt.Sprintf("  Elapsed %s", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))))
	p.println(rule)
}

// Error prints a fatal error.
func (p *Printer) Error(err error) {
	p.println(errorStyle.Render("  ✗ " + err.Error()))
}

// =============================================================================
// LAYOUTS
// =============================================================================

// LayoutList prints one line per layout, marking the active one.
func (p *Printer) LayoutList(names []string, active string, describe func(string) string) {
	for _, name := range names {
		marker := "  "
		styled := codeStyle.Render(name)
		if name == active {
			marker = successStyle.Render("* ")
			styled = successStyle.Render(name)
		}
		line := "  " + marker + styled
		if d := describe(name); d != "" {
			line += mutedStyle.Render("  " + d)
		}
		p.println(line)
	}
}

// LayoutDetail prints every setting of a layout.
func (p *Printer) LayoutDetail(spec *layout.Spec, active bool) {
	o := spec.Options()
	title := spec.Name()
	if active {
		title += " (active)"
	}
	p.println(titleStyle.Render("  " + title))
	p.println(rule)

	rows := []struct{ label, value string }{
		{"description", o.Description},
		{"spreadsheet_file", spec.SpreadsheetFile()},
		{"sheet", orDash(o.Sheet)},
		{"header_row", fmt.Sprint(o.HeaderRow)},
		{"data_start_row", fmt.Sprint(o.DataStartRow)},
		{"key_column", o.KeyColumn},
		{"target_column", o.TargetColumn},
		{"ean_column", orDash(o.EANColumn)},
		{"system_code_column", orDash(o.SystemCodeColumn)},
		{"xml_code_column", orDash(o.XMLCodeColumn)},
		{"description_column", orDash(o.DescriptionColumn)},
		{"sku_column", orDash(o.SKUColumn)},
		{"barcode_prefix", orDash(o.BarcodePrefix)},
		{"barcode_suffix", orDash(o.BarcodeSuffix)},
		{"barcode_pattern", orDash(o.BarcodePattern)},
		{"strict_keys", fmt.Sprint(o.StrictKeys)},
		{"matcher", spec.Matcher().String()},
	}
	for _, r := range rows {
		fmt.Fprintf(p.w, "  %-20s %s\n", mutedStyle.Render(r.label), codeStyle.Render(r.value))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// PROGRESS
// =============================================================================

// NewProgress creates a progress bar for reading count files.
func NewProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionClearOnFinish(),
	)
}
