// Package notify renders and delivers the outbound scan report.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"supwatch/internal/models"
)

// RenderSubject returns the report subject line for the given scan date.
func RenderSubject(now time.Time) string {
	return "Supplier Updates - " + now.Format("2006-01-02")
}

// RenderBody builds the plain-text report: one section per supplier with
// new content, followed by a per-supplier summary table. Suppliers are
// ordered by name so repeated runs produce comparable reports.
func RenderBody(results models.ScanResult) string {
	var b strings.Builder

	b.WriteString("Here are the latest supplier updates:\n\n")

	for _, name := range sortedNames(results) {
		articles := results[name]
		if len(articles) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%q\n", name)

		for _, article := range articles {
			fmt.Fprintf(&b, "* %s\n", article.Title)
			fmt.Fprintf(&b, "* %s\n", article.Summary)

			if article.Link != "" {
				fmt.Fprintf(&b, "* %s\n", article.Link)
			}

			b.WriteString("\n")
		}

		b.WriteString("-----\n\n")
	}

	b.WriteString(renderSummaryTable(results))

	return b.String()
}

func sortedNames(results models.ScanResult) []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// renderSummaryTable lays out supplier names and article counts in
// aligned columns. Widths are display widths, not byte counts, so names
// with wide runes still line up.
func renderSummaryTable(results models.ScanResult) string {
	const (
		supplierHeader = "Supplier"
		countHeader    = "New articles"
	)

	nameWidth := runewidth.StringWidth(supplierHeader)

	for name := range results {
		if w := runewidth.StringWidth(name); w > nameWidth {
			nameWidth = w
		}
	}

	countWidth := runewidth.StringWidth(countHeader)

	var b strings.Builder

	b.WriteString("Scan summary:\n")
	writeRow(&b, supplierHeader, countHeader, nameWidth, countWidth)
	writeRow(&b, strings.Repeat("-", nameWidth), strings.Repeat("-", countWidth), nameWidth, countWidth)

	for _, name := range sortedNames(results) {
		writeRow(&b, name, fmt.Sprintf("%d", len(results[name])), nameWidth, countWidth)
	}

	return b.String()
}

func writeRow(b *strings.Builder, left, right string, leftWidth, rightWidth int) {
	fmt.Fprintf(b, "| %s | %s |\n",
		runewidth.FillRight(left, leftWidth),
		runewidth.FillRight(right, rightWidth),
	)
}
