package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"panomirror/mirror"
)

func printSummary(w io.Writer, s mirror.Summary) {
	design := s.DesignID
	if design == "" {
		design = "-"
	}

	rows := [][]string{
		{"Text files scanned", strconv.Itoa(s.FilesScanned)},
		{"Text files rewritten", strconv.Itoa(s.FilesRewritten)},
		{"Render URLs queued", strconv.Itoa(s.URLsQueued)},
		{"Assets downloaded", strconv.Itoa(s.Fetched)},
		{"Assets already present", strconv.Itoa(s.Existing)},
		{"Assets skipped", strconv.Itoa(s.Skipped)},
		{"Assets failed", strconv.Itoa(s.Failed)},
		{"Entry design", design},
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Step", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.AppendBulk(rows)
	table.Render()

	_, _ = fmt.Fprintf(w, "\n%s", tableBuffer.String())
}
