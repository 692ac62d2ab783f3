// Package ui renders the job's human-readable output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"activation/internal/activation"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// UI writes reports to Out and diagnostics to Err
type UI struct {
	Out io.Writer
	Err io.Writer
}

// NewUI creates a UI over the given writers, defaulting to stdout and stderr
func NewUI(out, errOut io.Writer) *UI {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &UI{Out: out, Err: errOut}
}

// Created prints the single confirmation line for a rebuilt table
func (u *UI) Created(table string) {
	fmt.Fprintf(u.Out, "✅ Created %s\n", table)
}

// Error prints err to the diagnostic stream
func (u *UI) Error(err error) {
	ShowError(u.Err, err)
}

// Summary renders activation statistics as a table
func (u *UI) Summary(s activation.Summary) {
	table := tablewriter.NewWriter(u.Out)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	table.Append([]string{"Accounts", strconv.Itoa(s.Accounts)})
	table.Append([]string{"Activated", strconv.Itoa(s.Activated)})
	table.Append([]string{"Activation rate", fmt.Sprintf("%.1f%%", s.ActivationRate*100)})
	table.Append([]string{"Core usage only", strconv.Itoa(s.CoreOnly)})
	table.Append([]string{"Deals only", strconv.Itoa(s.DealsOnly)})
	table.Append([]string{"No signal", strconv.Itoa(s.Neither)})
	if s.MissingCreatedDate > 0 {
		table.Append([]string{"Missing CreatedDate", strconv.Itoa(s.MissingCreatedDate)})
	}
	table.Append([]string{"Median days to value", strconv.FormatFloat(s.MedianTimeToValue, 'f', -1, 64)})
	table.Append([]string{"Max days to value", strconv.FormatInt(s.MaxTimeToValue, 10)})

	table.Render()
}

// Verification renders one row per invariant check
func (u *UI) Verification(v *activation.Verification) {
	table := tablewriter.NewWriter(u.Out)
	table.SetHeader([]string{"Check", "Status", "Violations", "Description"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	for _, c := range v.Checks {
		status := color.GreenString("PASS")
		if !c.Passed() {
			status = color.RedString("FAIL")
		}
		table.Append([]string{c.Name, status, strconv.FormatInt(c.Violations, 10), c.Description})
	}

	table.Render()

	if v.OK() {
		fmt.Fprintf(u.Out, "%s all checks passed on %s\n", ColorSuccess("OK:"), v.Table)
	}
}
