package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"qcomposer/internal/codegen"
	"qcomposer/internal/sim"
)

// printHistogram writes a simulation result as a table, one row per outcome
// in bitstring order.
func printHistogram(w io.Writer, res *sim.Result) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Run %s on %s: %d shots in %v\n", res.ID, res.Backend, res.Shots, res.Elapsed)

	peak := 1
	for _, n := range res.Counts {
		peak = max(peak, n)
	}
	bar := color.New(color.FgYellow).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Outcome", "Count", "Probability", ""})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, k := range slices.Sorted(maps.Keys(res.Counts)) {
		n := res.Counts[k]
		table.Append([]string{
			k,
			fmt.Sprint(n),
			fmt.Sprintf("%.3f", float64(n)/float64(max(res.Shots, 1))),
			bar(strings.Repeat("█", n*histogramBarW/peak)),
		})
	}
	table.Render()
}

// printDialects lists the code dialects the editor can render.
func printDialects(w io.Writer) {
	name := color.New(color.FgCyan).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Dialect", "Title", "Extension"})
	for _, d := range codegen.Dialects() {
		r, err := codegen.For(d)
		if err != nil {
			continue
		}
		table.Append([]string{name(string(d)), r.Title(), r.Extension()})
	}
	table.Render()
}
