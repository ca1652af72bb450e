package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/schema"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	promptColor  = color.New(color.FgYellow, color.Bold)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...any) {
	failureColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func info(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func prompt(w io.Writer) {
	promptColor.Fprint(w, "? ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printOutcome prints the answer and a one-line trace of how it was found.
func printOutcome(w io.Writer, out assistant.Outcome) {
	if !out.OK() {
		failure(w, "%s", out.Error)
		return
	}

	answer, degraded := strings.CutSuffix(out.Answer, "\n\n"+assistant.UnavailableNote)
	fmt.Fprintln(w, answer)
	if degraded {
		warnColor.Fprintf(w, "\n⚠ %s\n", assistant.UnavailableNote)
	}

	trace := []string{string(out.Path), string(out.Intent), fmt.Sprintf("%d matched", out.Total)}
	if out.PlanSource != "" {
		trace = append(trace, "plan: "+string(out.PlanSource))
	}
	if out.AnswerSource != "" {
		trace = append(trace, "answer: "+string(out.AnswerSource))
	}
	trace = append(trace, out.Duration.Round(time.Millisecond).String())
	dimColor.Fprintf(w, "  [%s]\n", strings.Join(trace, " · "))
}

// printSchema prints one row per column.
func printSchema(w io.Writer, cfg schema.Config, keywords int) {
	infoColor.Fprintf(w, "%s: %d records, %d columns, %d keywords\n\n", cfg.Name, cfg.RowCount, len(cfg.Columns), keywords)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tKIND\tUNIQUE\tSEARCH\tSAMPLES")
	for _, col := range cfg.Columns {
		search := "-"
		if col.Searchable {
			search = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			col.Name, col.Type, col.Kind, col.UniqueCount, search, strings.Join(col.SampleValues, ", "))
	}
	_ = tw.Flush()
}
