package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jward/codehud"
)

// outputResult writes result to the command's stdout in the selected format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case *codehud.FileAnalysis:
		formatAnalysisText(w, v)
	case *codehud.ImportResult:
		formatImportsText(w, v)
	case *codehud.Report:
		formatReportText(w, v)
	case []codehud.LanguageInfo:
		formatLanguagesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatAnalysisText prints per-purpose totals followed by the functions.
func formatAnalysisText(w io.Writer, a *codehud.FileAnalysis) {
	fmt.Fprintf(w, "File: %s\n", a.Path)
	fmt.Fprintf(w, "Language: %s\n", a.Language)
	fmt.Fprintf(w, "Lines: %d\n", a.Lines)
	fmt.Fprintln(w)

	if a.Imports != nil {
		fmt.Fprintf(w, "Imports: %d\n", a.Imports.Summary.Total)
		for _, m := range a.Imports.Summary.Modules {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
	if a.Calls != nil {
		fmt.Fprintf(w, "Calls: %d (%d unique)\n", a.Calls.Total, a.Calls.Unique)
	}
	if a.Complexity != nil {
		fmt.Fprintf(w, "Complexity: %d (%s)\n", a.Complexity.Total, a.Complexity.Grade)
	}
	if a.Comments != nil {
		fmt.Fprintf(w, "Comments: %d\n", a.Comments.Total)
	}

	if a.Functions != nil && len(a.Functions.Functions) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FUNCTION\tKIND\tLINE\tLENGTH")
		for _, f := range a.Functions.Functions {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", f.Name, f.Kind, f.Line, f.Length)
		}
		tw.Flush()
	}
}

// formatImportsText prints one import entry per row.
func formatImportsText(w io.Writer, res *codehud.ImportResult) {
	if res == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tTYPE\tMODULE\tITEM\tALIAS")
	for _, e := range res.Entries {
		module := e.Module
		if module == "" {
			module = e.Text
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Line, e.Type, module, e.Item, e.Alias)
	}
	tw.Flush()
}

// formatReportText prints the summary, cycles, influence ranking and
// recommendations of a scan.
func formatReportText(w io.Writer, rep *codehud.Report) {
	s := rep.Summary
	fmt.Fprintln(w, "Dependency Summary")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "Files analyzed: %d (skipped %d, failed %d)\n", s.FilesAnalyzed, s.FilesSkipped, s.FilesFailed)
	fmt.Fprintf(w, "Files with imports: %d\n", s.FilesWithDeps)
	fmt.Fprintf(w, "Import statements: %d (%.1f per file)\n", s.TotalImports, s.AverageImports)
	fmt.Fprintf(w, "Resolved edges: %d\n", s.Edges)
	fmt.Fprintf(w, "External dependencies: %d\n", s.ExternalDependencies)
	fmt.Fprintf(w, "Coverage: %.1f%%\n", s.Coverage)
	fmt.Fprintln(w)

	if len(rep.Cycles) > 0 {
		fmt.Fprintf(w, "Circular Dependencies (%d):\n", len(rep.Cycles))
		for _, c := range rep.Cycles {
			fmt.Fprintf(w, "  [%s] %s\n", c.Severity, strings.Join(c.Path, " -> "))
		}
		fmt.Fprintln(w)
	}

	if len(rep.Influence) > 0 {
		fmt.Fprintln(w, "Influential Imports:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  IMPORT\tIMPORTED BY\tSCORE")
		for _, in := range rep.Influence {
			fmt.Fprintf(tw, "  %s\t%d\t%.2f\n", in.Import, in.ImportedBy, in.Score)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d):\n", len(rep.Warnings))
		for _, wn := range rep.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", wn.Path, wn.Error)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range rep.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

// formatLanguagesText lists the registry with binding and query columns.
func formatLanguagesText(w io.Writer, infos []codehud.LanguageInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS\tBOUND\tQUERIES")
	for _, info := range infos {
		bound := "no"
		if info.Bound {
			bound = "yes"
		}
		queries := strings.Join(info.KindNames, ",")
		if queries == "" {
			queries = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Language, strings.Join(info.Extensions, " "), bound, queries)
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
