package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/callumalpass/study-program/internal/storage/local"
	"github.com/callumalpass/study-program/internal/validate"
)

// cmdValidate runs the validation pass and prints the report
func cmdValidate(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("validate", &g)
	strict := fs.Bool("strict", false, "treat exercises without visible test cases as errors")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	reportDir := fs.String("report-dir", "", "also store the report as JSON in this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}

	v := validate.NewValidator(validate.Options{Strict: *strict || a.cfg.Validation.Strict})
	report := v.Validate(registry.Corpus(), registry.Rejections()...)

	dir := *reportDir
	if dir == "" {
		dir = a.cfg.Validation.ReportDir
	}
	if dir != "" {
		store, err := local.NewStore(dir)
		if err != nil {
			return err
		}
		if err := store.SaveReport(report.RunID.String(), report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		a.logger.Info("report saved", "run_id", report.RunID, "dir", dir)
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(out, report)
	}

	if !report.Valid() {
		return errValidationFailed
	}
	return nil
}

func printReport(w io.Writer, report *validate.Report) {
	for _, v := range report.Errors() {
		fmt.Fprintf(w, "  %s\n", v)
	}
	for _, v := range report.Warnings() {
		fmt.Fprintf(w, "  %s\n", v)
	}
	if len(report.Violations) > 0 {
		fmt.Fprintln(w)
	}

	status := "OK"
	if !report.Valid() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %s\n", status, report.Summary())
}
