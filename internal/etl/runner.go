package etl

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/source"
)

// progressEvery controls how often the runner logs batch progress.
const progressEvery = 10

// Report is the final tally of one ingestion run. Skipped documents are
// non-invoice documents; they count toward neither processed nor errors.
type Report struct {
	Processed int
	Errors    int
	Skipped   int
}

// Runner drives one batch through the assembler, strictly in input order and
// one document at a time. Each document runs inside its own failure boundary:
// a fault is counted and logged, and the batch moves on. Nothing already
// written for earlier documents is rolled back.
type Runner struct {
	assembler *Assembler
	log       *slog.Logger
}

// NewRunner wires a runner and its assembler onto the given database handle.
// currency is the summary fallback currency code.
func NewRunner(db *gorm.DB, currency string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		assembler: NewAssembler(db, currency),
		log:       log,
	}
}

// Run ingests the batch and returns the final tally. Re-running the same
// batch leaves the vendor table unchanged but may add document, invoice and
// customer rows; only vendor identity is strongly idempotent.
func (r *Runner) Run(docs []source.Doc) Report {
	var report Report
	total := len(docs)

	for _, doc := range docs {
		name, _ := doc.String("name")

		result, err := r.assembler.Assemble(doc)
		if err != nil {
			report.Errors++
			r.log.Error("document failed", "document", name, "error", err)
			continue
		}
		switch result.Status {
		case StatusSkipped:
			report.Skipped++
			r.log.Debug("document skipped", "document", name, "reason", result.Reason)
		case StatusCreated:
			report.Processed++
			if report.Processed%progressEvery == 0 {
				r.log.Info("progress", "processed", report.Processed, "total", total)
			}
		}
	}

	r.log.Info("ingestion complete",
		"processed", report.Processed,
		"errors", report.Errors,
		"skipped", report.Skipped,
	)
	return report
}
