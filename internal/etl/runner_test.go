package etl

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/models"
	"github.com/diewo77/invoice-etl/internal/source"
)

func newTestRunner(t *testing.T) (*Runner, *gorm.DB) {
	t.Helper()
	conn := testDB(t)
	return NewRunner(conn, "EUR", slog.Default()), conn
}

func TestRunnerRun_FaultIsolation(t *testing.T) {
	runner, conn := newTestRunner(t)

	docs := make([]source.Doc, 0, 5)
	for i := 1; i <= 5; i++ {
		llm := fullLLM()
		if i == 3 {
			invoice := llm["invoice"].(map[string]any)["value"].(map[string]any)
			invoice["invoiceDate"] = wrap("not a date")
		}
		docs = append(docs, makeDoc(fmt.Sprintf("doc-%d", i), fmt.Sprintf("r%d.pdf", i), llm))
	}

	report := runner.Run(docs)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.Skipped)

	// every document rows landed, the faulted one without an invoice
	assert.EqualValues(t, 5, count(t, conn, &models.Document{}))
	assert.EqualValues(t, 4, count(t, conn, &models.Invoice{}))
	assert.EqualValues(t, 8, count(t, conn, &models.LineItem{}))

	var invoices []models.Invoice
	require.NoError(t, conn.Preload("Items").Find(&invoices).Error)
	for _, invoice := range invoices {
		assert.NotEqual(t, "doc-3", invoice.DocumentID)
		assert.Len(t, invoice.Items, 2)
	}
}

func TestRunnerRun_SkippedDocumentsCountSeparately(t *testing.T) {
	runner, conn := newTestRunner(t)

	noLLM := makeDoc("doc-1", "photo.png", nil)
	noInvoice := fullLLM()
	delete(noInvoice, "invoice")

	report := runner.Run([]source.Doc{
		noLLM,
		makeDoc("doc-2", "r1.pdf", fullLLM()),
		makeDoc("doc-3", "quote.pdf", noInvoice),
	})

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 2, report.Skipped)
	assert.EqualValues(t, 3, count(t, conn, &models.Document{}))
	assert.EqualValues(t, 1, count(t, conn, &models.Invoice{}))
}

// Re-ingesting a batch is only partially idempotent: vendor identity holds,
// documents and invoices are recreated. The asymmetry is intentional.
func TestRunnerRun_ReingestAsymmetry(t *testing.T) {
	runner, conn := newTestRunner(t)

	// no _id: each run stores the batch under fresh document ids
	batch := []source.Doc{
		makeDoc("", "r1.pdf", fullLLM()),
		makeDoc("", "r2.pdf", fullLLM()),
	}

	first := runner.Run(batch)
	require.Equal(t, 2, first.Processed)
	second := runner.Run(batch)
	require.Equal(t, 2, second.Processed)

	assert.EqualValues(t, 1, count(t, conn, &models.Vendor{}))
	assert.EqualValues(t, 1, count(t, conn, &models.Customer{}))
	assert.EqualValues(t, 4, count(t, conn, &models.Document{}))
	assert.EqualValues(t, 4, count(t, conn, &models.Invoice{}))
}

// Fixed document ids collide on re-ingest; the collision is a per-document
// fault, not a crash, and leaves the first run's rows untouched.
func TestRunnerRun_DuplicateDocumentIDsFault(t *testing.T) {
	runner, conn := newTestRunner(t)

	batch := []source.Doc{makeDoc("doc-1", "r1.pdf", fullLLM())}

	first := runner.Run(batch)
	require.Equal(t, 1, first.Processed)

	second := runner.Run(batch)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Errors)

	assert.EqualValues(t, 1, count(t, conn, &models.Document{}))
	assert.EqualValues(t, 1, count(t, conn, &models.Invoice{}))
	assert.EqualValues(t, 1, count(t, conn, &models.Vendor{}))
}

func TestRunnerRun_EmptyBatch(t *testing.T) {
	runner, _ := newTestRunner(t)
	report := runner.Run(nil)
	assert.Equal(t, Report{}, report)
}
