package etl

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/models"
	"github.com/diewo77/invoice-etl/internal/source"
)

// testDB opens a private in-memory database per test. The name keeps the
// shared-cache database isolated between tests while surviving GORM's
// connection pooling within one test.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func wrap(v any) map[string]any {
	return map[string]any{"value": v}
}

// makeDoc builds a document in the upstream wire shape. An empty id leaves
// the _id out so the assembler generates one.
func makeDoc(id, name string, llm map[string]any) source.Doc {
	doc := source.Doc{
		"name":           name,
		"filePath":       "/inbox/" + name,
		"fileSize":       map[string]any{"$numberLong": "284137"},
		"fileType":       "application/pdf",
		"status":         "processed",
		"organizationId": "org-1",
		"departmentId":   "dep-7",
		"createdAt":      map[string]any{"$date": "2025-01-10T10:00:00Z"},
		"updatedAt":      map[string]any{"$date": "2025-01-11T08:00:00Z"},
		"metadata":       map[string]any{"source": "upload"},
	}
	if id != "" {
		doc["_id"] = id
	}
	if llm != nil {
		doc["extractedData"] = map[string]any{"llmData": llm}
	}
	return doc
}

// fullLLM returns a complete extraction payload; tests delete or override
// keys to model partial documents.
func fullLLM() map[string]any {
	return map[string]any{
		"vendor": wrap(map[string]any{
			"vendorName":        wrap("Musterfirma Müller"),
			"vendorTaxId":       wrap("DE123456789"),
			"vendorAddress":     wrap("Musterstraße 1, 10115 Berlin"),
			"vendorPartyNumber": wrap("V-1001"),
		}),
		"customer": wrap(map[string]any{
			"customerName":    wrap("Acme GmbH"),
			"customerAddress": wrap("Hauptstraße 9, 80331 München"),
		}),
		"invoice": wrap(map[string]any{
			"invoiceId":    wrap("RE-2025-001"),
			"invoiceDate":  wrap("2025-01-05"),
			"deliveryDate": wrap("2025-01-08"),
		}),
		"lineItems": wrap(map[string]any{
			"items": wrap([]any{
				map[string]any{
					"srNo":         wrap(float64(1)),
					"description":  wrap("IT-Dienstleistung Januar"),
					"quantity":     wrap(float64(10)),
					"unitPrice":    wrap(float64(120)),
					"totalPrice":   wrap(float64(1200)),
					"Sachkonto":    wrap(float64(4400)),
					"BUSchluessel": wrap("9"),
				},
				map[string]any{
					"description": wrap("Lizenzverlängerung"),
					"quantity":    wrap(float64(1)),
					"unitPrice":   wrap("499.50"),
					"totalPrice":  wrap("499.50"),
				},
			}),
		}),
		"payment": wrap(map[string]any{
			"dueDate":            wrap("2025-02-05"),
			"paymentTerms":       wrap("30 Tage netto"),
			"bankAccountNumber":  wrap("DE02120300000000202051"),
			"BIC":                wrap("BYLADEM1001"),
			"accountName":        wrap("Musterfirma Müller"),
			"netDays":            wrap(float64(30)),
			"discountPercentage": wrap("2.5"),
			"discountDays":       wrap(float64(10)),
			"discountDueDate":    wrap("2025-01-15"),
			"discountedTotal":    wrap("1657.01"),
		}),
		"summary": wrap(map[string]any{
			"documentType":   wrap("invoice"),
			"subTotal":       wrap(float64(1699.50)),
			"totalTax":       wrap(float64(322.91)),
			"invoiceTotal":   wrap(float64(2022.41)),
			"currencySymbol": wrap("EUR"),
		}),
	}
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}
