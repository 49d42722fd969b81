package etl

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/models"
)

// Stats are the row counts and spend aggregates over the ingested tables.
// TotalSpend and AverageInvoice are magnitudes: totals are stored signed
// (credit notes are negative) and reported as positive numbers.
type Stats struct {
	Documents int64
	Invoices  int64
	Vendors   int64
	Customers int64
	LineItems int64
	Payments  int64
	Summaries int64

	ProcessedInvoices int64
	TotalSpend        float64
	AverageInvoice    float64
}

// CollectStats queries the current table counts and spend aggregates.
func CollectStats(db *gorm.DB) (*Stats, error) {
	var s Stats

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Document{}, &s.Documents},
		{&models.Invoice{}, &s.Invoices},
		{&models.Vendor{}, &s.Vendors},
		{&models.Customer{}, &s.Customers},
		{&models.LineItem{}, &s.LineItems},
		{&models.Payment{}, &s.Payments},
		{&models.Summary{}, &s.Summaries},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count %T: %w", c.model, err)
		}
	}

	err := db.Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusProcessed).
		Count(&s.ProcessedInvoices).Error
	if err != nil {
		return nil, fmt.Errorf("count processed invoices: %w", err)
	}

	var totals struct {
		Total float64
		Avg   float64
	}
	err = db.Model(&models.Summary{}).
		Select("COALESCE(SUM(invoice_total), 0) AS total, COALESCE(AVG(invoice_total), 0) AS avg").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate summaries: %w", err)
	}
	s.TotalSpend = math.Abs(totals.Total)
	s.AverageInvoice = math.Abs(totals.Avg)

	return &s, nil
}
