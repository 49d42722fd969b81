package models

import (
	"math"
	"time"
)

// InvoiceStatus represents the processing status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusProcessed InvoiceStatus = "processed"
	InvoiceStatusPending   InvoiceStatus = "pending"
)

// InvoiceStatusFromDocument maps a document status onto an invoice status.
// Only fully processed documents carry the status through; everything else
// (pending, failed, unknown) lands as pending.
func InvoiceStatusFromDocument(documentStatus string) InvoiceStatus {
	if documentStatus == string(InvoiceStatusProcessed) {
		return InvoiceStatusProcessed
	}
	return InvoiceStatusPending
}

// Category is the spend category assigned to a line item.
type Category string

const (
	CategoryServices   Category = "Services"
	CategoryProducts   Category = "Products"
	CategorySoftware   Category = "Software"
	CategoryConsulting Category = "Consulting"
	CategoryMaterials  Category = "Materials"
	CategoryGeneral    Category = "General"
)

// Document is the 1:1 projection of an upstream extraction document's
// storage and lifecycle fields. A document owns zero or more invoices;
// non-invoice documents legitimately have none.
type Document struct {
	ID             string `gorm:"primaryKey;size:64"`
	Name           string `gorm:"size:255;not null"`
	FilePath       string `gorm:"size:500"`
	FileSize       int64
	FileType       string `gorm:"size:100"`
	Status         string `gorm:"size:50"`
	OrganizationID string `gorm:"size:64"`
	DepartmentID   string `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessedAt    *time.Time
	AnalyticsID    *string `gorm:"size:64"`
	Metadata       string  `gorm:"type:text"`

	Invoices []Invoice `gorm:"foreignKey:DocumentID"`
}

// IsProcessed returns true if the upstream system finished processing the document.
func (d *Document) IsProcessed() bool {
	return d.Status == string(InvoiceStatusProcessed)
}

// Vendor is a supplier shared by many invoices. Identity is the
// (name, tax_id) pair; a missing tax id is stored as the empty string and is
// itself a valid identity component. First write wins: later documents naming
// the same vendor never update address or party number.
type Vendor struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;not null;uniqueIndex:idx_vendors_name_tax_id"`
	TaxID       string  `gorm:"size:100;not null;default:'';uniqueIndex:idx_vendors_name_tax_id"`
	PartyNumber *string `gorm:"size:100"`
	Address     *string `gorm:"size:500"`

	Invoices []Invoice `gorm:"foreignKey:VendorID"`
}

// Customer is the invoiced party. Identity is the name alone and is not
// enforced with a unique constraint; concurrent ingestion may create
// duplicate rows for the same name, which is accepted.
type Customer struct {
	ID      uint    `gorm:"primaryKey"`
	Name    string  `gorm:"size:255;not null;index"`
	Address *string `gorm:"size:500"`

	Invoices []Invoice `gorm:"foreignKey:CustomerID"`
}

// Invoice belongs to exactly one document, vendor and customer.
type Invoice struct {
	ID            uint      `gorm:"primaryKey"`
	DocumentID    string    `gorm:"size:64;index;not null"`
	VendorID      uint      `gorm:"index;not null"`
	CustomerID    uint      `gorm:"index;not null"`
	InvoiceNumber string    `gorm:"size:100;not null"`
	InvoiceDate   time.Time `gorm:"not null"`
	DeliveryDate  *time.Time
	Status        InvoiceStatus `gorm:"size:20;not null;default:'pending'"`

	Items   []LineItem `gorm:"foreignKey:InvoiceID"`
	Payment *Payment   `gorm:"foreignKey:InvoiceID"`
	Summary *Summary   `gorm:"foreignKey:InvoiceID"`
}

// IsProcessed returns true if the invoice came from a processed document.
func (i *Invoice) IsProcessed() bool {
	return i.Status == InvoiceStatusProcessed
}

// LineItem is one position on an invoice. SrNo preserves the order the
// positions appeared in the source document.
type LineItem struct {
	ID           uint     `gorm:"primaryKey"`
	InvoiceID    uint     `gorm:"index;not null"`
	SrNo         int      `gorm:"not null"`
	Description  string   `gorm:"size:500;not null"`
	Quantity     float64  `gorm:"not null"`
	UnitPrice    float64  `gorm:"not null"`
	TotalPrice   float64  `gorm:"not null"`
	Sachkonto    *string  `gorm:"size:50"`
	BUSchluessel *string  `gorm:"size:50"`
	Category     Category `gorm:"size:50;not null;default:'General'"`
}

// Payment holds the payment terms of an invoice (zero or one per invoice).
// Discount fields stay NULL when the source omits them or supplies values
// that do not parse as numbers.
type Payment struct {
	ID                 uint `gorm:"primaryKey"`
	InvoiceID          uint `gorm:"index;not null"`
	DueDate            *time.Time
	PaymentTerms       *string `gorm:"size:500"`
	BankAccountNumber  *string `gorm:"size:100"`
	BIC                *string `gorm:"size:50"`
	AccountName        *string `gorm:"size:255"`
	NetDays            int     `gorm:"not null;default:0"`
	DiscountPercentage *float64
	DiscountDays       *int
	DiscountDueDate    *time.Time
	DiscountedTotal    *float64
}

// Summary holds the monetary totals of an invoice (zero or one per invoice).
// Totals are stored signed; credit notes carry negative amounts.
type Summary struct {
	ID             uint    `gorm:"primaryKey"`
	InvoiceID      uint    `gorm:"index;not null"`
	DocumentType   *string `gorm:"size:100"`
	SubTotal       float64 `gorm:"not null;default:0"`
	TotalTax       float64 `gorm:"not null;default:0"`
	InvoiceTotal   float64 `gorm:"not null;default:0"`
	CurrencySymbol string  `gorm:"size:10;not null;default:'EUR'"`
}

// DisplayTotal returns the magnitude of the invoice total. Reporting shows
// spend as positive numbers regardless of the stored sign.
func (s *Summary) DisplayTotal() float64 {
	return math.Abs(s.InvoiceTotal)
}

// All lists every persisted entity in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Document{},
		&Vendor{},
		&Customer{},
		&Invoice{},
		&LineItem{},
		&Payment{},
		&Summary{},
	}
}
