package etl

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/models"
	"github.com/diewo77/invoice-etl/internal/source"
)

// Status classifies the outcome of assembling one document.
type Status string

const (
	// StatusCreated means the document produced an invoice with its children.
	StatusCreated Status = "created"
	// StatusSkipped means the document is not an invoice document (no
	// extraction payload, no invoice payload, or an unresolvable party).
	// Skipped documents still consume a document row.
	StatusSkipped Status = "skipped"
)

// Result is the explicit per-document outcome. Faults are reported through
// the error return of Assemble, never through Result.
type Result struct {
	Status    Status
	Reason    string
	InvoiceID uint
}

func skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

// Assembler builds the relational rows for a single extraction document:
// always a document row, then, when the payload allows it, one invoice with
// its line items, payment and summary.
type Assembler struct {
	db       *gorm.DB
	resolver *Resolver
	currency string

	// now feeds the fallback invoice number; swapped out in tests.
	now func() time.Time
}

func NewAssembler(db *gorm.DB, currency string) *Assembler {
	return &Assembler{
		db:       db,
		resolver: NewResolver(db),
		currency: currency,
		now:      time.Now,
	}
}

// Assemble processes one document. The document row is written first and is
// kept even when a later step fails; there is no cross-entity transaction,
// trading atomicity for restartable batches. Any returned error is a
// document-level fault for the caller to count and move past.
func (a *Assembler) Assemble(doc source.Doc) (Result, error) {
	document, err := a.createDocument(doc)
	if err != nil {
		return Result{}, fmt.Errorf("create document: %w", err)
	}

	llm := doc.Child("extractedData", "llmData")
	if llm == nil {
		return skipped("no extraction payload"), nil
	}

	vendor, err := a.resolver.Vendor(llm.Child("vendor"))
	if err != nil {
		return Result{}, err
	}
	customer, err := a.resolver.Customer(llm.Child("customer"))
	if err != nil {
		return Result{}, err
	}

	invoiceData := llm.Child("invoice")
	switch {
	case invoiceData == nil:
		return skipped("no invoice payload"), nil
	case vendor == nil:
		return skipped("vendor unresolved"), nil
	case customer == nil:
		return skipped("customer unresolved"), nil
	}

	invoice, err := a.createInvoice(document, invoiceData, vendor, customer)
	if err != nil {
		return Result{}, err
	}
	if err := a.createLineItems(invoice, llm); err != nil {
		return Result{}, err
	}
	if err := a.createPayment(invoice, llm.Child("payment")); err != nil {
		return Result{}, err
	}
	if err := a.createSummary(invoice, llm.Child("summary")); err != nil {
		return Result{}, err
	}
	return Result{Status: StatusCreated, InvoiceID: invoice.ID}, nil
}

// createDocument projects the storage and lifecycle fields. Every document
// gets a row, invoice or not.
func (a *Assembler) createDocument(doc source.Doc) (*models.Document, error) {
	id, ok := doc.String("_id")
	if !ok || id == "" {
		id = uuid.New().String()
	}
	createdAt, _, err := doc.Time("createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, _, err := doc.Time("updatedAt")
	if err != nil {
		return nil, err
	}
	processedAt, err := optTime(doc, "processedAt")
	if err != nil {
		return nil, err
	}

	name, _ := doc.String("name")
	filePath, _ := doc.String("filePath")
	fileSize, _ := doc.Int64("fileSize")
	fileType, _ := doc.String("fileType")
	status, _ := doc.String("status")
	orgID, _ := doc.String("organizationId")
	deptID, _ := doc.String("departmentId")

	metadata := "{}"
	if raw, ok := doc.Raw("metadata"); ok {
		if encoded, err := json.Marshal(raw); err == nil {
			metadata = string(encoded)
		}
	}

	document := models.Document{
		ID:             id,
		Name:           name,
		FilePath:       filePath,
		FileSize:       fileSize,
		FileType:       fileType,
		Status:         status,
		OrganizationID: orgID,
		DepartmentID:   deptID,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		ProcessedAt:    processedAt,
		AnalyticsID:    optString(doc, "analyticsId"),
		Metadata:       metadata,
	}
	if err := a.db.Create(&document).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func (a *Assembler) createInvoice(document *models.Document, invoiceData source.Doc, vendor *models.Vendor, customer *models.Customer) (*models.Invoice, error) {
	number, ok := invoiceData.String("invoiceId")
	if !ok || number == "" {
		number = fmt.Sprintf("INV-%d", a.now().UnixMilli())
	}

	invoiceDate, present, err := invoiceData.Time("invoiceDate")
	if err != nil {
		return nil, fmt.Errorf("invoice date: %w", err)
	}
	if !present {
		invoiceDate = document.CreatedAt
	}
	deliveryDate, err := optTime(invoiceData, "deliveryDate")
	if err != nil {
		return nil, fmt.Errorf("delivery date: %w", err)
	}

	invoice := models.Invoice{
		DocumentID:    document.ID,
		VendorID:      vendor.ID,
		CustomerID:    customer.ID,
		InvoiceNumber: number,
		InvoiceDate:   invoiceDate,
		DeliveryDate:  deliveryDate,
		Status:        models.InvoiceStatusFromDocument(document.Status),
	}
	if err := a.db.Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return &invoice, nil
}

func (a *Assembler) createLineItems(invoice *models.Invoice, llm source.Doc) error {
	for i, item := range llm.Items("lineItems", "items") {
		description, _ := item.String("description")
		srNo, ok := item.Int("srNo")
		if !ok {
			srNo = i + 1
		}
		quantity, _ := item.Float("quantity")
		unitPrice, _ := item.Float("unitPrice")
		totalPrice, _ := item.Float("totalPrice")

		line := models.LineItem{
			InvoiceID:    invoice.ID,
			SrNo:         srNo,
			Description:  description,
			Quantity:     quantity,
			UnitPrice:    unitPrice,
			TotalPrice:   totalPrice,
			Sachkonto:    optStringified(item, "Sachkonto"),
			BUSchluessel: optStringified(item, "BUSchluessel"),
			Category:     Categorize(description),
		}
		if err := a.db.Create(&line).Error; err != nil {
			return fmt.Errorf("create line item %d: %w", srNo, err)
		}
	}
	return nil
}

// createPayment writes the payment row when the document carries one.
// Discount numerics that fail to parse degrade to NULL instead of aborting
// the payment.
func (a *Assembler) createPayment(invoice *models.Invoice, paymentData source.Doc) error {
	if paymentData == nil {
		return nil
	}
	dueDate, err := optTime(paymentData, "dueDate")
	if err != nil {
		return fmt.Errorf("payment due date: %w", err)
	}
	discountDueDate, err := optTime(paymentData, "discountDueDate")
	if err != nil {
		return fmt.Errorf("discount due date: %w", err)
	}
	netDays, _ := paymentData.Int("netDays")

	payment := models.Payment{
		InvoiceID:          invoice.ID,
		DueDate:            dueDate,
		PaymentTerms:       optString(paymentData, "paymentTerms"),
		BankAccountNumber:  optString(paymentData, "bankAccountNumber"),
		BIC:                optString(paymentData, "BIC"),
		AccountName:        optString(paymentData, "accountName"),
		NetDays:            netDays,
		DiscountPercentage: optFloat(paymentData, "discountPercentage"),
		DiscountDays:       optInt(paymentData, "discountDays"),
		DiscountDueDate:    discountDueDate,
		DiscountedTotal:    optFloat(paymentData, "discountedTotal"),
	}
	if err := a.db.Create(&payment).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (a *Assembler) createSummary(invoice *models.Invoice, summaryData source.Doc) error {
	if summaryData == nil {
		return nil
	}
	subTotal, _ := summaryData.Float("subTotal")
	totalTax, _ := summaryData.Float("totalTax")
	invoiceTotal, _ := summaryData.Float("invoiceTotal")
	currency, ok := summaryData.String("currencySymbol")
	if !ok || currency == "" {
		currency = a.currency
	}

	summary := models.Summary{
		InvoiceID:      invoice.ID,
		DocumentType:   optString(summaryData, "documentType"),
		SubTotal:       subTotal,
		TotalTax:       totalTax,
		InvoiceTotal:   invoiceTotal,
		CurrencySymbol: currency,
	}
	if err := a.db.Create(&summary).Error; err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	return nil
}

func optStringified(node source.Doc, path ...string) *string {
	s, ok := node.Stringify(path...)
	if !ok {
		return nil
	}
	return &s
}

func optFloat(node source.Doc, path ...string) *float64 {
	f, ok := node.Float(path...)
	if !ok {
		return nil
	}
	return &f
}

func optInt(node source.Doc, path ...string) *int {
	n, ok := node.Int(path...)
	if !ok {
		return nil
	}
	return &n
}

func optTime(node source.Doc, path ...string) (*time.Time, error) {
	t, present, err := node.Time(path...)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return &t, nil
}
