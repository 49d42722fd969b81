package etl

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-etl/internal/models"
	"github.com/diewo77/invoice-etl/internal/source"
)

// Resolver looks up or creates the shared parties an invoice references.
// Vendors and customers carry deliberately different identity strength:
// vendors are keyed on (name, tax id) and backed by a unique index, customers
// match on name alone with no constraint.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Vendor resolves the vendor node to a stored row, creating it on first
// sight. A missing tax id normalizes to the empty string, which is a valid
// identity of its own. Existing rows are returned unchanged even when the
// node carries a different address or party number. A node without a vendor
// name resolves to nil without error; the document is then not an invoice
// candidate.
func (r *Resolver) Vendor(node source.Doc) (*models.Vendor, error) {
	name, ok := node.String("vendorName")
	if !ok || name == "" {
		return nil, nil
	}
	taxID, _ := node.String("vendorTaxId")

	var vendor models.Vendor
	err := r.db.
		Where("name = ? AND tax_id = ?", name, taxID).
		Attrs(models.Vendor{
			Name:        name,
			TaxID:       taxID,
			PartyNumber: optString(node, "vendorPartyNumber"),
			Address:     optString(node, "vendorAddress"),
		}).
		FirstOrCreate(&vendor).Error
	if err != nil {
		return nil, fmt.Errorf("resolve vendor %q: %w", name, err)
	}
	return &vendor, nil
}

// Customer resolves the customer node to the first stored row with the same
// name, creating one when none exists. The lookup-then-create is not atomic:
// two concurrent batches naming the same customer can each create a row.
// Sequential runs never duplicate. A node without a customer name resolves
// to nil without error.
func (r *Resolver) Customer(node source.Doc) (*models.Customer, error) {
	name, ok := node.String("customerName")
	if !ok || name == "" {
		return nil, nil
	}

	var customer models.Customer
	err := r.db.Where("name = ?", name).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up customer %q: %w", name, err)
	}

	customer = models.Customer{
		Name:    name,
		Address: optString(node, "customerAddress"),
	}
	if err := r.db.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("create customer %q: %w", name, err)
	}
	return &customer, nil
}

// optString returns a pointer to the string at path, or nil when absent.
func optString(node source.Doc, path ...string) *string {
	s, ok := node.String(path...)
	if !ok {
		return nil
	}
	return &s
}
