// Package etl turns extraction documents into the relational invoice model.
package etl

import (
	"strings"

	"github.com/diewo77/invoice-etl/internal/models"
)

// categoryRules are checked in order and the first matching keyword wins, so
// a description mentioning both "service" and "software" is a service. The
// German synonyms come first in each set because most source documents are
// German invoices.
var categoryRules = []struct {
	keywords []string
	category models.Category
}{
	{[]string{"dienstleistung", "service"}, models.CategoryServices},
	{[]string{"produkt", "product"}, models.CategoryProducts},
	{[]string{"software", "lizenz"}, models.CategorySoftware},
	{[]string{"beratung", "consulting"}, models.CategoryConsulting},
	{[]string{"material"}, models.CategoryMaterials},
}

// Categorize maps a free-text line item description to a spend category.
// Matching is a case-insensitive substring check; descriptions with no
// matching keyword (including the empty string) fall back to General.
func Categorize(description string) models.Category {
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(desc, keyword) {
				return rule.category
			}
		}
	}
	return models.CategoryGeneral
}
