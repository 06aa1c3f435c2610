package workflow

import (
	"fmt"
	"sort"

	"github.com/montuvia/inventory_backend/models"
	"github.com/montuvia/inventory_backend/salesfile"
)

// EnrichedSale is a parsed sale row plus its validation outcome and, when
// valid, the recipe metadata from the mapping table. Downstream stages only
// read it.
type EnrichedSale struct {
	salesfile.RawSale

	RecipeId          *string            `json:"recipeId,omitempty"`
	RecipeName        string             `json:"recipeName,omitempty"`
	MappingConfidence float64            `json:"mappingConfidence"`
	ProductType       models.ProductType `json:"productType,omitempty"`

	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

type ValidationStats struct {
	Total        int      `json:"total"`
	Valid        int      `json:"valid"`
	Invalid      int      `json:"invalid"`
	UnmappedSkus []string `json:"unmappedSkus"`
}

type ValidationResult struct {
	ValidSales   []EnrichedSale  `json:"validSales"`
	InvalidSales []EnrichedSale  `json:"invalidSales"`
	Stats        ValidationStats `json:"stats"`
}

// ValidateSales classifies every parsed row as valid or invalid against the
// mapping index. It is a pure function of its inputs: no I/O, trivially
// replayable.
//
// The four checks run independently and every failing reason is collected,
// not just the first. An unmapped SKU is additionally tracked in
// Stats.UnmappedSkus even when the row has other problems too, so operators
// see which codes need mapping regardless.
func ValidateSales(sales []salesfile.RawSale, mappings map[string]models.ProductMapping) *ValidationResult {
	result := &ValidationResult{
		ValidSales:   []EnrichedSale{},
		InvalidSales: []EnrichedSale{},
	}
	unmapped := make(map[string]bool)

	for _, sale := range sales {
		result.Stats.Total++

		var errs []string
		if sale.Sku == "" {
			errs = append(errs, "empty SKU")
		}
		if sale.Quantity.Sign() <= 0 {
			errs = append(errs, "invalid or zero quantity")
		}
		if sale.SaleDate == nil {
			errs = append(errs, "invalid or missing sale date")
		}

		// An empty SKU already failed above; it is not "unmapped", there is
		// nothing to map.
		mapping, mapped := mappings[sale.Sku]
		if !mapped && sale.Sku != "" {
			errs = append(errs, fmt.Sprintf("SKU %q is not mapped to a recipe", sale.Sku))
			unmapped[sale.Sku] = true
		}

		if len(errs) > 0 {
			result.InvalidSales = append(result.InvalidSales, EnrichedSale{
				RawSale: sale,
				IsValid: false,
				Errors:  errs,
			})
			result.Stats.Invalid++
			continue
		}

		result.ValidSales = append(result.ValidSales, EnrichedSale{
			RawSale:           sale,
			RecipeId:          mapping.RecipeId,
			RecipeName:        mapping.RecipeName,
			MappingConfidence: mapping.Confidence,
			ProductType:       mapping.ProductType,
			IsValid:           true,
		})
		result.Stats.Valid++
	}

	result.Stats.UnmappedSkus = make([]string, 0, len(unmapped))
	for sku := range unmapped {
		result.Stats.UnmappedSkus = append(result.Stats.UnmappedSkus, sku)
	}
	sort.Strings(result.Stats.UnmappedSkus)

	return result
}
