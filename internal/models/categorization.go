package models

type Category string

const (
	CategoryFood          Category = "Food"
	CategoryHousing       Category = "Housing"
	CategoryTransport     Category = "Transport"
	CategoryLeisure       Category = "Leisure"
	CategoryHealth        Category = "Health"
	CategorySubscriptions Category = "Subscriptions"
	CategoryOther         Category = "Other"
)

// Categories lists the closed set offered to the model, in prompt order.
var Categories = []Category{
	CategoryFood,
	CategoryHousing,
	CategoryTransport,
	CategoryLeisure,
	CategoryHealth,
	CategorySubscriptions,
	CategoryOther,
}

func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const UnknownMerchant = "Unknown"

// CategorizationResult is what the model suggests for one description.
type CategorizationResult struct {
	MerchantProbable  string  `json:"merchantProbable"`
	CategorySuggested string  `json:"categorySuggested"`
	City              *string `json:"city"`
}

// FallbackCategorization is returned whenever the model cannot be reached or
// its answer cannot be used.
func FallbackCategorization() CategorizationResult {
	return CategorizationResult{
		MerchantProbable:  UnknownMerchant,
		CategorySuggested: string(CategoryOther),
	}
}

func (r CategorizationResult) IsFallback() bool {
	return r == FallbackCategorization()
}
