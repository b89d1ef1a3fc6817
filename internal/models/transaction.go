package models

// TransactionRecord is one statement line. Date, Amount and Description come
// from the statement and never change; the enrichment fields stay nil until
// categorization runs.
type TransactionRecord struct {
	Date              string  `json:"date"`
	Amount            float64 `json:"amount"`
	Description       string  `json:"description"`
	MerchantProbable  *string `json:"merchantProbable,omitempty"`
	CategorySuggested *string `json:"categorySuggested,omitempty"`
	City              *string `json:"city,omitempty"`
}

// WithCategorization returns a copy of the record carrying the result.
func (t TransactionRecord) WithCategorization(r CategorizationResult) TransactionRecord {
	merchant := r.MerchantProbable
	category := r.CategorySuggested
	t.MerchantProbable = &merchant
	t.CategorySuggested = &category
	if r.City != nil {
		city := *r.City
		t.City = &city
	} else {
		t.City = nil
	}
	return t
}

// Enriched reports whether categorization has been applied.
func (t TransactionRecord) Enriched() bool {
	return t.MerchantProbable != nil && t.CategorySuggested != nil
}
