package dto

import (
	"encoding/json"

	"revelio-finance/internal/models"
)

type UploadStatementResponse struct {
	Filename         string                     `json:"filename"`
	TransactionCount int                        `json:"transactionCount"`
	Transactions     []models.TransactionRecord `json:"transactions"`
}

type CategorizeRequest struct {
	Description string `json:"description"`
}

// AnalyzeAnomalyRequest carries the transaction to check and the spending
// history of its category. Both are passed through untyped.
type AnalyzeAnomalyRequest struct {
	CurrentTransaction json.RawMessage `json:"currentTransaction"`
	CategoryHistory    json.RawMessage `json:"categoryHistory"`
}

type AnalyzeAnomalyResponse struct {
	IsAnomaly     bool   `json:"isAnomaly"`
	Justification string `json:"justification"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
