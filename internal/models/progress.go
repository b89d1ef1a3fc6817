package models

// BatchProgress is emitted once per completed group during enrichment.
type BatchProgress struct {
	ProcessedCount  int
	TotalCount      int
	PercentComplete int
	Items           []TransactionRecord
}
