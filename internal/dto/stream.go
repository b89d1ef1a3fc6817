package dto

import "revelio-finance/internal/models"

const (
	StreamTypeProgress = "progress"
	StreamTypeComplete = "complete"
	StreamTypeError    = "error"
)

// ProgressMessage is sent after each enriched group.
type ProgressMessage struct {
	Type            string                     `json:"type"`
	ProcessedCount  int                        `json:"processedCount"`
	TotalCount      int                        `json:"totalCount"`
	ProgressPercent int                        `json:"progressPercent"`
	Data            []models.TransactionRecord `json:"data"`
}

// StatusMessage is used for both the terminal complete and error events.
type StatusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewProgressMessage(p models.BatchProgress) ProgressMessage {
	data := p.Items
	if data == nil {
		data = []models.TransactionRecord{}
	}
	return ProgressMessage{
		Type:            StreamTypeProgress,
		ProcessedCount:  p.ProcessedCount,
		TotalCount:      p.TotalCount,
		ProgressPercent: p.PercentComplete,
		Data:            data,
	}
}

func NewCompleteMessage(message string) StatusMessage {
	return StatusMessage{Type: StreamTypeComplete, Message: message}
}

func NewErrorMessage(message string) StatusMessage {
	return StatusMessage{Type: StreamTypeError, Message: message}
}
