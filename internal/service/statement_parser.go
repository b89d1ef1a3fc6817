package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"revelio-finance/internal/models"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoStatements   = errors.New("statement file contains no statements")
	ErrNoTransactions = errors.New("statement contains no transactions")
)

// StructuralParseError means the file could not be read as an OFX document
// even after repair.
type StructuralParseError struct {
	Err error
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("invalid statement structure: %v", e.Err)
}

func (e *StructuralParseError) Unwrap() error {
	return e.Err
}

// IsNoTransactions reports whether err means the file was readable but had
// nothing to extract.
func IsNoTransactions(err error) bool {
	return errors.Is(err, ErrNoStatements) || errors.Is(err, ErrNoTransactions)
}

type StatementParser struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewStatementParser(logger *zap.Logger) *StatementParser {
	return &StatementParser{
		logger: logger,
		now:    time.Now,
	}
}

// Parse extracts the transactions of the first statement in an OFX/QFX file.
// Bank statements are preferred over credit card statements.
func (p *StatementParser) Parse(raw []byte) (txs []models.TransactionRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			txs = nil
			err = &StructuralParseError{Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	repaired := repairStatement(raw, p.now())

	resp, err := ofxgo.ParseResponse(bytes.NewReader(repaired))
	if err != nil {
		return nil, &StructuralParseError{Err: err}
	}

	list, err := firstTransactionList(resp)
	if err != nil {
		return nil, err
	}

	records := make([]models.TransactionRecord, 0, len(list.Transactions))
	for _, t := range list.Transactions {
		records = append(records, toRecord(t))
	}
	if len(records) == 0 {
		return nil, ErrNoTransactions
	}
	return records, nil
}

// ParseOrEmpty is Parse for callers that only care about the records. Failures
// are logged and an empty slice is returned.
func (p *StatementParser) ParseOrEmpty(raw []byte) []models.TransactionRecord {
	txs, err := p.Parse(raw)
	if err == nil {
		return txs
	}

	var structural *StructuralParseError
	switch {
	case errors.As(err, &structural):
		p.logger.Error("Failed to parse statement file",
			zap.Error(structural.Err),
			zap.Int("size", len(raw)),
		)
	default:
		p.logger.Warn("No transactions found in statement file", zap.Error(err))
	}
	return []models.TransactionRecord{}
}

func firstTransactionList(resp *ofxgo.Response) (*ofxgo.TransactionList, error) {
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankTranList == nil {
				return nil, ErrNoTransactions
			}
			return stmt.BankTranList, nil
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.BankTranList == nil {
				return nil, ErrNoTransactions
			}
			return stmt.BankTranList, nil
		}
	}
	return nil, ErrNoStatements
}

func toRecord(t ofxgo.Transaction) models.TransactionRecord {
	description := strings.TrimSpace(string(t.Memo))
	if description == "" {
		description = strings.TrimSpace(string(t.Name))
	}

	amount := decimal.NewFromBigRat(&t.TrnAmt.Rat, 2)

	return models.TransactionRecord{
		Date:        t.DtPosted.Format("2006-01-02"),
		Amount:      amount.InexactFloat64(),
		Description: description,
	}
}
