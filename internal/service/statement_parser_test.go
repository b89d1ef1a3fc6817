package service

import (
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const ofxHeader = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

`

const signon = `<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240131120000
<LANGUAGE>FRA
</SONRS>
</SIGNONMSGSRSV1>
`

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func stmttrn(posted, amount, fitid, memo string) string {
	return "<STMTTRN>\n<TRNTYPE>DEBIT\n<DTPOSTED>" + posted +
		"\n<TRNAMT>" + amount +
		"\n<FITID>" + fitid +
		"\n<MEMO>" + memo +
		"\n</STMTTRN>\n"
}

func bankStatement(withLedger bool, trns ...string) string {
	var b strings.Builder
	b.WriteString(ofxHeader)
	b.WriteString("<OFX>\n")
	b.WriteString(signon)
	b.WriteString(`<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>EUR
<BANKACCTFROM>
<BANKID>12345
<ACCTID>987654321
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
`)
	for _, t := range trns {
		b.WriteString(t)
	}
	b.WriteString("</BANKTRANLIST>\n")
	if withLedger {
		b.WriteString("<LEDGERBAL>\n<BALAMT>1000.00\n<DTASOF>20240131120000\n</LEDGERBAL>\n")
	}
	b.WriteString("</STMTRS>\n</STMTTRNRS>\n</BANKMSGSRSV1>\n</OFX>\n")
	return b.String()
}

func threeTransactions() []string {
	return []string{
		stmttrn("20240105120000", "-15.00", "1", "PAIEMENT CB 04/01 STARBUCKS PARIS 11"),
		stmttrn("20240112", "2500.00", "2", "VIR SALAIRE JANVIER"),
		stmttrn("20240120083000.000[-5:EST]", "-42.37", "3", "PRLV SEPA NETFLIX"),
	}
}

func newTestParser() *StatementParser {
	p := NewStatementParser(zap.NewNop())
	p.now = func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) }
	return p
}

func TestParse_SampleFile(t *testing.T) {
	raw, err := os.ReadFile("testdata/sample.ofx")
	require.NoError(t, err)

	txs, err := newTestParser().Parse(raw)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "2024-01-01", txs[0].Date)
	assert.Equal(t, -15.0, txs[0].Amount)
	assert.Equal(t, "PAIEMENT CB 22/07 STARBUCKS PARIS 11", txs[0].Description)
	assert.False(t, txs[0].Enriched())
}

func TestParse_RecordShape(t *testing.T) {
	txs, err := newTestParser().Parse([]byte(bankStatement(true, threeTransactions()...)))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	for _, tx := range txs {
		assert.Regexp(t, datePattern, tx.Date)
		assert.NotEmpty(t, tx.Description)
	}

	assert.Equal(t, "2024-01-05", txs[0].Date)
	assert.Equal(t, 2500.0, txs[1].Amount)
	assert.Equal(t, "2024-01-20", txs[2].Date)
	assert.Equal(t, -42.37, txs[2].Amount)
	assert.Equal(t, "PRLV SEPA NETFLIX", txs[2].Description)
}

func TestParse_MissingLedgerBalanceIsTransparent(t *testing.T) {
	p := newTestParser()

	with, err := p.Parse([]byte(bankStatement(true, threeTransactions()...)))
	require.NoError(t, err)

	without, err := p.Parse([]byte(bankStatement(false, threeTransactions()...)))
	require.NoError(t, err)

	assert.Equal(t, with, without)
}

func TestParse_TrailingGarbage(t *testing.T) {
	raw := bankStatement(false, threeTransactions()...) + "\x00\x00PADDING###<STMTTRN>"

	txs, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestParse_LeadingBOMAndBlankLines(t *testing.T) {
	raw := "\xEF\xBB\xBF\r\n\r\n" + bankStatement(true, threeTransactions()[0])

	txs, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestParse_Windows1252Memo(t *testing.T) {
	// 0xC9 is É, 0x80 is the euro sign in Windows-1252
	memo := "CAF\xC9 DE LA GARE 3\x80"
	raw := bankStatement(true, stmttrn("20240110", "-3.00", "9", memo))

	txs, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "CAFÉ DE LA GARE 3€", txs[0].Description)
}

func TestParse_NameWhenMemoMissing(t *testing.T) {
	trn := "<STMTTRN>\n<TRNTYPE>DEBIT\n<DTPOSTED>20240110\n<TRNAMT>-9.99\n<FITID>7\n<NAME>SPOTIFY\n</STMTTRN>\n"

	txs, err := newTestParser().Parse([]byte(bankStatement(true, trn)))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "SPOTIFY", txs[0].Description)
}

func TestParse_CreditCardStatement(t *testing.T) {
	raw := ofxHeader + "<OFX>\n" + signon + `<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>EUR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
` + stmttrn("20240115", "-60.00", "cc1", "SNCF PARIS") + `</BANKTRANLIST>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>
`

	txs, err := newTestParser().Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "SNCF PARIS", txs[0].Description)
	assert.Equal(t, -60.0, txs[0].Amount)
}

func TestParse_NoStatements(t *testing.T) {
	raw := ofxHeader + "<OFX>\n" + signon + "</OFX>\n"

	txs, err := newTestParser().Parse([]byte(raw))
	assert.Empty(t, txs)
	assert.ErrorIs(t, err, ErrNoStatements)
	assert.True(t, IsNoTransactions(err))
}

func TestParse_NoTransactions(t *testing.T) {
	txs, err := newTestParser().Parse([]byte(bankStatement(true)))
	assert.Empty(t, txs)
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.True(t, IsNoTransactions(err))
}

func TestParse_Garbage(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("not a statement"), []byte("<OFX><BROKEN")} {
		txs, err := newTestParser().Parse(raw)
		assert.Empty(t, txs)

		var structural *StructuralParseError
		require.True(t, errors.As(err, &structural), "got %v", err)
		assert.False(t, IsNoTransactions(err))
	}
}

func TestParseOrEmpty_Logging(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		level zapcore.Level
	}{
		{name: "structural failure", raw: "garbage", level: zapcore.ErrorLevel},
		{name: "no transactions", raw: bankStatement(true), level: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			p := NewStatementParser(zap.New(core))

			txs := p.ParseOrEmpty([]byte(tt.raw))
			assert.NotNil(t, txs)
			assert.Empty(t, txs)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.level, logs.All()[0].Level)
		})
	}
}

func TestEnsureLedgerBalance(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

	t.Run("uses preceding DTEND", func(t *testing.T) {
		in := "<BANKTRANLIST><DTEND>20240131[-5:EST]\n</BANKTRANLIST></STMTRS>"
		out := ensureLedgerBalance(in, now)
		assert.Contains(t, out, "</BANKTRANLIST><LEDGERBAL><BALAMT>0.00</BALAMT><DTASOF>20240131000000</DTASOF></LEDGERBAL></STMTRS>")
	})

	t.Run("falls back to now", func(t *testing.T) {
		out := ensureLedgerBalance("<banktranlist></banktranlist>", now)
		assert.Contains(t, out, "<DTASOF>20240201093000</DTASOF>")
	})

	t.Run("every statement is repaired", func(t *testing.T) {
		in := "<DTEND>20240131</BANKTRANLIST><DTEND>20240229120000</BANKTRANLIST>"
		out := ensureLedgerBalance(in, now)
		assert.Equal(t, 2, strings.Count(out, "<LEDGERBAL>"))
		assert.Less(t, strings.Index(out, "20240131000000"), strings.Index(out, "20240229120000</DTASOF>"))
	})

	t.Run("untouched when present", func(t *testing.T) {
		in := "</BANKTRANLIST><LEDGERBAL><BALAMT>5</LEDGERBAL>"
		assert.Equal(t, in, ensureLedgerBalance(in, now))
	})

	t.Run("untouched without marker", func(t *testing.T) {
		assert.Equal(t, "<OFX></OFX>", ensureLedgerBalance("<OFX></OFX>", now))
	})
}

func TestNormalizeOFXDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20240131", "20240131000000", true},
		{"20240131120000", "20240131120000", true},
		{"20240131120000.000[-5:EST]", "20240131120000", true},
		{"202401311200", "20240131120000", true},
		{" 20240131 ", "20240131000000", true},
		{"2024", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeOFXDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTruncateAfterRoot(t *testing.T) {
	assert.Equal(t, "<OFX>a</OFX>", truncateAfterRoot("<OFX>a</OFX>\x00\x00junk"))
	assert.Equal(t, "<OFX></OFX><OFX></ofx>", truncateAfterRoot("<OFX></OFX><OFX></ofx> tail"))
	assert.Equal(t, "no marker", truncateAfterRoot("no marker"))
}

func TestDecodeStatement(t *testing.T) {
	assert.Equal(t, "OFXHEADER:100 café €", decodeStatement([]byte("\xEF\xBB\xBF\n  OFXHEADER:100 caf\xE9 \x80")))

	utf8Doc := "<?xml version=\"1.0\" encoding=\"UTF-8\"?><OFX>café</OFX>"
	assert.Equal(t, utf8Doc, decodeStatement([]byte(utf8Doc)))
}
