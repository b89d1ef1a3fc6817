package service

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const ofxDateLayout = "20060102150405"

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	closingRootRe  = regexp.MustCompile(`(?i)</OFX\s*>`)
	ledgerBalRe    = regexp.MustCompile(`(?i)<LEDGERBAL>`)
	closingTranRe  = regexp.MustCompile(`(?i)</BANKTRANLIST\s*>`)
	dtEndRe        = regexp.MustCompile(`(?i)<DTEND>\s*([^<\r\n]*)`)
	declaresUTF8Re = regexp.MustCompile(`(?i)(ENCODING:\s*UTF-8|encoding\s*=\s*["']utf-8["'])`)
	nonDigitRe     = regexp.MustCompile(`[^0-9]`)
)

// decodeStatement turns raw statement bytes into text. Files that declare
// UTF-8 and are valid UTF-8 are kept as is; everything else is read as
// Windows-1252, then Latin-1 if that produced replacement characters.
func decodeStatement(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if utf8.Valid(raw) && declaresUTF8Re.Match(raw) {
		return strings.TrimLeft(string(raw), " \t\r\n")
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		decoded, _ = charmap.ISO8859_1.NewDecoder().Bytes(raw)
	}
	return strings.TrimLeft(string(decoded), " \t\r\n")
}

// truncateAfterRoot drops everything after the last closing </OFX> tag.
func truncateAfterRoot(text string) string {
	matches := closingRootRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	return text[:matches[len(matches)-1][1]]
}

// ensureLedgerBalance splices a zero ledger balance after every
// </BANKTRANLIST> when the statement has none. Strict parsers reject
// statements without one even though many banks leave it out.
func ensureLedgerBalance(text string, now time.Time) string {
	if ledgerBalRe.MatchString(text) {
		return text
	}

	closings := closingTranRe.FindAllStringIndex(text, -1)
	if len(closings) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(closings)*80)

	prev := 0
	for _, loc := range closings {
		end := loc[1]
		b.WriteString(text[prev:end])
		b.WriteString("<LEDGERBAL><BALAMT>0.00</BALAMT><DTASOF>")
		b.WriteString(balanceTimestamp(text[:loc[0]], now))
		b.WriteString("</DTASOF></LEDGERBAL>")
		prev = end
	}
	b.WriteString(text[prev:])
	return b.String()
}

// balanceTimestamp uses the last <DTEND> found in preceding, or now.
func balanceTimestamp(preceding string, now time.Time) string {
	matches := dtEndRe.FindAllStringSubmatch(preceding, -1)
	if len(matches) > 0 {
		if ts, ok := normalizeOFXDate(matches[len(matches)-1][1]); ok {
			return ts
		}
	}
	return now.Format(ofxDateLayout)
}

// normalizeOFXDate reduces an OFX datetime such as "20240131120000.000[-5:EST]"
// or "20240131" to the 14 digit YYYYMMDDHHMMSS form.
func normalizeOFXDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, ".["); i >= 0 {
		value = value[:i]
	}
	digits := nonDigitRe.ReplaceAllString(value, "")

	switch {
	case len(digits) < 8:
		return "", false
	case len(digits) >= 14:
		return digits[:14], true
	case len(digits) == 8:
		return digits + "000000", true
	default:
		return digits + strings.Repeat("0", 14-len(digits)), true
	}
}

// repairStatement applies every text-level fix before structural parsing.
func repairStatement(raw []byte, now time.Time) []byte {
	text := decodeStatement(raw)
	text = truncateAfterRoot(text)
	text = ensureLedgerBalance(text, now)
	return []byte(text)
}
