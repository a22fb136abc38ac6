package loader

import (
	"bytes"
	"encoding/csv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/wonny/dipscan/internal/contracts"
)

const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns UTF-8 text, falling back to ISO-8859-1 for byte
// sequences that are not valid UTF-8.
func decodeText(data []byte) ([]byte, string, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), EncodingUTF8, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", newReadError(contracts.ReasonDecodeFailed, "decode as %s: %v", EncodingLatin1, err)
	}
	return decoded, EncodingLatin1, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab in the
// header line. Ties and headers without any go to comma.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readDelimited(data []byte) (table, error) {
	text, encoding, err := decodeText(data)
	if err != nil {
		return table{}, err
	}
	tbl := table{encoding: encoding}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	records, err := r.ReadAll()
	if err != nil {
		return tbl, newReadError(contracts.ReasonParseFailed, "parse %s text: %v", encoding, err)
	}
	if len(records) == 0 {
		return tbl, newReadError(contracts.ReasonEmptyFile, "file has no rows")
	}

	tbl.header = trimAll(records[0])
	tbl.rows = records[1:]
	return tbl, nil
}
