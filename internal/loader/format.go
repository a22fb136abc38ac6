package loader

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/dipscan/internal/contracts"
)

// Format is the detected container of an input
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
	FormatHTML      Format = "html"

	// FormatLegacyXLS is a BIFF (OLE2) workbook; it is detected only to be
	// reported as unsupported.
	FormatLegacyXLS Format = "xls"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1")
)

// DetectFormat picks a reader from the file extension, then from content.
// ".xls" is always sniffed: sites often serve HTML or CSV under that name.
// Anything unrecognized is treated as delimited text.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".xlsx":
		return FormatXLSX
	case ".html", ".htm":
		return FormatHTML
	case ".csv", ".tsv", ".txt":
		return FormatDelimited
	}

	if bytes.HasPrefix(data, oleMagic) {
		return FormatLegacyXLS
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}

	head := bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM)))
	if len(head) > 512 {
		head = head[:512]
	}
	for _, marker := range [][]byte{[]byte("<!doctype html"), []byte("<html"), []byte("<table")} {
		if bytes.HasPrefix(head, marker) {
			return FormatHTML
		}
	}

	return FormatDelimited
}

// table is the format-independent shape every reader produces
type table struct {
	header   []string
	rows     [][]string
	encoding string

	// dateFallback interprets cells the tolerant parser rejects
	dateFallback func(string) (time.Time, bool)
}

// readError carries the warning reason for a skipped file
type readError struct {
	reason contracts.WarningReason
	err    error
}

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

func newReadError(reason contracts.WarningReason, format string, args ...interface{}) error {
	return &readError{reason: reason, err: fmt.Errorf(format, args...)}
}

func reasonFor(err error) contracts.WarningReason {
	var re *readError
	if errors.As(err, &re) {
		return re.reason
	}
	return contracts.ReasonParseFailed
}

func readTable(format Format, data []byte) (table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return table{}, newReadError(contracts.ReasonEmptyFile, "file is empty")
	}

	switch format {
	case FormatXLSX:
		return readXLSX(data)
	case FormatHTML:
		return readHTML(data)
	case FormatDelimited:
		return readDelimited(data)
	case FormatLegacyXLS:
		return table{}, newReadError(contracts.ReasonUnsupportedFormat,
			"legacy .xls workbooks are not supported; save the sheet as .xlsx or .csv")
	default:
		return table{}, newReadError(contracts.ReasonUnsupportedFormat, "unsupported format %q", format)
	}
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
