package contracts

import "fmt"

// WarningReason classifies why an input file was skipped
type WarningReason string

const (
	ReasonReadFailed        WarningReason = "read_failed"
	ReasonDecodeFailed      WarningReason = "decode_failed"
	ReasonParseFailed       WarningReason = "parse_failed"
	ReasonMissingColumns    WarningReason = "missing_columns"
	ReasonEmptyFile         WarningReason = "empty_file"
	ReasonUnsupportedFormat WarningReason = "unsupported_format"
)

// FileWarning reports a skipped input. Processing continues with the rest.
type FileWarning struct {
	File    string        `json:"file"`
	Reason  WarningReason `json:"reason"`
	Message string        `json:"message"`
}

func (w FileWarning) String() string {
	return fmt.Sprintf("%s: %s", w.File, w.Message)
}

// FileReport describes what the loader did with one input
type FileReport struct {
	File     string `json:"file"`
	Company  string `json:"company"`
	Format   string `json:"format"`
	Encoding string `json:"encoding,omitempty"`
	RowsRead int    `json:"rows_read"`
	RowsKept int    `json:"rows_kept"`
	Skipped  bool   `json:"skipped"`
}

// RowsDropped returns the rows lost to a missing date or price
func (r FileReport) RowsDropped() int {
	return r.RowsRead - r.RowsKept
}

// LoadResult is the Loader/Consolidator output
type LoadResult struct {
	Dataset  Dataset       `json:"dataset"`
	Warnings []FileWarning `json:"warnings"`
	Files    []FileReport  `json:"files"`
}
