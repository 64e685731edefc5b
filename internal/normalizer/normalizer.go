package normalizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ali-shihab/marketreplay/internal/model"
)

// FormatError reports malformed or unrecognized source data. It is fatal to
// the schedule build for the affected session.
type FormatError struct {
	File  string
	Line  int
	Field string
	Msg   string
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("format error in %s line %d: field %s: %s", e.File, e.Line, e.Field, e.Msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("format error in %s line %d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("format error in %s: %s", e.File, e.Msg)
}

// Normalize parses the file at path into order updates in file order.
// The format is selected by file extension.
func Normalize(path string) ([]model.OrderUpdateRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseDelimited(path)
	case ".json":
		return parseDeltaStream(path)
	default:
		return nil, &FormatError{File: path, Msg: "unsupported file extension"}
	}
}
