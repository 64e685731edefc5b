package normalizer

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/shopspring/decimal"
)

// Column names retained from the delimited snapshot format. Everything else
// in the row is dropped.
const (
	colTimestamp = "TIMESTAMP"
	colOrderID   = "ORDER_ID"
	colPrice     = "PRICE"
	colSize      = "SIZE"
	colSideFlag  = "BUY_SELL_FLAG"
)

// tsLayout matches YYYYMMDDhhmmss with up to six fractional-second digits.
const tsLayout = "20060102150405.999999"

// parseTimestamp parses s, truncating one trailing character at a time on
// failure. The feed carries variable-precision fractional seconds and the
// occasional stray trailing byte.
func parseTimestamp(s string) (time.Time, bool) {
	for len(s) > 0 {
		t, err := time.ParseInLocation(tsLayout, s, time.UTC)
		if err == nil {
			return t, true
		}
		s = s[:len(s)-1]
	}
	return time.Time{}, false
}

// parseDelimited reads a pipe-delimited L3 snapshot file. The first row names
// the columns; the row after it is a header continuation and carries no data.
func parseDelimited(path string) ([]model.OrderUpdateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, &FormatError{File: path, Msg: "missing header row"}
	}
	names := strings.Split(strings.TrimSpace(scanner.Text()), "|")
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colTimestamp, colOrderID, colPrice, colSize, colSideFlag} {
		if _, ok := index[required]; !ok {
			return nil, &FormatError{File: path, Field: required, Msg: "missing column"}
		}
	}

	// Header continuation row, no data.
	if !scanner.Scan() {
		return nil, scanner.Err()
	}

	var records []model.OrderUpdateRecord
	lineNo := 2
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < len(names) {
			return nil, &FormatError{File: path, Line: lineNo, Msg: "truncated row"}
		}

		ts, ok := parseTimestamp(fields[index[colTimestamp]])
		if !ok {
			return nil, &FormatError{File: path, Line: lineNo, Field: colTimestamp, Msg: "unparsable timestamp"}
		}

		orderID, err := strconv.ParseInt(fields[index[colOrderID]], 10, 64)
		if err != nil {
			return nil, &FormatError{File: path, Line: lineNo, Field: colOrderID, Msg: err.Error()}
		}

		price, perr := priceToCents(fields[index[colPrice]])
		if perr != nil {
			return nil, &FormatError{File: path, Line: lineNo, Field: colPrice, Msg: perr.Error()}
		}

		size, err := strconv.ParseInt(fields[index[colSize]], 10, 64)
		if err != nil {
			return nil, &FormatError{File: path, Line: lineNo, Field: colSize, Msg: err.Error()}
		}
		if size < 0 {
			return nil, &FormatError{File: path, Line: lineNo, Field: colSize, Msg: "negative size"}
		}

		var side model.Side
		switch strings.TrimSpace(fields[index[colSideFlag]]) {
		case "0":
			side = model.SideBuy
		case "1":
			side = model.SideSell
		default:
			return nil, &FormatError{File: path, Line: lineNo, Field: colSideFlag, Msg: "unknown side code"}
		}

		records = append(records, model.OrderUpdateRecord{
			Timestamp: ts,
			OrderID:   orderID,
			Price:     price,
			Size:      size,
			Side:      side,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// priceToCents converts a decimal price string to integer cents, truncating
// anything beyond two decimal places.
func priceToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
