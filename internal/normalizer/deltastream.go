package normalizer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/tidwall/gjson"
)

// deltaChunkSize bounds the pending-record buffer while extracting deltas.
// Chunk boundaries never change output order or content.
const deltaChunkSize = 1000

// sideDelta is one [price, volume] pair awaiting its timestamp.
type sideDelta struct {
	orderID int64
	price   int64
	size    int64
	side    model.Side
}

// parseDeltaStream reads a newline-delimited JSON depth-delta file. Lines are
// paired look-ahead: a line's deltas are emitted with the timestamp of the
// line that follows it, so the final line contributes no output.
func parseDeltaStream(path string) ([]model.OrderUpdateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		records  []model.OrderUpdateRecord
		chunk    []model.OrderUpdateRecord
		pending  []sideDelta
		havePrev bool
		lineNo   int
	)

	flush := func() {
		records = append(records, chunk...)
		chunk = chunk[:0]
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, &FormatError{File: path, Line: lineNo, Msg: "invalid JSON"}
		}

		tsField := gjson.GetBytes(line, "ts")
		if !tsField.Exists() {
			return nil, &FormatError{File: path, Line: lineNo, Field: "ts", Msg: "missing timestamp"}
		}
		if tsField.Type != gjson.Number {
			return nil, &FormatError{File: path, Line: lineNo, Field: "ts", Msg: "timestamp is not a number"}
		}
		ts := time.UnixMilli(tsField.Int()).UTC()

		if havePrev {
			for _, d := range pending {
				chunk = append(chunk, model.OrderUpdateRecord{
					Timestamp: ts,
					OrderID:   d.orderID,
					Price:     d.price,
					Size:      d.size,
					Side:      d.side,
				})
				if len(chunk) >= deltaChunkSize {
					flush()
				}
			}
		}

		pending, err = extractDeltas(path, lineNo, line)
		if err != nil {
			return nil, err
		}
		havePrev = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// The last line's deltas stay unpaired and are dropped.
	flush()
	return records, nil
}

// extractDeltas pulls the bid and ask [price, volume] pairs out of one line.
func extractDeltas(path string, lineNo int, line []byte) ([]sideDelta, error) {
	data := gjson.GetBytes(line, "data")
	orderID := data.Get("u").Int()

	var deltas []sideDelta
	for _, sk := range []struct {
		key  string
		side model.Side
	}{{"b", model.SideBuy}, {"a", model.SideSell}} {
		for _, pair := range data.Get(sk.key).Array() {
			pv := pair.Array()
			if len(pv) != 2 {
				return nil, &FormatError{File: path, Line: lineNo, Field: sk.key, Msg: "delta is not a [price, volume] pair"}
			}
			price, err := priceToCents(pv[0].String())
			if err != nil {
				return nil, &FormatError{File: path, Line: lineNo, Field: sk.key, Msg: err.Error()}
			}
			size, err := volumeOf(pv[1])
			if err != nil {
				return nil, &FormatError{File: path, Line: lineNo, Field: sk.key, Msg: err.Error()}
			}
			deltas = append(deltas, sideDelta{
				orderID: orderID,
				price:   price,
				size:    size,
				side:    sk.side,
			})
		}
	}
	return deltas, nil
}

// volumeOf parses the volume element of a delta pair. gjson coerces
// non-numeric values to zero on Int(), so the type is checked first.
func volumeOf(r gjson.Result) (int64, error) {
	var v int64
	switch r.Type {
	case gjson.Number:
		v = r.Int()
	case gjson.String:
		parsed, err := strconv.ParseInt(r.Str, 10, 64)
		if err != nil {
			return 0, err
		}
		v = parsed
	default:
		return 0, fmt.Errorf("volume %q is not a number", r.Raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative volume %d", v)
	}
	return v, nil
}
