package normalizer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestParseDeltaStream_LookAheadPairing(t *testing.T) {
	// The first line's deltas take the second line's timestamp; the final
	// line has no successor and contributes nothing.
	content := `{"ts":1704186000000,"data":{"u":42,"b":[["10.00",5]],"a":[]}}` + "\n" +
		`{"ts":1704186001000,"data":{"u":43,"b":[["10.01",3]],"a":[["10.05",2]]}}` + "\n"
	path := writeTempFile(t, "orders.json", content)

	records, err := Normalize(path)
	assert.NoError(t, err)
	assert.Len(t, records, 1)

	assert.Equal(t, time.UnixMilli(1704186001000).UTC(), records[0].Timestamp)
	assert.Equal(t, int64(42), records[0].OrderID)
	assert.Equal(t, int64(1000), records[0].Price)
	assert.Equal(t, int64(5), records[0].Size)
	assert.Equal(t, model.SideBuy, records[0].Side)
}

func TestParseDeltaStream_BidsBeforeAsks(t *testing.T) {
	content := `{"ts":1,"data":{"u":7,"b":[["1.00",1],["2.00",2]],"a":[["3.00",3]]}}` + "\n" +
		`{"ts":2,"data":{"u":8,"b":[],"a":[]}}` + "\n"
	path := writeTempFile(t, "orders.json", content)

	records, err := Normalize(path)
	assert.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Equal(t, model.SideBuy, records[0].Side)
	assert.Equal(t, int64(100), records[0].Price)
	assert.Equal(t, model.SideBuy, records[1].Side)
	assert.Equal(t, int64(200), records[1].Price)
	assert.Equal(t, model.SideSell, records[2].Side)
	assert.Equal(t, int64(300), records[2].Price)
	for _, r := range records {
		assert.Equal(t, time.UnixMilli(2).UTC(), r.Timestamp)
	}
}

func TestParseDeltaStream_ChunkBoundariesInvisible(t *testing.T) {
	// Enough pairs to cross the internal chunk size several times; order and
	// content must be unaffected.
	var sb strings.Builder
	perLine := 700
	lines := 5
	for i := 0; i < lines; i++ {
		sb.WriteString(fmt.Sprintf(`{"ts":%d,"data":{"u":%d,"b":[`, 1000+i, i))
		for j := 0; j < perLine; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf(`["%d.00",%d]`, i*perLine+j+1, j+1))
		}
		sb.WriteString(`],"a":[]}}` + "\n")
	}
	path := writeTempFile(t, "orders.json", sb.String())

	records, err := Normalize(path)
	assert.NoError(t, err)
	assert.Len(t, records, perLine*(lines-1))

	for i, r := range records {
		assert.Equal(t, int64((i+1)*100), r.Price)
		line := i / perLine
		assert.Equal(t, time.UnixMilli(int64(1000+line+1)).UTC(), r.Timestamp)
		assert.Equal(t, int64(line), r.OrderID)
	}
}

func TestParseDeltaStream_SingleLineEmitsNothing(t *testing.T) {
	path := writeTempFile(t, "orders.json", `{"ts":1,"data":{"u":1,"b":[["1.00",1]],"a":[]}}`+"\n")
	records, err := Normalize(path)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseDeltaStream_MalformedNumericFieldsDoNotCoerce(t *testing.T) {
	// A garbage volume must not come out as size zero, which downstream would
	// read as a cancellation that never happened.
	content := `{"ts":1704186000000,"data":{"u":1,"b":[["10.00","garbage"]],"a":[]}}` + "\n" +
		`{"ts":1704186001000,"data":{"u":2,"b":[],"a":[]}}` + "\n"
	path := writeTempFile(t, "orders.json", content)
	records, err := Normalize(path)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
	assert.Empty(t, records)

	// A garbage follower timestamp must not stamp the prior line's deltas
	// with the epoch.
	content = `{"ts":1704186000000,"data":{"u":1,"b":[["10.00",5]],"a":[]}}` + "\n" +
		`{"ts":"garbage","data":{"u":2,"b":[],"a":[]}}` + "\n"
	path = writeTempFile(t, "orders.json", content)
	records, err = Normalize(path)
	assert.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "ts", formatErr.Field)
	assert.Equal(t, 2, formatErr.Line)
	assert.Empty(t, records)
}

func TestParseDeltaStream_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json}\n"},
		{"missing ts", `{"data":{"u":1,"b":[],"a":[]}}` + "\n"},
		{"bad pair shape", `{"ts":1,"data":{"u":1,"b":[["1.00"]],"a":[]}}` + "\n"},
		{"bad price", `{"ts":1,"data":{"u":1,"b":[["one",1]],"a":[]}}` + "\n"},
		{"non-numeric ts", `{"ts":"garbage","data":{"u":1,"b":[],"a":[]}}` + "\n"},
		{"non-numeric volume", `{"ts":1,"data":{"u":1,"b":[["10.00","garbage"]],"a":[]}}` + "\n"},
		{"null volume", `{"ts":1,"data":{"u":1,"b":[["10.00",null]],"a":[]}}` + "\n"},
		{"negative volume", `{"ts":1,"data":{"u":1,"b":[["10.00",-5]],"a":[]}}` + "\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempFile(t, "orders.json", tc.content)
			_, err := Normalize(path)
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
		})
	}
}
