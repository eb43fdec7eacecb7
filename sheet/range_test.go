package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want Range
	}{
		{"Sheet1!B2:C", Range{Sheet: "Sheet1", URLCol: "B", LinkCol: "C", StartRow: 2}},
		{"'My Sheet'!B2:B", Range{Sheet: "My Sheet", URLCol: "B", LinkCol: "C", StartRow: 2}},
		{"Sheet1!b5", Range{Sheet: "Sheet1", URLCol: "B", LinkCol: "C", StartRow: 5}},
		{"Data!Z:AA", Range{Sheet: "Data", URLCol: "Z", LinkCol: "AA", StartRow: 1}},
		{"A2:B", Range{URLCol: "A", LinkCol: "B", StartRow: 2}},
		{"'Bob''s'!C3", Range{Sheet: "Bob's", URLCol: "C", LinkCol: "D", StartRow: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeInvalid(t *testing.T) {
	for _, in := range []string{"", "Sheet1!", "!B2", "Sheet1!2B", "Sheet1!B0:C", "Sheet1!ABCD1"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRange(in)
			assert.Error(t, err)
		})
	}
}

func TestRangeRendering(t *testing.T) {
	r, err := ParseRange("'My Sheet'!B2:C")
	require.NoError(t, err)

	assert.Equal(t, "'My Sheet'!B2:C", r.ReadRange())
	assert.Equal(t, "'My Sheet'!C7", r.LinkCell(7))

	bare, err := ParseRange("A2")
	require.NoError(t, err)
	assert.Equal(t, "A2:B", bare.ReadRange())
	assert.Equal(t, "B9", bare.LinkCell(9))
}

func TestNextColumn(t *testing.T) {
	assert.Equal(t, "C", nextColumn("B"))
	assert.Equal(t, "AA", nextColumn("Z"))
	assert.Equal(t, "AB", nextColumn("AA"))
	assert.Equal(t, "BA", nextColumn("AZ"))
	assert.Equal(t, "AAA", nextColumn("ZZ"))
}
