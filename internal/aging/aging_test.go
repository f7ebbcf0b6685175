package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		days int
		want Bucket
	}{
		{-5, Current},
		{0, Current},
		{30, Current},
		{31, Days31To60},
		{60, Days31To60},
		{61, Days61To90},
		{90, Days61To90},
		{91, Over90},
		{4000, Over90},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.days), "days=%d", tt.days)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	rank := map[Bucket]int{}
	for i, b := range Buckets {
		rank[b] = i
	}

	prev := Classify(0)
	for days := 1; days <= 200; days++ {
		cur := Classify(days)
		assert.GreaterOrEqual(t, rank[cur], rank[prev], "bucket went backwards at day %d", days)
		prev = cur
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	inputs := []string{
		"2024-03-15",
		" 2024-03-15 ",
		"2024-03-15 00:00:00",
		"2024-03-15T13:45:00",
		"3/15/2024",
		"03/15/2024",
		"45366",
		"45366.75",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseDate(in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateSerialMatchesISO(t *testing.T) {
	iso, ok := ParseDate("1900-01-01")
	require.True(t, ok)

	serial, ok := ParseDate("2")
	require.True(t, ok)

	assert.True(t, iso.Equal(serial))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "nan", "None", "not a date", "-4"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestDaysOutstanding(t *testing.T) {
	asOf := time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 45, DaysOutstanding(asOf.AddDate(0, 0, -45), asOf))
	assert.Equal(t, 0, DaysOutstanding(asOf, asOf))
	assert.Equal(t, 0, DaysOutstanding(asOf.AddDate(0, 0, 10), asOf), "future dates clamp to zero")
	assert.Equal(t, 0, DaysOutstanding(time.Time{}, asOf), "unknown dates count as zero")

	// time of day does not shift the count
	late := time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysOutstanding(late, asOf.Add(3*time.Hour)))
}
