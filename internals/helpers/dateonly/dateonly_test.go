// file: internals/helpers/dateonly/dateonly_test.go
package dateonly

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2025-03-18")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-18", d.String())

	_, err = Parse("18-03-2025")
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	d := New(2025, time.January, 31)

	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	// Feb 31 does not exist; AddDate normalizes forward
	assert.Equal(t, "2025-03-03", d.AddMonths(1).String())
	assert.Equal(t, "2026-01-31", d.AddYears(1).String())

	assert.Equal(t, 14, d.DaysUntil(New(2025, time.February, 14)))
	assert.Equal(t, -31, d.DaysUntil(New(2024, time.December, 31)))
}

func TestComparisons(t *testing.T) {
	a := New(2025, time.June, 1)
	b := New(2025, time.June, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(New(2025, time.June, 1)))
	assert.False(t, a.IsZero())
	assert.True(t, Date{}.IsZero())
}

func TestJSON(t *testing.T) {
	d := New(2025, time.June, 1)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01"`), &back))
	assert.True(t, d.Equal(back))

	// tolerate timestamps from older clients
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01T08:30:00Z"`), &back))
	assert.True(t, d.Equal(back))

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())
}

func TestScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.June, 1, 13, 45, 0, 0, time.Local)))
	assert.Equal(t, "2025-06-01", d.String())

	require.NoError(t, d.Scan("2025-07-04"))
	assert.Equal(t, "2025-07-04", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}
