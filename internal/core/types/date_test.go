package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.January, 31), d)
	assert.Equal(t, "2024-01-31", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptionalDate("2024-02-29")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseOptionalDate("2023-02-29")
	assert.Error(t, err)
}

func TestDateOf_TruncatesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	ts := time.Date(2024, time.January, 25, 23, 30, 0, 0, loc)

	assert.Equal(t, NewDate(2024, time.January, 25), DateOf(ts))
}

func TestDate_Ordering(t *testing.T) {
	a := NewDate(2024, time.January, 1)
	b := NewDate(2024, time.January, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2024, time.January, 1)))
	assert.True(t, BeginningOfTime.Before(a))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		From Date `json:"from"`
		To   Date `json:"to"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"from":"","to":"2024-03-01"}`), &p))
	assert.True(t, p.From.IsZero())
	assert.Equal(t, "2024-03-01", p.To.String())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":null,"to":"2024-03-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"to":"March 1"}`), &p))
}
