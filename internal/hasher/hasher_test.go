package hasher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/models"
)

func TestCanonical(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.FixedZone("CAT", 2*60*60))

	tests := []struct {
		name string
		row  models.Row
		want string
	}{
		{
			name: "keys are sorted",
			row:  models.Row{"z": "last", "a": "first", "m": int64(5)},
			want: `{"a":"first","m":5,"z":"last"}`,
		},
		{
			name: "empty row",
			row:  models.Row{},
			want: `{}`,
		},
		{
			name: "nil row",
			row:  nil,
			want: `{}`,
		},
		{
			name: "integral float folds to integer",
			row:  models.Row{"balance": float64(150)},
			want: `{"balance":150}`,
		},
		{
			name: "fractional float is kept",
			row:  models.Row{"rate": 0.25},
			want: `{"rate":0.25}`,
		},
		{
			name: "bytes become strings",
			row:  models.Row{"name": []byte("Chikondi")},
			want: `{"name":"Chikondi"}`,
		},
		{
			name: "bool becomes integer",
			row:  models.Row{"active": true, "closed": false},
			want: `{"active":1,"closed":0}`,
		},
		{
			name: "time is UTC with microsecond precision",
			row:  models.Row{"at": ts},
			want: `{"at":"2026-03-01T08:30:00.123456Z"}`,
		},
		{
			name: "html is not escaped",
			row:  models.Row{"note": "<a & b>"},
			want: `{"note":"<a & b>"}`,
		},
		{
			name: "null value",
			row:  models.Row{"closed_at": nil},
			want: `{"closed_at":null}`,
		},
		{
			name: "json number",
			row:  models.Row{"n": json.Number("42")},
			want: `{"n":42}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonical_NFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	composed := models.Row{"name": "caf\u00e9"}
	decomposed := models.Row{"name": "cafe\u0301"}

	a, err := Canonical(composed)
	require.NoError(t, err)
	b, err := Canonical(decomposed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHasher_Hash_Deterministic(t *testing.T) {
	h := New("")

	first := models.Row{}
	first["id"] = "m-1"
	first["name"] = "Alinafe"
	first["balance"] = int64(100)

	second := models.Row{"balance": int32(100), "name": "Alinafe", "id": "m-1"}

	h1, err := h.Hash(first)
	require.NoError(t, err)
	h2, err := h.Hash(second)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHasher_Hash_DetectsChange(t *testing.T) {
	h := New("")

	before, err := h.Hash(models.Row{"id": "m-1", "balance": int64(100)})
	require.NoError(t, err)
	after, err := h.Hash(models.Row{"id": "m-1", "balance": int64(150)})
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestHasher_Hash_CrossDriverValues(t *testing.T) {
	h := New("")

	// the same logical row as Postgres (pgx) and SQLite (mattn) return it
	fromPostgres := models.Row{"id": "c-7", "amount": int64(2500), "paid_on": "2026-01-31"}
	fromSQLite := models.Row{"id": []byte("c-7"), "amount": int64(2500), "paid_on": []byte("2026-01-31")}
	fromJSON, err := models.DecodeRow([]byte(`{"paid_on":"2026-01-31","amount":2500,"id":"c-7"}`))
	require.NoError(t, err)

	pg, err := h.Hash(fromPostgres)
	require.NoError(t, err)
	lite, err := h.Hash(fromSQLite)
	require.NoError(t, err)
	js, err := h.Hash(fromJSON)
	require.NoError(t, err)

	assert.Equal(t, pg, lite)
	assert.Equal(t, pg, js)
}

func TestHasher_Keyed(t *testing.T) {
	row := models.Row{"id": "l-1", "principal": int64(50000)}

	plain, err := New("").Hash(row)
	require.NoError(t, err)
	keyed, err := New("secret").Hash(row)
	require.NoError(t, err)
	keyedAgain, err := New("secret").Hash(row)
	require.NoError(t, err)

	assert.NotEqual(t, plain, keyed)
	assert.Equal(t, keyed, keyedAgain)
}

func TestHasher_Equal(t *testing.T) {
	h := New("")

	eq, err := h.Equal(models.Row{"a": int64(1)}, models.Row{"a": 1.0})
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = h.Equal(models.Row{"a": int64(1)}, models.Row{"a": int64(2)})
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := New("k")
	row := models.Row{"id": "x", "v": int64(1)}
	want, err := h.Hash(row)
	require.NoError(t, err)

	done := make(chan string, 16)
	for range 16 {
		go func() {
			got, _ := h.Hash(row)
			done <- got
		}()
	}
	for range 16 {
		assert.Equal(t, want, <-done)
	}
}
