package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/common"
)

func TestDefaultTable_IsValid(t *testing.T) {
	require.NoError(t, CheckTable(DefaultTable))
}

func TestCheckTable_RejectsCollisions(t *testing.T) {
	tests := []struct {
		name  string
		table []Substitution
	}{
		{name: "empty pattern", table: []Substitution{{Pattern: "", Replacement: "\x01A"}}},
		{name: "duplicate pattern", table: []Substitution{{"abc", "\x01A"}, {"abc", "\x01B"}}},
		{name: "duplicate replacement", table: []Substitution{{"abc", "\x01A"}, {"def", "\x01A"}}},
		{name: "replacement without marker", table: []Substitution{{"abc", "AB"}}},
		{name: "long replacement", table: []Substitution{{"abc", "\x01AB"}}},
		{name: "pattern holds marker", table: []Substitution{{"a\x01", "\x01A"}}},
		{name: "pattern inside replacement", table: []Substitution{{"abc", "\x01A"}, {"A", "\x01B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, CheckTable(tt.table))
			_, err := New(tt.table)
			assert.Error(t, err)
		})
	}
}

func TestRoundTrip_Scenario(t *testing.T) {
	s := models.NewDefaultSnapshot()
	s.Collections["bills"] = []models.Record{{"id": "1", "amount": 120.5, "status": "pending"}}
	s.Settings = map[string]any{}

	enc, err := Default().Encode(s)
	require.NoError(t, err)

	var back models.Snapshot
	require.NoError(t, Default().DecodeInto(enc, &back))
	assert.Empty(t, cmp.Diff(s, &back))
}

func TestRoundTrip_ReservedLiteralsInValues(t *testing.T) {
	c := Default()

	var tricky []any
	for _, sub := range DefaultTable {
		tricky = append(tricky, sub.Pattern, "x"+sub.Pattern+"y", map[string]any{sub.Pattern: sub.Pattern})
	}

	s := models.NewDefaultSnapshot()
	s.Collections["bills"] = []models.Record{
		{"id": `"status":`, "status": "paid", "note": `true null false "pending"`, "nested": map[string]any{"deep": tricky}},
		{"id": "\x01A", "title": "marker \x01 inside", "amount": -0.25, "flag": false, "nothing": nil},
		{"id": "unicode", "title": "conta de luz ⚡ <b>&</b>", "list": []any{1.0, "two", true, nil, []any{}}},
	}

	enc, err := c.Encode(s)
	require.NoError(t, err)

	var back models.Snapshot
	require.NoError(t, c.DecodeInto(enc, &back))
	assert.Empty(t, cmp.Diff(s, &back))
}

func TestRoundTrip_GenericValues(t *testing.T) {
	c := Default()
	values := []any{
		nil,
		true,
		"plain",
		3.5,
		[]any{"true", false, nil},
		map[string]any{"amount": 1.0, "status": "overdue", "a": map[string]any{"null": nil}},
	}
	for _, v := range values {
		enc, err := c.Encode(v)
		require.NoError(t, err)
		got, err := c.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncode_ShrinksTypicalPayload(t *testing.T) {
	s := models.NewDefaultSnapshot()
	for i := 0; i < 50; i++ {
		s.Collections["bills"] = append(s.Collections["bills"], models.Record{
			"id": strings.Repeat("x", 3), "amount": 10.0, "status": "pending", "paid": false, "category": nil,
		})
	}

	canonical, err := Default().Canonical(s)
	require.NoError(t, err)
	enc, err := Default().Encode(s)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(canonical))
}

func TestDecode_MalformedInput(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"not base64":     "%%%",
		"not json":       base64.StdEncoding.EncodeToString([]byte("{oops")),
		"unknown token":  base64.StdEncoding.EncodeToString([]byte("{\x01~:1}")),
		"dangling token": base64.StdEncoding.EncodeToString([]byte("[1]\x01")),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := c.Decode(in)
			require.ErrorIs(t, err, ErrMalformed)
			require.ErrorIs(t, err, common.ErrCorrupted)
			assert.Nil(t, v)
		})
	}
}

func TestCompressionRatio(t *testing.T) {
	assert.Equal(t, 50.0, CompressionRatio("abcd", "ab"))
	assert.Equal(t, -50.0, CompressionRatio("ab", "abc"))
	assert.Equal(t, 66.67, CompressionRatio("abc", "a"))
	assert.Equal(t, 0.0, CompressionRatio("", "abc"))
}

func TestTable_ReturnsCopy(t *testing.T) {
	tbl := Default().Table()
	tbl[0].Pattern = "changed"
	assert.NotEqual(t, "changed", Default().Table()[0].Pattern)
}
