// Package codec turns a snapshot (or any JSON-representable value) into a
// compact transport string and back.
//
// Encoding is canonical JSON, then literal substitution of common keys and
// values from a fixed table, then standard base64. Decoding inverts the
// three steps. Decode never panics; malformed input yields ErrMalformed.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// ErrMalformed is returned by Decode for input that is not a valid
// encoding. It wraps common.ErrCorrupted.
var ErrMalformed = fmt.Errorf("codec: malformed input: %w", common.ErrCorrupted)

type Codec struct {
	table   []Substitution
	encoder *strings.Replacer
	decoder *strings.Replacer
	tokens  map[string]struct{}
}

// New builds a Codec over table after checking it with CheckTable.
func New(table []Substitution) (*Codec, error) {
	if err := CheckTable(table); err != nil {
		return nil, fmt.Errorf("codec: invalid substitution table: %w", err)
	}

	enc := make([]string, 0, len(table)*2)
	dec := make([]string, 0, len(table)*2)
	tokens := make(map[string]struct{}, len(table))
	for _, s := range table {
		enc = append(enc, s.Pattern, s.Replacement)
		dec = append(dec, s.Replacement, s.Pattern)
		tokens[s.Replacement] = struct{}{}
	}

	t := make([]Substitution, len(table))
	copy(t, table)

	return &Codec{
		table:   t,
		encoder: strings.NewReplacer(enc...),
		decoder: strings.NewReplacer(dec...),
		tokens:  tokens,
	}, nil
}

var defaultCodec = mustNew(DefaultTable)

func mustNew(table []Substitution) *Codec {
	c, err := New(table)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the codec over DefaultTable.
func Default() *Codec {
	return defaultCodec
}

// Table returns a copy of the substitution table.
func (c *Codec) Table() []Substitution {
	t := make([]Substitution, len(c.table))
	copy(t, c.table)
	return t
}

// Encode serializes v and returns the transport string.
func (c *Codec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec: marshal: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(c.encoder.Replace(string(b)))), nil
}

// Decode parses s into a generic value (maps, slices, float64, string,
// bool, nil).
func (c *Codec) Decode(s string) (any, error) {
	var v any
	if err := c.DecodeInto(s, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeInto parses s into v, which must be a pointer.
func (c *Codec) DecodeInto(s string, v any) error {
	text, err := c.expand(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	return nil
}

// Canonical returns the canonical JSON form of v, the baseline that
// CompressionRatio compares against.
func (c *Codec) Canonical(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec: marshal: %w", err)
	}
	return string(b), nil
}

func (c *Codec) expand(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", errors.Join(ErrMalformed, err)
	}
	text := string(raw)

	// every marker must start a known token
	for i := 0; i < len(text); i++ {
		if text[i] != marker {
			continue
		}
		if i+1 >= len(text) {
			return "", ErrMalformed
		}
		if _, ok := c.tokens[text[i:i+2]]; !ok {
			return "", ErrMalformed
		}
		i++
	}

	return c.decoder.Replace(text), nil
}

// CompressionRatio reports how much smaller encoded is than original, as a
// percentage rounded to two decimals. Negative values mean growth.
func CompressionRatio(original, encoded string) float64 {
	if len(original) == 0 {
		return 0
	}
	ratio := (1 - float64(len(encoded))/float64(len(original))) * 100
	return math.Round(ratio*100) / 100
}
