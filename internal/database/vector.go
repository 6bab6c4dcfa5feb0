package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector wraps a float64 slice for storage in a text column using the
// bracketed literal "[1.5,2,3]". The literal is valid JSON and also the
// pgvector input format. An empty vector is stored as NULL so that a
// missing embedding is a single SQL predicate.
type Vector struct {
	floats []float64
}

// NewVector creates a Vector from a float64 slice. The input is copied.
func NewVector(floats []float64) Vector {
	if floats == nil {
		return Vector{}
	}
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a copy of the elements, or nil when the vector is NULL.
func (v Vector) Floats() []float64 {
	if len(v.floats) == 0 {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(value any) error {
	if value == nil {
		v.floats = nil
		return nil
	}

	var raw string
	switch val := value.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if strings.TrimSpace(raw) == "" || raw == "null" {
		v.floats = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse element %d: %w", i, err)
		}
		floats[i] = f
	}

	v.floats = floats
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if len(v.floats) == 0 {
		return nil, nil
	}
	return v.String(), nil
}

// String returns the literal "[1.5,2,3]".
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(len(v.floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
