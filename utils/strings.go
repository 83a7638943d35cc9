package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SpaceDelimitedStringToFloatSlice splits a whitespace separated field such as a URDF xyz or rpy
// attribute. Entries that do not parse become NaN.
func SpaceDelimitedStringToFloatSlice(s string) []float64 {
	var converted []float64
	for _, field := range strings.Fields(s) {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}

// ParseFloatList parses a comma or whitespace separated list of floats, failing on the first
// entry that does not parse. An empty string yields an empty list.
func ParseFloatList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]float64, 0, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		out = append(out, value)
	}
	return out, nil
}
