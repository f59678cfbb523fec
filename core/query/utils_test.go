package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		success  bool
	}{
		{"int", 10, 10.0, true},
		{"int8", int8(20), 20.0, true},
		{"int64", int64(50), 50.0, true},
		{"uint32", uint32(7), 7.0, true},
		{"float32", float32(60.5), 60.5, true},
		{"float64", 70.5, 70.5, true},
		{"string_valid_int", "100", 100.0, true},
		{"string_padded", " 12 ", 12.0, true},
		{"string_valid_float", "123.45", 123.45, true},
		{"string_invalid", "abc", 0.0, false},
		{"nil", nil, 0.0, false},
		{"unsupported_type", struct{}{}, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ToFloat64(tt.input)
			assert.Equal(t, tt.success, ok)
			if tt.success {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		input    any
		expected bool
		success  bool
	}{
		{true, true, true},
		{"true", true, true},
		{"1", true, true},
		{"FALSE", false, true},
		{"0", false, true},
		{int64(1), true, true},
		{"maybe", false, false},
		{3.5, false, false},
	}

	for _, tt := range tests {
		result, ok := ToBool(tt.input)
		assert.Equal(t, tt.success, ok, "input %v", tt.input)
		if tt.success {
			assert.Equal(t, tt.expected, result, "input %v", tt.input)
		}
	}
}
