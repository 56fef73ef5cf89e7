package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Nil", nil, "UNKNOWN"},
		{"Plain error", fmt.Errorf("boom"), "UNKNOWN"},
		{"AppError", EmptyFile(), CodeEmptyFile},
		{"Wrapped AppError keeps code", Wrap(NotFound("tab x"), "activate"), CodeNotFound},
		{"Wrapped plain error", Wrap(fmt.Errorf("disk full"), "persist"), CodeInternalError},
		{"fmt wrapping", fmt.Errorf("outer: %w", Busy("running")), CodeBusy},
		{"WithCode", WithCode(CodeConfigInvalid, fmt.Errorf("bad yaml")), CodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Invalid type", InvalidFileType("text/csv"), "Please upload a valid Excel file (.xlsx or .xls)"},
		{"Empty", EmptyFile(), "The Excel file appears to be empty"},
		{"Read", ReadFailure(fmt.Errorf("permission denied")), "Error reading the file"},
		{"Decode keeps cause", DecodeFailure(fmt.Errorf("zip: not a valid zip file")), "Error processing the Excel file: zip: not a valid zip file"},
		{"Wrapped decode", Wrap(DecodeFailure(fmt.Errorf("bad sheet")), "upload"), "Error processing the Excel file: bad sheet"},
		{"Other", NotFound("tab gudang"), "tab gudang not found"},
		{"Nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Wrapf(EmptyFile(), "read %s", "stok.xlsx"), CodeEmptyFile))
	assert.False(t, Is(EmptyFile(), CodeBusy))
}
