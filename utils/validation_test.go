package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Prompt      string  `validate:"required"`
	Temperature float64 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gte=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(sampleRequest{Prompt: "hi", Temperature: 0.7, MaxTokens: 100})
	assert.NoError(t, err)
}

func TestValidateStruct_Invalid(t *testing.T) {
	err := ValidateStruct(sampleRequest{Temperature: 3, MaxTokens: -1})
	require.Error(t, err)

	fields := GetValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields["Prompt"], "required")
	assert.Contains(t, fields["Temperature"], "less than or equal to 2")
	assert.Contains(t, fields["MaxTokens"], "greater than or equal to 0")
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
}
