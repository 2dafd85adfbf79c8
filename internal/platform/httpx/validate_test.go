package httpx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleLine struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

type sampleInput struct {
	Email string       `json:"email" validate:"required,email"`
	Kind  string       `json:"kind" validate:"oneof=percentage fixed"`
	Lines []sampleLine `json:"lines" validate:"required,min=1,dive"`
}

func TestStructErrors(t *testing.T) {
	errs := StructErrors(sampleInput{
		Email: "nope",
		Kind:  "bogo",
		Lines: []sampleLine{{Qty: 1}, {Qty: 0}},
	})

	assert.Equal(t, FieldErrors{
		"email":        "must be a valid email address",
		"kind":         "must be one of percentage, fixed",
		"lines[1].qty": "is required",
	}, errs)
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(sampleInput{Email: "a@b.co", Kind: "fixed", Lines: []sampleLine{{Qty: 2}}}))

	err := ValidateStruct(sampleInput{Kind: "fixed"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "must contain at least 1 entries", StructErrors(sampleInput{Email: "a@b.co", Kind: "fixed", Lines: []sampleLine{}})["lines"])
	assert.Contains(t, fields, "email")
}
