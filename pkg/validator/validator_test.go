package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type rateInput struct {
	From string          `validate:"required,currency"`
	To   string          `validate:"required,currency"`
	Rate decimal.Decimal `validate:"gt=0"`
}

func TestValidateStructured(t *testing.T) {
	v := New()

	errs := v.ValidateStructured(&rateInput{From: "USD", To: "EUR", Rate: decimal.NewFromFloat(1.1)})
	assert.Nil(t, errs)

	errs = v.ValidateStructured(&rateInput{From: "usd", To: "", Rate: decimal.Zero})
	assert.Equal(t, "Invalid currency code (ISO 4217 required)", errs["From"])
	assert.Equal(t, "This field is required", errs["To"])
	assert.Equal(t, "Must be greater than 0", errs["Rate"])
}

func TestValidate(t *testing.T) {
	v := New()

	err := v.Validate(&rateInput{From: "USD", To: "EURO", Rate: decimal.NewFromInt(2)})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Field 'To' failed validation 'currency'")
}
