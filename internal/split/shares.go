package split

import (
	"fmt"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"

	"github.com/shopspring/decimal"
)

// computeShares divides the request total among participants and converts each
// share from the request currency into the participant's account currency.
// Shares are returned in participant order.
func computeShares(in SubmitInput, currencies []domain.Currency, rates RateResolver) ([]decimal.Decimal, error) {
	n := len(currencies)
	base := make([]decimal.Decimal, n)

	switch in.Kind {
	case domain.SplitEqual:
		if !in.Amount.IsPositive() {
			return nil, errors.ErrInvalidAmount
		}
		portion := in.Amount.Div(decimal.NewFromInt(int64(n)))
		for i := range base {
			base[i] = portion
		}
	case domain.SplitCustom:
		if len(in.AmountsForUsers) != n {
			return nil, errors.ErrAmountMismatch
		}
		for i, amt := range in.AmountsForUsers {
			if amt.IsNegative() {
				return nil, errors.ErrInvalidAmount
			}
			base[i] = amt
		}
	default:
		return nil, errors.ErrInvalidSplitKind
	}

	owed := make([]decimal.Decimal, n)
	for i, cur := range currencies {
		if cur == in.Currency {
			owed[i] = base[i]
			continue
		}
		rate, err := rates.Resolve(in.Currency, cur)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("no conversion from %s to %s", in.Currency, cur))
		}
		owed[i] = base[i].Mul(rate)
	}
	return owed, nil
}

// recordTotal is the amount shown on the shared record. Custom splits without
// an explicit total report the sum of their shares.
func recordTotal(in SubmitInput) decimal.Decimal {
	if in.Kind == domain.SplitCustom && in.Amount.IsZero() {
		sum := decimal.Zero
		for _, amt := range in.AmountsForUsers {
			sum = sum.Add(amt)
		}
		return sum
	}
	return in.Amount
}
