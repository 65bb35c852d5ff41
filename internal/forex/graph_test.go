package forex

import (
	"testing"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func f(v decimal.Decimal) float64 {
	out, _ := v.Float64()
	return out
}

func TestResolver_IdentityAndReciprocal(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate(domain.EUR, domain.USD, d("1.1")))

	rate, err := r.Resolve(domain.USD, domain.USD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	rate, err = r.Resolve(domain.EUR, domain.USD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("1.1")))

	rate, err = r.Resolve(domain.USD, domain.EUR)
	require.NoError(t, err)
	assert.InDelta(t, 1/1.1, f(rate), 1e-12)
}

func TestResolver_ChainedPath(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate(domain.USD, domain.EUR, d("0.9")))
	require.NoError(t, r.AddRate(domain.EUR, domain.RON, d("5")))

	ab, err := r.Resolve(domain.USD, domain.EUR)
	require.NoError(t, err)
	bc, err := r.Resolve(domain.EUR, domain.RON)
	require.NoError(t, err)
	ac, err := r.Resolve(domain.USD, domain.RON)
	require.NoError(t, err)

	assert.InDelta(t, f(ab)*f(bc), f(ac), 1e-9)

	ca, err := r.Resolve(domain.RON, domain.USD)
	require.NoError(t, err)
	assert.InDelta(t, 1/4.5, f(ca), 1e-9)
}

func TestResolver_Disconnected(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate(domain.USD, domain.EUR, d("0.9")))
	require.NoError(t, r.AddRate(domain.RON, domain.GBP, d("0.17")))

	_, err := r.Resolve(domain.USD, domain.GBP)
	assert.ErrorIs(t, err, errors.ErrRateNotAvailable)

	_, err = r.Resolve("JPY", domain.USD)
	assert.ErrorIs(t, err, errors.ErrRateNotAvailable)
}

func TestResolver_MinimisesProduct(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate("AAA", "CCC", d("2")))
	require.NoError(t, r.AddRate("AAA", "BBB", d("1.5")))
	require.NoError(t, r.AddRate("BBB", "CCC", d("1.2")))

	rate, err := r.Resolve("AAA", "CCC")
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("1.8")), "got %s", rate)
}

func TestResolver_TerminatesOnDecreasingCycle(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate("AAA", "BBB", d("0.5")))
	require.NoError(t, r.AddRate("BBB", "CCC", d("0.5")))
	require.NoError(t, r.AddRate("AAA", "CCC", d("0.5")))

	rate, err := r.Resolve("AAA", "CCC")
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("0.25")), "got %s", rate)

	_, err = r.Resolve("AAA", "DDD")
	assert.ErrorIs(t, err, errors.ErrRateNotAvailable)
}

func TestResolver_LastWriteWins(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.AddRate(domain.USD, domain.EUR, d("0.9")))
	v1 := r.Version()
	require.NoError(t, r.AddRate(domain.USD, domain.EUR, d("0.8")))

	rate, err := r.Resolve(domain.USD, domain.EUR)
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("0.8")))
	assert.Greater(t, r.Version(), v1)
	assert.Len(t, r.Rates(), 2)
}

func TestResolver_RejectsNonPositiveRate(t *testing.T) {
	r := NewResolver()

	assert.ErrorIs(t, r.AddRate(domain.USD, domain.EUR, decimal.Zero), errors.ErrInvalidRate)
	assert.ErrorIs(t, r.AddRate(domain.USD, domain.EUR, d("-1")), errors.ErrInvalidRate)
	assert.Empty(t, r.Rates())
}
