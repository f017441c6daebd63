package domain_test

import (
	"testing"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBudget(t *testing.T) {
	b, err := domain.ParseBudget("0-5000")
	require.NoError(t, err)
	assert.Equal(t, domain.Budget{Min: 0, Max: 5000}, b)

	for _, bad := range []string{"", "5000", "a-b", "10-5", "-5-10"} {
		_, err := domain.ParseBudget(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidBudget, bad)
	}
}

func TestBudgetLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0-5000", "Under ₹5,000"},
		{"5000-10000", "₹5,000 - ₹10,000"},
		{"10000-20000", "₹10,000 - ₹20,000"},
		{"20000-999999", "Above ₹20,000"},
		{"0-999999", "Any budget"},
		{"100000-250000", "₹1,00,000 - ₹2,50,000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, err := domain.ParseBudget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Label())
		})
	}
}

func TestBudgetBounds(t *testing.T) {
	lo, hi := domain.Budget{Min: 0, Max: 5000}.Bounds()
	assert.Nil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, 5000, *hi)

	lo, hi = domain.Budget{Min: 20000, Max: 999999}.Bounds()
	require.NotNil(t, lo)
	assert.Equal(t, 20000, *lo)
	assert.Nil(t, hi)

	lo, hi = domain.Budget{Min: 20000, Max: 1500000}.Bounds()
	assert.NotNil(t, lo)
	assert.Nil(t, hi)
}

func TestRupees(t *testing.T) {
	assert.Equal(t, "₹0", domain.Rupees(0))
	assert.Equal(t, "₹999", domain.Rupees(999))
	assert.Equal(t, "₹5,000", domain.Rupees(5000))
	assert.Equal(t, "₹99,999", domain.Rupees(99999))
	assert.Equal(t, "₹1,00,000", domain.Rupees(100000))
	assert.Equal(t, "₹12,34,567", domain.Rupees(1234567))
	assert.Equal(t, "₹1,23,45,678", domain.Rupees(12345678))
}
