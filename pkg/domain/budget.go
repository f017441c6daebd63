package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBudget parses a "min-max" range. Bounds are kept verbatim.
func ParseBudget(value string) (Budget, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return Budget{}, fmt.Errorf("%w: %q", ErrInvalidBudget, value)
	}
	minV, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Budget{}, fmt.Errorf("%w: %q", ErrInvalidBudget, value)
	}
	maxV, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Budget{}, fmt.Errorf("%w: %q", ErrInvalidBudget, value)
	}
	if minV < 0 || minV > maxV {
		return Budget{}, fmt.Errorf("%w: %q", ErrInvalidBudget, value)
	}
	return Budget{Min: minV, Max: maxV}, nil
}

// String returns the canonical "min-max" form.
func (b Budget) String() string {
	return fmt.Sprintf("%d-%d", b.Min, b.Max)
}

// Label renders the budget for the visitor, e.g. "Under ₹5,000".
func (b Budget) Label() string {
	switch {
	case !b.HasLower() && !b.HasUpper():
		return "Any budget"
	case !b.HasLower():
		return "Under " + Rupees(b.Max)
	case !b.HasUpper():
		return "Above " + Rupees(b.Min)
	}
	return Rupees(b.Min) + " - " + Rupees(b.Max)
}

// Bounds returns the search bounds with open ends as nil.
func (b Budget) Bounds() (priceMin, priceMax *int) {
	if b.HasLower() {
		v := b.Min
		priceMin = &v
	}
	if b.HasUpper() {
		v := b.Max
		priceMax = &v
	}
	return priceMin, priceMax
}

// Rupees formats an amount with the rupee sign and Indian digit grouping
// (last three digits, then pairs): 100000 -> "₹1,00,000".
func Rupees(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}
