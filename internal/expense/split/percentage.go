package split

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

var hundred = decimal.NewFromInt(100)

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() SplitType {
	return SplitTypePercentage
}

// Validate checks if the inputs are valid for a percentage split.
// The percentages must add up to exactly 100; there is no tolerance.
func (s *PercentageStrategy) Validate(totalAmount int64, inputs []Input) error {
	if err := validateCommon(totalAmount, inputs); err != nil {
		return err
	}

	total := decimal.Zero
	for _, in := range inputs {
		if in.Percentage == nil {
			return fmt.Errorf("%w: %s", ErrMissingPercentage, in.UserID)
		}
		if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s has %s", ErrPercentageOutOfRange, in.UserID, in.Percentage)
		}
		total = total.Add(*in.Percentage)
	}

	if !total.Equal(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidPercentages, total)
	}
	return nil
}

type percentageShare struct {
	userID   string
	base     int64
	fraction decimal.Decimal
}

// Allocate floors every exact share and distributes the leftover cents one at a
// time by descending fractional remainder, ties broken by ascending user id.
func (s *PercentageStrategy) Allocate(totalAmount int64, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(totalAmount, inputs); err != nil {
		return nil, err
	}

	total := decimal.NewFromInt(totalAmount)
	shares := make([]percentageShare, len(inputs))
	var distributed int64
	for i, in := range sortedByUser(inputs) {
		exact := total.Mul(*in.Percentage).Shift(-2)
		floor := exact.Floor()
		shares[i] = percentageShare{
			userID:   in.UserID,
			base:     floor.IntPart(),
			fraction: exact.Sub(floor),
		}
		distributed += shares[i].base
	}

	// Percentages sum to 100, so the leftover is below len(shares).
	remainder := totalAmount - distributed
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := shares[order[a]].fraction, shares[order[b]].fraction
		if !fa.Equal(fb) {
			return fa.GreaterThan(fb)
		}
		return shares[order[a]].userID < shares[order[b]].userID
	})
	for k := int64(0); k < remainder; k++ {
		shares[order[k]].base++
	}

	allocations := make([]Allocation, len(shares))
	for i, sh := range shares {
		allocations[i] = Allocation{UserID: sh.userID, Amount: sh.base}
	}

	if err := checkSum(totalAmount, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}
