package split

import "fmt"

// =============================================================================
// CUSTOM SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// CustomStrategy implements the Strategy interface for exact amount splits
type CustomStrategy struct{}

// Type returns the split type identifier
func (s *CustomStrategy) Type() SplitType {
	return SplitTypeCustom
}

// Validate checks if the inputs are valid for a custom split.
// A mismatch against the total is rejected, never adjusted.
func (s *CustomStrategy) Validate(totalAmount int64, inputs []Input) error {
	if err := validateCommon(totalAmount, inputs); err != nil {
		return err
	}

	var sum int64
	for _, in := range inputs {
		if in.Amount == nil {
			return fmt.Errorf("%w: %s", ErrMissingCustomAmount, in.UserID)
		}
		if *in.Amount < 0 {
			return fmt.Errorf("%w: %s has %d", ErrNegativeShare, in.UserID, *in.Amount)
		}
		// Bounding each share by the total keeps the sum below N*total, so it cannot wrap.
		if *in.Amount > totalAmount {
			return fmt.Errorf("%w: %s has %d of %d", ErrShareExceedsTotal, in.UserID, *in.Amount, totalAmount)
		}
		sum += *in.Amount
	}

	if sum != totalAmount {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidCustomAmounts, sum, totalAmount)
	}
	return nil
}

// Allocate returns the exact amounts specified for each participant
func (s *CustomStrategy) Allocate(totalAmount int64, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(totalAmount, inputs); err != nil {
		return nil, err
	}

	participants := sortedByUser(inputs)
	allocations := make([]Allocation, len(participants))
	for i, p := range participants {
		allocations[i] = Allocation{UserID: p.UserID, Amount: *p.Amount}
	}

	if err := checkSum(totalAmount, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}
