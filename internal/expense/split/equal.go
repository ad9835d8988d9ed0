package split

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally; leftover cents go to the lowest user ids
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() SplitType {
	return SplitTypeEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(totalAmount int64, inputs []Input) error {
	return validateCommon(totalAmount, inputs)
}

// Allocate gives every participant floor(total/N) and hands the R leftover
// cents, one each, to the first R participants in ascending id order.
func (s *EqualStrategy) Allocate(totalAmount int64, inputs []Input) ([]Allocation, error) {
	if err := s.Validate(totalAmount, inputs); err != nil {
		return nil, err
	}

	participants := sortedByUser(inputs)
	n := int64(len(participants))
	base := totalAmount / n
	remainder := totalAmount - base*n

	allocations := make([]Allocation, len(participants))
	for i, p := range participants {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		allocations[i] = Allocation{UserID: p.UserID, Amount: amount}
	}

	if err := checkSum(totalAmount, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}
