package split

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/billsplit/internal/apperrors"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEqual      SplitType = "equal"
	SplitTypePercentage SplitType = "percentage"
	SplitTypeCustom     SplitType = "custom"
)

// Input is one consumer of an expense with the value its strategy needs.
// Percentage is read by PERCENTAGE splits, Amount (cents) by CUSTOM splits.
type Input struct {
	UserID     string
	Percentage *decimal.Decimal
	Amount     *int64
}

// Allocation is the share of an expense assigned to one participant, in cents.
type Allocation struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Allocate divides totalAmount across inputs. The result is sorted by user id
	// and always sums to totalAmount.
	Allocate(totalAmount int64, inputs []Input) ([]Allocation, error)

	// Type returns the type identifier for this strategy
	Type() SplitType

	// Validate checks if the inputs are valid for this strategy
	Validate(totalAmount int64, inputs []Input) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEqual:
		return &EqualStrategy{}, nil
	case SplitTypePercentage:
		return &PercentageStrategy{}, nil
	case SplitTypeCustom:
		return &CustomStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", apperrors.ErrValidation, splitType)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(splitType string) (Strategy, error) {
	return f.Create(SplitType(splitType))
}

var (
	ErrNoParticipants       = fmt.Errorf("%w: at least one participant is required", apperrors.ErrValidation)
	ErrDuplicateParticipant = fmt.Errorf("%w: participant listed more than once", apperrors.ErrValidation)
	ErrNonPositiveAmount    = fmt.Errorf("%w: total amount must be positive", apperrors.ErrValidation)
	ErrInvalidPercentages   = fmt.Errorf("%w: percentages must sum to exactly 100", apperrors.ErrValidation)
	ErrInvalidCustomAmounts = fmt.Errorf("%w: custom amounts must sum to the total amount", apperrors.ErrValidation)
	ErrNegativeShare        = fmt.Errorf("%w: custom amounts cannot be negative", apperrors.ErrValidation)
	ErrShareExceedsTotal    = fmt.Errorf("%w: custom amount cannot exceed the total amount", apperrors.ErrValidation)
	ErrMissingPercentage    = fmt.Errorf("%w: percentage value required for all participants", apperrors.ErrValidation)
	ErrMissingCustomAmount  = fmt.Errorf("%w: custom amount required for all participants", apperrors.ErrValidation)
	ErrPercentageOutOfRange = fmt.Errorf("%w: percentage must be between 0 and 100", apperrors.ErrValidation)
)

// errSumMismatch is returned when an allocation does not add up; it means a bug in a strategy.
var errSumMismatch = errors.New("allocation does not sum to total")

// validateCommon holds the checks every strategy shares.
func validateCommon(totalAmount int64, inputs []Input) error {
	if totalAmount <= 0 {
		return ErrNonPositiveAmount
	}
	if len(inputs) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.UserID == "" {
			return fmt.Errorf("%w: participant id is empty", apperrors.ErrValidation)
		}
		if _, dup := seen[in.UserID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, in.UserID)
		}
		seen[in.UserID] = struct{}{}
	}
	return nil
}

// sortedByUser returns a copy of inputs ordered by ascending user id.
func sortedByUser(inputs []Input) []Input {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })
	return sorted
}

// Sum adds up allocation amounts.
func Sum(allocations []Allocation) int64 {
	var total int64
	for _, a := range allocations {
		total += a.Amount
	}
	return total
}

// checkSum guards every strategy's output.
func checkSum(totalAmount int64, allocations []Allocation) error {
	if got := Sum(allocations); got != totalAmount {
		return fmt.Errorf("%w: %w: got %d, want %d", apperrors.ErrInvariant, errSumMismatch, got, totalAmount)
	}
	return nil
}
