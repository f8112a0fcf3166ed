package lifecycle

import "errors"

var (
	ErrMissingFeeFields = errors.New("total_fee, paid and balance are required")
	ErrNegativeAmount   = errors.New("fee amounts must not be negative")
	ErrOverpayment      = errors.New("paid amount exceeds total fee")
	ErrNegativeBalance  = errors.New("balance must not be negative")
)

// ValidateFees checks the fee triple on record creation. Fields arrive as
// pointers so an absent field can be told apart from an explicit zero. The
// checks run in a fixed order and each failure has its own error.
func ValidateFees(totalFee, paid, balance *float64) error {
	if totalFee == nil || paid == nil || balance == nil {
		return ErrMissingFeeFields
	}
	if *totalFee < 0 || *paid < 0 {
		return ErrNegativeAmount
	}
	if *paid > *totalFee {
		return ErrOverpayment
	}
	if *balance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

// RecomputeBalance derives balance = totalFee - paid and validates the
// resulting triple. Callers use it on update so a client-supplied balance
// can never drift from the fee fields.
func RecomputeBalance(totalFee, paid float64) (float64, error) {
	balance := totalFee - paid
	if err := ValidateFees(&totalFee, &paid, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}
