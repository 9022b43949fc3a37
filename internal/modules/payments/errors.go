package payments

import (
	"errors"
	"fmt"
)

var ErrUnknownProvider = errors.New("unknown payment provider")

// NotCompletedError: provider success literal'i dışında bir status.
// Amount kontrolünden ÖNCE değerlendirilir.
type NotCompletedError struct {
	Status string
}

func (e *NotCompletedError) Error() string {
	return fmt.Sprintf("payment not completed: status %q", e.Status)
}

// AmountMismatchError: provider'ın raporladığı tutar beklenen tutarla
// uyuşmuyor. Hard failure.
type AmountMismatchError struct {
	Expected string
	Actual   string
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount mismatch: expected %s, got %s", e.Expected, e.Actual)
}
