package wizard

import (
	"fmt"

	"github.com/jalanria/service-rental/internal/common/domain"
)

// Step is a position in the booking wizard.
type Step int

const (
	StepLocation Step = iota + 1
	StepVehicle
	StepDetails
	StepSuccess
)

var stepNames = map[Step]string{
	StepLocation: "location",
	StepVehicle:  "vehicle",
	StepDetails:  "details",
	StepSuccess:  "success",
}

// String returns the step name.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// IsValid reports whether s is one of the four wizard steps.
func (s Step) IsValid() bool {
	_, ok := stepNames[s]
	return ok
}

// ScheduleMode says whether the trip starts now or at a booked time.
type ScheduleMode string

const (
	ModeInstant   ScheduleMode = "instant"
	ModeScheduled ScheduleMode = "scheduled"
)

// IsValid reports whether the mode is recognized.
func (m ScheduleMode) IsValid() bool {
	return m == ModeInstant || m == ModeScheduled
}

// PaymentMethod is how the customer settles the fare.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentEWallet      PaymentMethod = "e_wallet"
	PaymentCard         PaymentMethod = "card"
)

// IsValid reports whether the payment method is accepted.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentCash, PaymentBankTransfer, PaymentEWallet, PaymentCard:
		return true
	}
	return false
}

var (
	// ErrCompleted is returned for any change after the booking was created.
	ErrCompleted = domain.NewInvalidStateError(StepSuccess.String(), "edit")
	// ErrFinalizeRequired is returned by Next on the details step.
	ErrFinalizeRequired = domain.NewInvalidStateError(StepDetails.String(), "next")
	// ErrAtFirstStep is returned by Back on the location step.
	ErrAtFirstStep = domain.NewInvalidStateError(StepLocation.String(), "back")
	// ErrStepIncomplete is returned when the current step's gate fails.
	ErrStepIncomplete = domain.NewValidationError("current step is incomplete")
	// ErrPricePending is returned when finalizing before a fare exists.
	ErrPricePending = domain.NewValidationError("fare is not available yet")
	// ErrFinalizeInFlight rejects a second concurrent finalize.
	ErrFinalizeInFlight = domain.NewConflictError("booking is already being finalized")
	// ErrNotFinalizing is returned when completing a finalize that never began.
	ErrNotFinalizing = domain.NewInvalidStateError(StepDetails.String(), StepSuccess.String())
)

func errNotEditable(step Step, field string) error {
	return domain.NewInvalidStateError(step.String(), "set "+field)
}
