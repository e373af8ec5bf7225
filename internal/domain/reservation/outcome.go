package reservation

import "errors"

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeSuccess
	OutcomeValidationFailure
	OutcomeGenericFailure
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailure:
		return "validation_failure"
	case OutcomeGenericFailure:
		return "generic_failure"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "none"
	}
}

// UnprocessableEntity is the backend error that marks a payload as invalid.
const UnprocessableEntity = "Unprocessable Entity"

const (
	ValidationMessage = "Please make sure you have filled out the form correctly. " +
		"If you could not check every box, then you cannot use this amenity."
	IncompleteMessage = "The reservation could not be completed."
	TransportMessage  = "The reservation request failed. Please try again."
)

// Outcome is the result of one submission attempt.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

func (o Outcome) Succeeded() bool { return o.Kind == OutcomeSuccess }

// Failed reports whether the outcome should be shown as an error.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case OutcomeValidationFailure, OutcomeGenericFailure, OutcomeTransportFailure:
		return true
	}
	return false
}

// Interpret maps a backend response to an outcome. The backend's validation
// detail is replaced by ValidationMessage; any other error is passed through.
func Interpret(r Response) Outcome {
	switch {
	case r.Success:
		return Outcome{Kind: OutcomeSuccess}
	case r.Error == UnprocessableEntity:
		return Outcome{Kind: OutcomeValidationFailure, Message: ValidationMessage}
	case r.Error != "":
		return Outcome{Kind: OutcomeGenericFailure, Message: r.Error}
	default:
		return Outcome{Kind: OutcomeGenericFailure, Message: IncompleteMessage}
	}
}

// TransportFailure is the outcome for a request that never produced a response.
func TransportFailure() Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Message: TransportMessage}
}

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrQuestionIDRange = errors.New("question id out of range")
)
