package sensor

import "github.com/pkg/errors"

// ColorAvailability is the result of trying to open an optional color stream.
//
// SDKs commonly report "this device has no color sensor" and "the color sensor failed to open"
// through the same error path. ColorUnknownFailure keeps that ambiguity visible instead of
// pretending to resolve it; callers treat it the same as ColorConfirmedAbsent.
type ColorAvailability int

const (
	// ColorPresent means a color stream was opened.
	ColorPresent ColorAvailability = iota
	// ColorConfirmedAbsent means the driver reported ErrStreamUnavailable.
	ColorConfirmedAbsent
	// ColorUnknownFailure means opening failed for a reason the driver did not classify.
	ColorUnknownFailure
)

func (a ColorAvailability) String() string {
	switch a {
	case ColorPresent:
		return "present"
	case ColorConfirmedAbsent:
		return "absent"
	case ColorUnknownFailure:
		return "unknown failure"
	default:
		return "invalid"
	}
}

// ClassifyColorOpen maps the result of Context.OpenColorStream to a ColorAvailability.
func ClassifyColorOpen(stream Stream, err error) ColorAvailability {
	switch {
	case err == nil && stream != nil:
		return ColorPresent
	case errors.Is(err, ErrStreamUnavailable):
		return ColorConfirmedAbsent
	default:
		return ColorUnknownFailure
	}
}
