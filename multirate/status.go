package multirate

import "fmt"

// Status is the outcome domain of the value service. The rate-group
// arithmetic never branches on it; implementations that cannot deliver a
// fresh value report a non-Ok status and return the last-known-good
// value through the regular return path.
type Status int

// The possible outcomes of a value service operation.
const (
	StatusOk Status = iota
	StatusGenericError
	StatusTimeout
	StatusDataInvalid
	StatusNoData
	StatusServiceUnavailable
)

// IsOk returns true if the operation delivered a fresh value.
func (s Status) IsOk() bool {
	return s == StatusOk
}

// Err converts the status to an error at the boundary. Ok converts to
// nil.
func (s Status) Err() error {
	if s == StatusOk {
		return nil
	}

	return fmt.Errorf("value service: %s", s)
}

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusGenericError:
		return "generic error"
	case StatusTimeout:
		return "timeout"
	case StatusDataInvalid:
		return "data invalid"
	case StatusNoData:
		return "no data"
	case StatusServiceUnavailable:
		return "service unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
