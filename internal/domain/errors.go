package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed requests rejected before simulation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasible marks trips with no sequence of stops reaching the destination.
	ErrInfeasible = errors.New("route infeasible")
	// ErrGeometryMismatch marks inconsistent planner and routing-provider output.
	ErrGeometryMismatch = errors.New("geometry mismatch")
	// ErrUnreachableOrigin is returned when the origin cannot be located or routed from.
	ErrUnreachableOrigin = errors.New("unreachable origin")
	// ErrUnreachableDestination is returned when the destination cannot be located or routed to.
	ErrUnreachableDestination = errors.New("unreachable destination")
	// ErrProviderUnavailable marks upstream transport or availability failures.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// InfeasibleError describes where the vehicle runs out of range.
type InfeasibleError struct {
	// AtKm is the route position of the stranded state.
	AtKm float64
	// ReachKm is the range available from AtKm before hitting the reserve.
	ReachKm float64
	Reason  string
}

// BlockingDistanceKm is the range that could not be bridged.
func (e *InfeasibleError) BlockingDistanceKm() float64 { return e.ReachKm }

// ExhaustedAtKm is the route position where SoC reaches the reserve.
func (e *InfeasibleError) ExhaustedAtKm() float64 { return e.AtKm + e.ReachKm }

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf(
		"%s: %s (at %.1f km, reach %.1f km, range exhausted at %.1f km)",
		ErrInfeasible, e.Reason, e.AtKm, e.ReachKm, e.ExhaustedAtKm(),
	)
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

// Stable error codes exposed by the API.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInfeasible             = "INFEASIBLE"
	CodeGeometryMismatch       = "GEOMETRY_MISMATCH"
	CodeUnreachableOrigin      = "UNREACHABLE_ORIGIN"
	CodeUnreachableDestination = "UNREACHABLE_DESTINATION"
	CodeProviderUnavailable    = "PROVIDER_UNAVAILABLE"
	CodeInternal               = "INTERNAL"
)

// ErrorCode maps an error chain to its stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrInfeasible):
		return CodeInfeasible
	case errors.Is(err, ErrGeometryMismatch):
		return CodeGeometryMismatch
	case errors.Is(err, ErrUnreachableOrigin):
		return CodeUnreachableOrigin
	case errors.Is(err, ErrUnreachableDestination):
		return CodeUnreachableDestination
	case errors.Is(err, ErrProviderUnavailable):
		return CodeProviderUnavailable
	default:
		return CodeInternal
	}
}
