// Package phase defines the fixed set of trip lifecycle phases a driver
// moves through between accepting a ride and completing it.
package phase

import (
	"errors"
	"fmt"
)

// Phase is one stage in the trip lifecycle. The set is closed: a trip is
// always in exactly one of the phases below, and Completed is terminal.
type Phase string

const (
	// EnRouteToPickup means the driver has accepted the trip and is
	// navigating toward the passenger.
	EnRouteToPickup Phase = "en_route_to_pickup"

	// ArrivedAtPickup means the driver is within the arrival radius of the
	// pickup point and is waiting for the passenger.
	ArrivedAtPickup Phase = "arrived_at_pickup"

	// PickingUp means the passenger is boarding.
	PickingUp Phase = "picking_up"

	// EnRouteToDropoff means the passenger is on board and the driver is
	// navigating toward the destination.
	EnRouteToDropoff Phase = "en_route_to_dropoff"

	// ArrivedAtDropoff means the vehicle is at the destination.
	ArrivedAtDropoff Phase = "arrived_at_dropoff"

	// Completed is the terminal phase. No phase may follow it.
	Completed Phase = "completed"
)

// ErrUnknownPhase is returned by Parse for strings outside the enumeration.
var ErrUnknownPhase = errors.New("unknown phase")

// all is kept in lifecycle order; All copies it so callers cannot mutate it.
var all = []Phase{
	EnRouteToPickup,
	ArrivedAtPickup,
	PickingUp,
	EnRouteToDropoff,
	ArrivedAtDropoff,
	Completed,
}

// All returns every phase in lifecycle order.
func All() []Phase {
	out := make([]Phase, len(all))
	copy(out, all)

	return out
}

// Valid reports whether p is a member of the enumeration.
func (p Phase) Valid() bool {
	switch p {
	case EnRouteToPickup, ArrivedAtPickup, PickingUp,
		EnRouteToDropoff, ArrivedAtDropoff, Completed:
		return true
	default:
		return false
	}
}

// Terminal reports whether p permits no outgoing transitions.
func (p Phase) Terminal() bool {
	return p == Completed
}

func (p Phase) String() string {
	return string(p)
}

// Parse converts a wire/config string into a Phase.
func Parse(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}

	return p, nil
}
