// Package transition decides whether a requested trip phase change is legal,
// knows which ordered side effects it requires, validates the data needed to
// perform it, and drives execution of those side effects with per-action
// timeout, bounded retry, and best-effort rollback.
//
// The package performs no network I/O, rendering, or persistence itself: all
// side effects run through an ActionExecutor supplied by the embedding
// application.
package transition

import (
	"cmp"
	"math"
	"slices"

	"github.com/fareway-labs/tripcore/geo"
)

// Kind identifies one of the closed set of side effects a phase transition
// can require. Dispatch on Kind is exhaustive; adding a kind means updating
// every switch that consumes it.
type Kind string

const (
	// ClearRoute removes the currently displayed route.
	ClearRoute Kind = "clear_route"

	// CalculateRoute computes and displays a new route.
	CalculateRoute Kind = "calculate_route"

	// UpdateGeofences replaces the active virtual boundary zones.
	UpdateGeofences Kind = "update_geofences"

	// UpdateCamera repositions the map camera.
	UpdateCamera Kind = "update_camera"

	// RestartNavigation restarts the turn-by-turn navigation feed.
	RestartNavigation Kind = "restart_navigation"

	// ClearVoiceGuidance silences and discards queued voice guidance.
	ClearVoiceGuidance Kind = "clear_voice_guidance"

	// AnnounceInstruction speaks a guidance or status message.
	AnnounceInstruction Kind = "announce_instruction"
)

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool {
	switch k {
	case ClearRoute, CalculateRoute, UpdateGeofences, UpdateCamera,
		RestartNavigation, ClearVoiceGuidance, AnnounceInstruction:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// Payload carries the per-kind data an action needs. The interface is
// sealed so the set of payload shapes stays closed; kinds that need no data
// (ClearRoute, ClearVoiceGuidance, RestartNavigation) carry a nil Payload.
type Payload interface {
	payload()
}

// RoutePayload is the payload for CalculateRoute actions.
type RoutePayload struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Waypoints   []geo.Coordinate
}

func (RoutePayload) payload() {}

// Geofence is one virtual boundary zone.
type Geofence struct {
	ID           string
	Center       geo.Coordinate
	RadiusMeters float64
}

// GeofencePayload is the payload for UpdateGeofences actions. The listed
// zones replace whatever zones are currently registered.
type GeofencePayload struct {
	Zones []Geofence
}

func (GeofencePayload) payload() {}

// CameraPayload is the payload for UpdateCamera actions.
type CameraPayload struct {
	Center  geo.Coordinate
	Zoom    float64
	Bearing float64
}

func (CameraPayload) payload() {}

// AnnouncementPayload is the payload for AnnounceInstruction actions.
type AnnouncementPayload struct {
	Message string
}

func (AnnouncementPayload) payload() {}

// PriorityLast is the effective priority of an action with no explicit
// priority: it sorts after every explicitly prioritized action.
const PriorityLast = math.MaxInt

// Action is one named side effect with an execution priority. Lower
// priority numbers execute first; a nil Priority sorts last; equal
// priorities keep their original relative order.
type Action struct {
	Kind     Kind
	Payload  Payload
	Priority *int
}

// Priority returns a priority pointer for Action literals.
func Priority(n int) *int {
	return &n
}

// effectivePriority treats a nil priority as PriorityLast.
func (a Action) effectivePriority() int {
	if a.Priority == nil {
		return PriorityLast
	}

	return *a.Priority
}

// SortByPriority returns the actions in execution order: ascending
// priority, nil priorities last, ties in original relative order. The input
// slice is not mutated.
func SortByPriority(actions []Action) []Action {
	sorted := make([]Action, len(actions))
	copy(sorted, actions)

	slices.SortStableFunc(sorted, func(a, b Action) int {
		return cmp.Compare(a.effectivePriority(), b.effectivePriority())
	})

	return sorted
}
