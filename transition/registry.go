package transition

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fareway-labs/tripcore/phase"
)

// DefaultDurationHint is the expected-duration fallback for legal pairs
// without a curated hint. Advisory only; nothing enforces it.
const DefaultDurationHint = 5 * time.Second

// Config is the side-effect recipe registered for one legal phase pair: the
// ordered action list, an optional custom validator, and an optional
// rollback list run if execution stops partway through.
//
// A Config may exist only for a pair the legality table permits. The
// reverse does not hold: a pair can be legal with no Config, in which case
// executing it carries zero side effects and trivially succeeds. Whether
// those pairs are intentionally action-free or simply unconfigured is an
// open question inherited from the original behavior; callers that care
// should treat a nil ConfigFor result on a legal pair as worth logging.
type Config struct {
	From phase.Phase
	To   phase.Phase

	// Actions run in priority order (see SortByPriority).
	Actions []Action

	// Validator, when set, runs after the phase-pair check and may refuse
	// the transition before any action executes.
	Validator func(*Context) error

	// Rollback runs best-effort when execution stops partway through.
	Rollback []Action
}

type pair struct {
	from phase.Phase
	to   phase.Phase
}

// Registry is the static table of legal phase pairs and their transition
// configs, descriptions, and duration hints. It is immutable after
// construction and safe for concurrent readers without locking.
type Registry struct {
	legal        map[pair]struct{}
	configs      map[pair]*Config
	descriptions map[pair]string
	durations    map[pair]time.Duration
	recalcRoute  map[pair]struct{}
	geofences    map[pair]struct{}
}

// RegistryOption customizes registry construction.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	overrides []*Overrides
	configs   []*Config
}

// WithConfig registers an additional (or replacement) transition config.
// The pair must be legal or NewRegistry fails.
func WithConfig(cfg *Config) RegistryOption {
	return func(o *registryOptions) {
		o.configs = append(o.configs, cfg)
	}
}

// WithOverrides applies curated description/duration overrides, typically
// loaded from YAML via LoadOverrides.
func WithOverrides(ov *Overrides) RegistryOption {
	return func(o *registryOptions) {
		o.overrides = append(o.overrides, ov)
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(fmt.Sprintf("transition: built-in registry invalid: %v", err))
	}

	return r
})

// Default returns the process-wide registry with the built-in tables,
// built once and reused.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry builds a registry from the built-in legality table and
// transition configs plus any options. It fails if a config references an
// illegal pair or an override references an unknown one.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	options := &registryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	r := &Registry{
		legal:        builtinLegality(),
		configs:      make(map[pair]*Config),
		descriptions: builtinDescriptions(),
		durations:    builtinDurations(),
		recalcRoute:  builtinRecalcPairs(),
		geofences:    builtinGeofencePairs(),
	}

	for _, cfg := range builtinConfigs() {
		if err := r.register(cfg); err != nil {
			return nil, err
		}
	}

	for _, cfg := range options.configs {
		if err := r.register(cfg); err != nil {
			return nil, err
		}
	}

	for _, ov := range options.overrides {
		if err := r.applyOverrides(ov); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) register(cfg *Config) error {
	key := pair{from: cfg.From, to: cfg.To}
	if _, ok := r.legal[key]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrConfigNotLegal, cfg.From, cfg.To)
	}

	r.configs[key] = cfg

	return nil
}

// IsValidTransition reports whether the phase pair is legal.
func (r *Registry) IsValidTransition(from, to phase.Phase) bool {
	_, ok := r.legal[pair{from: from, to: to}]

	return ok
}

// ConfigFor returns the config registered for the exact pair, or nil when
// none is — even if the pair is legal.
func (r *Registry) ConfigFor(from, to phase.Phase) *Config {
	return r.configs[pair{from: from, to: to}]
}

// ValidNextPhases returns every phase reachable from p in one legal step,
// in lifecycle order. Empty for the terminal phase.
func (r *Registry) ValidNextPhases(p phase.Phase) []phase.Phase {
	var out []phase.Phase

	for _, to := range phase.All() {
		if r.IsValidTransition(p, to) {
			out = append(out, to)
		}
	}

	return out
}

// IsTerminalPhase reports whether p permits no outgoing transitions.
func (r *Registry) IsTerminalPhase(p phase.Phase) bool {
	return p.Terminal()
}

// Description returns the curated human-readable sentence for a known pair,
// or a generic fallback for any other pair.
func (r *Registry) Description(from, to phase.Phase) string {
	if d, ok := r.descriptions[pair{from: from, to: to}]; ok {
		return d
	}

	return fmt.Sprintf("Transitioning from %s to %s", from, to)
}

// RequiresRouteRecalculation reports whether the pair implies computing a
// new route, without inspecting the full action list.
func (r *Registry) RequiresRouteRecalculation(from, to phase.Phase) bool {
	_, ok := r.recalcRoute[pair{from: from, to: to}]

	return ok
}

// RequiresGeofenceUpdate reports whether the pair implies replacing the
// active geofence set.
func (r *Registry) RequiresGeofenceUpdate(from, to phase.Phase) bool {
	_, ok := r.geofences[pair{from: from, to: to}]

	return ok
}

// ExpectedDuration returns the curated expected-duration hint for the pair,
// or DefaultDurationHint when none is curated. Advisory only.
func (r *Registry) ExpectedDuration(from, to phase.Phase) time.Duration {
	if d, ok := r.durations[pair{from: from, to: to}]; ok {
		return d
	}

	return DefaultDurationHint
}

// builtinLegality is the fixed phase-legality table. Every non-terminal
// phase permits a direct jump to completed (the emergency cancellation
// path); completed permits nothing.
func builtinLegality() map[pair]struct{} {
	legal := map[pair]struct{}{
		{phase.EnRouteToPickup, phase.ArrivedAtPickup}:   {},
		{phase.ArrivedAtPickup, phase.PickingUp}:         {},
		{phase.ArrivedAtPickup, phase.EnRouteToPickup}:   {},
		{phase.PickingUp, phase.EnRouteToDropoff}:        {},
		{phase.EnRouteToDropoff, phase.ArrivedAtDropoff}: {},
	}

	for _, p := range phase.All() {
		if p.Terminal() {
			continue
		}

		legal[pair{from: p, to: phase.Completed}] = struct{}{}
	}

	return legal
}

func requireDriverAndPickup(tc *Context) error {
	if tc.Driver == nil || tc.Pickup == nil {
		return errors.New("driver and pickup locations are required")
	}

	return nil
}

func requireDriverAndDropoff(tc *Context) error {
	if tc.Driver == nil || tc.Dropoff == nil {
		return errors.New("driver and dropoff locations are required")
	}

	return nil
}

// builtinConfigs returns the transition configs shipped with the registry.
// Pairs absent here are legal-but-configless: zero side effects.
func builtinConfigs() []*Config {
	return []*Config{
		{
			From: phase.EnRouteToPickup,
			To:   phase.ArrivedAtPickup,
			Actions: []Action{
				{Kind: UpdateCamera, Priority: Priority(1)},
				{Kind: UpdateGeofences, Priority: Priority(2)},
				{Kind: AnnounceInstruction, Priority: Priority(3), Payload: AnnouncementPayload{
					Message: "You have arrived at the pickup location",
				}},
			},
			Validator: requireDriverAndPickup,
		},
		{
			From: phase.ArrivedAtPickup,
			To:   phase.PickingUp,
			Actions: []Action{
				{Kind: ClearVoiceGuidance, Priority: Priority(1)},
				{Kind: AnnounceInstruction, Priority: Priority(2), Payload: AnnouncementPayload{
					Message: "Passenger is boarding",
				}},
			},
		},
		{
			// The pickup point moved or the driver backed out of the
			// arrival radius; route back to the passenger.
			From: phase.ArrivedAtPickup,
			To:   phase.EnRouteToPickup,
			Actions: []Action{
				{Kind: ClearRoute, Priority: Priority(1)},
				{Kind: CalculateRoute, Priority: Priority(2)},
				{Kind: RestartNavigation, Priority: Priority(3)},
			},
			Validator: requireDriverAndPickup,
		},
		{
			// The richest transition in the table: tear down the pickup
			// leg and stand up the dropoff leg end to end.
			From: phase.PickingUp,
			To:   phase.EnRouteToDropoff,
			Actions: []Action{
				{Kind: ClearRoute, Priority: Priority(1)},
				{Kind: ClearVoiceGuidance, Priority: Priority(2)},
				{Kind: UpdateGeofences, Priority: Priority(3)},
				{Kind: CalculateRoute, Priority: Priority(4)},
				{Kind: UpdateCamera, Priority: Priority(5)},
				{Kind: RestartNavigation, Priority: Priority(6)},
				{Kind: AnnounceInstruction, Priority: Priority(7), Payload: AnnouncementPayload{
					Message: "Heading to the destination",
				}},
			},
			Validator: requireDriverAndDropoff,
			Rollback: []Action{
				{Kind: ClearRoute, Priority: Priority(1)},
				{Kind: ClearVoiceGuidance, Priority: Priority(2)},
				{Kind: AnnounceInstruction, Priority: Priority(3), Payload: AnnouncementPayload{
					Message: "Returning to pickup guidance",
				}},
			},
		},
		{
			From: phase.EnRouteToDropoff,
			To:   phase.ArrivedAtDropoff,
			Actions: []Action{
				{Kind: UpdateCamera, Priority: Priority(1)},
				{Kind: UpdateGeofences, Priority: Priority(2)},
				{Kind: AnnounceInstruction, Priority: Priority(3), Payload: AnnouncementPayload{
					Message: "You have arrived at the destination",
				}},
			},
		},
		{
			From: phase.ArrivedAtDropoff,
			To:   phase.Completed,
			Actions: []Action{
				{Kind: ClearRoute, Priority: Priority(1)},
				{Kind: ClearVoiceGuidance, Priority: Priority(2)},
				{Kind: UpdateGeofences, Priority: Priority(3)},
				{Kind: UpdateCamera, Priority: Priority(4)},
				{Kind: AnnounceInstruction, Priority: Priority(5), Payload: AnnouncementPayload{
					Message: "Trip completed",
				}},
			},
		},
	}
}

func builtinDescriptions() map[pair]string {
	return map[pair]string{
		{phase.EnRouteToPickup, phase.ArrivedAtPickup}:   "Driver has arrived at the pickup location",
		{phase.ArrivedAtPickup, phase.PickingUp}:         "Passenger is boarding the vehicle",
		{phase.ArrivedAtPickup, phase.EnRouteToPickup}:   "Driver is repositioning toward the updated pickup location",
		{phase.PickingUp, phase.EnRouteToDropoff}:        "Passenger on board, heading to the destination",
		{phase.EnRouteToDropoff, phase.ArrivedAtDropoff}: "Vehicle has arrived at the destination",
		{phase.ArrivedAtDropoff, phase.Completed}:        "Trip completed",
	}
}

func builtinDurations() map[pair]time.Duration {
	return map[pair]time.Duration{
		{phase.EnRouteToPickup, phase.ArrivedAtPickup}:   3 * time.Second,
		{phase.ArrivedAtPickup, phase.PickingUp}:         2 * time.Second,
		{phase.ArrivedAtPickup, phase.EnRouteToPickup}:   8 * time.Second,
		{phase.PickingUp, phase.EnRouteToDropoff}:        12 * time.Second,
		{phase.EnRouteToDropoff, phase.ArrivedAtDropoff}: 3 * time.Second,
		{phase.ArrivedAtDropoff, phase.Completed}:        6 * time.Second,
	}
}

func builtinRecalcPairs() map[pair]struct{} {
	return map[pair]struct{}{
		{phase.ArrivedAtPickup, phase.EnRouteToPickup}: {},
		{phase.PickingUp, phase.EnRouteToDropoff}:      {},
	}
}

func builtinGeofencePairs() map[pair]struct{} {
	return map[pair]struct{}{
		{phase.EnRouteToPickup, phase.ArrivedAtPickup}:   {},
		{phase.PickingUp, phase.EnRouteToDropoff}:        {},
		{phase.EnRouteToDropoff, phase.ArrivedAtDropoff}: {},
		{phase.ArrivedAtDropoff, phase.Completed}:        {},
	}
}
