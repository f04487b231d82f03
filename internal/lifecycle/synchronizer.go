// Package lifecycle keeps one consistent local view of the current ride
// per session, fed by two channels that disagree: push events from the
// relay and point-in-time reads from the record store. Neither channel is
// reliable and they share no clock, so reconciliation is deliberately
// simple: whichever channel answers last is current, and the record store
// is re-read whenever the relay admits it lost the connection.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hailo/internal/domain"
	"hailo/internal/observability"
	"hailo/internal/relay"
	"hailo/internal/repository"
)

// Intent validation errors.
var (
	ErrNoActiveRide      = errors.New("no active ride")
	ErrNotCancellable    = errors.New("ride can no longer be cancelled")
	ErrNoForwardStep     = errors.New("ride has no next status")
	ErrWrongRole         = errors.New("action not available in this role")
	ErrAlreadyActiveRide = errors.New("an active ride already exists")
)

// Relay is the slice of the relay client the synchronizer uses.
type Relay interface {
	JoinRoom(room string)
	LeaveRoom(room string)
	Subscribe(event string, h relay.Handler) (unsubscribe func())
	Publish(event string, payload any) error
	PublishRide(event string, ride *domain.Ride) error
	OnReconnect(fn func()) (unregister func())
}

// ProfileSource fetches driver profiles, typically the Postgres repository
// behind a Redis cache.
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Listener observes every accepted change to the view. The view passed in
// is a copy; terminal statuses are delivered before the ride is dropped.
type Listener func(v View)

// Synchronizer merges relay pushes and store reads into one authoritative
// local ride-status view for a single (user, role) session.
type Synchronizer struct {
	userID   string
	role     domain.Role
	store    repository.RideRepository
	profiles ProfileSource
	relay    Relay

	mu        sync.Mutex
	view      *View
	confirmed *domain.Ride // last store-confirmed state, for rollback
	rideRoom  string
	unsubs    []func()
	listeners []Listener
	started   bool
}

// NewSynchronizer creates a synchronizer for one user session. Call Start
// to begin receiving updates and Stop to release room memberships.
func NewSynchronizer(userID string, role domain.Role, store repository.RideRepository, profiles ProfileSource, rl Relay) *Synchronizer {
	return &Synchronizer{
		userID:   userID,
		role:     role,
		store:    store,
		profiles: profiles,
		relay:    rl,
	}
}

// OnChange registers a listener for view changes. Must be called before
// Start.
func (s *Synchronizer) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Start joins the role room, subscribes to ride events, and performs the
// initial resynchronization against the record store.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.relay.JoinRoom(domain.RoomID(s.role, s.userID))

	events := []string{
		relay.EventRideUpdate,
		relay.EventRideStatusUpdated,
		relay.EventRideCompleted,
	}
	if s.role == domain.RoleRider {
		events = append(events, relay.EventRideAssigned, relay.EventRideAccepted)
	}
	for _, ev := range events {
		unsub := s.relay.Subscribe(ev, s.handleRelayEvent)
		s.mu.Lock()
		s.unsubs = append(s.unsubs, unsub)
		s.mu.Unlock()
	}

	// The relay keeps no backlog. After any reconnect the store is the
	// only source of truth for what was missed. The started check guards
	// against a hook firing between Stop and its unregistration.
	unhook := s.relay.OnReconnect(func() {
		s.mu.Lock()
		running := s.started
		s.mu.Unlock()
		if !running {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Resync(ctx); err != nil {
			log.Printf("lifecycle: resync after reconnect: %v", err)
		}
	})
	s.mu.Lock()
	s.unsubs = append(s.unsubs, unhook)
	s.mu.Unlock()

	return s.Resync(ctx)
}

// Stop leaves all joined rooms and removes all relay subscriptions and
// reconnect hooks. The view and listeners are discarded; in-flight writes
// are not cancelled, their results are simply ignored.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	rideRoom := s.rideRoom
	s.rideRoom = ""
	s.view = nil
	s.confirmed = nil
	s.listeners = nil
	started := s.started
	s.started = false
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if rideRoom != "" {
		s.relay.LeaveRoom(rideRoom)
	}
	if started {
		s.relay.LeaveRoom(domain.RoomID(s.role, s.userID))
	}
}

// Current returns a copy of the tracked view, if any.
func (s *Synchronizer) Current() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return View{}, false
	}
	return *s.view, true
}

// Resync reads the authoritative record and applies it. With a tracked
// ride it re-reads that ride; otherwise it looks for any active ride for
// this user in this role.
func (s *Synchronizer) Resync(ctx context.Context) error {
	s.mu.Lock()
	trackedID := ""
	if s.view != nil {
		trackedID = s.view.Ride.ID
	}
	s.mu.Unlock()

	var ride *domain.Ride
	var err error
	if trackedID != "" {
		ride, err = s.store.GetByID(ctx, trackedID)
	} else if s.role == domain.RoleRider {
		ride, err = s.store.GetActiveForRider(ctx, s.userID)
	} else {
		ride, err = s.store.GetActiveForDriver(ctx, s.userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	s.Apply(Update{Source: SourceStore, Ride: *ride})
	return nil
}

// Apply runs one incoming update through the reconciliation rule: adopt
// the ride if none is tracked, ignore updates for other rides, otherwise
// overwrite the view wholesale. Last write wins by arrival order; the two
// channels share no comparable clock, so no timestamp tie-breaking is
// attempted. Terminal statuses notify listeners and then clear the
// tracked ride, which makes stray late duplicates self-ignoring.
func (s *Synchronizer) Apply(u Update) {
	s.mu.Lock()

	if s.view != nil && s.view.Ride.ID != u.Ride.ID {
		s.mu.Unlock()
		observability.SyncUpdatesIgnored.Inc()
		return
	}

	adopting := s.view == nil
	if adopting && u.Ride.Status.IsTerminal() {
		// Nothing tracked and the update is already over; ignore.
		s.mu.Unlock()
		observability.SyncUpdatesIgnored.Inc()
		return
	}

	prev := View{}
	if s.view != nil {
		prev = *s.view
	}

	if adopting {
		s.view = &View{Ride: u.Ride}
	} else {
		driver := s.view.Driver
		s.view = &View{Ride: u.Ride, Driver: driver}
	}
	if u.Source == SourceStore {
		confirmed := u.Ride
		s.confirmed = &confirmed
	}

	needsProfile := s.role == domain.RoleRider &&
		u.Ride.DriverID != "" &&
		(adopting || prev.Ride.DriverID != u.Ride.DriverID)

	changed := adopting || prev.Ride != u.Ride

	terminal := u.Ride.Status.IsTerminal()
	s.mu.Unlock()

	observability.SyncUpdatesApplied.WithLabelValues(string(u.Source)).Inc()

	if adopting && !terminal {
		s.trackRoom(domain.RideRoomID(u.Ride.ID))
	}
	if needsProfile && !terminal {
		s.fetchDriverProfile(u.Ride.DriverID)
	}
	if changed {
		s.notify()
	}
	if terminal {
		s.clearTracked()
	}
}

// handleRelayEvent converts a validated relay payload into an update.
// Payloads that carry the full record overwrite wholesale; id-and-status
// payloads merge onto the tracked ride, or trigger a store read when the
// ride is not yet tracked (assignment notification for this user).
func (s *Synchronizer) handleRelayEvent(ev relay.RideEvent) {
	if ev.Ride != nil {
		if !s.concerns(ev) {
			return
		}
		s.Apply(Update{Source: SourceRelay, Ride: *ev.Ride})
		return
	}

	s.mu.Lock()
	var tracked *domain.Ride
	if s.view != nil {
		r := s.view.Ride
		tracked = &r
	}
	s.mu.Unlock()

	if tracked != nil && tracked.ID == ev.RideID {
		merged := *tracked
		if ev.Status != "" {
			merged.Status = ev.Status
		}
		if ev.DriverID != "" {
			merged.DriverID = ev.DriverID
		}
		if ev.ActualFare > 0 {
			merged.ActualFare = ev.ActualFare
		}
		s.Apply(Update{Source: SourceRelay, Ride: merged})
		return
	}

	if tracked == nil && s.concerns(ev) {
		// Thin notification for a ride we do not hold; the record store
		// has the rest of it.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ride, err := s.store.GetByID(ctx, ev.RideID)
		if err != nil {
			log.Printf("lifecycle: fetch notified ride %s: %v", ev.RideID, err)
			return
		}
		s.Apply(Update{Source: SourceStore, Ride: *ride})
	}
}

// concerns reports whether an event is addressed to this session's user.
func (s *Synchronizer) concerns(ev relay.RideEvent) bool {
	switch s.role {
	case domain.RoleRider:
		return ev.RiderID == s.userID || (ev.Ride != nil && ev.Ride.RiderID == s.userID)
	case domain.RoleDriver:
		return ev.DriverID == s.userID || (ev.Ride != nil && ev.Ride.DriverID == s.userID)
	}
	return false
}

// ─── Intent actions ───
//
// Every intent is a two-phase apply: tentative local change, conditional
// write to the record store, then commit plus a best-effort publish so the
// other party sees the change without waiting for their own poll. A failed
// precondition rolls the view back to the last confirmed state and is a
// normal outcome, not an error path spiral.

// RequestRide creates a new ride for a rider session and starts tracking
// it. DistanceKm, EstimatedFare, and EstimatedDuration must already be
// quoted by the caller.
func (s *Synchronizer) RequestRide(ctx context.Context, ride *domain.Ride) (*domain.Ride, error) {
	if s.role != domain.RoleRider {
		return nil, ErrWrongRole
	}
	if _, ok := s.Current(); ok {
		return nil, ErrAlreadyActiveRide
	}

	now := time.Now()
	ride.ID = uuid.New().String()
	ride.RiderID = s.userID
	ride.DriverID = ""
	ride.Status = domain.RideStatusSearching
	ride.CreatedAt = now
	ride.UpdatedAt = now

	if err := s.store.Create(ctx, ride); err != nil {
		observability.IntentOutcomes.WithLabelValues("request", "error").Inc()
		return nil, err
	}

	s.Apply(Update{Source: SourceStore, Ride: *ride})

	if err := s.relay.Publish(relay.EventNewRideRequest, map[string]any{
		"ride_id":  ride.ID,
		"rider_id": ride.RiderID,
	}); err != nil {
		log.Printf("lifecycle: publish new_ride_request: %v", err)
	}

	observability.IntentOutcomes.WithLabelValues("request", "ok").Inc()
	return ride, nil
}

// CancelRide cancels the tracked ride. Allowed for riders only while the
// status is still searching, driver_assigned, or en_route.
func (s *Synchronizer) CancelRide(ctx context.Context) error {
	if s.role != domain.RoleRider {
		return ErrWrongRole
	}

	view, ok := s.Current()
	if !ok {
		return ErrNoActiveRide
	}
	if !view.Ride.Status.CancellableByRider() {
		return ErrNotCancellable
	}

	return s.transition(ctx, "cancel", view.Ride, domain.RideStatusCancelled, repository.StatusUpdate{
		ExpectedStatus: view.Ride.Status,
	})
}

// AcceptRide claims a searching ride for a driver session. The write is
// conditioned on the ride still being in searching, so of two drivers
// racing for the same ride exactly one wins; the loser gets
// repository.ErrRideUnavailable.
func (s *Synchronizer) AcceptRide(ctx context.Context, ride *domain.Ride) error {
	if s.role != domain.RoleDriver {
		return ErrWrongRole
	}
	if _, ok := s.Current(); ok {
		return ErrAlreadyActiveRide
	}

	// Tentative local state, rolled back if the claim loses.
	tentative := *ride
	tentative.DriverID = s.userID
	tentative.Status = domain.RideStatusDriverAssigned
	s.Apply(Update{Source: SourceLocal, Ride: tentative})

	err := s.store.UpdateStatus(ctx, ride.ID, domain.RideStatusDriverAssigned, repository.StatusUpdate{
		ExpectedStatus: domain.RideStatusSearching,
		DriverID:       s.userID,
	})
	if err != nil {
		s.rollback()
		if errors.Is(err, repository.ErrRideUnavailable) {
			observability.IntentOutcomes.WithLabelValues("accept", "unavailable").Inc()
		} else {
			observability.IntentOutcomes.WithLabelValues("accept", "error").Inc()
		}
		return err
	}

	s.mu.Lock()
	if s.view != nil {
		confirmed := s.view.Ride
		s.confirmed = &confirmed
	}
	s.mu.Unlock()

	// Direct event for the rider's immediate UI update, plus the
	// room-scoped assignment notice.
	if err := s.relay.PublishRide(relay.EventRideAccepted, &tentative); err != nil {
		log.Printf("lifecycle: publish ride_accepted: %v", err)
	}
	if err := s.relay.Publish(relay.EventRideAssigned, map[string]any{
		"ride_id":   tentative.ID,
		"rider_id":  tentative.RiderID,
		"driver_id": s.userID,
		"status":    string(domain.RideStatusDriverAssigned),
	}); err != nil {
		log.Printf("lifecycle: publish ride_assigned: %v", err)
	}

	observability.IntentOutcomes.WithLabelValues("accept", "ok").Inc()
	return nil
}

// AdvanceStatus walks the tracked ride one step forward along the fixed
// chain. Completion goes through CompleteRide instead, so the final step
// here is in_progress.
func (s *Synchronizer) AdvanceStatus(ctx context.Context) error {
	if s.role != domain.RoleDriver {
		return ErrWrongRole
	}

	view, ok := s.Current()
	if !ok {
		return ErrNoActiveRide
	}

	next, ok := view.Ride.Status.Next()
	if !ok || next == domain.RideStatusCompleted {
		return ErrNoForwardStep
	}

	return s.transition(ctx, "advance", view.Ride, next, repository.StatusUpdate{
		ExpectedStatus: view.Ride.Status,
	})
}

// CompleteRide finishes an in-progress ride, recording the actual fare.
// The fare currently mirrors the estimate, as the original billing did.
func (s *Synchronizer) CompleteRide(ctx context.Context) error {
	if s.role != domain.RoleDriver {
		return ErrWrongRole
	}

	view, ok := s.Current()
	if !ok {
		return ErrNoActiveRide
	}
	if view.Ride.Status != domain.RideStatusInProgress {
		return ErrNoForwardStep
	}

	fare := view.Ride.EstimatedFare
	return s.transition(ctx, "complete", view.Ride, domain.RideStatusCompleted, repository.StatusUpdate{
		ExpectedStatus: domain.RideStatusInProgress,
		ActualFare:     &fare,
	})
}

// transition runs the shared two-phase status write. Terminal statuses
// skip the tentative phase: applying them clears the tracked ride, which
// must not happen before the store confirms.
func (s *Synchronizer) transition(ctx context.Context, action string, ride domain.Ride, next domain.RideStatus, opts repository.StatusUpdate) error {
	tentative := ride
	tentative.Status = next
	if opts.ActualFare != nil {
		tentative.ActualFare = *opts.ActualFare
	}

	terminal := next.IsTerminal()
	if !terminal {
		s.Apply(Update{Source: SourceLocal, Ride: tentative})
	}

	if err := s.store.UpdateStatus(ctx, ride.ID, next, opts); err != nil {
		if !terminal {
			s.rollback()
		}
		if errors.Is(err, repository.ErrRideUnavailable) {
			observability.IntentOutcomes.WithLabelValues(action, "unavailable").Inc()
		} else {
			observability.IntentOutcomes.WithLabelValues(action, "error").Inc()
		}
		return err
	}

	if terminal {
		s.Apply(Update{Source: SourceStore, Ride: tentative})
	} else {
		s.mu.Lock()
		if s.view != nil {
			confirmed := s.view.Ride
			s.confirmed = &confirmed
		}
		s.mu.Unlock()
	}

	s.publishTransition(&tentative, next)
	observability.IntentOutcomes.WithLabelValues(action, "ok").Inc()
	return nil
}

func (s *Synchronizer) publishTransition(ride *domain.Ride, next domain.RideStatus) {
	if err := s.relay.PublishRide(relay.EventRideUpdate, ride); err != nil {
		log.Printf("lifecycle: publish ride_update: %v", err)
	}

	switch next {
	case domain.RideStatusCompleted:
		if err := s.relay.Publish(relay.EventRideCompleted, map[string]any{
			"ride_id":     ride.ID,
			"rider_id":    ride.RiderID,
			"driver_id":   ride.DriverID,
			"status":      string(next),
			"actual_fare": ride.ActualFare,
		}); err != nil {
			log.Printf("lifecycle: publish ride_completed: %v", err)
		}
	default:
		if err := s.relay.Publish(relay.EventRideStatusUpdated, map[string]any{
			"ride_id":   ride.ID,
			"rider_id":  ride.RiderID,
			"driver_id": ride.DriverID,
			"status":    string(next),
		}); err != nil {
			log.Printf("lifecycle: publish ride_status_updated: %v", err)
		}
	}
}

// rollback restores the last store-confirmed state. With no confirmed
// state (a lost accept on a never-tracked ride) the view is dropped
// entirely.
func (s *Synchronizer) rollback() {
	s.mu.Lock()
	var rideRoom string
	if s.confirmed != nil {
		driver := (*domain.Profile)(nil)
		if s.view != nil {
			driver = s.view.Driver
		}
		s.view = &View{Ride: *s.confirmed, Driver: driver}
	} else {
		if s.view != nil {
			rideRoom = s.rideRoom
			s.rideRoom = ""
		}
		s.view = nil
	}
	s.mu.Unlock()

	if rideRoom != "" {
		s.relay.LeaveRoom(rideRoom)
	}
	s.notify()
}

func (s *Synchronizer) trackRoom(room string) {
	s.mu.Lock()
	old := s.rideRoom
	if old == room {
		s.mu.Unlock()
		return
	}
	s.rideRoom = room
	s.mu.Unlock()

	if old != "" {
		s.relay.LeaveRoom(old)
	}
	s.relay.JoinRoom(room)
}

// clearTracked drops the tracked ride after a terminal status. Listeners
// were already notified with the terminal view.
func (s *Synchronizer) clearTracked() {
	s.mu.Lock()
	room := s.rideRoom
	s.rideRoom = ""
	s.view = nil
	s.confirmed = nil
	s.mu.Unlock()

	if room != "" {
		s.relay.LeaveRoom(room)
	}
}

func (s *Synchronizer) fetchDriverProfile(driverID string) {
	if s.profiles == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := s.profiles.GetByID(ctx, driverID)
	if err != nil {
		log.Printf("lifecycle: fetch driver profile %s: %v", driverID, err)
		return
	}

	s.mu.Lock()
	if s.view != nil && s.view.Ride.DriverID == driverID {
		s.view.Driver = profile
	}
	s.mu.Unlock()
}

func (s *Synchronizer) notify() {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	var v View
	has := s.view != nil
	if has {
		v = *s.view
	}
	s.mu.Unlock()

	if !has {
		return
	}
	for _, l := range listeners {
		l(v)
	}
}
