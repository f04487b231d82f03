package views

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/relay"
	"hailo/internal/repository"
)

// Earnings summarizes a driver's completed-ride income.
type Earnings struct {
	Today float64
	Week  float64
	Total float64
}

// DriverView drives the driver side of a session: the online toggle, the
// system-wide list of searching rides, accept/decline, and the forward
// status walk on the current ride. Proximity filtering is deliberately
// absent; every searching ride is listed.
type DriverView struct {
	userID string
	sync   *lifecycle.Synchronizer
	store  repository.RideRepository
	relay  lifecycle.Relay

	mu        sync.Mutex
	online    bool
	available []*domain.Ride
	unsubs    []func()
}

// NewDriverView creates a driver view over a driver-role synchronizer.
func NewDriverView(userID string, lsync *lifecycle.Synchronizer, store repository.RideRepository, rl lifecycle.Relay) *DriverView {
	return &DriverView{userID: userID, sync: lsync, store: store, relay: rl}
}

// Start begins the session and wires the available-list maintenance. New
// requests arrive over the relay; anything that leaves searching is
// removed no matter which channel reported it.
func (v *DriverView) Start(ctx context.Context) error {
	if err := v.sync.Start(ctx); err != nil {
		return err
	}

	unsubs := []func(){
		v.relay.Subscribe(relay.EventNewRideRequest, v.handleNewRequest),
		v.relay.Subscribe(relay.EventRideUpdate, v.handleListUpdate),
		v.relay.Subscribe(relay.EventRideAssigned, v.handleListUpdate),
		v.relay.Subscribe(relay.EventRideAccepted, v.handleListUpdate),
	}

	v.mu.Lock()
	v.unsubs = append(v.unsubs, unsubs...)
	v.mu.Unlock()
	return nil
}

// Stop tears the session down.
func (v *DriverView) Stop() {
	v.mu.Lock()
	unsubs := v.unsubs
	v.unsubs = nil
	v.available = nil
	v.online = false
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	v.sync.Stop()
}

// GoOnline starts request intake: announces presence, then loads the
// current set of searching rides from the store.
func (v *DriverView) GoOnline(ctx context.Context) error {
	v.mu.Lock()
	v.online = true
	v.mu.Unlock()

	if err := v.relay.Publish(relay.EventDriverOnline, map[string]string{"driver_id": v.userID}); err != nil {
		log.Printf("driver view: publish driver_online: %v", err)
	}

	return v.RefreshAvailable(ctx)
}

// GoOffline stops request intake and clears the list.
func (v *DriverView) GoOffline() {
	v.mu.Lock()
	v.online = false
	v.available = nil
	v.mu.Unlock()

	if err := v.relay.Publish(relay.EventDriverOffline, map[string]string{"driver_id": v.userID}); err != nil {
		log.Printf("driver view: publish driver_offline: %v", err)
	}
}

// Online reports whether the driver is accepting requests.
func (v *DriverView) Online() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.online
}

// RefreshAvailable reloads the searching-ride list from the store.
func (v *DriverView) RefreshAvailable(ctx context.Context) error {
	rides, err := v.store.ListSearching(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.online {
		v.available = rides
	}
	v.mu.Unlock()
	return nil
}

// Available returns a copy of the current available-ride list.
func (v *DriverView) Available() []domain.Ride {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.Ride, len(v.available))
	for i, r := range v.available {
		out[i] = *r
	}
	return out
}

// Accept claims a listed ride. Exactly one of two racing drivers wins the
// conditional write; the loser sees repository.ErrRideUnavailable and the
// ride leaves its list either way.
func (v *DriverView) Accept(ctx context.Context, rideID string) error {
	if !v.Online() {
		return ErrOffline
	}

	v.mu.Lock()
	var ride *domain.Ride
	for _, r := range v.available {
		if r.ID == rideID {
			ride = r
			break
		}
	}
	v.mu.Unlock()
	if ride == nil {
		return ErrRideNotListed
	}

	err := v.sync.AcceptRide(ctx, ride)
	if err != nil {
		if errors.Is(err, repository.ErrRideUnavailable) {
			// Someone else got it; it is no longer available to anyone.
			v.remove(rideID)
		}
		return err
	}

	v.remove(rideID)
	return nil
}

// Decline drops a ride from the local list only; nothing is written.
func (v *DriverView) Decline(rideID string) {
	v.remove(rideID)
}

// Advance moves the current ride one step along the fixed chain.
func (v *DriverView) Advance(ctx context.Context) error {
	return v.sync.AdvanceStatus(ctx)
}

// Complete finishes the current in-progress ride.
func (v *DriverView) Complete(ctx context.Context) error {
	return v.sync.CompleteRide(ctx)
}

// Current returns the driver's active ride view, if any.
func (v *DriverView) Current() (lifecycle.View, bool) {
	return v.sync.Current()
}

// Map returns the derived map annotations for the current ride.
func (v *DriverView) Map() (lifecycle.Projection, bool) {
	view, ok := v.sync.Current()
	if !ok {
		return lifecycle.Projection{}, false
	}
	return lifecycle.Project(view), true
}

// EarningsSummary computes today / this week / all-time earnings from
// completed rides.
func (v *DriverView) EarningsSummary(ctx context.Context) (Earnings, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))

	today, err := v.store.EarningsForDriver(ctx, v.userID, dayStart)
	if err != nil {
		return Earnings{}, err
	}
	week, err := v.store.EarningsForDriver(ctx, v.userID, weekStart)
	if err != nil {
		return Earnings{}, err
	}
	total, err := v.store.EarningsForDriver(ctx, v.userID, time.Time{})
	if err != nil {
		return Earnings{}, err
	}

	return Earnings{Today: today, Week: week, Total: total}, nil
}

// handleNewRequest adds a relay-announced ride to the list. The event is
// thin (ids only), so the record comes from the store.
func (v *DriverView) handleNewRequest(ev relay.RideEvent) {
	if !v.Online() {
		return
	}

	ride := ev.Ride
	if ride == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		fetched, err := v.store.GetByID(ctx, ev.RideID)
		if err != nil {
			log.Printf("driver view: fetch announced ride %s: %v", ev.RideID, err)
			return
		}
		ride = fetched
	}
	if ride.Status != domain.RideStatusSearching {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.online {
		return
	}
	for _, r := range v.available {
		if r.ID == ride.ID {
			return
		}
	}
	v.available = append([]*domain.Ride{ride}, v.available...)
}

// handleListUpdate removes rides that are no longer searching.
func (v *DriverView) handleListUpdate(ev relay.RideEvent) {
	status := ev.Status
	if status == "" && ev.Ride != nil {
		status = ev.Ride.Status
	}
	if status == "" || status == domain.RideStatusSearching {
		return
	}
	v.remove(ev.RideID)
}

func (v *DriverView) remove(rideID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, r := range v.available {
		if r.ID == rideID {
			v.available = append(v.available[:i], v.available[i+1:]...)
			return
		}
	}
}
