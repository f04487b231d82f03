package lifecycle

import "hailo/internal/domain"

// View is the reconciled local copy of the tracked ride. It is owned
// exclusively by its Synchronizer; callers always receive a copy and must
// never mutate shared state through it.
type View struct {
	Ride domain.Ride

	// Driver is the assigned driver's profile, fetched once per
	// assignment and not kept consistent afterwards. Nil until assignment
	// (and for driver-role sessions).
	Driver *domain.Profile
}

// Source identifies which channel an update arrived on.
type Source string

const (
	// SourceRelay marks updates pushed over the event relay.
	SourceRelay Source = "relay"
	// SourceStore marks updates read from the record store.
	SourceStore Source = "store"
	// SourceLocal marks optimistic updates from this session's own
	// intent actions.
	SourceLocal Source = "local"
)

// Update is one incoming observation of a ride: a full record snapshot and
// the channel it arrived on. Updates are applied wholesale, last write
// wins by arrival order.
type Update struct {
	Source Source
	Ride   domain.Ride
}
