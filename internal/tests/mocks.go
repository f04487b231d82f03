package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"hailo/internal/domain"
	"hailo/internal/relay"
	"hailo/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Its
// UpdateStatus honors the conditional-write contract, so accept races
// behave the same as against the real store.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount       int32
	GetByIDCallCount      int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	GetByIDError      error
	UpdateStatusError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil
	}
	copy := *ride
	return &copy
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetActiveForRider(ctx context.Context, riderID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *domain.Ride
	for _, r := range m.rides {
		if r.RiderID != riderID || r.Status.IsTerminal() {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *newest
	return &copy, nil
}

func (m *MockRideRepository) GetActiveForDriver(ctx context.Context, driverID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.DriverID == driverID && !r.Status.IsTerminal() {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) ListSearching(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.Status == domain.RideStatusSearching {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus, opts repository.StatusUpdate) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if opts.ExpectedStatus != "" && ride.Status != opts.ExpectedStatus {
		return repository.ErrRideUnavailable
	}
	ride.Status = status
	if opts.DriverID != "" {
		ride.DriverID = opts.DriverID
	}
	if opts.ActualFare != nil {
		ride.ActualFare = *opts.ActualFare
	}
	ride.UpdatedAt = time.Now()
	return nil
}

func (m *MockRideRepository) EarningsForDriver(ctx context.Context, driverID string, since time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total float64
	for _, r := range m.rides {
		if r.DriverID != driverID || r.Status != domain.RideStatusCompleted {
			continue
		}
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		fare := r.ActualFare
		if fare == 0 {
			fare = r.EstimatedFare
		}
		total += fare
	}
	return total, nil
}

// ──────────────────────────────────────────────
// MOCK PROFILE REPOSITORY
// ──────────────────────────────────────────────

// MockProfileRepository is a mock implementation of ProfileRepository.
type MockProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	ratings  []*domain.Rating

	// Counters for verification
	GetByIDCallCount    int32
	SaveRatingCallCount int32

	// Error injection
	GetByIDError    error
	SaveRatingError error
}

// NewMockProfileRepository creates a new mock profile repository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		profiles: make(map[string]*domain.Profile),
	}
}

// AddProfile adds a profile to the mock repository.
func (m *MockProfileRepository) AddProfile(p *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockProfileRepository) SaveRating(ctx context.Context, rating *domain.Rating) error {
	atomic.AddInt32(&m.SaveRatingCallCount, 1)
	if m.SaveRatingError != nil {
		return m.SaveRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = append(m.ratings, rating)
	return nil
}

// Ratings returns saved ratings for test assertions.
func (m *MockProfileRepository) Ratings() []*domain.Rating {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Rating(nil), m.ratings...)
}

// ──────────────────────────────────────────────
// MOCK RELAY
// ──────────────────────────────────────────────

// publishedEvent is one event recorded by the mock relay.
type publishedEvent struct {
	Event   string
	Payload any
}

// MockRelay is an in-process implementation of the relay surface. Events
// published through it are delivered synchronously to local subscribers,
// and everything is recorded for assertions.
type MockRelay struct {
	mu        sync.Mutex
	handlers  map[string]map[int]relay.Handler
	nextID    int
	rooms     map[string]int
	hooks     map[int]func()
	published []publishedEvent

	// Error injection
	PublishError error
}

// NewMockRelay creates a new mock relay.
func NewMockRelay() *MockRelay {
	return &MockRelay{
		handlers: make(map[string]map[int]relay.Handler),
		rooms:    make(map[string]int),
		hooks:    make(map[int]func()),
	}
}

func (m *MockRelay) JoinRoom(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room]++
}

func (m *MockRelay) LeaveRoom(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.rooms[room]; ok {
		if n <= 1 {
			delete(m.rooms, room)
		} else {
			m.rooms[room] = n - 1
		}
	}
}

func (m *MockRelay) Subscribe(event string, h relay.Handler) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]relay.Handler)
	}
	id := m.nextID
	m.nextID++
	m.handlers[event][id] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[event], id)
	}
}

func (m *MockRelay) Publish(event string, payload any) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	m.published = append(m.published, publishedEvent{Event: event, Payload: payload})
	m.mu.Unlock()
	return nil
}

func (m *MockRelay) PublishRide(event string, ride *domain.Ride) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	copy := *ride
	m.mu.Lock()
	m.published = append(m.published, publishedEvent{Event: event, Payload: &copy})
	m.mu.Unlock()
	return nil
}

func (m *MockRelay) OnReconnect(fn func()) (unregister func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.hooks[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.hooks, id)
	}
}

// Deliver pushes an event to local subscribers, as if it arrived over the
// wire.
func (m *MockRelay) Deliver(event string, ev relay.RideEvent) {
	m.mu.Lock()
	hs := make([]relay.Handler, 0, len(m.handlers[event]))
	for _, h := range m.handlers[event] {
		hs = append(hs, h)
	}
	m.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

// FireReconnect runs registered reconnect hooks, as after a dropped socket.
func (m *MockRelay) FireReconnect() {
	m.mu.Lock()
	hooks := make([]func(), 0, len(m.hooks))
	for _, fn := range m.hooks {
		hooks = append(hooks, fn)
	}
	m.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// HookCount returns how many reconnect hooks remain registered.
func (m *MockRelay) HookCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

// RoomCount returns the membership count for a room.
func (m *MockRelay) RoomCount(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[room]
}

// PublishedEvents returns the names of all published events in order.
func (m *MockRelay) PublishedEvents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	for i, e := range m.published {
		out[i] = e.Event
	}
	return out
}

// CountPublished returns how many times an event name was published.
func (m *MockRelay) CountPublished(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.published {
		if e.Event == event {
			n++
		}
	}
	return n
}
