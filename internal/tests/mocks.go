package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/repository"
	"foodbridge/internal/service"
)

// ──────────────────────────────────────────────
// MOCK ACTOR REPOSITORY
// ──────────────────────────────────────────────

// MockActorRepository is a mock implementation of ActorRepository.
type MockActorRepository struct {
	mu     sync.RWMutex
	actors map[string]*domain.Actor

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError  error
	GetByIDError error
	UpdateError  error
}

// NewMockActorRepository creates a new mock actor repository.
func NewMockActorRepository() *MockActorRepository {
	return &MockActorRepository{
		actors: make(map[string]*domain.Actor),
	}
}

// AddActor adds an actor to the mock repository.
func (m *MockActorRepository) AddActor(actor *domain.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.ID] = actor
}

func (m *MockActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.ID] = actor
	return nil
}

func (m *MockActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	actor, ok := m.actors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *actor
	return &copy, nil
}

func (m *MockActorRepository) GetByRole(ctx context.Context, role domain.ActorRole) ([]*domain.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Actor, 0)
	for _, a := range m.actors {
		if a.Role == role {
			copy := *a
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockActorRepository) GetAll(ctx context.Context) ([]*domain.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		copy := *a
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockActorRepository) Update(ctx context.Context, actor *domain.Actor) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actors[actor.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *actor
	m.actors[actor.ID] = &copy
	return nil
}

// GetActor returns the stored actor for test assertions.
func (m *MockActorRepository) GetActor(id string) *domain.Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actors[id]
}

// ──────────────────────────────────────────────
// MOCK DONATION REPOSITORY
// ──────────────────────────────────────────────

// MockDonationRepository is a mock implementation of DonationRepository.
type MockDonationRepository struct {
	mu        sync.RWMutex
	donations map[string]*domain.Donation

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockDonationRepository creates a new mock donation repository.
func NewMockDonationRepository() *MockDonationRepository {
	return &MockDonationRepository{
		donations: make(map[string]*domain.Donation),
	}
}

// AddDonation adds a donation to the mock repository.
func (m *MockDonationRepository) AddDonation(donation *domain.Donation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donations[donation.ID] = donation
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *donation
	m.donations[donation.ID] = &copy
	return nil
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	donation, ok := m.donations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *donation
	return &copy, nil
}

func (m *MockDonationRepository) GetAll(ctx context.Context) ([]*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Donation, 0, len(m.donations))
	for _, d := range m.donations {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDonationRepository) ListActive(ctx context.Context) ([]*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Donation, 0)
	for _, d := range m.donations {
		if !d.Status.Terminal() {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockDonationRepository) ListByStatus(ctx context.Context, status domain.DonationStatus) ([]*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Donation, 0)
	for _, d := range m.donations {
		if d.Status == status {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockDonationRepository) ListByDonor(ctx context.Context, donorID string) ([]*domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Donation, 0)
	for _, d := range m.donations {
		if d.DonorID == donorID {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockDonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.donations[donation.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *donation
	m.donations[donation.ID] = &copy
	return nil
}

// GetDonation returns the stored donation for test assertions.
func (m *MockDonationRepository) GetDonation(id string) *domain.Donation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.donations[id]
}

// CountDonations returns the number of donations.
func (m *MockDonationRepository) CountDonations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.donations)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireDonationLock(ctx context.Context, donationID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:donation:"+donationID, ttl)
}

func (m *MockLockStore) ReleaseDonationLock(ctx context.Context, donationID string) error {
	return m.release("lock:donation:" + donationID)
}

func (m *MockLockStore) AcquireActorLock(ctx context.Context, actorID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:actor:"+actorID, ttl)
}

func (m *MockLockStore) ReleaseActorLock(ctx context.Context, actorID string) error {
	return m.release("lock:actor:" + actorID)
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

// HoldDonationLock takes the lock out of band to simulate a concurrent
// transition holding it.
func (m *MockLockStore) HoldDonationLock(donationID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:donation:"+donationID] = time.Now().Add(ttl)
}

// HoldActorLock takes an actor's lock out of band to simulate a concurrent
// capacity mutation holding it.
func (m *MockLockStore) HoldActorLock(actorID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:actor:"+actorID] = time.Now().Add(ttl)
}

// IsActorLocked checks if an actor is locked (for test assertions).
func (m *MockLockStore) IsActorLocked(actorID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:actor:"+actorID]
	return exists && time.Now().Before(expiry)
}

// IsDonationLocked checks if a donation is locked (for test assertions).
func (m *MockLockStore) IsDonationLocked(donationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:donation:"+donationID]
	return exists && time.Now().Before(expiry)
}

// ClearLocks clears all locks (for test cleanup).
func (m *MockLockStore) ClearLocks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = make(map[string]time.Time)
}

// ──────────────────────────────────────────────
// MOCK ROUTING ORACLE
// ──────────────────────────────────────────────

// MockRoutingOracle is a routing oracle with scripted behavior. Road
// distance is great-circle distance times RoadFactor, so tests can make
// routed and straight-line orderings diverge.
type MockRoutingOracle struct {
	// RoadFactor scales great-circle distance; 0 means 1.0.
	RoadFactor float64

	// Error injection
	TravelError error

	// Delay simulates a slow provider.
	Delay time.Duration

	// Counters
	TravelCallCount int32
}

// NewMockRoutingOracle creates a new mock routing oracle.
func NewMockRoutingOracle() *MockRoutingOracle {
	return &MockRoutingOracle{}
}

func (m *MockRoutingOracle) Travel(ctx context.Context, from, to geo.Point, mode service.TravelMode) (service.TravelEstimate, error) {
	atomic.AddInt32(&m.TravelCallCount, 1)
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return service.TravelEstimate{}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.TravelError != nil {
		return service.TravelEstimate{}, m.TravelError
	}
	factor := m.RoadFactor
	if factor == 0 {
		factor = 1.0
	}
	distance := geo.HaversineKm(from, to) * factor
	return service.TravelEstimate{
		DistanceKm: distance,
		Duration:   time.Duration(distance / 30.0 * float64(time.Hour)),
	}, nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
