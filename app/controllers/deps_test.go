package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DennisVerbeek/TravelDesk/app/models"
	"github.com/DennisVerbeek/TravelDesk/app/repository"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/syncqueue"
)

// memKV is an in-memory stand-in for the Redis store.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", bookingstore.ErrNotFound
	}
	return v, nil
}

func (m *memKV) SetMulti(_ context.Context, entries map[string]string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type stubFetcher struct {
	microsite string
	bookings  []compositor.Booking
	err       error
}

func (f *stubFetcher) MicrositeID() string { return f.microsite }

func (f *stubFetcher) GetAllBookings(context.Context) ([]compositor.Booking, error) {
	return f.bookings, f.err
}

type fakeQueue struct {
	mu          sync.Mutex
	enqueued    []int
	failEnqueue bool
}

func (q *fakeQueue) EnqueueResync(configNumber int) (*syncqueue.Job, error) {
	if q.failEnqueue {
		return nil, errors.New("queue unavailable")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, configNumber)
	return &syncqueue.Job{
		ID:           "job-1",
		Type:         syncqueue.JobTypeMicrositeResync,
		Status:       syncqueue.JobStatusPending,
		ConfigNumber: configNumber,
	}, nil
}

func (q *fakeQueue) GetJob(context.Context, string) (*syncqueue.Job, error) {
	return nil, syncqueue.ErrJobNotFound
}

func (q *fakeQueue) Stats(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (q *fakeQueue) enqueuedConfigs() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int(nil), q.enqueued...)
}

type fakeWebhookRepo struct {
	mu      sync.Mutex
	nextID  uint
	events  []*models.WebhookEvent
	failing bool
}

func (r *fakeWebhookRepo) Create(event *models.WebhookEvent) error {
	if r.failing {
		return errors.New("db down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *fakeWebhookRepo) GetByProviderEventID(provider, providerEventID string) (*models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Provider == provider && e.ProviderEventID == providerEventID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeWebhookRepo) MarkProcessed(id uint, processedAt time.Time, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			at := processedAt
			e.ProcessedAt = &at
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeWebhookRepo) ListRecent(limit int) ([]models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WebhookEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.events[i])
	}
	return out, nil
}

type fakeFeatureRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*models.FeatureRequest
}

func newFakeFeatureRepo() *fakeFeatureRepo {
	return &fakeFeatureRepo{items: make(map[uint64]*models.FeatureRequest)}
}

func (r *fakeFeatureRepo) Create(request *models.FeatureRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	request.ID = r.nextID
	request.CreatedAt = time.Now()
	copied := *request
	r.items[request.ID] = &copied
	return nil
}

func (r *fakeFeatureRepo) GetByID(id uint64) (*models.FeatureRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *fakeFeatureRepo) List(status string, offset, limit int) ([]models.FeatureRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FeatureRequest, 0, len(r.items))
	for _, item := range r.items {
		if status == "" || item.Status == status {
			out = append(out, *item)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFeatureRepo) Update(request *models.FeatureRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[request.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *request
	r.items[request.ID] = &copied
	return nil
}

func (r *fakeFeatureRepo) Delete(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeFeatureRepo) Vote(id uint64) (*models.FeatureRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	item.Votes++
	copied := *item
	return &copied, nil
}

func (r *fakeFeatureRepo) Count(status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if status == "" || item.Status == status {
			n++
		}
	}
	return n, nil
}

// newTestDeps wires the controller package against fakes. The sync service
// runs on an in-memory store; fetchers are keyed by config number.
func newTestDeps(t *testing.T, fetchers map[int]bookingstore.BookingFetcher) (*Deps, *fakeQueue, *fakeWebhookRepo, *fakeFeatureRepo) {
	t.Helper()

	store := bookingstore.NewStore(newMemKV())
	queue := &fakeQueue{}
	webhookRepo := &fakeWebhookRepo{}
	featureRepo := newFakeFeatureRepo()

	d := &Deps{
		Multi: compositor.NewMultiClient(),
		Sync:  bookingstore.NewSyncService(store, fetchers),
		Queue: queue,
		Repos: &repository.Repositories{
			FeatureRequest: featureRepo,
			WebhookEvent:   webhookRepo,
		},
	}
	Initialize(d)
	return d, queue, webhookRepo, featureRepo
}

func parseBooking(t *testing.T, raw string) compositor.Booking {
	t.Helper()
	var b compositor.Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}
