package bookingstore

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
)

// BookingFetcher is the slice of the compositor client the sync layer needs.
type BookingFetcher interface {
	MicrositeID() string
	GetAllBookings(ctx context.Context) ([]compositor.Booking, error)
}

// SnapshotBackup receives the freshly synced booking set. Optional.
type SnapshotBackup interface {
	BackupSnapshot(ctx context.Context, micrositeID string, snapshot []byte) error
}

// SyncService keeps the cached booking sets fresh. The in-flight map is a
// cooperative guard within one process: a second request for a tenant whose
// sync is already running polls until it finishes instead of starting a
// duplicate sync. It does not coordinate across process instances.
type SyncService struct {
	store    *Store
	fetchers map[int]BookingFetcher
	backup   SnapshotBackup

	mu       sync.Mutex
	inFlight map[int]bool

	pollInterval time.Duration
}

func NewSyncService(store *Store, fetchers map[int]BookingFetcher) *SyncService {
	return &SyncService{
		store:        store,
		fetchers:     fetchers,
		inFlight:     make(map[int]bool),
		pollInterval: time.Second,
	}
}

// WithSnapshotBackup attaches an optional post-sync snapshot target.
func (s *SyncService) WithSnapshotBackup(backup SnapshotBackup) *SyncService {
	s.backup = backup
	return s
}

// Store exposes the underlying cache store for read paths.
func (s *SyncService) Store() *Store {
	return s.store
}

// Configurations returns the config numbers this service can sync, in order.
func (s *SyncService) Configurations() []int {
	numbers := make([]int, 0, len(s.fetchers))
	for n := range s.fetchers {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Fetcher returns the fetcher registered for a config number.
func (s *SyncService) Fetcher(configNumber int) (BookingFetcher, bool) {
	f, ok := s.fetchers[configNumber]
	return f, ok
}

func (s *SyncService) syncInFlight(configNumber int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[configNumber]
}

// beginSync marks the configuration as syncing. Returns false when another
// sync already holds it.
func (s *SyncService) beginSync(configNumber int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[configNumber] {
		return false
	}
	s.inFlight[configNumber] = true
	return true
}

func (s *SyncService) endSync(configNumber int) {
	s.mu.Lock()
	delete(s.inFlight, configNumber)
	s.mu.Unlock()
}

// waitForSync polls until the in-flight sync for this configuration finishes
// or the context ends.
func (s *SyncService) waitForSync(ctx context.Context, configNumber int) error {
	for s.syncInFlight(configNumber) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return nil
}

// EnsureBookingsAvailable returns the booking set for a configuration,
// serving from cache while it is valid and syncing otherwise. Concurrent
// callers for the same tenant ride along on the running sync.
func (s *SyncService) EnsureBookingsAvailable(ctx context.Context, configNumber int) ([]compositor.Booking, error) {
	if s.syncInFlight(configNumber) {
		if err := s.waitForSync(ctx, configNumber); err != nil {
			return nil, err
		}
	}

	if s.store.IsCacheValid(ctx, configNumber) {
		if bookings := s.store.GetAllBookings(ctx, configNumber); bookings != nil {
			return bookings, nil
		}
	}

	return s.SyncMicrosite(ctx, configNumber)
}

// SyncMicrosite runs a full bulk fetch for one configuration and stores the
// result. When another sync for the same tenant is already running it waits
// for that one and serves its outcome instead of duplicating the work.
func (s *SyncService) SyncMicrosite(ctx context.Context, configNumber int) ([]compositor.Booking, error) {
	fetcher, ok := s.fetchers[configNumber]
	if !ok {
		return nil, &UnknownConfigError{ConfigNumber: configNumber}
	}

	if !s.beginSync(configNumber) {
		if err := s.waitForSync(ctx, configNumber); err != nil {
			return nil, err
		}
		return s.store.GetAllBookings(ctx, configNumber), nil
	}
	defer s.endSync(configNumber)

	started := time.Now()
	bookings, err := fetcher.GetAllBookings(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.StoreAllBookings(ctx, configNumber, bookings); err != nil {
		return nil, err
	}
	log.Infof("[BookingSync] config %d (%s): synced %d bookings in %s",
		configNumber, fetcher.MicrositeID(), len(bookings), time.Since(started).Round(time.Millisecond))

	s.backupSnapshot(ctx, fetcher.MicrositeID(), bookings)
	return bookings, nil
}

func (s *SyncService) backupSnapshot(ctx context.Context, micrositeID string, bookings []compositor.Booking) {
	if s.backup == nil {
		return
	}
	snapshot, err := json.Marshal(bookings)
	if err != nil {
		log.Warnf("[BookingSync] microsite %s: snapshot marshal failed: %v", micrositeID, err)
		return
	}
	if err := s.backup.BackupSnapshot(ctx, micrositeID, snapshot); err != nil {
		log.Warnf("[BookingSync] microsite %s: snapshot backup failed: %v", micrositeID, err)
	}
}

// InvalidateAndResync drops the cache for a configuration and starts a
// background resync. The call returns immediately; a webhook response must
// not wait on a slow upstream. Failures in the background sync are logged.
func (s *SyncService) InvalidateAndResync(ctx context.Context, configNumber int) error {
	if err := s.store.InvalidateCache(ctx, configNumber); err != nil {
		return err
	}

	go func() {
		resyncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.SyncMicrosite(resyncCtx, configNumber); err != nil {
			log.Errorf("[BookingSync] config %d: background resync failed: %v", configNumber, err)
		}
	}()
	return nil
}

// UnknownConfigError marks a sync request for a configuration that has no
// credentials loaded.
type UnknownConfigError struct {
	ConfigNumber int
}

func (e *UnknownConfigError) Error() string {
	return "no travel compositor configuration loaded for slot " + strconv.Itoa(e.ConfigNumber)
}
