package bookingstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
)

const (
	bookingsKeyPrefix = "bookings:"
	indexKeyPrefix    = "booking_index:"
	lastSyncKeyPrefix = "last_sync:"

	// CacheTTL is how long a synced booking set stays valid.
	CacheTTL = 24 * time.Hour
)

// IndexEntry is the reduced projection of a booking kept for fast lookups.
// Checking the index is cheap; the full record set is only loaded on a hit.
type IndexEntry struct {
	ID              string `json:"id"`
	Reference       string `json:"reference"`
	CustomReference string `json:"customReference,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Store persists synced booking sets per microsite configuration in the KV
// store: full list, index, and last-sync timestamp, each under the same TTL.
type Store struct {
	kv  KV
	now func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

func bookingsKey(configNumber int) string {
	return bookingsKeyPrefix + strconv.Itoa(configNumber)
}

func indexKey(configNumber int) string {
	return indexKeyPrefix + strconv.Itoa(configNumber)
}

func lastSyncKey(configNumber int) string {
	return lastSyncKeyPrefix + strconv.Itoa(configNumber)
}

func buildIndex(bookings []compositor.Booking) []IndexEntry {
	index := make([]IndexEntry, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		index = append(index, IndexEntry{
			ID:              b.Ref(),
			Reference:       b.BookingReference.String(),
			CustomReference: b.CustomReference.String(),
			Status:          b.Status,
		})
	}
	return index
}

// StoreAllBookings writes the full booking list, the derived index, and the
// sync timestamp in a single pipeline. Index and list always come from the
// same sync; an index referencing an id absent from the list would be a
// correctness bug.
func (s *Store) StoreAllBookings(ctx context.Context, configNumber int, bookings []compositor.Booking) error {
	fullJSON, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("marshal bookings for config %d: %w", configNumber, err)
	}
	indexJSON, err := json.Marshal(buildIndex(bookings))
	if err != nil {
		return fmt.Errorf("marshal booking index for config %d: %w", configNumber, err)
	}

	entries := map[string]string{
		bookingsKey(configNumber): string(fullJSON),
		indexKey(configNumber):    string(indexJSON),
		lastSyncKey(configNumber): strconv.FormatInt(s.now().Unix(), 10),
	}
	if err := s.kv.SetMulti(ctx, entries, CacheTTL); err != nil {
		return fmt.Errorf("store bookings for config %d: %w", configNumber, err)
	}
	return nil
}

// GetAllBookings returns the cached list, or nil on a miss. Read errors are
// logged and treated as a miss; the caller degrades to a live fetch.
func (s *Store) GetAllBookings(ctx context.Context, configNumber int) []compositor.Booking {
	raw, err := s.kv.Get(ctx, bookingsKey(configNumber))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("[BookingStore] config %d: reading bookings failed: %v", configNumber, err)
		}
		return nil
	}

	var bookings []compositor.Booking
	if err := json.Unmarshal([]byte(raw), &bookings); err != nil {
		log.Warnf("[BookingStore] config %d: cached bookings are corrupt: %v", configNumber, err)
		return nil
	}
	return bookings
}

// GetIndex returns the cached index, or nil on a miss.
func (s *Store) GetIndex(ctx context.Context, configNumber int) []IndexEntry {
	raw, err := s.kv.Get(ctx, indexKey(configNumber))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("[BookingStore] config %d: reading index failed: %v", configNumber, err)
		}
		return nil
	}

	var index []IndexEntry
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		log.Warnf("[BookingStore] config %d: cached index is corrupt: %v", configNumber, err)
		return nil
	}
	return index
}

// FindBooking answers a point lookup from the cache: check the index first,
// load the full record set only when the index has a hit. Any miss or read
// error comes back as nil so the caller can fall through to a live fetch.
func (s *Store) FindBooking(ctx context.Context, configNumber int, query string) *compositor.Booking {
	index := s.GetIndex(ctx, configNumber)
	if index == nil {
		return nil
	}

	hit := false
	for i := range index {
		if matchesIndexEntry(&index[i], query) {
			hit = true
			break
		}
	}
	if !hit {
		return nil
	}

	bookings := s.GetAllBookings(ctx, configNumber)
	for i := range bookings {
		if bookings[i].Matches(query, false) {
			return &bookings[i]
		}
	}
	return nil
}

func matchesIndexEntry(e *IndexEntry, query string) bool {
	q := strings.TrimSpace(query)
	for _, field := range []string{e.ID, e.Reference, e.CustomReference} {
		if field != "" && strings.EqualFold(strings.TrimSpace(field), q) {
			return true
		}
	}
	return false
}

// LastSync returns the time of the last completed sync for a configuration.
func (s *Store) LastSync(ctx context.Context, configNumber int) (time.Time, bool) {
	raw, err := s.kv.Get(ctx, lastSyncKey(configNumber))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("[BookingStore] config %d: reading last sync failed: %v", configNumber, err)
		}
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// IsCacheValid reports whether the cached set is younger than the TTL.
func (s *Store) IsCacheValid(ctx context.Context, configNumber int) bool {
	lastSync, ok := s.LastSync(ctx, configNumber)
	if !ok {
		return false
	}
	return s.now().Sub(lastSync) < CacheTTL
}

// InvalidateCache drops all three keys unconditionally. The next request for
// this configuration sees a cache miss and triggers a resync.
func (s *Store) InvalidateCache(ctx context.Context, configNumber int) error {
	return s.kv.Del(ctx,
		bookingsKey(configNumber),
		indexKey(configNumber),
		lastSyncKey(configNumber),
	)
}
