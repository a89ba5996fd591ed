package compositor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	// pageSize is the fixed number of records requested per page.
	pageSize = 100

	// maxPagesPerRange bounds the pagination loop for one date range so a
	// misbehaving upstream (absent or wrong pagination metadata) cannot make
	// the fetch run forever.
	maxPagesPerRange = 50
)

type bookingsPage struct {
	BookedTrips []Booking `json:"bookedTrip"`
	Pagination  struct {
		FirstResult  int `json:"firstResult"`
		PageResults  int `json:"pageResults"`
		TotalResults int `json:"totalResults"`
	} `json:"pagination"`
}

// dateRange is one calendar window the booking list endpoint is scanned with.
type dateRange struct {
	From string
	To   string
}

// yearRanges returns the calendar-year windows covering the current and next
// year. The upstream endpoint scopes its results to a date range, and the two
// windows may overlap in upstream semantics, hence the dedup in GetAllBookings.
func yearRanges(now time.Time) []dateRange {
	year := now.Year()
	return []dateRange{
		{From: fmt.Sprintf("%d0101", year), To: fmt.Sprintf("%d1231", year)},
		{From: fmt.Sprintf("%d0101", year+1), To: fmt.Sprintf("%d1231", year+1)},
	}
}

// getBookingsPage fetches one page of the booking list for a date range.
func (c *Client) getBookingsPage(ctx context.Context, r dateRange, firstResult int) (*bookingsPage, error) {
	query := url.Values{}
	query.Set("microsite", c.creds.MicrositeID)
	query.Set("from", r.From)
	query.Set("to", r.To)
	query.Set("first", strconv.Itoa(firstResult))
	query.Set("limit", strconv.Itoa(pageSize))

	body, err := c.request(ctx, http.MethodGet, "/booking/getBookings", query)
	if err != nil {
		return nil, err
	}

	var page bookingsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("travel compositor booking page is not valid JSON: %w", err)
	}
	return &page, nil
}

// GetAllBookings retrieves the complete booking set of this microsite by
// paging through every calendar-year window. Records already collected are
// skipped so overlapping ranges cannot produce duplicates. A failed page
// closes its own range only; the other ranges still contribute, partial
// results beat total failure.
func (c *Client) GetAllBookings(ctx context.Context) ([]Booking, error) {
	var all []Booking
	seen := make(map[string]struct{})
	failedRanges := 0
	ranges := yearRanges(c.now())

	for _, r := range ranges {
		firstResult := 0
		hasMore := true

		for page := 0; hasMore && page < maxPagesPerRange; page++ {
			result, err := c.getBookingsPage(ctx, r, firstResult)
			if err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				log.Warnf("[Compositor] microsite %s: page fetch %s-%s offset %d failed: %v",
					c.creds.MicrositeID, r.From, r.To, firstResult, err)
				failedRanges++
				hasMore = false
				continue
			}

			for i := range result.BookedTrips {
				ref := result.BookedTrips[i].Ref()
				if ref == "" {
					continue
				}
				if _, dup := seen[ref]; dup {
					continue
				}
				seen[ref] = struct{}{}
				all = append(all, result.BookedTrips[i])
			}

			// "Short page" is the primary stop signal; the upstream
			// pagination block is only trusted as a secondary one because it
			// is sometimes absent or wrong.
			if len(result.BookedTrips) < pageSize {
				hasMore = false
				continue
			}
			firstResult += pageSize
			if total := result.Pagination.TotalResults; total > 0 && firstResult >= total {
				hasMore = false
			}
		}
	}

	if failedRanges == len(ranges) && len(all) == 0 {
		return nil, errors.New("all date ranges failed, no bookings retrieved")
	}
	return all, nil
}

// GetBooking looks up one booking by id or reference. It tries the direct
// endpoint first and falls back to scanning the full list. Exact matches are
// always preferred; substring matching only runs when the caller opted into
// fuzzy. A missing booking is (nil, nil); not found is an expected outcome,
// not an error.
func (c *Client) GetBooking(ctx context.Context, id string, fuzzy bool) (*Booking, error) {
	query := url.Values{}
	query.Set("microsite", c.creds.MicrositeID)

	body, err := c.request(ctx, http.MethodGet, "/booking/getBookings/"+url.PathEscape(id), query)
	if err == nil {
		var booking Booking
		if jsonErr := json.Unmarshal(body, &booking); jsonErr == nil && booking.Ref() != "" {
			return &booking, nil
		}
	} else {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound {
			log.Warnf("[Compositor] microsite %s: direct lookup of %s failed: %v", c.creds.MicrositeID, id, err)
		}
	}

	all, err := c.GetAllBookings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Matches(id, false) {
			return &all[i], nil
		}
	}
	if fuzzy {
		for i := range all {
			if all[i].Matches(id, true) {
				return &all[i], nil
			}
		}
	}
	return nil, nil
}
