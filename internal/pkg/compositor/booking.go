package compositor

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts both JSON strings and numbers. The upstream API is not
// consistent about which form it uses for id fields.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

func (s flexString) String() string {
	return string(s)
}

// Booking is one reservation record as the upstream API returns it. The API
// populates different id fields depending on the product and microsite, so all
// six candidates are captured. Raw keeps the untouched upstream JSON.
type Booking struct {
	ID               flexString `json:"id"`
	BookingID        flexString `json:"bookingId"`
	ReservationID    flexString `json:"reservationId"`
	BookingReference flexString `json:"bookingReference"`
	Reference        flexString `json:"reference"`
	TripID           flexString `json:"tripId"`
	CustomReference  flexString `json:"customReference"`
	Status           string     `json:"status"`
	StartDate        string     `json:"startDate"`
	EndDate          string     `json:"endDate"`

	Raw json.RawMessage `json:"-"`
}

func (b *Booking) UnmarshalJSON(data []byte) error {
	type alias Booking
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Booking(a)
	b.Raw = append(b.Raw[:0], data...)
	return nil
}

func (b Booking) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	type alias Booking
	return json.Marshal(alias(b))
}

// idCandidates lists the fields that can carry the booking's identity, in
// resolution priority order.
func (b *Booking) idCandidates() []string {
	return []string{
		b.ID.String(),
		b.BookingID.String(),
		b.ReservationID.String(),
		b.BookingReference.String(),
		b.Reference.String(),
		b.TripID.String(),
	}
}

// Ref resolves the booking's canonical identifier: the first non-empty id
// candidate in priority order. Empty when the record carries no id at all.
func (b *Booking) Ref() string {
	for _, candidate := range b.idCandidates() {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// Matches reports whether the booking answers to the given query. The default
// mode compares all id candidates plus the custom reference case-insensitively
// and exactly. Fuzzy mode additionally accepts substring hits; it is an
// explicit last resort because short queries can false-positive.
func (b *Booking) Matches(query string, fuzzy bool) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}

	fields := append(b.idCandidates(), b.CustomReference.String())
	for _, field := range fields {
		f := strings.ToLower(strings.TrimSpace(field))
		if f == "" {
			continue
		}
		if f == q {
			return true
		}
		if fuzzy && strings.Contains(f, q) {
			return true
		}
	}
	return false
}

// numericSuffix extracts the trailing digits of a booking reference, e.g.
// "RRP-9263" yields 9263. Returns -1 when the reference has no digits.
func numericSuffix(ref string) int {
	digits := ""
	for i := len(ref) - 1; i >= 0; i-- {
		ch := ref[i]
		if ch < '0' || ch > '9' {
			break
		}
		digits = string(ch) + digits
	}
	if digits == "" {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}
