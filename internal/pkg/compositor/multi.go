package compositor

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// MultiClient presents one logical "find or fetch across all my microsites"
// interface over the per-tenant clients. Clients are scanned in configuration
// order; with at most three tenants the sequential scan is an accepted
// trade-off, worst-case latency grows with the tenant count.
type MultiClient struct {
	clients []*Client
}

// NewMultiClient wraps an explicit client list. The caller's composition root
// owns the instance; nothing here is process-global.
func NewMultiClient(clients ...*Client) *MultiClient {
	return &MultiClient{clients: clients}
}

// NewMultiClientFromEnv builds a client per complete credential triple found
// in the environment, in slot order.
func NewMultiClientFromEnv() (*MultiClient, error) {
	var clients []*Client
	for _, n := range AvailableConfigurations() {
		client, err := NewClientFromEnv(n)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return NewMultiClient(clients...), nil
}

// Clients returns the wrapped per-tenant clients in configuration order.
func (m *MultiClient) Clients() []*Client {
	return m.clients
}

// SearchBookingAcrossAllMicrosites scans the tenants in order and returns the
// first hit with the microsite it was found in. A tenant that errors is
// logged and skipped. (nil, "") means no tenant had the booking.
func (m *MultiClient) SearchBookingAcrossAllMicrosites(ctx context.Context, id string, fuzzy bool) (*Booking, string, error) {
	for _, client := range m.clients {
		booking, err := client.GetBooking(ctx, id, fuzzy)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			log.Warnf("[Compositor] microsite %s: search for %s failed: %v", client.MicrositeID(), id, err)
			continue
		}
		if booking != nil {
			return booking, client.MicrositeID(), nil
		}
	}
	return nil, "", nil
}

// GetAllBookingsFromAllMicrosites collects every tenant's full booking list,
// keyed by microsite id. A failing tenant is excluded from the result instead
// of aborting the whole call.
func (m *MultiClient) GetAllBookingsFromAllMicrosites(ctx context.Context) (map[string][]Booking, error) {
	results := make(map[string][]Booking, len(m.clients))
	for _, client := range m.clients {
		bookings, err := client.GetAllBookings(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			log.Warnf("[Compositor] microsite %s: bulk fetch failed: %v", client.MicrositeID(), err)
			continue
		}
		results[client.MicrositeID()] = bookings
	}
	return results, nil
}

// AgentRegistry maps agent ids to their multi-tenant client. It replaces the
// process-wide singleton manager the UI used to lean on: the composition root
// constructs one registry and hands it to whoever needs it.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]*MultiClient
}

func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]*MultiClient)}
}

// Register stores the multi-client for an agent, replacing any previous one.
func (r *AgentRegistry) Register(agentID string, mc *MultiClient) {
	r.mu.Lock()
	r.agents[agentID] = mc
	r.mu.Unlock()
}

// Get returns the multi-client for an agent, or nil when none is registered.
func (r *AgentRegistry) Get(agentID string) *MultiClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[agentID]
}
