package compositor

import (
	"fmt"
	"strings"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/env"
)

const (
	// DefaultBaseURL points at the hosted Travel Compositor REST API.
	DefaultBaseURL = "https://online.travelcompositor.com/resources"

	// MaxConfigurations is the number of credential slots the deployment supports.
	MaxConfigurations = 3
)

// Credentials holds one microsite's account scope on the Travel Compositor API.
// Loaded once from the environment and immutable for the process lifetime.
type Credentials struct {
	Username    string
	Password    string
	MicrositeID string
	BaseURL     string
}

// CredentialsFromEnv loads the credential triple for the given configuration
// number (1 reads the unsuffixed variables, 2 and 3 read the _2/_3 variants).
// A configuration is only usable when all three variables are present.
func CredentialsFromEnv(configNumber int) (Credentials, error) {
	creds := Credentials{
		Username:    strings.TrimSpace(env.GetEnvSuffixed("TRAVEL_COMPOSITOR_USERNAME", configNumber, "")),
		Password:    strings.TrimSpace(env.GetEnvSuffixed("TRAVEL_COMPOSITOR_PASSWORD", configNumber, "")),
		MicrositeID: strings.TrimSpace(env.GetEnvSuffixed("TRAVEL_COMPOSITOR_MICROSITE_ID", configNumber, "")),
		BaseURL:     strings.TrimRight(env.GetEnv("TRAVEL_COMPOSITOR_BASE_URL", DefaultBaseURL), "/"),
	}

	if creds.Username == "" {
		return Credentials{}, fmt.Errorf("missing %s", suffixedName("TRAVEL_COMPOSITOR_USERNAME", configNumber))
	}
	if creds.Password == "" {
		return Credentials{}, fmt.Errorf("missing %s", suffixedName("TRAVEL_COMPOSITOR_PASSWORD", configNumber))
	}
	if creds.MicrositeID == "" {
		return Credentials{}, fmt.Errorf("missing %s", suffixedName("TRAVEL_COMPOSITOR_MICROSITE_ID", configNumber))
	}

	return creds, nil
}

// AvailableConfigurations returns the configuration numbers that carry a
// complete credential triple, in slot order.
func AvailableConfigurations() []int {
	available := make([]int, 0, MaxConfigurations)
	for n := 1; n <= MaxConfigurations; n++ {
		if _, err := CredentialsFromEnv(n); err == nil {
			available = append(available, n)
		}
	}
	return available
}

func suffixedName(key string, configNumber int) string {
	if configNumber <= 1 {
		return key
	}
	return fmt.Sprintf("%s_%d", key, configNumber)
}
