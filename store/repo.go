package store

// Keys used by the session layer. They mirror the browser local storage layout
// of the web client so a session can be handed over between the two.
const (
	KeyAccessToken  = "sp_access"
	KeyRefreshToken = "sp_refresh"
	KeyUser         = "sp_user"

	// KeyTourSeen belongs to the onboarding tour, not to the session. The session
	// layer must never read or clear it.
	KeyTourSeen = "hasSeenGlobalTour"
)

// SessionKeys lists exactly the keys owned by the session layer.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Repo is a persisted string key-value store.
type Repo interface {
	// Get returns the value stored under key and whether it exists
	Get(key string) (string, bool, error)

	// Upsert writes all entries as a single atomic update
	Upsert(entries map[string]string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(keys ...string) error
}
