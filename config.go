package authz

// Config holds configuration for the authorization engine.
type Config struct {
	// BatchCheckSize is the maximum number of checks sent in one
	// BatchCheck round trip; longer inputs are chunked. Defaults to 50,
	// the OpenFGA server-side limit.
	BatchCheckSize int `json:"batch_check_size,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchCheckSize: 50,
	}
}
