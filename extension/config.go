package extension

// Driver names for the grove-backed tuple stores.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OpenFGAConfig holds connection settings for an external OpenFGA server.
// When APIURL is set, the extension builds an OpenFGA client instead of a
// grove-backed store.
type OpenFGAConfig struct {
	APIURL               string `json:"api_url" mapstructure:"api_url" yaml:"api_url"`
	StoreID              string `json:"store_id" mapstructure:"store_id" yaml:"store_id"`
	AuthorizationModelID string `json:"authorization_model_id" mapstructure:"authorization_model_id" yaml:"authorization_model_id"`
	APIToken             string `json:"api_token" mapstructure:"api_token" yaml:"api_token"`
}

// Config holds the extension configuration.
// Fields can be set programmatically via ExtOption functions or loaded from
// YAML configuration files (under "extensions.authz" or "authz" keys).
type Config struct {
	// Driver selects the grove store built from a DI-resolved grove.DB
	// (default: "postgres"). Ignored when OpenFGA or an explicit client
	// is configured.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// OpenFGA configures an external OpenFGA server as the tuple store.
	OpenFGA OpenFGAConfig `json:"openfga" mapstructure:"openfga" yaml:"openfga"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver: DriverPostgres,
	}
}
