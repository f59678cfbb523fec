// Package config loads the filterable server configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the YAML
// file, FILTERABLE_* environment variables and explicitly set command-line
// flags. Dashboards are declared in the file only.
package config

// Defaults.
const (
	DefaultAddr      = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	EnvPrefix        = "FILTERABLE_"
)

// Config holds all configuration options.
type Config struct {
	Addr string `koanf:"addr"`
	// Database is the SQLite DSN. Empty serves seed rows from memory.
	Database      string            `koanf:"database"`
	TablePrefix   string            `koanf:"table_prefix"`
	LogLevel      string            `koanf:"log_level"`
	LogFormat     string            `koanf:"log_format"` // json | console
	SessionSecret string            `koanf:"session_secret"`
	Dashboards    []DashboardConfig `koanf:"dashboards"`
}

// DashboardConfig declares one listed resource and its table.
type DashboardConfig struct {
	Resource string                 `koanf:"resource"`
	Title    string                 `koanf:"title"`
	Table    string                 `koanf:"table"` // defaults to Resource
	PageSize int                    `koanf:"page_size"`
	Columns  []string               `koanf:"columns"`
	Fields   map[string]FieldConfig `koanf:"fields"`
	Filters  []FilterConfig         `koanf:"filters"`
	Seeds    []map[string]any       `koanf:"seeds"`
}

// FieldConfig declares one column.
type FieldConfig struct {
	Type     string   `koanf:"type"`
	Required bool     `koanf:"required"`
	Unique   bool     `koanf:"unique"`
	Primary  bool     `koanf:"primary"`
	Index    bool     `koanf:"index"`
	Values   []string `koanf:"values"`
	Default  any      `koanf:"default"`
}

// FilterConfig declares one filterable attribute.
type FilterConfig struct {
	Name       string `koanf:"name"`
	Kind       string `koanf:"kind"`
	ForeignKey string `koanf:"foreign_key"`
}
