package config

// Defaults applied before the config file, environment and flags
const (
	// EnvPrefix prefixes every environment variable, e.g. HEIGHTVAL_RASTER
	EnvPrefix = "HEIGHTVAL"

	DefaultIDField      = "id"
	DefaultHeightField  = "height"
	DefaultBoundary     = "exclusive"
	DefaultOutputPolicy = "omit"
	DefaultLogLevel     = "info"
	DefaultLogFile      = "heightval.log"
)
