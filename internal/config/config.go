// Package config loads run settings from a config file, HEIGHTVAL_
// environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"heightval/internal/model"

	"github.com/spf13/viper"
)

// Config holds the settings of a validation run
type Config struct {
	AOI          string `mapstructure:"aoi"`
	Raster       string `mapstructure:"raster"`
	Vector       string `mapstructure:"vector"`
	OutputTable  string `mapstructure:"output-table"`
	OutputVector string `mapstructure:"output-vector"`

	IDField     string `mapstructure:"id-field"`
	HeightField string `mapstructure:"height-field"`
	// RasterCRS is assumed when the raster file carries no CRS
	RasterCRS string `mapstructure:"raster-crs"`

	Boundary     string `mapstructure:"boundary"`
	OutputPolicy string `mapstructure:"output-policy"`
	Workers      int    `mapstructure:"workers"`

	LogLevel string `mapstructure:"log-level"`
	LogFile  string `mapstructure:"log-file"`
}

// SetDefaults registers the default of every key. Keys must be known to
// viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("aoi", "")
	v.SetDefault("raster", "")
	v.SetDefault("vector", "")
	v.SetDefault("output-table", "")
	v.SetDefault("output-vector", "")
	v.SetDefault("id-field", DefaultIDField)
	v.SetDefault("height-field", DefaultHeightField)
	v.SetDefault("raster-crs", "")
	v.SetDefault("boundary", DefaultBoundary)
	v.SetDefault("output-policy", DefaultOutputPolicy)
	v.SetDefault("workers", 0)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", DefaultLogFile)
}

// Load reads configFile when given, or a "heightval" config in the working
// directory when present, then applies environment variables
func Load(v *viper.Viper, configFile string) (c Config, err error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	// Environment variables take precedence over config file
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("heightval")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

// Validate checks the settings required by the comparison pipeline
func (c Config) Validate() error {
	var missing []string
	for _, kv := range [][2]string{{"aoi", c.AOI}, {"raster", c.Raster}, {"vector", c.Vector}} {
		if strings.TrimSpace(kv[1]) == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required settings: %s", model.ErrValidation, strings.Join(missing, ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", model.ErrValidation, c.Workers)
	}
	if _, err := c.BoundaryPolicy(); err != nil {
		return err
	}
	if _, err := c.OutputPolicyValue(); err != nil {
		return err
	}
	return nil
}

// BoundaryPolicy parses the boundary setting
func (c Config) BoundaryPolicy() (model.BoundaryPolicy, error) {
	return model.ParseBoundaryPolicy(c.Boundary)
}

// OutputPolicyValue parses the output-policy setting
func (c Config) OutputPolicyValue() (model.OutputPolicy, error) {
	return model.ParseOutputPolicy(c.OutputPolicy)
}

// RasterCRSFallback parses raster-crs, zero when unset
func (c Config) RasterCRSFallback() model.CRS {
	return model.ParseCRS(c.RasterCRS)
}
