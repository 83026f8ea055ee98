package main

import (
	"fmt"
	"strings"

	"heightval/internal/config"
	"heightval/internal/logging"
	"heightval/internal/model"
	"heightval/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries the state shared by all sub-commands of one invocation
type app struct {
	v       *viper.Viper
	cfg     config.Config
	runID   string
	loader  *gdalLoader
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:           "heightval",
		Short:         "Validate DSM building heights against reference footprints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// flags of the running command, inherited ones included
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			cfg, err := config.Load(a.v, configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg

			_, cleanupLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			a.cleanup = append(a.cleanup, cleanupLog)

			a.runID = util.ShortUUID()
			a.loader = newGDALLoader()
			a.cleanup = append(a.cleanup, a.loader.Close)

			zap.L().Info("Starting heightval",
				zap.String("command", cmd.CommandPath()),
				zap.String("run", a.runID),
				zap.String("config", a.v.ConfigFileUsed()))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./heightval.yaml when present)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("log-file", config.DefaultLogFile, "append logs to this file, empty disables it")
	pf.String("raster-crs", "", "CRS assumed for rasters without one, e.g. EPSG:7415")

	root.AddCommand(
		newCompareCmd(a),
		newRasterizeCmd(a),
		newReprojectCmd(a),
		newAlignCmd(a),
		newDiffCmd(a),
		newCanopyCmd(a),
	)
	return root, a
}

// required reports the first empty setting among keys
func (a *app) required(keys ...string) error {
	for _, k := range keys {
		if a.v.GetString(k) == "" {
			return fmt.Errorf("%w: missing required setting %q (flag --%s or %s_%s)", model.ErrValidation, k, k, config.EnvPrefix, envName(k))
		}
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
