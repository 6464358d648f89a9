package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrInvalid marks every configuration deficiency reported by Validate.
var ErrInvalid = eris.New("config: invalid")

// Config holds the full application configuration.
type Config struct {
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Characterize CharacterizeConfig `yaml:"characterize" mapstructure:"characterize"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the characterization tool and the reference tables.
type PathsConfig struct {
	FITS string `yaml:"fits" mapstructure:"fits"` // tool launcher
	ITA  string `yaml:"ita" mapstructure:"ita"`   // technical appraisal formats
	Risk string `yaml:"risk" mapstructure:"risk"` // other risk formats
	NARA string `yaml:"nara" mapstructure:"nara"` // NARA preservation action plans
}

// CharacterizeConfig configures update-mode characterization.
type CharacterizeConfig struct {
	Workers  int `yaml:"workers" mapstructure:"workers"`
	Attempts int `yaml:"attempts" mapstructure:"attempts"` // per-file tries, 1 disables retry
}

// OutputConfig configures the CSV artifacts.
type OutputConfig struct {
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

// LedgerConfig configures the optional run ledger.
type LedgerConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// pathEnv maps each reference path key to the bare environment variable
// archivists already set for it.
var pathEnv = map[string]string{
	"paths.fits": "FITS",
	"paths.ita":  "ITA",
	"paths.risk": "RISK",
	"paths.nara": "NARA",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FORMAT_ANALYSIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range pathEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("characterize.workers", 1)
	v.SetDefault("characterize.attempts", 1)
	v.SetDefault("output.encoding", "utf-8")
	v.SetDefault("ledger.path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports every deficiency at once. Each one wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs error
	for _, p := range []struct{ env, path string }{
		{"FITS", c.Paths.FITS},
		{"ITA", c.Paths.ITA},
		{"RISK", c.Paths.Risk},
		{"NARA", c.Paths.NARA},
	} {
		if p.path == "" {
			errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "%s is not set", p.env))
			continue
		}
		info, err := os.Stat(p.path)
		switch {
		case err != nil:
			errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "%s path %s does not exist", p.env, p.path))
		case info.IsDir():
			errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "%s path %s is a directory", p.env, p.path))
		}
	}
	if c.Characterize.Workers < 1 {
		errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "characterize.workers must be at least 1, got %d", c.Characterize.Workers))
	}
	if c.Characterize.Attempts < 1 {
		errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "characterize.attempts must be at least 1, got %d", c.Characterize.Attempts))
	}
	if _, err := htmlindex.Get(c.Output.Encoding); err != nil {
		errs = multierr.Append(errs, eris.Wrapf(ErrInvalid, "output.encoding %q is not a known encoding", c.Output.Encoding))
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
