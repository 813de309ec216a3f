// Package config loads the tracker configuration from a yaml file or CLI
// flags. The struct is built once at startup, validated, and passed by value
// into constructors.
package config

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

type Config struct {
	// ListenAddr is the dashboard bind address.
	ListenAddr string `yaml:"listen_addr"`
	// Domain enables autocert TLS for the dashboard when non-empty.
	Domain string `yaml:"domain"`

	DataDir           string `yaml:"data_dir"`
	ModelDir          string `yaml:"model_dir"`
	KeepModelVersions int    `yaml:"keep_model_versions"`

	// CollectSchedule is a cron expression for the daily pipeline run.
	CollectSchedule string `yaml:"collect_schedule"`
	// TopTraders caps how many leaderboard rows each pass stores.
	TopTraders int `yaml:"top_traders"`
	// Horizons lists the prediction horizons in days.
	Horizons []int `yaml:"horizons"`
	// RetrainThreshold is the number of newly resolved labels that triggers
	// a retrain for a horizon.
	RetrainThreshold int `yaml:"retrain_threshold"`
	// FundingSymbols lists the perpetual symbols to collect funding for.
	FundingSymbols []string `yaml:"funding_symbols"`

	Training Training `yaml:"training"`

	Thresholds domain.ConfidenceThresholds `yaml:"confidence_thresholds"`

	// HyperliquidPrivateKey enables the Hyperliquid price fallback source.
	HyperliquidPrivateKey string `yaml:"hyperliquid_private_key"`
}

type Training struct {
	MinSamples   int     `yaml:"min_samples"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`
	Trees        int     `yaml:"trees"`
	MaxDepth     int     `yaml:"max_depth"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ListenAddr:        ":8080",
		DataDir:           "./wal/snapshots",
		ModelDir:          "./models",
		KeepModelVersions: 5,
		CollectSchedule:   "0 6 * * *",
		TopTraders:        50,
		Horizons:          []int{7, 30},
		RetrainThreshold:  10,
		FundingSymbols:    []string{domain.FundingSymbolBTC},
		Training: Training{
			MinSamples:   50,
			TestFraction: 0.2,
			Seed:         42,
			Trees:        100,
			MaxDepth:     10,
		},
		Thresholds: domain.DefaultConfidenceThresholds(),
	}
}

// Get builds the configuration from --config yaml when given, CLI flags
// otherwise.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listenAddr := flag.String("listen", ":8080", "dashboard listen address")
	dataDir := flag.String("datadir", "./wal/snapshots", "snapshot WAL directory")
	modelDir := flag.String("modeldir", "./models", "model artifact directory")
	schedule := flag.String("schedule", "0 6 * * *", "cron schedule for the daily pipeline")
	topTraders := flag.Int("traders", 50, "how many top traders to track")
	flag.Parse()

	if *configPath != "" {
		return FromFile(*configPath)
	}

	cfg := Default()
	cfg.ListenAddr = *listenAddr
	cfg.DataDir = *dataDir
	cfg.ModelDir = *modelDir
	cfg.CollectSchedule = *schedule
	cfg.TopTraders = *topTraders
	return cfg, cfg.validate()
}

// FromFile reads a yaml config, filling unset fields with defaults.
func FromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.ModelDir == "" {
		c.ModelDir = d.ModelDir
	}
	if c.KeepModelVersions <= 0 {
		c.KeepModelVersions = d.KeepModelVersions
	}
	if c.CollectSchedule == "" {
		c.CollectSchedule = d.CollectSchedule
	}
	if c.TopTraders <= 0 {
		c.TopTraders = d.TopTraders
	}
	if len(c.Horizons) == 0 {
		c.Horizons = d.Horizons
	}
	if c.RetrainThreshold <= 0 {
		c.RetrainThreshold = d.RetrainThreshold
	}
	if len(c.FundingSymbols) == 0 {
		c.FundingSymbols = d.FundingSymbols
	}
	if c.Training.MinSamples <= 0 {
		c.Training.MinSamples = d.Training.MinSamples
	}
	if c.Training.TestFraction <= 0 {
		c.Training.TestFraction = d.Training.TestFraction
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = d.Training.Seed
	}
	if c.Training.Trees <= 0 {
		c.Training.Trees = d.Training.Trees
	}
	if c.Training.MaxDepth <= 0 {
		c.Training.MaxDepth = d.Training.MaxDepth
	}
	if c.Thresholds.Strong == 0 && c.Thresholds.Weak == 0 {
		c.Thresholds = d.Thresholds
	}
}

func (c Config) validate() error {
	for _, h := range c.Horizons {
		if h != 7 && h != 30 {
			return errors.Errorf("unsupported horizon %d, want 7 or 30", h)
		}
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return errors.Errorf("test_fraction %v out of (0,1)", c.Training.TestFraction)
	}
	if c.Thresholds.Weak > c.Thresholds.Strong {
		return errors.Errorf("weak threshold %v above strong %v", c.Thresholds.Weak, c.Thresholds.Strong)
	}
	return nil
}
