package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PPMPConfig carries tunables that operators may change without a restart.
type PPMPConfig struct {
	Reports       ReportsConfig
	Dashboard     DashboardConfig
	Disbursements DisbursementsConfig
	List          ListConfig
}

type ReportsConfig struct {
	TopItemsLimit int
}

type DashboardConfig struct {
	RecentLimit int
}

type DisbursementsConfig struct {
	SearchDefaultLimit int
	SearchMaxLimit     int
}

type ListConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultPPMPConfig() PPMPConfig {
	return PPMPConfig{
		Reports:   ReportsConfig{TopItemsLimit: 10},
		Dashboard: DashboardConfig{RecentLimit: 10},
		Disbursements: DisbursementsConfig{
			SearchDefaultLimit: 20,
			SearchMaxLimit:     50,
		},
		List: ListConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

type PPMPConfigHolder struct {
	current atomic.Value // holds PPMPConfig
}

var defaultConfigPaths = []string{
	"/var/lib/ppmp/config", // Volume-mounted config
	"/etc/ppmp",            // System config
	".",                    // Current directory (dev mode)
}

func NewPPMPConfigHolder() (*PPMPConfigHolder, error) {
	return LoadPPMPConfigHolder(defaultConfigPaths...)
}

// LoadPPMPConfigHolder reads ppmp.yml from the first matching path and watches it for changes.
func LoadPPMPConfigHolder(paths ...string) (*PPMPConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ppmp")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("PPMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPPMPConfig()
	v.SetDefault("ppmp.reports.topItemsLimit", defaults.Reports.TopItemsLimit)
	v.SetDefault("ppmp.dashboard.recentLimit", defaults.Dashboard.RecentLimit)
	v.SetDefault("ppmp.disbursements.searchDefaultLimit", defaults.Disbursements.SearchDefaultLimit)
	v.SetDefault("ppmp.disbursements.searchMaxLimit", defaults.Disbursements.SearchMaxLimit)
	v.SetDefault("ppmp.list.defaultPageSize", defaults.List.DefaultPageSize)
	v.SetDefault("ppmp.list.maxPageSize", defaults.List.MaxPageSize)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodePPMPConfig(v)
	if err != nil {
		return nil, err
	}
	if err := validatePPMPConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PPMPConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePPMPConfig(v)
		if err != nil {
			log.Printf("[ppmp-config] reload failed: %v", err)
			return
		}
		if err := validatePPMPConfig(updated); err != nil {
			log.Printf("[ppmp-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[ppmp-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// decodePPMPConfig goes through AllSettings so defaults fill keys the file omits.
func decodePPMPConfig(v *viper.Viper) (PPMPConfig, error) {
	var root struct {
		PPMP PPMPConfig `mapstructure:"ppmp"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return PPMPConfig{}, err
	}
	return root.PPMP, nil
}

// NewStaticPPMPConfigHolder returns a holder that never reloads.
func NewStaticPPMPConfigHolder(cfg PPMPConfig) *PPMPConfigHolder {
	holder := &PPMPConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PPMPConfigHolder) Get() PPMPConfig {
	if h == nil {
		return DefaultPPMPConfig()
	}
	cfg, ok := h.current.Load().(PPMPConfig)
	if !ok {
		return DefaultPPMPConfig()
	}
	return cfg
}

func validatePPMPConfig(cfg PPMPConfig) error {
	if cfg.Reports.TopItemsLimit <= 0 {
		return errors.New("ppmp.reports.topItemsLimit must be positive")
	}
	if cfg.Dashboard.RecentLimit <= 0 {
		return errors.New("ppmp.dashboard.recentLimit must be positive")
	}
	if cfg.Disbursements.SearchDefaultLimit <= 0 || cfg.Disbursements.SearchMaxLimit <= 0 {
		return errors.New("ppmp.disbursements search limits must be positive")
	}
	if cfg.Disbursements.SearchDefaultLimit > cfg.Disbursements.SearchMaxLimit {
		return errors.New("ppmp.disbursements.searchDefaultLimit cannot exceed searchMaxLimit")
	}
	if cfg.List.DefaultPageSize <= 0 || cfg.List.MaxPageSize < cfg.List.DefaultPageSize {
		return errors.New("ppmp.list page sizes are invalid")
	}
	return nil
}
