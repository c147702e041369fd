package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/shelfwatch/pkg/application/services/audit"
	"github.com/vsinha/shelfwatch/pkg/application/services/monitor"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SHELFWATCH_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the file and environment configuration of shelfwatch
type Config struct {
	Log          LogConfig       `yaml:"log"`
	Deviation    DeviationConfig `yaml:"deviation"`
	Urgency      UrgencyConfig   `yaml:"urgency"`
	Audit        AuditConfig     `yaml:"audit"`
	Cache        CacheConfig     `yaml:"cache"`
	Timeline     TimelineConfig  `yaml:"timeline"`
	NoExpiryYear int             `yaml:"no_expiry_year" validate:"gte=1900,lte=9999"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

type DeviationConfig struct {
	Attention float64 `yaml:"attention" validate:"gt=0,lte=1"`
	Outside   float64 `yaml:"outside" validate:"gtefield=Attention"`
}

type UrgencyConfig struct {
	Critical              float64 `yaml:"critical" validate:"gt=0,lte=1"`
	Attention             float64 `yaml:"attention" validate:"gtefield=Critical"`
	FallbackCriticalDays  int     `yaml:"fallback_critical_days" validate:"gte=0"`
	FallbackAttentionDays int     `yaml:"fallback_attention_days" validate:"gtefield=FallbackCriticalDays"`
}

type AuditConfig struct {
	DateToleranceDays int     `yaml:"date_tolerance_days" validate:"gte=0"`
	QuantityAbsolute  float64 `yaml:"quantity_absolute" validate:"gte=0"`
	QuantityRelative  float64 `yaml:"quantity_relative" validate:"gte=0,lte=1"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds" validate:"gt=0"`
	Size       int `yaml:"size" validate:"gte=0"`
}

type TimelineConfig struct {
	ExcludedCategories []string     `yaml:"excluded_categories"`
	Rules              []RuleConfig `yaml:"rules" validate:"dive"`
}

// RuleConfig is a category rule as written in the file; locations are "plant/depot"
type RuleConfig struct {
	Category      string   `yaml:"category" validate:"required"`
	Locations     []string `yaml:"locations"`
	MovementTypes []string `yaml:"movement_types"`
}

// Default returns the configuration matching monitor.DefaultOptions
func Default() *Config {
	cfg := &Config{
		Log:          LogConfig{Level: "info"},
		Deviation:    DeviationConfig{Attention: 0.05, Outside: 0.15},
		Urgency:      UrgencyConfig{Critical: 0.10, Attention: 0.25, FallbackCriticalDays: 7, FallbackAttentionDays: 30},
		Cache:        CacheConfig{TTLSeconds: 300},
		NoExpiryYear: entities.NoExpiryYear,
	}
	for _, c := range entities.DefaultExcludedCategories().Sorted() {
		cfg.Timeline.ExcludedCategories = append(cfg.Timeline.ExcludedCategories, c.String())
	}
	for _, rule := range services.DefaultCategoryRules() {
		rc := RuleConfig{Category: rule.Category.String(), MovementTypes: rule.MovementTypes}
		for _, loc := range rule.Locations {
			rc.Locations = append(rc.Locations, loc.String())
		}
		cfg.Timeline.Rules = append(cfg.Timeline.Rules, rc)
	}
	return cfg
}

// Load reads the optional .env file and YAML file, applies SHELFWATCH_*
// overrides and validates the result. Empty paths are skipped; a missing
// .env file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and threshold ordering
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: rule '%s %s' failed for value '%v'", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_PRETTY", &c.Log.Pretty)
	float("DEVIATION_ATTENTION", &c.Deviation.Attention)
	float("DEVIATION_OUTSIDE", &c.Deviation.Outside)
	float("URGENCY_CRITICAL", &c.Urgency.Critical)
	float("URGENCY_ATTENTION", &c.Urgency.Attention)
	integer("URGENCY_FALLBACK_CRITICAL_DAYS", &c.Urgency.FallbackCriticalDays)
	integer("URGENCY_FALLBACK_ATTENTION_DAYS", &c.Urgency.FallbackAttentionDays)
	integer("DATE_TOLERANCE_DAYS", &c.Audit.DateToleranceDays)
	float("QUANTITY_TOLERANCE_ABSOLUTE", &c.Audit.QuantityAbsolute)
	float("QUANTITY_TOLERANCE_RELATIVE", &c.Audit.QuantityRelative)
	integer("CACHE_TTL_SECONDS", &c.Cache.TTLSeconds)
	integer("CACHE_SIZE", &c.Cache.Size)
	integer("NO_EXPIRY_YEAR", &c.NoExpiryYear)

	if v, ok := lookup(EnvPrefix + "EXCLUDED_CATEGORIES"); ok {
		c.Timeline.ExcludedCategories = nil
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				c.Timeline.ExcludedCategories = append(c.Timeline.ExcludedCategories, part)
			}
		}
	}

	return errors.Join(errs...)
}

// ExcludedCategories parses the configured exclusion set
func (c *Config) ExcludedCategories() (entities.CategorySet, error) {
	set := entities.NewCategorySet()
	for _, name := range c.Timeline.ExcludedCategories {
		category, err := entities.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		set[category] = struct{}{}
	}
	return set, nil
}

// CategoryRules parses the configured category rules
func (c *Config) CategoryRules() ([]services.CategoryRule, error) {
	rules := make([]services.CategoryRule, 0, len(c.Timeline.Rules))
	for i, rc := range c.Timeline.Rules {
		category, err := entities.ParseCategory(rc.Category)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rule := services.CategoryRule{Category: category, MovementTypes: rc.MovementTypes}
		for _, raw := range rc.Locations {
			loc, err := entities.ParseLocation(raw)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i+1, err)
			}
			rule.Locations = append(rule.Locations, loc)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// MonitorOptions converts the configuration into monitor options
func (c *Config) MonitorOptions() (monitor.Options, error) {
	excluded, err := c.ExcludedCategories()
	if err != nil {
		return monitor.Options{}, err
	}
	rules, err := c.CategoryRules()
	if err != nil {
		return monitor.Options{}, err
	}

	return monitor.Options{
		Deviation: services.DeviationThresholds{
			Attention: decimal.NewFromFloat(c.Deviation.Attention),
			Outside:   decimal.NewFromFloat(c.Deviation.Outside),
		},
		Urgency: services.UrgencyThresholds{
			Critical:              decimal.NewFromFloat(c.Urgency.Critical),
			Attention:             decimal.NewFromFloat(c.Urgency.Attention),
			FallbackCriticalDays:  c.Urgency.FallbackCriticalDays,
			FallbackAttentionDays: c.Urgency.FallbackAttentionDays,
		},
		Tolerances: audit.Tolerances{
			DateDays:         c.Audit.DateToleranceDays,
			QuantityAbsolute: decimal.NewFromFloat(c.Audit.QuantityAbsolute),
			QuantityRelative: decimal.NewFromFloat(c.Audit.QuantityRelative),
		},
		CacheTTL:           time.Duration(c.Cache.TTLSeconds) * time.Second,
		CacheSize:          c.Cache.Size,
		ExcludedCategories: excluded,
		CategoryRules:      rules,
		NoExpiryYear:       c.NoExpiryYear,
	}, nil
}
