// Package config loads service configuration: environment variables first,
// with an optional YAML file (CONFIG_PATH) for optimizer policy knobs.
package config

import (
	"fmt"
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Port               string `yaml:"-"`
	DatabaseURL        string `yaml:"-"`
	RedisURL           string `yaml:"-"`
	RateRPS            float64
	RateBurst          int
	WebhookMaxAttempts int

	Optimizer Optimizer `yaml:"optimizer"`
	Monitor   Monitor   `yaml:"monitor"`
}

// Optimizer holds the routing-core policy values. Everything here is a policy
// knob, not runtime state; the optimizer itself stays stateless per request.
type Optimizer struct {
	Seed         int64   `yaml:"seed"`
	BaseSpeedKmh float64 `yaml:"base_speed_kmh"`
	TrafficMin   float64 `yaml:"traffic_min"`
	TrafficMax   float64 `yaml:"traffic_max"`
	WindowPolicy string  `yaml:"window_policy"` // end_only or strict
	TimeBudgetMs int     `yaml:"time_budget_ms"`

	Drone       Drone       `yaml:"drone"`
	Improvement Improvement `yaml:"improvement"`
}

type Drone struct {
	FlightMinMinutes   int     `yaml:"flight_min_minutes"`
	FlightMaxMinutes   int     `yaml:"flight_max_minutes"`
	BatteryPerMinute   int     `yaml:"battery_per_minute"`
	BatteryCapPercent  int     `yaml:"battery_cap_percent"`
	WeatherSuccessRate float64 `yaml:"weather_success_rate"`
}

// Improvement bounds the sampled headline figures attached to responses.
type Improvement struct {
	CostSavingsMin float64 `yaml:"cost_savings_min"`
	CostSavingsMax float64 `yaml:"cost_savings_max"`
	EfficiencyMin  float64 `yaml:"efficiency_min"`
	EfficiencyMax  float64 `yaml:"efficiency_max"`
}

type Monitor struct {
	TickSeconds int     `yaml:"tick_seconds"`
	AlertChance float64 `yaml:"alert_chance"`
}

func defaults() Config {
	return Config{
		Port:               "8080",
		RateRPS:            50,
		RateBurst:          100,
		WebhookMaxAttempts: 10,
		Optimizer: Optimizer{
			Seed:         0, // 0 means seed from wall clock
			BaseSpeedKmh: 40,
			TrafficMin:   0.7,
			TrafficMax:   1.3,
			WindowPolicy: "end_only",
			Drone: Drone{
				FlightMinMinutes:   8,
				FlightMaxMinutes:   20,
				BatteryPerMinute:   4,
				BatteryCapPercent:  85,
				WeatherSuccessRate: 0.8,
			},
			Improvement: Improvement{
				CostSavingsMin: 15, CostSavingsMax: 25,
				EfficiencyMin: 20, EfficiencyMax: 35,
			},
		},
		Monitor: Monitor{TickSeconds: 5, AlertChance: 0.1},
	}
}

// Load builds the effective configuration. The YAML file is optional; a
// missing CONFIG_PATH is not an error, a present but unreadable one is.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateBurst = n
		}
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WebhookMaxAttempts = n
		}
	}
	if v := os.Getenv("OPTIMIZER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Optimizer.Seed = n
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	o := c.Optimizer
	if o.BaseSpeedKmh <= 0 {
		return fmt.Errorf("config: base_speed_kmh must be > 0")
	}
	if o.TrafficMin <= 0 || o.TrafficMax < o.TrafficMin {
		return fmt.Errorf("config: traffic band [%v,%v] invalid", o.TrafficMin, o.TrafficMax)
	}
	if o.WindowPolicy != "end_only" && o.WindowPolicy != "strict" {
		return fmt.Errorf("config: window_policy must be end_only or strict, got %q", o.WindowPolicy)
	}
	if o.Drone.FlightMaxMinutes < o.Drone.FlightMinMinutes {
		return fmt.Errorf("config: drone flight band invalid")
	}
	if o.Drone.WeatherSuccessRate < 0 || o.Drone.WeatherSuccessRate > 1 {
		return fmt.Errorf("config: weather_success_rate must be in [0,1]")
	}
	return nil
}
