package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full trader configuration.
type Config struct {
	Trading   TradingConfig   `yaml:"trading"`
	Screen    ScreenConfig    `yaml:"screen"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	API       APIConfig       `yaml:"api"`
	Weather   WeatherConfig   `yaml:"weather"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

// TradingConfig controls position sizing and the exit cascade.
type TradingConfig struct {
	MaxOpenOrders     int     `yaml:"max_open_orders"`
	MaxPositions      int     `yaml:"max_positions"`
	MaxNewPerCycle    int     `yaml:"max_new_per_cycle"`
	CapitalBufferUSDC float64 `yaml:"capital_buffer_usdc"`
	StopLossPct       float64 `yaml:"stop_loss_pct"`
	ProfitTargetPct   float64 `yaml:"profit_target_pct"`
	MinHoldEdge       float64 `yaml:"min_hold_edge"`
	TimeExitHours     float64 `yaml:"time_exit_hours"`
	StrengthenPts     float64 `yaml:"strengthen_pts"`
}

// ScreenConfig holds the entry screen thresholds.
type ScreenConfig struct {
	MinHoursToResolution float64 `yaml:"min_hours_to_resolution"`
	MaxHoursToResolution float64 `yaml:"max_hours_to_resolution"`
	MinPrice             float64 `yaml:"min_price"`
	MaxPrice             float64 `yaml:"max_price"`
	MinBidLiquidityUSDC  float64 `yaml:"min_bid_liquidity_usdc"`
	MinConfidence        float64 `yaml:"min_confidence"`
	MinEdgeLocal         float64 `yaml:"min_edge_local"`
	MinEdgeNoLocal       float64 `yaml:"min_edge_no_local"`
}

// ScannerConfig controls market discovery.
type ScannerConfig struct {
	DaysAhead int `yaml:"days_ahead"`
}

// APIConfig holds the Polymarket base URLs and key.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	APIKey    string `yaml:"-"` // env only, never in the file
}

// WeatherConfig holds the forecast provider credentials.
type WeatherConfig struct {
	VisualCrossingKey string `yaml:"-"` // env only, never in the file
}

// StorageConfig controls where state persists.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// DashboardConfig controls the read-only operator API.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment values
// override the YAML for the keys they cover; secrets only ever come from the
// environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POLYMARKET_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("VISUAL_CROSSING_API_KEY"); v != "" {
		cfg.Weather.VisualCrossingKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Dashboard.Addr = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Trading.MaxOpenOrders <= 0 {
		cfg.Trading.MaxOpenOrders = 3
	}
	if cfg.Trading.MaxPositions <= 0 {
		cfg.Trading.MaxPositions = 10
	}
	if cfg.Trading.MaxNewPerCycle <= 0 {
		cfg.Trading.MaxNewPerCycle = 3
	}
	if cfg.Trading.CapitalBufferUSDC <= 0 {
		cfg.Trading.CapitalBufferUSDC = 5
	}
	if cfg.Trading.StopLossPct <= 0 {
		cfg.Trading.StopLossPct = 80
	}
	if cfg.Trading.ProfitTargetPct <= 0 {
		cfg.Trading.ProfitTargetPct = 130
	}
	if cfg.Trading.MinHoldEdge <= 0 {
		cfg.Trading.MinHoldEdge = 10
	}
	if cfg.Trading.TimeExitHours <= 0 {
		cfg.Trading.TimeExitHours = 4
	}
	if cfg.Trading.StrengthenPts <= 0 {
		cfg.Trading.StrengthenPts = 10
	}

	if cfg.Screen.MinHoursToResolution <= 0 {
		cfg.Screen.MinHoursToResolution = 4
	}
	if cfg.Screen.MaxHoursToResolution <= 0 {
		cfg.Screen.MaxHoursToResolution = 72
	}
	if cfg.Screen.MinPrice <= 0 {
		cfg.Screen.MinPrice = 0.30
	}
	if cfg.Screen.MaxPrice <= 0 {
		cfg.Screen.MaxPrice = 0.70
	}
	if cfg.Screen.MinBidLiquidityUSDC <= 0 {
		cfg.Screen.MinBidLiquidityUSDC = 500
	}
	if cfg.Screen.MinConfidence <= 0 {
		cfg.Screen.MinConfidence = 0.80
	}
	if cfg.Screen.MinEdgeLocal <= 0 {
		cfg.Screen.MinEdgeLocal = 20
	}
	if cfg.Screen.MinEdgeNoLocal <= 0 {
		cfg.Screen.MinEdgeNoLocal = 25
	}

	if cfg.Scanner.DaysAhead <= 0 {
		cfg.Scanner.DaysAhead = 3
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "weathertrader.db"
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = "127.0.0.1:8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	if cfg.Screen.MinPrice >= cfg.Screen.MaxPrice {
		return fmt.Errorf("screen price band %.2f..%.2f is empty", cfg.Screen.MinPrice, cfg.Screen.MaxPrice)
	}
	if cfg.Screen.MinHoursToResolution >= cfg.Screen.MaxHoursToResolution {
		return fmt.Errorf("resolution window %.0fh..%.0fh is empty",
			cfg.Screen.MinHoursToResolution, cfg.Screen.MaxHoursToResolution)
	}
	if cfg.Trading.StopLossPct >= cfg.Trading.ProfitTargetPct {
		return fmt.Errorf("stop loss %.0f%% must sit below profit target %.0f%%",
			cfg.Trading.StopLossPct, cfg.Trading.ProfitTargetPct)
	}
	return nil
}
