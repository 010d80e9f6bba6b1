package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"marketwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	State     StateConfig     `mapstructure:"state"`
	Records   RecordsConfig   `mapstructure:"records"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Holidays  HolidaysConfig  `mapstructure:"holidays"`
	Customs   CustomsConfig   `mapstructure:"customs"`
	Dram      DramConfig      `mapstructure:"dram"`
	Oil       OilConfig       `mapstructure:"oil"`
	Stock     StockConfig     `mapstructure:"stock"`
	Export    ExportConfig    `mapstructure:"export"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FetchConfig governs the shared HTTP retry policy.
type FetchConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
}

// StateConfig locates persisted seen-state documents.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// RecordsConfig selects the daily record backend.
type RecordsConfig struct {
	Backend string `mapstructure:"backend"`
	CSVDir  string `mapstructure:"csv_dir"`
}

// SlackConfig 描述 Slack 通知参数。
type SlackConfig struct {
	BotToken string        `mapstructure:"bot_token"`
	Channel  string        `mapstructure:"channel"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HolidaysConfig carries manual holiday overrides (YYYY-MM-DD).
type HolidaysConfig struct {
	Extra []string `mapstructure:"extra"`
}

// CustomsConfig covers the customs press-release board.
type CustomsConfig struct {
	BoardURL  string `mapstructure:"board_url"`
	DetailURL string `mapstructure:"detail_url"`
	SiteBase  string `mapstructure:"site_base"`
	MenuID    string `mapstructure:"menu_id"`
	BoardID   string `mapstructure:"board_id"`
}

// DramConfig covers the DRAMeXchange spot table.
type DramConfig struct {
	BaseURL   string   `mapstructure:"base_url"`
	Targets   []string `mapstructure:"targets"`
	SheetName string   `mapstructure:"sheet_name"`
}

// OilConfig covers oil price sources.
type OilConfig struct {
	OHLCVBaseURL string            `mapstructure:"ohlcv_base_url"`
	Tickers      map[string]string `mapstructure:"tickers"`
	ScrapeURL    string            `mapstructure:"scrape_url"`
	ScrapeNames  []string          `mapstructure:"scrape_names"`
	Types        []string          `mapstructure:"types"`
	SheetName    string            `mapstructure:"sheet_name"`
}

// StockConfig covers the KRX stock monitor.
type StockConfig struct {
	OHLCVBaseURL string            `mapstructure:"ohlcv_base_url"`
	Tickers      map[string]string `mapstructure:"tickers"`
	ThresholdPct float64           `mapstructure:"threshold_pct"`
}

// SchedulerConfig governs the stock polling loop cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_base", "5s")
	v.SetDefault("fetch.request_timeout", "15s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	v.SetDefault("fetch.accept_language", "ko-KR,ko;q=0.9")

	v.SetDefault("state.dir", "state")

	v.SetDefault("records.backend", "csv")
	v.SetDefault("records.csv_dir", "records")

	v.SetDefault("slack.channel", "#stock_management")
	v.SetDefault("slack.api_base", "https://slack.com/api")
	v.SetDefault("slack.timeout", "10s")

	v.SetDefault("customs.board_url", "https://www.customs.go.kr/kcs/na/ntt/selectNttList.do")
	v.SetDefault("customs.detail_url", "https://www.customs.go.kr/kcs/na/ntt/selectNttInfo.do")
	v.SetDefault("customs.site_base", "https://www.customs.go.kr")
	v.SetDefault("customs.menu_id", "2891")
	v.SetDefault("customs.board_id", "1362")

	v.SetDefault("dram.base_url", "https://www.dramexchange.com/")
	v.SetDefault("dram.targets", []string{
		"DDR5 16Gb (2Gx8) 4800/5600",
		"DDR5 16Gb (2Gx8) eTT",
		"GDDR6 8Gb",
		"512Gb TLC",
	})
	v.SetDefault("dram.sheet_name", "DRAM")

	v.SetDefault("oil.tickers", map[string]string{"WTI": "CL=F", "Brent": "BZ=F"})
	v.SetDefault("oil.scrape_url", "https://oilprice.com/oil-price-charts/46")
	v.SetDefault("oil.scrape_names", []string{"Dubai"})
	v.SetDefault("oil.types", []string{"WTI", "Brent", "Dubai"})
	v.SetDefault("oil.sheet_name", "Oil Prices")

	v.SetDefault("stock.threshold_pct", 3.0)

	v.SetDefault("scheduler.interval", "30m")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be greater than zero")
	}
	if c.Stock.ThresholdPct < 0 {
		return fmt.Errorf("stock.threshold_pct cannot be negative")
	}
	switch c.Records.Backend {
	case "csv", "postgres":
	default:
		return fmt.Errorf("records.backend must be csv or postgres, got %q", c.Records.Backend)
	}
	if c.Records.Backend == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 必须配置 (records.backend=postgres)")
	}
	for _, d := range c.Holidays.Extra {
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(d)); err != nil {
			return fmt.Errorf("holidays.extra contains invalid date %q", d)
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
