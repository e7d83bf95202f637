package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig
	Market     MarketConfig
	Bot        BotConfig
	Filter     FilterConfig
	Trade      TradeConfig
	Simulation SimulationConfig
	Journal    JournalConfig
	Metrics    MetricsConfig
	Runtime    RuntimeConfig
}

type TelegramConfig struct {
	Token          string
	PollTimeoutSec int
	PollIntervalMs int
	SendTimeoutSec int
}

type MarketConfig struct {
	Source      string
	BaseURL     string
	SearchQuery string
	WSURL       string
	TimeoutSec  int
}

type BotConfig struct {
	Mode              string
	ScanEnabled       bool
	ScanIntervalSec   int
	TickIntervalSec   int
	PositionUpdateSec int
	CooldownSec       int
	DedupTTLMin       int
}

type FilterConfig struct {
	ChainID         string
	MinLiquidityUSD float64
	MinVolumeM5USD  float64
	MaxTokenAgeMin  float64
	MaxMarketCapUSD float64
}

type TradeConfig struct {
	BuyAmount           float64
	TP1Multiplier       float64
	TP1SellPercent      float64
	TP2Multiplier       float64
	TrailingStopPercent float64
	TimeStopMin         float64
	MinSellOut          float64
	FeeRate             float64
	BreakevenMultiple   float64
}

type SimulationConfig struct {
	Seed int64
}

type JournalConfig struct {
	Driver string
	Path   string
	DSN    string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type RuntimeConfig struct {
	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// ConfigError is a fatal startup error: the process must not start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Некорректная конфигурация %s: %s", e.Field, e.Reason)
}

// option binds a viper key to its flat env name.
type option struct {
	key string
	env string
	def any
}

var options = []option{
	{"telegram.token", "TELEGRAM_BOT_TOKEN", ""},
	{"telegram.poll_timeout_sec", "TELEGRAM_POLL_TIMEOUT_SEC", 30},
	{"telegram.poll_interval_ms", "TELEGRAM_POLL_INTERVAL_MS", 2500},
	{"telegram.send_timeout_sec", "TELEGRAM_SEND_TIMEOUT_SEC", 10},

	{"market.source", "MARKET_SOURCE", "http"},
	{"market.base_url", "DEXSCREENER_BASE_URL", "https://api.dexscreener.com"},
	{"market.search_query", "DEXSCREENER_QUERY", "solana"},
	{"market.ws_url", "DEXSCREENER_WS_URL", ""},
	{"market.timeout_sec", "MARKET_TIMEOUT_SEC", 15},

	{"bot.mode", "BOT_MODE", "TEST"},
	{"bot.scan_enabled", "SCAN_ENABLED", true},
	{"bot.scan_interval_sec", "SCAN_INTERVAL_SEC", 20},
	{"bot.tick_interval_sec", "TICK_INTERVAL_SEC", 3},
	{"bot.position_update_sec", "POSITION_UPDATE_SEC", 60},
	{"bot.cooldown_sec", "SIGNAL_COOLDOWN_SEC", 25},
	{"bot.dedup_ttl_min", "DEDUP_TTL_MIN", 0},

	{"filter.chain_id", "CHAIN_ID", "solana"},
	{"filter.min_liquidity_usd", "MIN_LIQUIDITY_USD", 30000.0},
	{"filter.min_volume_m5_usd", "MIN_VOLUME_M5_USD", 50000.0},
	{"filter.max_token_age_min", "MAX_TOKEN_AGE_MIN", 30.0},
	{"filter.max_marketcap_usd", "MAX_MARKETCAP_USD", 200000.0},

	{"trade.buy_amount", "BUY_AMOUNT_SOL", 0.08},
	{"trade.tp1_multiplier", "TP1_MULTIPLIER", 2.0},
	{"trade.tp1_sell_percent", "TP1_SELL_PERCENT", 80.0},
	{"trade.tp2_multiplier", "TP2_MULTIPLIER", 5.0},
	{"trade.trailing_stop_percent", "TRAILING_STOP_PERCENT", 30.0},
	{"trade.time_stop_min", "TIME_STOP_MIN", 60.0},
	{"trade.min_sell_out", "MIN_SELL_OUT_SOL", 0.01},
	{"trade.fee_rate", "FEE_RATE", 0.006},
	{"trade.breakeven_multiple", "BREAKEVEN_MULTIPLE", 1.05},

	{"simulation.seed", "SIM_SEED", 0},

	{"journal.driver", "JOURNAL_DRIVER", "none"},
	{"journal.path", "JOURNAL_PATH", "trades.jsonl"},
	{"journal.dsn", "JOURNAL_DSN", ""},

	{"metrics.enabled", "METRICS_ENABLED", false},
	{"metrics.addr", "METRICS_ADDR", ":9108"},

	{"runtime.log.level", "LOG_LEVEL", "info"},
	{"runtime.log.format", "LOG_FORMAT", "text"},
	{"runtime.log.file", "LOG_FILE", "stdout"},
	{"runtime.log.max_size", "LOG_MAX_SIZE", 100},
	{"runtime.log.max_backups", "LOG_MAX_BACKUPS", 3},
	{"runtime.log.max_age", "LOG_MAX_AGE", 28},
	{"runtime.log.compress", "LOG_COMPRESS", false},
}

func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Не удалось прочитать файл конфигурации: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds the config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	for _, opt := range options {
		v.SetDefault(opt.key, opt.def)
		if err := v.BindEnv(opt.key, opt.env); err != nil {
			return nil, fmt.Errorf("Не удалось привязать переменную %s: %w", opt.env, err)
		}
	}

	cfg := &Config{}

	cfg.Telegram = TelegramConfig{
		Token:          envSub(v, "telegram.token"),
		PollTimeoutSec: v.GetInt("telegram.poll_timeout_sec"),
		PollIntervalMs: v.GetInt("telegram.poll_interval_ms"),
		SendTimeoutSec: v.GetInt("telegram.send_timeout_sec"),
	}

	cfg.Market = MarketConfig{
		Source:      strings.ToLower(v.GetString("market.source")),
		BaseURL:     strings.TrimRight(v.GetString("market.base_url"), "/"),
		SearchQuery: v.GetString("market.search_query"),
		WSURL:       envSub(v, "market.ws_url"),
		TimeoutSec:  v.GetInt("market.timeout_sec"),
	}

	cfg.Bot = BotConfig{
		Mode:              v.GetString("bot.mode"),
		ScanEnabled:       v.GetBool("bot.scan_enabled"),
		ScanIntervalSec:   v.GetInt("bot.scan_interval_sec"),
		TickIntervalSec:   v.GetInt("bot.tick_interval_sec"),
		PositionUpdateSec: v.GetInt("bot.position_update_sec"),
		CooldownSec:       v.GetInt("bot.cooldown_sec"),
		DedupTTLMin:       v.GetInt("bot.dedup_ttl_min"),
	}

	cfg.Filter = FilterConfig{
		ChainID:         v.GetString("filter.chain_id"),
		MinLiquidityUSD: v.GetFloat64("filter.min_liquidity_usd"),
		MinVolumeM5USD:  v.GetFloat64("filter.min_volume_m5_usd"),
		MaxTokenAgeMin:  v.GetFloat64("filter.max_token_age_min"),
		MaxMarketCapUSD: v.GetFloat64("filter.max_marketcap_usd"),
	}

	cfg.Trade = TradeConfig{
		BuyAmount:           v.GetFloat64("trade.buy_amount"),
		TP1Multiplier:       v.GetFloat64("trade.tp1_multiplier"),
		TP1SellPercent:      v.GetFloat64("trade.tp1_sell_percent"),
		TP2Multiplier:       v.GetFloat64("trade.tp2_multiplier"),
		TrailingStopPercent: v.GetFloat64("trade.trailing_stop_percent"),
		TimeStopMin:         v.GetFloat64("trade.time_stop_min"),
		MinSellOut:          v.GetFloat64("trade.min_sell_out"),
		FeeRate:             v.GetFloat64("trade.fee_rate"),
		BreakevenMultiple:   v.GetFloat64("trade.breakeven_multiple"),
	}

	cfg.Simulation = SimulationConfig{
		Seed: v.GetInt64("simulation.seed"),
	}

	cfg.Journal = JournalConfig{
		Driver: strings.ToLower(v.GetString("journal.driver")),
		Path:   v.GetString("journal.path"),
		DSN:    envSub(v, "journal.dsn"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Addr:    v.GetString("metrics.addr"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return &ConfigError{Field: "telegram.token", Reason: "не задан TELEGRAM_BOT_TOKEN"}
	}

	nonNegative := map[string]float64{
		"filter.min_liquidity_usd": c.Filter.MinLiquidityUSD,
		"filter.min_volume_m5_usd": c.Filter.MinVolumeM5USD,
		"filter.max_token_age_min": c.Filter.MaxTokenAgeMin,
		"filter.max_marketcap_usd": c.Filter.MaxMarketCapUSD,
		"trade.min_sell_out":       c.Trade.MinSellOut,
		"trade.time_stop_min":      c.Trade.TimeStopMin,
		"bot.cooldown_sec":         float64(c.Bot.CooldownSec),
		"bot.position_update_sec":  float64(c.Bot.PositionUpdateSec),
		"bot.dedup_ttl_min":        float64(c.Bot.DedupTTLMin),
	}
	for field, val := range nonNegative {
		if val < 0 {
			return &ConfigError{Field: field, Reason: "значение не может быть отрицательным"}
		}
	}

	positive := map[string]float64{
		"bot.scan_interval_sec":     float64(c.Bot.ScanIntervalSec),
		"bot.tick_interval_sec":     float64(c.Bot.TickIntervalSec),
		"telegram.send_timeout_sec": float64(c.Telegram.SendTimeoutSec),
		"trade.buy_amount":          c.Trade.BuyAmount,
		"trade.breakeven_multiple":  c.Trade.BreakevenMultiple,
	}
	for field, val := range positive {
		if val <= 0 {
			return &ConfigError{Field: field, Reason: "значение должно быть больше нуля"}
		}
	}

	if c.Trade.TP1Multiplier <= 0 {
		return &ConfigError{Field: "trade.tp1_multiplier", Reason: "значение должно быть больше нуля"}
	}
	if c.Trade.TP2Multiplier <= c.Trade.TP1Multiplier {
		return &ConfigError{Field: "trade.tp2_multiplier", Reason: "TP2 должен быть выше TP1"}
	}
	if c.Trade.TP1SellPercent <= 0 || c.Trade.TP1SellPercent > 100 {
		return &ConfigError{Field: "trade.tp1_sell_percent", Reason: "ожидается значение в диапазоне (0, 100]"}
	}
	if c.Trade.TrailingStopPercent < 0 || c.Trade.TrailingStopPercent >= 100 {
		return &ConfigError{Field: "trade.trailing_stop_percent", Reason: "ожидается значение в диапазоне [0, 100)"}
	}

	if c.Trade.FeeRate < 0 || c.Trade.FeeRate >= 1 {
		return &ConfigError{Field: "trade.fee_rate", Reason: "ожидается значение в диапазоне [0, 1)"}
	}

	switch c.Market.Source {
	case "http":
	case "ws":
		if c.Market.WSURL == "" {
			return &ConfigError{Field: "market.ws_url", Reason: "для market.source=ws нужен адрес потока"}
		}
	default:
		return &ConfigError{Field: "market.source", Reason: fmt.Sprintf("неизвестный источник %q", c.Market.Source)}
	}

	switch c.Journal.Driver {
	case "none", "file":
	case "postgres":
		if c.Journal.DSN == "" {
			return &ConfigError{Field: "journal.dsn", Reason: "для journal.driver=postgres нужен DSN"}
		}
	default:
		return &ConfigError{Field: "journal.driver", Reason: fmt.Sprintf("неизвестный драйвер %q", c.Journal.Driver)}
	}

	return nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envPattern.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
