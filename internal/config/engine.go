package config

type EngineConfig struct {
	// TradeDelayStepMs staggers trade-batch legs against the quote provider's
	// rate limit. Default: 300.
	TradeDelayStepMs int

	// SwapDelayStepMs staggers swap-batch legs. Default: 25.
	SwapDelayStepMs int

	// AuditDBPath is the BoltDB file recording successful quotes.
	// Default: "./data/quote-audit.db"
	AuditDBPath string

	// AuditEnabled controls whether quotes are recorded at all.
	// Default: true
	AuditEnabled bool

	// RateLimitRPS / RateLimitBurst shape the per-IP HTTP rate limiter.
	RateLimitRPS   int
	RateLimitBurst int
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.TradeDelayStepMs = getEnvOrDefaultInt("TRADE_DELAY_STEP_MS", 300)
	c.SwapDelayStepMs = getEnvOrDefaultInt("SWAP_DELAY_STEP_MS", 25)
	c.AuditDBPath = getEnvOrDefault("AUDIT_DB_PATH", "./data/quote-audit.db")
	c.AuditEnabled = getEnvOrDefault("AUDIT_ENABLED", "true") == "true"
	c.RateLimitRPS = getEnvOrDefaultInt("RATE_LIMIT_RPS", 10)
	c.RateLimitBurst = getEnvOrDefaultInt("RATE_LIMIT_BURST", 20)
	return nil
}

func (c *EngineConfig) Validate() error {
	return nil
}
