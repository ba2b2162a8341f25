package configs

import "time"

// Engine tunes the automation behaviour: optimization thresholds, the rule
// check schedule, cache freshness and the outbound retry policy.
type Engine struct {
	// TargetROAS is the baseline return-on-ad-spend the optimizer compares
	// adsets against.
	TargetROAS float64 `env:"TARGET_ROAS" envDefault:"3.0"`
	// TargetCPA is the baseline cost-per-acquisition in cents.
	TargetCPA float64 `env:"TARGET_CPA" envDefault:"1000"`
	// DefaultPlatform is used for A/B test structures when the caller does
	// not name a platform.
	DefaultPlatform string `env:"DEFAULT_PLATFORM" envDefault:"meta"`
	// RuleCheckSpec is the cron spec driving the internal rule evaluation
	// loop. Rules additionally gate themselves by their own check_interval.
	RuleCheckSpec string `env:"RULE_CHECK_SPEC" envDefault:"@every 10m"`
	// CacheTTL is how long campaign status reads stay fresh.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"300s"`
	// CallTimeout bounds each outbound attempt; MaxAttempts bounds retries.
	CallTimeout time.Duration `env:"CALL_TIMEOUT" envDefault:"30s"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
}
