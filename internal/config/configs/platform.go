package configs

// Platform configures one ad-network adapter: where to reach the vendor
// API, the credential, and how aggressively the client may call it.
type Platform struct {
	BaseURL     string  `env:"BASE_URL"`
	AccessToken string  `env:"ACCESS_TOKEN"`
	AccountID   string  `env:"ACCOUNT_ID"`
	RateLimit   float64 `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst   int     `env:"RATE_BURST" envDefault:"10"`
}

// Platforms groups the three vendor configurations.
type Platforms struct {
	Meta   Platform `envPrefix:"META_"`
	TikTok Platform `envPrefix:"TIKTOK_"`
	Google Platform `envPrefix:"GOOGLE_"`
}
