package configs

// GenAI configures the ad-copy generator. When disabled, or whenever
// generation fails, deterministic template copy is used instead.
type GenAI struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gemini-2.0-flash"`
}
