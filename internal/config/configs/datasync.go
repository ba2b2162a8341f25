package configs

// DataSync points at the external data platform's tool endpoint, where the
// engine persists campaign structures and reads performance reports.
type DataSync struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9090"`
	Token   string `env:"TOKEN"`
}
