package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config is the process configuration, environment-driven. Contract ids
// default to the deployed testnet package; the signing key is optional and
// its absence puts the process in read-only mode.
type Config struct {
	RPCURL     string `env:"SUILOTTO_RPC_URL" envDefault:"https://fullnode.testnet.sui.io:443"`
	PackageID  string `env:"SUILOTTO_PACKAGE_ID" envDefault:"0xb686b3d681fceeeca283a24cbb790c2aa0f3fa568bf1e3e2603ba456fc368634"`
	AdminCapID string `env:"SUILOTTO_ADMIN_CAP_ID" envDefault:"0x3a334f4f140047935cc6fb06d7935a75a3787106b43bf21baf09659acd6605d7"`
	ClockID    string `env:"SUILOTTO_CLOCK_ID" envDefault:"0x6"`
	RandomID   string `env:"SUILOTTO_RANDOM_ID" envDefault:"0x8"`

	// Key is the base64 ed25519 seed of the signing account.
	Key       string `env:"SUILOTTO_KEY"`
	GasBudget uint64 `env:"SUILOTTO_GAS_BUDGET" envDefault:"50000000"`

	PollInterval time.Duration `env:"SUILOTTO_POLL_INTERVAL" envDefault:"15s"`
	ListenAddr   string        `env:"SUILOTTO_LISTEN_ADDR" envDefault:":8080"`
	StateFile    string        `env:"SUILOTTO_STATE_FILE" envDefault:"data/current_lottery"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	return &cfg, nil
}
