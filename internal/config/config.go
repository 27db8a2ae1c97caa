package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Mode       string     `yaml:"mode" env:"MODE" env-default:"sim"`
	HTTPServer HTTPServer `yaml:"http_server"`
	WSServer   WSServer   `yaml:"ws_server"`
	Event      Event      `yaml:"event"`
	Feed       Feed       `yaml:"feed"`
	Sim        Sim        `yaml:"sim"`
	Remote     Remote     `yaml:"remote"`
	Archive    Archive    `yaml:"archive"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Event selects the push backend used to notify UIs: the in-house ws hub
// (cmd/ws) or a hosted Pusher application.
type Event struct {
	Backend string `yaml:"backend" env-default:"ws"`
	WSURL   string `yaml:"ws_url" env-default:"ws://localhost:8081/ws?room=game"`
	Pusher  Pusher `yaml:"pusher"`
}

type Pusher struct {
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env:"PUSHER_CLUSTER"`
}

type Feed struct {
	PollInterval time.Duration `yaml:"poll_interval" env-default:"5s"`
	// MaxAttempts caps poll retries per request id; 0 polls forever.
	MaxAttempts int `yaml:"max_attempts" env-default:"0"`
}

// Sim configures the in-memory collaborator. Amounts are decimal token
// strings, converted to base units at load time.
type Sim struct {
	HouseEdgeBps    int           `yaml:"house_edge_bps" env-default:"200"`
	MinBet          string        `yaml:"min_bet" env-default:"0.001"`
	MaxBet          string        `yaml:"max_bet" env-default:"1"`
	RewardPool      string        `yaml:"reward_pool" env-default:"100"`
	StartingBalance string        `yaml:"starting_balance" env-default:"10"`
	MinDelay        time.Duration `yaml:"min_delay" env-default:"3s"`
	MaxDelay        time.Duration `yaml:"max_delay" env-default:"5s"`
}

type Remote struct {
	BaseURL string `yaml:"base_url" env:"REMOTE_BASE_URL"`
	WSURL   string `yaml:"ws_url" env:"REMOTE_WS_URL"`
}

type Archive struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	DSN     string `yaml:"dsn" env:"ARCHIVE_DSN"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}
