package config

import (
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// fileConfig is the optional TOML file named by CONFIG_FILE. Its values
// replace the built-in defaults; environment variables still win.
type fileConfig struct {
	ServerPort string `toml:"server_port"`
	LogDir     string `toml:"log_dir"`
	LogLevel   string `toml:"log_level"`

	Indexer struct {
		SubscriptionKey string `toml:"subscription_key"`
		AccountID       string `toml:"account_id"`
		Location        string `toml:"location"`
		BaseURL         string `toml:"base_url"`
		StreamingPreset string `toml:"streaming_preset"`
		PollInterval    string `toml:"poll_interval"`
	} `toml:"indexer"`
}

func loadFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if strings.TrimSpace(path) == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := toml.Unmarshal(data, fc); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	return fc, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func orDefaultDuration(v string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", v)
	}
	return d, nil
}
