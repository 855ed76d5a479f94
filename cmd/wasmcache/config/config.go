// Package config parses wasmcache operator tool configuration from defaults,
// a JSON config file and command line flags.
package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/docker/go-units"
	"github.com/facebookgo/stackerr"

	"github.com/skipor/wasmcache/log"
)

type Config struct {
	Dir            string `json:"dir,omitempty"`
	LogDestination string `json:"log-destination,omitempty"` // Stdout, stderr, or filepath.
	LogLevel       string `json:"log-level,omitempty"`
	// Capabilities is comma-delimited list of host capability names.
	Capabilities string `json:"capabilities,omitempty"`
	// Size values like 3m, 512k, 1000000b.
	MaxModuleSize string `json:"max-module-size,omitempty"`
}

func Default() *Config {
	return &Config{
		Dir:            ".wasmcache",
		LogDestination: "stderr",
		LogLevel:       "info",
		Capabilities:   "iterator,staking",
		MaxModuleSize:  "3m",
	}
}

// Merge fills empty override fields from def.
func Merge(def, override *Config) error {
	return stackerr.Wrap(mergo.Merge(override, def))
}

// Parsed is ready to use configuration.
type Parsed struct {
	Dir            string
	LogDestination io.Writer
	LogLevel       log.Level
	Capabilities   []string
	MaxModuleSize  int64
}

func Parse(conf Config) (parsed Parsed, err error) {
	parsed.Dir = conf.Dir
	parsed.LogDestination, err = logDestination(conf.LogDestination)
	if err != nil {
		err = stackerr.Newf("Log destination open error: %v", err)
		return
	}
	parsed.LogLevel, err = log.LevelFromString(strings.ToUpper(conf.LogLevel))
	if err != nil {
		err = stackerr.Newf("Log level parse error: %v", err)
		return
	}
	parsed.Capabilities = SplitCapabilities(conf.Capabilities)
	parsed.MaxModuleSize, err = units.RAMInBytes(conf.MaxModuleSize)
	if err != nil {
		err = stackerr.Newf("Max module size parse error: %v", err)
		return
	}
	return
}

// SplitCapabilities turns a comma-delimited capability list into names.
func SplitCapabilities(s string) []string {
	var caps []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			caps = append(caps, c)
		}
	}
	return caps
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	conf := &Config{}
	if err := json.Unmarshal(data, conf); err != nil {
		return nil, stackerr.Wrap(err)
	}
	return conf, nil
}

func logDestination(dest string) (w io.Writer, err error) {
	switch strings.ToLower(dest) {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		w, err = os.OpenFile(dest, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	}
	return
}
