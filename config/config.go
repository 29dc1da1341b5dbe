// Package config loads boot configuration: two required environment
// variables (spec §6.4) plus an optional TOML file layering the tunable
// knobs the spec leaves as implementation defaults.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"digichain/core/types"
	"digichain/crypto"
)

// Fatal env vars per spec §6.4.
const (
	envAddress    = "ADDRESS"
	envPrivateKey = "PRIVATE_KEY"
)

// Config is the node's boot configuration: the required validator
// identity plus the optional file-tunable knobs.
type Config struct {
	Address    types.Address
	PrivateKey *crypto.PrivateKey

	ListenAddress  string        `toml:"ListenAddress"`
	RPCAddress     string        `toml:"RPCAddress"`
	DataDir        string        `toml:"DataDir"`
	TickInterval   time.Duration `toml:"TickInterval"`
	ChainID        string        `toml:"ChainID"`
	BootstrapPeers []string      `toml:"BootstrapPeers"`
}

// fileConfig is the TOML-decodable subset of Config; Address/PrivateKey
// never round-trip through the file, only the environment (spec §6.4).
type fileConfig struct {
	ListenAddress  string   `toml:"ListenAddress"`
	RPCAddress     string   `toml:"RPCAddress"`
	DataDir        string   `toml:"DataDir"`
	TickInterval   string   `toml:"TickInterval"`
	ChainID        string   `toml:"ChainID"`
	BootstrapPeers []string `toml:"BootstrapPeers"`
}

// Load reads ADDRESS and PRIVATE_KEY from the environment — absence is
// fatal, per spec §6.4 — then layers path's TOML file if present,
// generating a default file when it is missing (mirroring the teacher's
// generate-if-missing pattern, minus the validator key it used to
// persist: that material now always comes from the environment).
func Load(path string) (*Config, error) {
	addrHex := os.Getenv(envAddress)
	if addrHex == "" {
		return nil, fmt.Errorf("config: required environment variable %s is not set", envAddress)
	}
	keyHex := os.Getenv(envPrivateKey)
	if keyHex == "" {
		return nil, fmt.Errorf("config: required environment variable %s is not set", envPrivateKey)
	}

	addr, err := types.ParseAddress(addrHex)
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", envAddress, err)
	}
	keyBytes, err := hex.DecodeString(trimHexPrefix(keyHex))
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", envPrivateKey, err)
	}
	privKey, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", envPrivateKey, err)
	}

	cfg := defaultConfig()
	cfg.Address = addr
	cfg.PrivateKey = privKey

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaultFile(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, err
	}
	applyFile(cfg, fc)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress: ":6001",
		RPCAddress:    ":8080",
		DataDir:       "./digichain-data",
		TickInterval:  3 * time.Second,
		ChainID:       "digichain-1",
	}
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.ListenAddress != "" {
		cfg.ListenAddress = fc.ListenAddress
	}
	if fc.RPCAddress != "" {
		cfg.RPCAddress = fc.RPCAddress
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.ChainID != "" {
		cfg.ChainID = fc.ChainID
	}
	if fc.TickInterval != "" {
		if d, err := time.ParseDuration(fc.TickInterval); err == nil && d > 0 {
			cfg.TickInterval = d
		}
	}
	if len(fc.BootstrapPeers) > 0 {
		cfg.BootstrapPeers = fc.BootstrapPeers
	}
}

func writeDefaultFile(path string, cfg *Config) error {
	fc := fileConfig{
		ListenAddress:  cfg.ListenAddress,
		RPCAddress:     cfg.RPCAddress,
		DataDir:        cfg.DataDir,
		TickInterval:   cfg.TickInterval.String(),
		ChainID:        cfg.ChainID,
		BootstrapPeers: []string{},
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(fc)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
