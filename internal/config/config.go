package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/finalframe/internal/protocol/frame"
)

// FeedConfig configures a Final Frame feed listener.
type FeedConfig struct {
	Name           string
	ListenAddr     string
	MulticastGroup string
	Interface      string
	HasCategory    bool
	Category       uint8
	ReadBuffer     int
	MetricsAddr    string
}

type fileConfig struct {
	Name           string `toml:"name"`
	ListenAddr     string `toml:"listen_addr"`
	MulticastGroup string `toml:"multicast_group"`
	Interface      string `toml:"interface"`
	Category       int    `toml:"category"`
	ReadBuffer     int    `toml:"read_buffer"`
	MetricsAddr    string `toml:"metrics_addr"`
}

func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Name:        "ffctl",
		ListenAddr:  "0.0.0.0:8600",
		ReadBuffer:  frame.MaxFrameLen,
		MetricsAddr: "127.0.0.1:9600",
	}
}

// LoadFeedConfig applies the keys present in the TOML file at path over
// DefaultFeedConfig and validates the result.
func LoadFeedConfig(path string) (FeedConfig, error) {
	cfg := DefaultFeedConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return FeedConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FeedConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("multicast_group") {
		cfg.MulticastGroup = strings.TrimSpace(raw.MulticastGroup)
	}
	if meta.IsDefined("interface") {
		cfg.Interface = strings.TrimSpace(raw.Interface)
	}
	if meta.IsDefined("category") {
		if raw.Category < 0 || raw.Category > 255 {
			return FeedConfig{}, fmt.Errorf("category out of range: %d", raw.Category)
		}
		cfg.HasCategory = true
		cfg.Category = uint8(raw.Category)
	}
	if meta.IsDefined("read_buffer") {
		cfg.ReadBuffer = raw.ReadBuffer
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := ValidateFeedConfig(cfg); err != nil {
		return FeedConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidateFeedConfig(cfg FeedConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("feed config missing name")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("feed config missing listen_addr")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr invalid: %w", err)
	}
	if cfg.MulticastGroup != "" {
		ip := net.ParseIP(cfg.MulticastGroup)
		if ip == nil || !ip.IsMulticast() || ip.To4() == nil {
			return fmt.Errorf("multicast_group is not an IPv4 multicast address: %q", cfg.MulticastGroup)
		}
	} else if cfg.Interface != "" {
		return fmt.Errorf("interface requires multicast_group")
	}
	if cfg.ReadBuffer < frame.WrapLen {
		return fmt.Errorf("read_buffer must be at least %d", frame.WrapLen)
	}
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics_addr invalid: %w", err)
		}
	}
	return nil
}
