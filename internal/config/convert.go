package config

import "github.com/danmuck/finalframe/internal/feed"

func ListenerConfig(cfg FeedConfig) feed.ListenerConfig {
	return feed.ListenerConfig{
		Addr:        cfg.ListenAddr,
		Group:       cfg.MulticastGroup,
		Interface:   cfg.Interface,
		HasCategory: cfg.HasCategory,
		Category:    cfg.Category,
		ReadBuffer:  cfg.ReadBuffer,
	}
}
