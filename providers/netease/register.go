package netease

import (
	"github.com/liuran001/MusicDesk-Go/server/config"
	logpkg "github.com/liuran001/MusicDesk-Go/server/logger"
	"github.com/liuran001/MusicDesk-Go/server/music/plugins"
)

func init() {
	if err := plugins.Register(Name, buildContribution); err != nil {
		panic(err)
	}
}

func buildContribution(cfg *config.Config, logger *logpkg.Logger) (*plugins.Contribution, error) {
	client := NewClient(
		cfg.GetProviderString(Name, "music_u"),
		cfg.GetProviderBool(Name, "spoof_ip"),
		logger,
	)
	provider := New(client, cfg.GetProviderString(Name, "level"), logger)
	return &plugins.Contribution{Provider: provider}, nil
}
