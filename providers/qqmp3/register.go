package qqmp3

import (
	"time"

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
	timeoutSec := cfg.GetProviderInt(Name, "timeout")
	if timeoutSec <= 0 {
		timeoutSec = cfg.GetInt("RequestTimeout")
	}
	if timeoutSec <= 0 {
		timeoutSec = 10
	}

	client := NewClient(Options{
		BaseURL: cfg.GetProviderString(Name, "base_url"),
		Timeout: time.Duration(timeoutSec) * time.Second,
		Logger:  logger,
	})

	return &plugins.Contribution{Provider: New(client, logger)}, nil
}
