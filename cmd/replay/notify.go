package main

import (
	"fmt"

	"github.com/newthinker/replay/internal/notifier"
	"github.com/newthinker/replay/internal/notifier/telegram"
	"github.com/newthinker/replay/internal/notifier/webhook"
)

// buildNotifiers initializes the configured run notifiers
func buildNotifiers(cfgs []notifier.Config) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	for _, cfg := range cfgs {
		var n notifier.Notifier
		switch cfg.Type {
		case "webhook":
			n = &webhook.Webhook{}
		case "telegram":
			n = &telegram.Telegram{}
		default:
			return nil, fmt.Errorf("unknown notifier type %q", cfg.Type)
		}
		if err := n.Init(cfg); err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
