package app

import (
	"fmt"

	"github.com/m3rciful/orderbot/core/bootstrap"
	"github.com/m3rciful/orderbot/core/cmd"
	"github.com/m3rciful/orderbot/core/state"
	coretelegram "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/internal/config"
	"github.com/m3rciful/orderbot/internal/orders"
	"github.com/m3rciful/orderbot/internal/profile"
)

// LoadConfig is the runner hook that reads the bot configuration.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap is the runner hook that initializes logging and storage and
// assembles the bot.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: orders.Migrations(),
	})
	if err != nil {
		return nil, err
	}

	store := orders.New(res.DB, cfg.Database.QueryTimeout)
	calc := cfg.Calculator()
	app, err := New(Deps{
		Store:    store,
		Sessions: state.NewStore(cfg.Session.IdleTimeout),
		Profiles: profile.NewClient(cfg.Profile, coretelegram.BuildHTTPClient()),
		Calc:     &calc,
		AdminID:  cfg.Telegram.AdminID,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	tg := NewTelegram(app, cfg)
	tg.Close = store.Close
	return tg, nil
}
