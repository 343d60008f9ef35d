package worker

import (
	"context"

	"github.com/rs/zerolog"

	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
)

// NewBootTask loads the asset catalog on LOAD_ASSETS.
func NewBootTask(api gateway.MarketAPI, log zerolog.Logger) Task {
	t := &oneShot{base: newBase(NameBoot, log)}
	t.handle = func(ctx context.Context, cmd message.Envelope) (message.Envelope, bool, error) {
		if cmd.Kind != message.LoadAssets {
			return message.Envelope{}, false, errUnsupported(NameBoot, cmd.Kind)
		}
		assets, err := api.FetchAllAssets(ctx)
		if err != nil {
			return message.Envelope{}, false, err
		}
		t.log.Info().Int("assets", len(assets)).Msg("catalog loaded")
		env, err := message.New(message.AssetsLoaded, message.CatalogPayload{Assets: assets})
		return env, err == nil, err
	}
	return t
}
