package push

import (
	"context"
	"log/slog"

	"github.com/go-band-notify/internal/domain"
)

// LogGateway writes each push to the log and reports it delivered. It is the
// development provider.
type LogGateway struct {
	log *slog.Logger
}

func NewLogGateway(log *slog.Logger) *LogGateway {
	return &LogGateway{log: log.With("component", "push_log")}
}

func (g *LogGateway) SendMulticast(_ context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error) {
	out := make([]domain.TokenResult, len(tokens))
	for i, t := range tokens {
		g.log.Info("push",
			"recipient_id", t.RecipientID,
			"platform", t.Platform,
			"title", msg.Title,
			"data_keys", len(msg.Data),
		)
		out[i] = delivered(t.Token)
	}
	return out, nil
}
