package push

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-band-notify/internal/domain"
	"google.golang.org/api/option"
)

// fcmMaxTokens is the FCM limit for one multicast request.
const fcmMaxTokens = 500

type fcmAPI interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMGateway sends through Firebase Cloud Messaging.
type FCMGateway struct {
	client fcmAPI
	log    *slog.Logger
}

func NewFCMGateway(client fcmAPI, log *slog.Logger) *FCMGateway {
	return &FCMGateway{client: client, log: log.With("component", "push_fcm")}
}

// NewFCMClient initialises a Firebase app from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return client, nil
}

func (g *FCMGateway) SendMulticast(ctx context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error) {
	out := make([]domain.TokenResult, 0, len(tokens))
	for start := 0; start < len(tokens); start += fcmMaxTokens {
		chunk := tokens[start:min(start+fcmMaxTokens, len(tokens))]
		ids := make([]string, len(chunk))
		for i, t := range chunk {
			ids[i] = t.Token
		}
		resp, err := g.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       ids,
			Data:         msg.Data,
			Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		})
		if err != nil {
			return append(out, allTransient(tokens[start:], err)...), fmt.Errorf("fcm multicast: %w", err)
		}
		for i, t := range chunk {
			out = append(out, classifyFCM(t.Token, resp, i))
		}
	}
	return out, nil
}

func classifyFCM(token string, resp *messaging.BatchResponse, i int) domain.TokenResult {
	if i >= len(resp.Responses) || resp.Responses[i] == nil {
		return transient(token, fmt.Errorf("fcm returned no response for token"))
	}
	r := resp.Responses[i]
	if r.Success {
		return delivered(token)
	}
	err := r.Error
	if err == nil {
		err = fmt.Errorf("fcm send failed without detail")
	}
	// INVALID_ARGUMENT also covers malformed or oversized payloads, so only
	// the codes that name the token itself mark it invalid.
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err),
		messaging.IsUnregistered(err),
		messaging.IsSenderIDMismatch(err):
		return invalid(token, err)
	default:
		return transient(token, err)
	}
}
