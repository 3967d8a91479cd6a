package push

import (
	"context"
	"log/slog"

	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
)

// FromConfig builds the configured provider. Missing or broken credentials
// never stop the service: the provider degrades to Unconfigured and the
// failure is logged.
func FromConfig(ctx context.Context, cfg *config.Config, log *slog.Logger) Gateway {
	p := cfg.Push
	switch p.Provider {
	case config.ProviderSNS:
		if p.SNSAppARNIOS == "" && p.SNSAppARNAndroid == "" {
			log.Error("sns provider selected without platform application ARNs")
			return NewUnconfigured("sns platform application ARNs missing")
		}
		client, err := NewSNSClient(ctx, cfg)
		if err != nil {
			log.Error("sns client init failed", "err", err)
			return NewUnconfigured("sns client init failed")
		}
		gw := NewSNSGateway(client, map[domain.Platform]string{
			domain.PlatformIOS:     p.SNSAppARNIOS,
			domain.PlatformAndroid: p.SNSAppARNAndroid,
		}, log)
		return NewBreaker("sns", gw, p.BreakerMaxFailures, p.BreakerOpenTimeout, log)
	case config.ProviderFCM:
		if p.FCMCredentialsFile == "" {
			log.Error("fcm provider selected without FCM_CREDENTIALS_FILE")
			return NewUnconfigured("fcm credentials missing")
		}
		client, err := NewFCMClient(ctx, p.FCMCredentialsFile)
		if err != nil {
			log.Error("fcm client init failed", "err", err)
			return NewUnconfigured("fcm client init failed")
		}
		return NewBreaker("fcm", NewFCMGateway(client, log), p.BreakerMaxFailures, p.BreakerOpenTimeout, log)
	default:
		return NewLogGateway(log)
	}
}
