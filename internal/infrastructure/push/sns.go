package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

// snsAPI is the part of the SNS client the gateway uses.
type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSGateway publishes to per-token platform endpoints. Endpoint ARNs are
// cached so a token is registered with SNS once per process lifetime window.
type SNSGateway struct {
	client    snsAPI
	appARNs   map[domain.Platform]string
	endpoints *gocache.Cache
	log       *slog.Logger
}

func NewSNSGateway(client snsAPI, appARNs map[domain.Platform]string, log *slog.Logger) *SNSGateway {
	return &SNSGateway{
		client:    client,
		appARNs:   appARNs,
		endpoints: gocache.New(24*time.Hour, time.Hour),
		log:       log.With("component", "push_sns"),
	}
}

// NewSNSClient builds the SNS client from config the same way the
// DynamoDB client is built, including the LocalStack endpoint override.
func NewSNSClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Push.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

func (g *SNSGateway) SendMulticast(ctx context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error) {
	payload, err := snsEnvelope(msg)
	if err != nil {
		return allTransient(tokens, err), err
	}
	out := make([]domain.TokenResult, len(tokens))
	for i, t := range tokens {
		if err := ctx.Err(); err != nil {
			out[i] = transient(t.Token, err)
			continue
		}
		out[i] = g.sendOne(ctx, t, payload)
	}
	return out, nil
}

func (g *SNSGateway) sendOne(ctx context.Context, t domain.DeviceToken, payload string) domain.TokenResult {
	arn, err := g.endpoint(ctx, t)
	if err != nil {
		if isRejectedTokenErr(err) {
			return invalid(t.Token, err)
		}
		return transient(t.Token, err)
	}
	_, err = g.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(arn),
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	if err == nil {
		return delivered(t.Token)
	}
	if isDeadEndpointErr(err) {
		g.endpoints.Delete(cacheKey(t))
		return invalid(t.Token, err)
	}
	return transient(t.Token, err)
}

// endpoint returns the platform endpoint for t. The endpoint carries no
// per-recipient attributes: a token moves between recipients on
// re-registration and SNS refuses to recreate an endpoint whose attributes
// differ.
func (g *SNSGateway) endpoint(ctx context.Context, t domain.DeviceToken) (string, error) {
	key := cacheKey(t)
	if arn, ok := g.endpoints.Get(key); ok {
		return arn.(string), nil
	}
	appARN := g.appARNs[t.Platform]
	if appARN == "" {
		return "", fmt.Errorf("no SNS platform application for %s: %w", t.Platform, domain.ErrConfiguration)
	}
	out, err := g.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appARN),
		Token:                  aws.String(t.Token),
	})
	var arn string
	if err == nil {
		arn = aws.ToString(out.EndpointArn)
	} else if existing, ok := existingEndpoint(err); ok {
		g.log.Debug("reusing existing SNS endpoint", "endpoint_arn", existing)
		arn = existing
	} else {
		return "", err
	}
	g.endpoints.SetDefault(key, arn)
	return arn, nil
}

func cacheKey(t domain.DeviceToken) string {
	return string(t.Platform) + "|" + t.Token
}

var existingEndpointRE = regexp.MustCompile(`Endpoint (arn:\S+) already exists`)

// existingEndpoint extracts the ARN SNS names when the token is already
// registered under different attributes.
func existingEndpoint(err error) (string, bool) {
	var badParam *types.InvalidParameterException
	if !errors.As(err, &badParam) {
		return "", false
	}
	m := existingEndpointRE.FindStringSubmatch(badParam.ErrorMessage())
	if m == nil {
		return "", false
	}
	return m[1], true
}

// isRejectedTokenErr reports whether CreatePlatformEndpoint refused the token
// value itself. Other invalid parameters are request problems.
func isRejectedTokenErr(err error) bool {
	var badParam *types.InvalidParameterException
	if !errors.As(err, &badParam) {
		return false
	}
	m := badParam.ErrorMessage()
	return strings.Contains(m, "Token") && !strings.Contains(m, "already exists")
}

// isDeadEndpointErr reports whether Publish found the endpoint disabled by
// the platform or deleted.
func isDeadEndpointErr(err error) bool {
	var disabled *types.EndpointDisabledException
	var notFound *types.NotFoundException
	return errors.As(err, &disabled) || errors.As(err, &notFound)
}

type apnsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// snsEnvelope renders the per-platform JSON message SNS expects when
// MessageStructure is "json".
func snsEnvelope(msg domain.PushMessage) (string, error) {
	apns := map[string]any{
		"aps": map[string]any{"alert": apnsAlert{Title: msg.Title, Body: msg.Body}},
	}
	for k, v := range msg.Data {
		if k != "aps" {
			apns[k] = v
		}
	}
	gcm := map[string]any{
		"notification": map[string]string{"title": msg.Title, "body": msg.Body},
		"data":         msg.Data,
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", fmt.Errorf("encode APNS payload: %w", err)
	}
	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", fmt.Errorf("encode GCM payload: %w", err)
	}
	env, err := json.Marshal(map[string]string{
		"default":      msg.Title,
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
		"GCM":          string(gcmJSON),
	})
	if err != nil {
		return "", fmt.Errorf("encode SNS envelope: %w", err)
	}
	return string(env), nil
}
