// notify/notify.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Revocation is the event emitted when the sweep strips a participant's eligibility.
type Revocation struct {
	EventID       string    `json:"event_id"`
	ParticipantID int64     `json:"participant_id"`
	Handle        string    `json:"handle,omitempty"`
	Wallet        string    `json:"wallet"`
	BalanceRaw    string    `json:"balance_raw"`
	MinRaw        string    `json:"min_raw"`
	MinUSD        string    `json:"min_usd"`
	Kicked        bool      `json:"kicked"`
	Reason        string    `json:"reason"`
	RevokedAt     time.Time `json:"revoked_at"`
}

const (
	ReasonBelowThreshold = "below_threshold"
	ReasonInvalidWallet  = "invalid_wallet"
)

// Notifier tells a participant they lost eligibility. Implementations must not
// block the caller for long; failures are reported, never retried.
type Notifier interface {
	NotifyRevoked(ctx context.Context, ev Revocation) error
}

// LogNotifier writes revocations to the log. Used when no broker is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyRevoked(_ context.Context, ev Revocation) error {
	n.Logger.Info("📣 participant revoked",
		zap.Int64("participant_id", ev.ParticipantID),
		zap.String("wallet", ev.Wallet),
		zap.String("reason", ev.Reason),
		zap.Bool("kicked", ev.Kicked))
	return nil
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes revocations as JSON on a Pub/Sub channel. The chat
// front end subscribes and messages the participant.
type RedisNotifier struct {
	client  publisher
	channel string
	closer  func() error
}

// NewRedisNotifier connects to redisURL (redis://...) and checks the connection.
func NewRedisNotifier(ctx context.Context, redisURL, channel string, logger *zap.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	logger.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.String("channel", channel))

	return &RedisNotifier{client: rdb, channel: channel, closer: rdb.Close}, nil
}

func (n *RedisNotifier) NotifyRevoked(ctx context.Context, ev Revocation) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode revocation: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish revocation for %d: %w", ev.ParticipantID, err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}
