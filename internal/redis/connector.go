package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrlink/internal/config"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

// retryPolicy holds the backoff settings for the initial connection.
type retryPolicy struct {
	maxWait       time.Duration
	pingTimeout   time.Duration
	initialWait   time.Duration
	totalTimeout  time.Duration
	warnThreshold int // warn after this many attempts
}

func policyFrom(cfg config.Redis) (retryPolicy, error) {
	switch {
	case cfg.ConnectTimeout <= 0:
		return retryPolicy{}, fmt.Errorf("redis connect_timeout must be > 0, got %v", cfg.ConnectTimeout)
	case cfg.RetryInterval <= 0:
		return retryPolicy{}, fmt.Errorf("redis retry_interval must be > 0, got %v", cfg.RetryInterval)
	case cfg.MaxWait <= 0:
		return retryPolicy{}, fmt.Errorf("redis max_wait must be > 0, got %v", cfg.MaxWait)
	case cfg.PingTimeout <= 0:
		return retryPolicy{}, fmt.Errorf("redis ping_timeout must be > 0, got %v", cfg.PingTimeout)
	case cfg.WarnThreshold < 0:
		return retryPolicy{}, fmt.Errorf("redis warn_threshold must be >= 0, got %d", cfg.WarnThreshold)
	}
	return retryPolicy{
		maxWait:       cfg.MaxWait,
		pingTimeout:   cfg.PingTimeout,
		initialWait:   cfg.RetryInterval,
		totalTimeout:  cfg.ConnectTimeout,
		warnThreshold: cfg.WarnThreshold,
	}, nil
}

// Connect creates a Redis client and pings it with exponential backoff until
// it answers, ctx is cancelled, or ConnectTimeout elapses. The client is
// closed on failure.
func Connect(ctx context.Context, cfg config.Redis, log logger.Logger) (*redis.Client, error) {
	policy, err := policyFrom(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	log = log.With(logger.String("addr", cfg.Addr))
	if err := waitForPing(ctx, client, policy, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitForPing(parent context.Context, client *redis.Client, policy retryPolicy, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, policy.totalTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.Duration("timeout", policy.totalTimeout))

	start := time.Now()
	wait := policy.initialWait

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, policy.pingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable - failed to connect after timeout",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", policy.totalTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable after %d attempts (timeout: %v): %w",
				attempt, policy.totalTimeout, err)

		case <-timer.C:
			logRetry(log, attempt, timeLeft(ctx), wait, policy.warnThreshold, err)
			// Exponential backoff with cap
			wait *= 2
			if wait > policy.maxWait {
				wait = policy.maxWait
			}
		}
	}
}

func logRetry(log logger.Logger, attempt int, remaining, nextRetry time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		log.Error("redis still down - retrying but timeout approaching",
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	case attempt <= warnThreshold:
		log.Warn("redis connection failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	default:
		log.Error("redis still unavailable - connection attempts failing",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
