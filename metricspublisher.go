package ranchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const metricsKeySuffix = ":metrics"

type MetricsSource interface {
	GetMetrics() model.MetricsSnapshot
}

type MetricsPublisher interface {
	PublishMetrics(ctx context.Context) error
	StartPublishing(ctx context.Context)
	Key() string
}

type metricsPublisher struct {
	redisClient redis.UniversalClient
	source      MetricsSource
	key         string
	interval    time.Duration
}

// NewRedisClient returns nil when no Redis URL is configured.
func NewRedisClient(configuration *config.Configuration) redis.UniversalClient {
	if configuration.RedisUrl == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", configuration.RedisUrl, configuration.RedisPort),
	})
}

func NewMetricsPublisher(redisClient redis.UniversalClient, source MetricsSource, applicationName string, interval time.Duration) MetricsPublisher {
	log.Trace().Msg("Creating new metrics publisher")
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &metricsPublisher{
		redisClient: redisClient,
		source:      source,
		key:         applicationName + metricsKeySuffix,
		interval:    interval,
	}
}

func (p *metricsPublisher) Key() string {
	return p.key
}

// PublishMetrics stores the current snapshot; it expires after three publishing intervals.
func (p *metricsPublisher) PublishMetrics(ctx context.Context) error {
	if p.redisClient == nil {
		return ErrPublisherNotConfigured
	}
	payload, err := json.Marshal(convertMetricsSnapshotToTO(p.source.GetMetrics()))
	if err != nil {
		return errors.Wrap(err, msgPublishMetricsFailed)
	}
	if err = p.redisClient.Set(ctx, p.key, payload, 3*p.interval).Err(); err != nil {
		return errors.Wrap(err, msgPublishMetricsFailed)
	}
	return nil
}

func (p *metricsPublisher) StartPublishing(ctx context.Context) {
	if p.redisClient == nil {
		log.Info().Msg("Redis is not configured, metrics are not published")
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Metrics publishing stopped")
			return
		case <-ticker.C:
			if err := p.PublishMetrics(ctx); err != nil {
				log.Warn().Err(err).Str("key", p.key).Msg(msgPublishMetricsFailed)
			}
		}
	}
}
