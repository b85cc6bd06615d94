package config

import (
	"encoding/base64"

	"github.com/rs/zerolog"

	"github.com/pkg/errors"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const MsgFailedToReadConfiguration = "failed to read configuration"

var ErrFailedToReadConfiguration = errors.New(MsgFailedToReadConfiguration)

type Configuration struct {
	EventLogSettings struct {
		Mode                   string `envconfig:"EVENT_LOG_MODE" default:"production"`
		MinLevel               string `envconfig:"EVENT_LOG_MIN_LEVEL" default:"info"`
		TraceEnabled           bool   `envconfig:"EVENT_LOG_TRACE" default:"false"`
		MemoryLogSize          int    `envconfig:"EVENT_MEMORY_LOG_SIZE" required:"true" default:"500"`
		SlowQueryCapacity      int    `envconfig:"SLOW_QUERY_CAPACITY" default:"100"`
		SlowRequestThresholdMs int    `envconfig:"SLOW_REQUEST_THRESHOLD_MS" default:"1000"`
		AlertWebhookURL        string `envconfig:"ALERT_WEBHOOK_URL" default:""`
		AlertEventTTLSeconds   int    `envconfig:"ALERT_EVENT_TTL_SECONDS" default:"3600"`
	}
	PostgresDB struct {
		Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
		Port     uint32 `envconfig:"POSTGRES_PORT" default:"5432"`
		User     string `envconfig:"POSTGRES_USER" default:"postgres"`
		Pass     string `envconfig:"POSTGRES_PASS" default:"postgres"`
		Database string `envconfig:"POSTGRES_DB" default:"ranch"`
		Schema   string `envconfig:"POSTGRES_SCHEMA" default:"ranch"`
		SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	}
	APIPort                       uint16        `envconfig:"API_PORT" default:"8080"`
	Authorization                 bool          `envconfig:"AUTHORIZATION" default:"true"`
	ClientID                      string        `envconfig:"CLIENT_ID" default:""`
	ClientSecret                  string        `envconfig:"CLIENT_SECRET" default:""`
	EnableTLS                     bool          `envconfig:"ENABLE_TLS" default:"false"`
	CertPath                      string        `envconfig:"CERT_PATH" default:"../ranch_cert.pem"`
	KeyPath                       string        `envconfig:"KEY_PATH" default:"../ranch_key.pem"`
	Development                   bool          `envconfig:"DEVELOPMENT" default:"false"`
	PermittedOrigin               string        `envconfig:"PERMITTED_ORIGIN_URL" default:"*"`
	OIDCBaseURL                   string        `envconfig:"OIDC_BASE_URL" default:""`
	LogLevel                      zerolog.Level `envconfig:"LOG_LEVEL" default:"1"`
	ApplicationName               string        `envconfig:"APPLICATION_NAME" default:"ranchapi"`
	Proxy                         string        `envconfig:"PROXY" default:""`
	RequestTimeoutSeconds         int           `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`
	StandardAPIClientTimeoutSecs  uint          `envconfig:"STANDARD_API_CLIENT_TIMEOUT_SECONDS" default:"10"`
	RedisUrl                      string        `envconfig:"REDIS_URL" default:""`
	RedisPort                     int           `envconfig:"REDIS_PORT" default:"6379"`
	MetricsPublishIntervalSeconds int           `envconfig:"METRICS_PUBLISH_INTERVAL_SECONDS" default:"30"`
	RanchApiURL                   string        `envconfig:"RANCH_API_URL" default:"http://localhost:8080"`

	ClientCredentialAuthHeaderValue string
}

func ReadConfiguration() (Configuration, error) {
	var config Configuration
	err := envconfig.Process("", &config)
	if err != nil {
		err = errors.Wrap(err, MsgFailedToReadConfiguration)
		log.Error().Err(err).Msgf("%s\n", ErrFailedToReadConfiguration)
		return config, err
	}
	config.ClientCredentialAuthHeaderValue = base64.StdEncoding.EncodeToString([]byte(config.ClientID + ":" + config.ClientSecret))
	return config, nil
}
