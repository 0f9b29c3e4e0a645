package common

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	DBType string
	DBPath string
	DBDSN  string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	JWTSecret string

	Incident IncidentConfig
	Matcher  MatcherConfig
	Cascade  CascadeConfig
	Dialer   DialerConfig
	Jobs     JobsConfig
	Twilio   TwilioConfig
	Push     PushConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Kafka    KafkaConfig
}

type IncidentConfig struct {
	CancelWindow time.Duration
}

type MatcherConfig struct {
	RadiusMeters float64
	Limit        int
}

type CascadeConfig struct {
	MaxAttempts int
	MaxContacts int
	Concurrency int
}

type DialerConfig struct {
	CallCap        int
	InterCallDelay time.Duration
	RingTimeout    time.Duration
	GuardWindow    time.Duration
}

type JobsConfig struct {
	EscalateAfter      time.Duration
	ArchiveAfter       time.Duration
	EscalationSchedule string
	ArchiveSchedule    string
}

type TwilioConfig struct {
	BaseURL         string
	AccountSID      string
	AuthToken       string
	From            string
	CallbackBaseURL string
	// CallbackSecret signs voice callback URLs; AuthToken is used when empty.
	CallbackSecret string
}

func (t TwilioConfig) CallbackSigningKey() string {
	if t.CallbackSecret != "" {
		return t.CallbackSecret
	}
	return t.AuthToken
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != ""
}

type PushConfig struct {
	URL string
	Key string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	DeviceTopic string
}

type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

// LoadConfig reads .env (if present) and the process environment. Unset keys fall back to defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBType:       getEnv(EnvKeySOSDBType, "file"),
		DBPath:       getEnv(EnvKeySOSDbPath, "sos.db"),
		DBDSN:        getEnv(EnvKeySOSDbDSN, ""),
		HttpHostPort: getEnv(EnvKeySOSHttpHostPort, ":1080"),
		GrpcHostPort: getEnv(EnvKeySOSGrpcHostPort, ""),
		DefaultRate:  cast.ToFloat64(getEnv(EnvKeySOSDefaultRate, "5")),
		DefaultBurst: cast.ToInt(getEnv(EnvKeySOSDefaultBurst, "10")),
		JWTSecret:    getEnv(EnvKeySOSJWTSecret, ""),
		Incident: IncidentConfig{
			CancelWindow: getEnvAsDuration(EnvKeySOSCancelWindow, 120*time.Second),
		},
		Matcher: MatcherConfig{
			RadiusMeters: cast.ToFloat64(getEnv(EnvKeySOSMatchRadius, "5000")),
			Limit:        cast.ToInt(getEnv(EnvKeySOSMatchLimit, "10")),
		},
		Cascade: CascadeConfig{
			MaxAttempts: cast.ToInt(getEnv(EnvKeySOSRetryMaxAttempts, "3")),
			MaxContacts: cast.ToInt(getEnv(EnvKeySOSCascadeMaxContacts, "0")),
			Concurrency: cast.ToInt(getEnv(EnvKeySOSCascadeConcurrency, "4")),
		},
		Dialer: DialerConfig{
			CallCap:        cast.ToInt(getEnv(EnvKeySOSDialCap, "3")),
			InterCallDelay: getEnvAsDuration(EnvKeySOSDialDelay, 2*time.Second),
			RingTimeout:    getEnvAsDuration(EnvKeySOSRingTimeout, 30*time.Second),
			GuardWindow:    getEnvAsDuration(EnvKeySOSDialGuardWindow, 5*time.Minute),
		},
		Jobs: JobsConfig{
			EscalateAfter:      getEnvAsDuration(EnvKeySOSEscalateAfter, 5*time.Minute),
			ArchiveAfter:       getEnvAsDuration(EnvKeySOSArchiveAfter, 30*24*time.Hour),
			EscalationSchedule: getEnv(EnvKeySOSEscalationSchedule, "@every 1m"),
			ArchiveSchedule:    getEnv(EnvKeySOSArchiveSchedule, "@daily"),
		},
		Twilio: TwilioConfig{
			BaseURL:         getEnv(EnvKeyTwilioBaseURL, "https://api.twilio.com"),
			AccountSID:      getEnv(EnvKeyTwilioAccountSID, ""),
			AuthToken:       getEnv(EnvKeyTwilioAuthToken, ""),
			From:            getEnv(EnvKeyTwilioFrom, ""),
			CallbackBaseURL: getEnv(EnvKeyTwilioCallbackBaseURL, ""),
			CallbackSecret:  getEnv(EnvKeyTwilioCallbackSecret, ""),
		},
		Push: PushConfig{
			URL: getEnv(EnvKeyPushURL, ""),
			Key: getEnv(EnvKeyPushKey, ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv(EnvKeySMTPHost, ""),
			Port:     cast.ToInt(getEnv(EnvKeySMTPPort, "587")),
			Username: getEnv(EnvKeySMTPUsername, ""),
			Password: getEnv(EnvKeySMTPPassword, ""),
			From:     getEnv(EnvKeySMTPFrom, "sos@example.com"),
		},
		Redis: RedisConfig{
			Addr:     getEnv(EnvKeyRedisAddr, ""),
			Password: getEnv(EnvKeyRedisPassword, ""),
			DB:       cast.ToInt(getEnv(EnvKeyRedisDB, "0")),
		},
		MQTT: MQTTConfig{
			Broker:      getEnv(EnvKeyMQTTBroker, ""),
			ClientID:    getEnv(EnvKeyMQTTClientID, "sos-response-service"),
			DeviceTopic: getEnv(EnvKeyMQTTDeviceTopic, "devices/+/events"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitNonEmpty(getEnv(EnvKeyKafkaBrokers, "")),
			TopicEvents: getEnv(EnvKeyKafkaTopicEvents, "sos.events"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := cast.ToDurationE(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	return Filter(Mapper(parts, strings.TrimSpace), func(p string) bool { return p != "" })
}
