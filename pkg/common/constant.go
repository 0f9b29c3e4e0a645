package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeySOSDBType string = "SOS_DB_TYPE"
	EnvKeySOSDbPath string = "SOS_DB_PATH"
	EnvKeySOSDbDSN  string = "SOS_DB_DSN"

	EnvKeySOSHttpHostPort string = "SOS_HTTP_HOST_PORT"
	EnvKeySOSGrpcHostPort string = "SOS_GRPC_HOST_PORT"

	EnvKeySOSDefaultRate  string = "SOS_DEFAULT_RATE"
	EnvKeySOSDefaultBurst string = "SOS_DEFAULT_BURST"

	EnvKeySOSJWTSecret string = "SOS_JWT_SECRET"

	EnvKeySOSCancelWindow       string = "SOS_CANCEL_WINDOW"
	EnvKeySOSMatchRadius        string = "SOS_MATCH_RADIUS_M"
	EnvKeySOSMatchLimit         string = "SOS_MATCH_LIMIT"
	EnvKeySOSRetryMaxAttempts   string = "SOS_RETRY_MAX_ATTEMPTS"
	EnvKeySOSCascadeMaxContacts string = "SOS_CASCADE_MAX_CONTACTS"
	EnvKeySOSCascadeConcurrency string = "SOS_CASCADE_CONCURRENCY"
	EnvKeySOSDialCap            string = "SOS_DIAL_CAP"
	EnvKeySOSDialDelay          string = "SOS_DIAL_DELAY"
	EnvKeySOSRingTimeout        string = "SOS_RING_TIMEOUT"
	EnvKeySOSDialGuardWindow    string = "SOS_DIAL_GUARD_WINDOW"
	EnvKeySOSEscalateAfter      string = "SOS_ESCALATE_AFTER"
	EnvKeySOSArchiveAfter       string = "SOS_ARCHIVE_AFTER"
	EnvKeySOSEscalationSchedule string = "SOS_ESCALATION_SCHEDULE"
	EnvKeySOSArchiveSchedule    string = "SOS_ARCHIVE_SCHEDULE"
	EnvKeyTwilioBaseURL         string = "TWILIO_BASE_URL"
	EnvKeyTwilioAccountSID      string = "TWILIO_ACCOUNT_SID"
	EnvKeyTwilioAuthToken       string = "TWILIO_AUTH_TOKEN"
	EnvKeyTwilioFrom            string = "TWILIO_FROM"
	EnvKeyTwilioCallbackBaseURL string = "TWILIO_CALLBACK_BASE_URL"
	EnvKeyTwilioCallbackSecret  string = "TWILIO_CALLBACK_SECRET"
	EnvKeyPushURL               string = "PUSH_URL"
	EnvKeyPushKey               string = "PUSH_KEY"
	EnvKeySMTPHost              string = "SMTP_HOST"
	EnvKeySMTPPort              string = "SMTP_PORT"
	EnvKeySMTPUsername          string = "SMTP_USERNAME"
	EnvKeySMTPPassword          string = "SMTP_PASSWORD"
	EnvKeySMTPFrom              string = "SMTP_FROM"
	EnvKeyRedisAddr             string = "REDIS_ADDR"
	EnvKeyRedisPassword         string = "REDIS_PASSWORD"
	EnvKeyRedisDB               string = "REDIS_DB"
	EnvKeyMQTTBroker            string = "MQTT_BROKER"
	EnvKeyMQTTClientID          string = "MQTT_CLIENT_ID"
	EnvKeyMQTTDeviceTopic       string = "MQTT_DEVICE_TOPIC"
	EnvKeyKafkaBrokers          string = "KAFKA_BROKERS"
	EnvKeyKafkaTopicEvents      string = "KAFKA_TOPIC_EVENTS"

	LoggerNameSOSCore       string = "sos_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameRealtime      string = "realtime"
	LoggerNameGateway       string = "gateway"

	LoggerFieldSOSCategory     string = "category"
	LoggerCategorySOSIncident  string = "incident"
	LoggerCategorySOSGeofence  string = "geofence"
	LoggerCategorySOSCascade   string = "cascade"
	LoggerCategorySOSMatcher   string = "matcher"
	LoggerCategorySOSDialer    string = "dialer"
	LoggerCategorySOSEmergency string = "emergency"
	LoggerCategorySOSJobs      string = "jobs"
)
