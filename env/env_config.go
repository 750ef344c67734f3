package env

const (
	// EMAIL / SMTP

	EnvResendApiKey = "RESEND_API_KEY"

	EnvSMTPHost  = "SMTP_HOST"
	EnvSMTPPort  = "SMTP_PORT"
	EnvSMTPUser  = "SMTP_USER"
	EnvSMTPPass  = "SMTP_PASS"
	EnvEmailFrom = "FROM_ADDRESS"
	EnvEmailTo   = "CONTACT_TO_ADDRESS"

	// REDIS

	EnvRedisURL = "REDIS_URL"

	// CONTACT GATEWAY

	EnvConfigPath = "CONTACT_GATEWAY_CONFIG_PATH"
	EnvBaseURL    = "CONTACT_GATEWAY_BASE_URL"

	// ENVIRONMENT

	EnvGoEnvironment = "GO_ENV"
	EnvPort          = "PORT"
)
