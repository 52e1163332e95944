package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Kalshi.ApiKeyID)
	redact(&out.Kalshi.RsaKeyPassword)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.Redis.Password)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Watch.Tickers != nil {
		out.Watch.Tickers = make([]string, len(cfg.Watch.Tickers))
		copy(out.Watch.Tickers, cfg.Watch.Tickers)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redaction placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
