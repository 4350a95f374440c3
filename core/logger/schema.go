package logger

import "strings"

// Canonical severity names emitted in the level field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

// Closed vocabularies for the status, cache and outcome fields. Values
// outside these sets are either passed through or dropped by the handler.
var (
	allowedStatus = map[string]bool{
		"ok":           true,
		"fail":         true,
		"skip":         true,
		"retry":        true,
		"rate_limited": true,
		"cancelled":    true,
	}

	allowedCache = map[string]bool{
		"hit":     true,
		"miss":    true,
		"refresh": true,
	}

	allowedOutcome = map[string]bool{
		"ok":           true,
		"fail":         true,
		"cancelled":    true,
		"rate_limited": true,
	}
)

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// lookupEnum lowercases raw and reports whether it belongs to vocab.
func lookupEnum(vocab map[string]bool, raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}
	return raw, vocab[raw]
}

func normalizeStatus(status string) (string, bool)   { return lookupEnum(allowedStatus, status) }
func normalizeCache(cache string) (string, bool)     { return lookupEnum(allowedCache, cache) }
func normalizeOutcome(outcome string) (string, bool) { return lookupEnum(allowedOutcome, outcome) }

// defaultKeyOrder fixes the field prefix order for log lines. Identity and
// correlation first, then handler context, domain fields, error details.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"trace_id",
	"span_id",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"operation",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"page",
	"pages",
	"cache",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"form",
	"field",
	"step",
	"fields",
	"code",
	"media_id",
	"admin_id",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"collapsed",
	"repeats",
	"pending_count",
	"expired",
	"active",
	"entries_shown",
	"entries_total",
	"stack",
}
