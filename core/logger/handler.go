package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
	stacks   bool
}

// structuredHandler renders slog records as single-line JSON or kv output
// with a fixed key prefix order, so logs stay grep- and ingest-friendly.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled reports whether the handler processes records at the given level.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// Handle flattens the record into a field set, fills identity fields from
// the context, canonicalizes enum values and writes one line to the sinks.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	isJSON := h.cfg.format == formatJSON
	fields := make(fieldSet, 16)
	fields.stampTime(r.Time, isJSON)
	fields["level"] = normalizeLevel(r.Level.String())

	for _, a := range h.attrs {
		h.collect(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.collect(fields, a)
		return true
	})

	fields.fillFromContext(ctx)
	fields.compactRID(isJSON)
	fields.fillDefaults(r.Message)
	if h.cfg.stacks && r.Level >= slog.LevelError {
		fields.setIfAbsent("stack", callerStack())
	}
	fields.normalizeEnums()
	fields.prune()

	line, err := h.encode(fields)
	if err != nil {
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	return h.cfg.writer.Write(line)
}

// WithAttrs returns a copy of the handler with extra preset attributes.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a copy of the handler with an additional group prefix.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *structuredHandler) collect(fields fieldSet, attr slog.Attr) {
	flattenAttr(strings.Join(h.groups, "."), attr, func(k string, v slog.Value) {
		if key, val, ok := normalizeAttr(k, v); ok && key != "" {
			fields[key] = val
		}
	})
}

func (h *structuredHandler) encode(fields fieldSet) ([]byte, error) {
	keys := orderedKeys(fields, h.cfg.keyOrder)
	if h.cfg.format == formatJSON {
		return encodeJSON(fields, keys)
	}
	return encodeKV(fields, keys), nil
}

// fieldSet holds the flattened attributes of a single record.
type fieldSet map[string]any

func (f fieldSet) str(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

func (f fieldSet) setIfAbsent(key string, val any) {
	if _, ok := f[key]; !ok {
		f[key] = val
	}
}

func (f fieldSet) stampTime(t time.Time, withNanos bool) {
	ts := t.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	if withNanos {
		f["ts_unix_nano"] = ts.UnixNano()
	}
}

func (f fieldSet) fillFromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		f.setIfAbsent("rid", rid)
	}
	if id := TraceIDFrom(ctx); id != "" {
		f.setIfAbsent("trace_id", id)
	}
	if id := SpanIDFrom(ctx); id != "" {
		f.setIfAbsent("span_id", id)
	}
	if uid := UserIDFrom(ctx); uid != 0 {
		f.setIfAbsent("user_id", uid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		f.setIfAbsent("update_id", id)
	}
	if cid := ChatIDFrom(ctx); cid != 0 {
		f.setIfAbsent("chat_id", cid)
	}
	if name := HandlerFrom(ctx); name != "" {
		f.setIfAbsent("handler", name)
	}
}

// compactRID rewrites rid into its base36 short form. JSON output keeps the
// raw value under rid_full so the full id survives for correlation queries.
func (f fieldSet) compactRID(keepFull bool) {
	rid, ok := f.str("rid")
	if !ok || rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == "" || compact == rid {
		return
	}
	if keepFull {
		f.setIfAbsent("rid_full", rid)
	}
	f["rid"] = compact
}

func (f fieldSet) fillDefaults(message string) {
	if event, _ := f.str("event"); event == "" {
		if message == "" {
			message = "unknown"
		}
		f["event"] = message
	}
	if component, _ := f.str("component"); component == "" {
		f["component"] = "app"
	}
}

// normalizeEnums maps status, cache and outcome onto the allowed vocabulary.
// Unknown status values pass through; unknown cache and outcome are dropped.
func (f fieldSet) normalizeEnums() {
	if level, ok := f.str("level"); ok {
		f["level"] = normalizeLevel(level)
	}
	if s, ok := f.str("status"); ok && s != "" {
		if norm, valid := normalizeStatus(s); valid {
			f["status"] = norm
		}
	}
	if c, ok := f.str("cache"); ok && c != "" {
		if norm, valid := normalizeCache(c); valid {
			f["cache"] = norm
		} else {
			delete(f, "cache")
		}
	}
	if o, ok := f.str("outcome"); ok && o != "" {
		if norm, valid := normalizeOutcome(o); valid {
			f["outcome"] = norm
		} else {
			delete(f, "outcome")
		}
	}
}

func (f fieldSet) prune() {
	for k, v := range f {
		switch val := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if val == "" {
				delete(f, k)
			}
		case fmt.Stringer:
			if val.String() == "" {
				delete(f, k)
			}
		}
	}
}

// flattenAttr expands group attrs into dot-joined leaf keys.
func flattenAttr(prefix string, attr slog.Attr, emit func(string, slog.Value)) {
	key := attr.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, child := range attr.Value.Group() {
			flattenAttr(key, child, emit)
		}
		return
	}
	emit(key, attr.Value)
}

// durationKey gives duration attributes a _ms suffix so the unit is explicit.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_duration"):
		return strings.TrimSuffix(key, "_duration") + "_duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

func normalizeAttr(key string, val slog.Value) (string, any, bool) {
	if key == "" {
		return "", nil, false
	}
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		u := val.Uint64()
		if u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, u, true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	case slog.KindAny:
		return normalizeAny(key, val.Any())
	default:
		return key, val.Any(), true
	}
}

func normalizeAny(key string, v any) (string, any, bool) {
	switch x := v.(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(v), true
	}
}

// orderedKeys returns field names with the configured prefix order first and
// the remainder sorted alphabetically.
func orderedKeys(fields fieldSet, order []string) []string {
	keys := make([]string, 0, len(fields))
	taken := make(map[string]struct{}, len(fields))
	for _, key := range order {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
			taken[key] = struct{}{}
		}
	}
	head := len(keys)
	for key := range fields {
		if _, ok := taken[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys[head:])
	return keys
}

func encodeJSON(fields fieldSet, keys []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range keys {
		data, err := json.Marshal(fields[key])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func encodeKV(fields fieldSet, keys []string) []byte {
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(kvValue(fields[key]))
	}
	return []byte(b.String())
}

func kvValue(val any) string {
	switch v := val.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s, ok := val.(string)
	if !ok {
		s = fmt.Sprint(val)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= 32 || r == '=' || r == '"'
}

func callerStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
