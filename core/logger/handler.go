package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
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

var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status", "rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler", "dialog", "step", "cb_key",
	"command", "outcome", "duration_ms", "messages", "kb", "order_id", "owner", "count",
	"payload", "lang", "username", "mode", "listen", "public_url", "http_code", "driver",
	"db", "host", "port", "err", "err_code", "cause", "reason",
}

var allowedOutcome = map[string]struct{}{
	"ok": {}, "fail": {}, "cancelled": {}, "rate_limited": {},
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as one ordered JSON object or key=value line.
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

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	isJSON := h.cfg.format == formatJSON
	ts := r.Time.UTC()
	fields := map[string]any{
		"ts":    ts.Truncate(time.Millisecond).Format(timeFormatMillis),
		"level": strings.ToUpper(r.Level.String()),
	}
	if isJSON {
		fields["ts_unix_nano"] = ts.UnixNano()
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		flattenAttr(prefix, a, fields)
	}
	r.Attrs(func(a slog.Attr) bool {
		flattenAttr(prefix, a, fields)
		return true
	})
	addContextFields(ctx, fields)

	if rid, ok := fields["rid"].(string); ok && rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if isJSON {
				fields["rid_full"] = rid
			}
			fields["rid"] = compact
		}
	}
	if s, _ := fields["event"].(string); s == "" {
		fields["event"] = r.Message
		if r.Message == "" {
			fields["event"] = "unknown"
		}
	}
	if s, _ := fields["component"].(string); s == "" {
		fields["component"] = "app"
	}
	if o, ok := fields["outcome"].(string); ok {
		if _, valid := allowedOutcome[strings.ToLower(o)]; !valid {
			delete(fields, "outcome")
		}
	}
	for k, v := range fields {
		if v == nil || v == "" {
			delete(fields, k)
		}
	}

	keys := orderedKeys(fields, h.cfg.keyOrder)
	var line []byte
	if isJSON {
		var err error
		if line, err = formatJSONLine(fields, keys); err != nil {
			return err
		}
	} else {
		line = formatKVLine(fields, keys)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clone(h.attrs), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

func flattenAttr(prefix string, attr slog.Attr, fields map[string]any) {
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	val := attr.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			flattenAttr(key, child, fields)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := normalizeAttr(key, val); ok {
		fields[k] = v
	}
}

// durationKey renames duration attributes so every one of them ends in _ms.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

func normalizeAttr(key string, val slog.Value) (string, any, bool) {
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func orderedKeys(fields map[string]any, order []string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, key := range order {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
			seen[key] = struct{}{}
		}
	}
	var rest []string
	for key := range fields {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func formatJSONLine(fields map[string]any, keys []string) ([]byte, error) {
	buf := []byte{'{'}
	for i, key := range keys {
		data, err := json.Marshal(fields[key])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, key)
		buf = append(buf, ':')
		buf = append(buf, data...)
	}
	return append(buf, '}'), nil
}

func formatKVLine(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(fields[key])
		if strings.IndexFunc(s, needsQuote) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return []byte(b.String())
}

func needsQuote(r rune) bool {
	return r <= 32 || r == '=' || r == '"'
}

func addContextFields(ctx context.Context, fields map[string]any) {
	setIfMissing := func(key string, val any, present bool) {
		if !present {
			return
		}
		if _, ok := fields[key]; !ok {
			fields[key] = val
		}
	}
	rid := RIDFrom(ctx)
	setIfMissing("rid", rid, rid != "")
	uid := UserIDFrom(ctx)
	setIfMissing("user_id", uid, uid != 0)
	updateID := UpdateIDFrom(ctx)
	setIfMissing("update_id", updateID, updateID != 0)
	cid := ChatIDFrom(ctx)
	setIfMissing("chat_id", cid, cid != 0)
	hid := HandlerFrom(ctx)
	setIfMissing("handler", hid, hid != "")
}
