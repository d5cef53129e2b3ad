package slogloki

import (
	"fmt"
	"log/slog"
	"runtime"
)

func inGroups(groups []string, a slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a = slog.Group(groups[i], a)
	}

	return a
}

// attrsToMap flattens attrs into a JSON friendly map. Later keys win and
// groups sharing a name are merged.
func attrsToMap(attrs []slog.Attr) map[string]any {
	out := make(map[string]any, len(attrs))

	for _, a := range attrs {
		if a.Key == "" && a.Value.Kind() != slog.KindGroup {
			continue
		}

		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindGroup:
			inner := attrsToMap(v.Group())
			if a.Key == "" {
				for k, iv := range inner {
					out[k] = iv
				}
				continue
			}

			if existing, ok := out[a.Key].(map[string]any); ok {
				for k, iv := range inner {
					existing[k] = iv
				}
				continue
			}
			out[a.Key] = inner
		default:
			out[a.Key] = valueOf(v)
		}
	}

	return out
}

func valueOf(v slog.Value) any {
	if err, ok := v.Any().(error); ok {
		return map[string]any{
			"kind":  fmt.Sprintf("%T", err),
			"error": err.Error(),
		}
	}

	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if s, ok := v.Any().(fmt.Stringer); ok {
			return s.String()
		}
	}

	return v.Any()
}

func source(pc uintptr) slog.Attr {
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()

	return slog.Group(slog.SourceKey,
		slog.String("function", f.Function),
		slog.String("file", f.File),
		slog.Int("line", f.Line),
	)
}
