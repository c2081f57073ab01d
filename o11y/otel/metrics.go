package otel

import (
	"fmt"
	"time"

	"github.com/circleci/sample-app/o11y"
)

// sendMetrics emits each metric using the span fields for its value and tags.
// Metrics whose value field is missing are skipped.
func sendMetrics(mp o11y.MetricsProvider, metrics []o11y.Metric, fields map[string]any) {
	for _, m := range metrics {
		tags := tagsFromFields(m.TagFields, fields)
		if m.FixedTag != nil {
			tags = append(tags, fmtTag(m.FixedTag.Name, m.FixedTag.Value))
		}

		switch m.Type {
		case o11y.MetricTimer:
			val, ok := getField(m.Field, fields)
			if !ok {
				continue
			}
			ms, ok := toMilliSecond(val)
			if !ok {
				panic(m.Field + " can not be coerced to milliseconds")
			}
			_ = mp.TimeInMilliseconds(m.Name, ms, tags, 1)
		case o11y.MetricCount:
			var n int64 = 1
			if m.Field != "" {
				val, ok := getField(m.Field, fields)
				if !ok {
					continue
				}
				n, ok = toInt64(val)
				if !ok {
					panic(m.Field + " can not be coerced to int")
				}
			}
			_ = mp.Count(m.Name, n, tags, 1)
		case o11y.MetricGauge:
			val, ok := getField(m.Field, fields)
			if !ok {
				continue
			}
			f, ok := toFloat64(val)
			if !ok {
				panic(m.Field + " can not be coerced to float")
			}
			_ = mp.Gauge(m.Name, f, tags, 1)
		}
	}
}

func tagsFromFields(names []string, fields map[string]any) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		if val, ok := getField(name, fields); ok {
			result = append(result, fmtTag(name, val))
		}
	}
	return result
}

// getField also looks for the app. prefixed field, so AddField values can be used as tags
func getField(name string, fields map[string]any) (any, bool) {
	val, ok := fields[name]
	if !ok {
		val, ok = fields["app."+name]
	}
	return val, ok
}

func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	}
	return 0, false
}

func toFloat64(val any) (float64, bool) {
	if f, ok := val.(float64); ok {
		return f, true
	}
	if i, ok := toInt64(val); ok {
		return float64(i), true
	}
	return 0, false
}

func toMilliSecond(val any) (float64, bool) {
	if d, ok := val.(time.Duration); ok {
		return float64(d) / float64(time.Millisecond), true
	}
	return toFloat64(val)
}

func fmtTag(name string, val any) string {
	return fmt.Sprintf("%s:%v", name, val)
}
