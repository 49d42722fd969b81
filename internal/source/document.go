// Package source reads the loosely typed extraction documents produced by the
// upstream document-understanding system. Every business field in those
// documents is optional, may be wrapped as {"value": X}, and dates and large
// integers arrive in Mongo export encodings ({"$date": ...},
// {"$numberLong": "..."}). Doc normalizes all of that behind path accessors so
// the pipeline never touches raw maps.
package source

import (
	"fmt"
	"strconv"
	"time"
)

// Doc is one decoded JSON document (or a nested node of one).
type Doc map[string]any

// dateLayouts are tried in order when a date arrives as a plain string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// unwrap strips the single-field wrappers the extraction system emits around
// scalars: {"value": X} and {"$oid": "..."}.
func unwrap(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if inner, ok := m["value"]; ok {
		return inner
	}
	if oid, ok := m["$oid"]; ok {
		return oid
	}
	return v
}

// get walks the path, unwrapping {"value": ...} at every step. It reports
// false for any missing or nil intermediate node instead of failing.
func (d Doc) get(path ...string) (any, bool) {
	if d == nil {
		return nil, false
	}
	var cur any = map[string]any(d)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[key]
		if !ok || v == nil {
			return nil, false
		}
		cur = unwrap(v)
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Has reports whether the path resolves to a non-nil value.
func (d Doc) Has(path ...string) bool {
	_, ok := d.get(path...)
	return ok
}

// Raw returns the unwrapped value at path without further conversion.
func (d Doc) Raw(path ...string) (any, bool) {
	return d.get(path...)
}

// Child returns the nested node at path, or nil when absent or not an object.
func (d Doc) Child(path ...string) Doc {
	v, ok := d.get(path...)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return Doc(m)
}

// Items returns the list of nodes at path, in source order. Absent paths and
// non-list values yield an empty slice; non-object entries are dropped.
func (d Doc) Items(path ...string) []Doc {
	v, ok := d.get(path...)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]Doc, 0, len(list))
	for _, entry := range list {
		if m, ok := unwrap(entry).(map[string]any); ok {
			items = append(items, Doc(m))
		}
	}
	return items
}

// String returns the string at path. Non-string values report false.
func (d Doc) String(path ...string) (string, bool) {
	v, ok := d.get(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Stringify returns the value at path rendered as a string. Numbers are
// formatted without an exponent; used for accounting codes that arrive as
// either strings or bare numbers.
func (d Doc) Stringify(path ...string) (string, bool) {
	v, ok := d.get(path...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Float returns the number at path. Numeric strings are parsed; anything
// else reports false.
func (d Doc) Float(path ...string) (float64, bool) {
	v, ok := d.get(path...)
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

// Int returns the value at path truncated to an int.
func (d Doc) Int(path ...string) (int, bool) {
	n, ok := d.Int64(path...)
	return int(n), ok
}

// Int64 returns the integer at path. Handles {"$numberLong": "123"} wrappers,
// plain numbers and numeric strings.
func (d Doc) Int64(path ...string) (int64, bool) {
	v, ok := d.get(path...)
	if !ok {
		return 0, false
	}
	if m, ok := v.(map[string]any); ok {
		long, present := m["$numberLong"]
		if !present {
			return 0, false
		}
		v = long
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Time returns the date at path. Absence reports ok=false with a nil error;
// a value that is present but unparsable returns an error so callers can
// treat it as a fault rather than a missing field. Accepts ISO-like strings,
// {"$date": "..."} and {"$date": {"$numberLong": "millis"}}.
func (d Doc) Time(path ...string) (time.Time, bool, error) {
	v, ok := d.get(path...)
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := asTime(v)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, error) {
	if m, ok := v.(map[string]any); ok {
		date, present := m["$date"]
		if !present {
			return time.Time{}, fmt.Errorf("not a date value: %v", v)
		}
		v = unwrap(date)
		if inner, ok := v.(map[string]any); ok {
			if long, present := inner["$numberLong"]; present {
				v = long
			}
		}
	}
	switch t := v.(type) {
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		// epoch millis shipped as a string inside $numberLong
		if millis, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unparsable date %q", t)
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unparsable date value of type %T", v)
	}
}
