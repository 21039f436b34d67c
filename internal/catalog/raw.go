package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one raw keyed-field structure.
type Record map[string]any

// Entry is a raw value declared under a key. Key is empty when the value came from a sequence.
type Entry struct {
	Key   string
	Value any
}

// Entries is an ordered raw mapping (or sequence) as declared in the data file.
type Entries []Entry

// EntriesFromMap converts an unordered map into Entries sorted by key.
func EntriesFromMap(m map[string]any) Entries {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Entries, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: m[k]})
	}
	return out
}

// asRecord accepts a Record, a plain map, or an ordered Entries value.
func asRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	case Entries:
		rec := make(Record, len(t))
		for _, e := range t {
			rec[e.Key] = e.Value
		}
		return rec, true
	default:
		return nil, false
	}
}

// asEntries accepts ordered Entries, a sequence of records, or a plain map (sorted by key).
func asEntries(v any) (Entries, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case Entries:
		return t, true
	case []Entry:
		return Entries(t), true
	case []any:
		out := make(Entries, 0, len(t))
		for _, item := range t {
			out = append(out, Entry{Value: item})
		}
		return out, true
	case Record:
		return EntriesFromMap(t), true
	case map[string]any:
		return EntriesFromMap(t), true
	default:
		return nil, false
	}
}

// stringField returns the string value of key. A present non-string scalar is an error.
func (r Record) stringField(key string) (string, bool, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("field %q must be a string, got %T", key, v)
	}
	return s, true, nil
}

// firstString returns the first present key among aliases.
func (r Record) firstString(keys ...string) (string, error) {
	for _, k := range keys {
		s, ok, err := r.stringField(k)
		if err != nil {
			return "", err
		}
		if ok {
			return s, nil
		}
	}
	return "", nil
}

// scalarString renders a scalar (string, integer, float) as text; used for metadata such as year.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// number converts numeric YAML scalars. Strings are rejected.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	default:
		return 0, false
	}
}

// stringList accepts a sequence of strings or a single comma separated string.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
