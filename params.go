package queryspec

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Parameter names of the wire contract.
const (
	ParamSearch     = "search"
	ParamScopes     = "scopes"
	ParamFilterForm = "filter_form"
	ParamFilters    = "filters"
	ParamOrderBy    = "order_by"
	ParamLimit      = "limit"
	ParamOffset     = "offset"
)

// Params is the decoded wire shape of one request's query parameters.
// Limit and Offset stay untyped until validation so the original value can
// be reported when it is not a usable integer. OrderBy entries are either
// prefix-notation strings ("name", "-age", "++rank", "--age") or
// field/direction pair maps.
type Params struct {
	Search     string            `mapstructure:"search"`
	Scopes     map[string]string `mapstructure:"scopes"`
	FilterForm map[string]any    `mapstructure:"filter_form"`
	Filters    map[string]any    `mapstructure:"filters"`
	OrderBy    []any             `mapstructure:"order_by"`
	Limit      any               `mapstructure:"limit"`
	Offset     any               `mapstructure:"offset"`
}

// DecodeParams normalizes an untrusted string-keyed parameter map into
// Params. Only the known parameter names are examined, and only at depth
// one; nested structures pass through untouched for the typed parsers.
// Decoding is total: a parameter with an unusable shape is reported in the
// returned Errors and left at its zero value, the other parameters still
// decode.
func DecodeParams(raw map[string]any) (Params, Errors) {
	var p Params
	errs := Errors{}

	if v, ok := raw[ParamSearch]; ok && v != nil {
		if err := weakDecode(v, &p.Search); err != nil {
			errs.Add(ParamSearch, &InvalidSearchParameterError{Value: v})
		}
	}
	if v, ok := raw[ParamScopes]; ok && v != nil {
		if err := weakDecode(v, &p.Scopes); err != nil {
			errs.Add(ParamScopes, &InvalidScopesParameterError{Value: v})
		}
	}
	if v, ok := raw[ParamFilterForm]; ok && v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			errs.Add(ParamFilterForm, &InvalidFilterTreeParameterError{Value: v})
		} else {
			p.FilterForm = m
		}
	}
	if v, ok := raw[ParamFilters]; ok && v != nil {
		switch filters := v.(type) {
		case map[string]any:
			p.Filters = filters
		case []any:
			// A list of filter maps is an implicit conjunction.
			p.Filters = map[string]any{"and": filters}
		default:
			errs.Add(ParamFilters, &InvalidFilterValueError{Value: v})
		}
	}
	if v, ok := raw[ParamOrderBy]; ok && v != nil {
		entries, ok := orderByEntries(v)
		if !ok {
			errs.Add(ParamOrderBy, &InvalidOrderByParameterError{Value: v})
		} else {
			p.OrderBy = entries
		}
	}
	if v, ok := raw[ParamLimit]; ok {
		p.Limit = v
	}
	if v, ok := raw[ParamOffset]; ok {
		p.Offset = v
	}
	return p, errs
}

// weakDecode decodes with weak type coercion, so string-keyed maps with any
// values and stringified scalars from query strings decode into the typed
// target.
func weakDecode(input, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// orderByEntries normalizes the accepted order_by shapes into a flat entry
// list: a comma-separated string, a list of strings, or a list mixing
// strings and field/direction pair maps.
func orderByEntries(v any) ([]any, bool) {
	switch ob := v.(type) {
	case string:
		var out []any
		for _, part := range strings.Split(ob, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	case []string:
		out := make([]any, 0, len(ob))
		for _, s := range ob {
			out = append(out, s)
		}
		return out, true
	case []any:
		out := make([]any, 0, len(ob))
		for _, e := range ob {
			switch entry := e.(type) {
			case string, map[string]any:
				out = append(out, entry)
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

// ParseURLValues decodes query-string values into Params. Nested
// parameters use bracketed keys (scopes[role]=admin,
// filter_form[components][0][field]=name); repeated keys become lists.
func ParseURLValues(values url.Values) (Params, Errors) {
	raw := map[string]any{}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vs := values[key]
		var v any = vs[0]
		if len(vs) > 1 {
			list := make([]any, len(vs))
			for i, s := range vs {
				list[i] = s
			}
			v = list
		}
		setBracketed(raw, key, v)
	}
	return DecodeParams(raw)
}

// setBracketed stores v under a bracketed key path like "a[b][c]", creating
// intermediate maps. Malformed keys are stored verbatim at depth one.
func setBracketed(m map[string]any, key string, v any) {
	segments := splitBracketed(key)
	for i, seg := range segments {
		if i == len(segments)-1 {
			m[seg] = v
			return
		}
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
}

func splitBracketed(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return []string{key}
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return []string{key}
		}
		segments = append(segments, rest[1:close])
		rest = rest[close+1:]
	}
	return segments
}

// EncodeURLValues flattens a parameter map produced by ToURLParams into
// query-string values with bracketed keys. Lists become indexed entries for
// nested values and repeated keys at depth one.
func EncodeURLValues(params map[string]any) url.Values {
	values := url.Values{}
	for _, key := range sortedKeys(params) {
		encodeURLValue(values, key, params[key], true)
	}
	return values
}

func encodeURLValue(values url.Values, key string, v any, top bool) {
	switch val := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(val) {
			encodeURLValue(values, key+"["+k+"]", val[k], false)
		}
	case []any:
		for i, e := range val {
			if top {
				encodeURLValue(values, key, e, false)
			} else {
				encodeURLValue(values, key+"["+strconv.Itoa(i)+"]", e, false)
			}
		}
	case []string:
		for _, s := range val {
			values.Add(key, s)
		}
	case nil:
		values.Add(key, "")
	case string:
		values.Add(key, val)
	case bool:
		values.Add(key, strconv.FormatBool(val))
	case int:
		values.Add(key, strconv.Itoa(val))
	case int64:
		values.Add(key, strconv.FormatInt(val, 10))
	case float64:
		values.Add(key, strconv.FormatFloat(val, 'g', -1, 64))
	default:
		values.Add(key, fmt.Sprintf("%v", val))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
