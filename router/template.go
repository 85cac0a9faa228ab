package router

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind classifies one template segment.
type SegmentKind int

const (
	// SegmentLiteral matches its text exactly (case-insensitive).
	SegmentLiteral SegmentKind = iota
	// SegmentNamed captures one path token under the segment's name.
	SegmentNamed
	// SegmentOptional captures one path token when present.
	SegmentOptional
	// SegmentCatchAll greedily captures every remaining path token.
	SegmentCatchAll
)

// Converter turns a raw path token into a typed parameter value. It reports
// false when the token does not belong to the converter's domain, which
// makes the whole template a non-match for the path.
type Converter func(raw string) (any, bool)

// converters are the inline type tags accepted after a parameter name, as
// in "{count:int}". Untagged parameters stay strings.
var converters = map[string]Converter{
	"int": func(raw string) (any, bool) {
		v, err := strconv.Atoi(raw)
		return v, err == nil
	},
	"long": func(raw string) (any, bool) {
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err == nil
	},
	"bool": func(raw string) (any, bool) {
		v, err := strconv.ParseBool(strings.ToLower(raw))
		return v, err == nil
	},
	"float": func(raw string) (any, bool) {
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	},
	"guid": func(raw string) (any, bool) {
		if !isGUID(raw) {
			return nil, false
		}
		return strings.ToLower(raw), true
	},
}

func isGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
			continue
		}
		hex := c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
		if !hex {
			return false
		}
	}
	return true
}

// Segment is one parsed template segment.
type Segment struct {
	Kind    SegmentKind
	Literal string // SegmentLiteral only
	Name    string // parameter segments only
	Convert Converter
}

// Template is a parsed route template: an ordered segment list matched
// against tokenized request paths. Parsing happens once, at registration;
// matching allocates only the parameter map.
type Template struct {
	raw      string
	segments []Segment
}

// Params holds the typed values captured by a successful match, keyed by
// parameter name.
type Params map[string]any

// Parse compiles a route template such as "/page/{count:int}/{name}".
// Parameter syntax inside braces: "name", "name:tag", "name?", "name:tag?"
// and "*name" for a trailing catch-all. Optional segments must come after
// all required ones and a catch-all must be last.
func Parse(template string) (*Template, error) {
	if template == "" || template[0] != '/' {
		return nil, fmt.Errorf("route template %q must start with '/'", template)
	}

	t := &Template{raw: template}
	sawOptional := false
	for _, tok := range splitPath(template) {
		if len(t.segments) > 0 && t.segments[len(t.segments)-1].Kind == SegmentCatchAll {
			return nil, fmt.Errorf("route template %q: catch-all must be the last segment", template)
		}
		seg, err := parseSegment(tok)
		if err != nil {
			return nil, fmt.Errorf("route template %q: %w", template, err)
		}
		switch seg.Kind {
		case SegmentOptional:
			sawOptional = true
		case SegmentCatchAll:
			// A catch-all may follow optionals; it tolerates zero tokens.
		default:
			if sawOptional {
				return nil, fmt.Errorf("route template %q: required segment after optional segment", template)
			}
		}
		t.segments = append(t.segments, seg)
	}
	return t, nil
}

// MustParse is Parse for statically known templates; it panics on error.
func MustParse(template string) *Template {
	t, err := Parse(template)
	if err != nil {
		panic(err)
	}
	return t
}

func parseSegment(tok string) (Segment, error) {
	if !strings.HasPrefix(tok, "{") {
		if strings.ContainsAny(tok, "{}") {
			return Segment{}, fmt.Errorf("malformed segment %q", tok)
		}
		return Segment{Kind: SegmentLiteral, Literal: tok}, nil
	}
	if !strings.HasSuffix(tok, "}") {
		return Segment{}, fmt.Errorf("unterminated parameter segment %q", tok)
	}
	inner := tok[1 : len(tok)-1]
	if inner == "" {
		return Segment{}, fmt.Errorf("empty parameter segment %q", tok)
	}

	if strings.HasPrefix(inner, "*") {
		name := inner[1:]
		if name == "" || strings.ContainsAny(name, ":?*") {
			return Segment{}, fmt.Errorf("malformed catch-all segment %q", tok)
		}
		return Segment{Kind: SegmentCatchAll, Name: name}, nil
	}

	kind := SegmentNamed
	if strings.HasSuffix(inner, "?") {
		kind = SegmentOptional
		inner = inner[:len(inner)-1]
	}

	name := inner
	var convert Converter
	if idx := strings.IndexByte(inner, ':'); idx >= 0 {
		name = inner[:idx]
		tag := inner[idx+1:]
		c, ok := converters[tag]
		if !ok {
			return Segment{}, fmt.Errorf("unknown converter %q in segment %q", tag, tok)
		}
		convert = c
	}
	if name == "" || strings.ContainsAny(name, ":?*{}") {
		return Segment{}, fmt.Errorf("malformed parameter name in segment %q", tok)
	}
	return Segment{Kind: kind, Name: name, Convert: convert}, nil
}

// Raw returns the template text the instance was parsed from.
func (t *Template) Raw() string { return t.raw }

// Segments returns the parsed segments in order.
func (t *Template) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// Match walks the tokenized path against the segment list and returns the
// captured parameters on success. Query strings and fragments are ignored.
// Literals compare case-insensitively; a converter that rejects its token
// rejects the whole path.
func (t *Template) Match(path string) (Params, bool) {
	tokens := splitPath(stripQuery(path))
	params := make(Params)

	i := 0
	for _, seg := range t.segments {
		switch seg.Kind {
		case SegmentLiteral:
			if i >= len(tokens) || !strings.EqualFold(tokens[i], seg.Literal) {
				return nil, false
			}
			i++
		case SegmentNamed:
			if i >= len(tokens) {
				return nil, false
			}
			v, ok := convert(seg, tokens[i])
			if !ok {
				return nil, false
			}
			params[seg.Name] = v
			i++
		case SegmentOptional:
			if i < len(tokens) {
				v, ok := convert(seg, tokens[i])
				if !ok {
					return nil, false
				}
				params[seg.Name] = v
				i++
			}
		case SegmentCatchAll:
			params[seg.Name] = strings.Join(tokens[i:], "/")
			i = len(tokens)
		}
	}
	if i != len(tokens) {
		return nil, false
	}
	return params, true
}

func convert(seg Segment, raw string) (any, bool) {
	if seg.Convert == nil {
		return raw, true
	}
	return seg.Convert(raw)
}

func stripQuery(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		return path[:idx]
	}
	return path
}

// splitPath tokenizes a path, dropping empty tokens so "/a//b/" and "/a/b"
// tokenize identically.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
