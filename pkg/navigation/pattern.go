package navigation

import (
	"regexp"
	"strings"
)

const paramPrefix = ":"

type compiledPattern struct {
	re    *regexp.Regexp
	names []string
}

// IsParametrized reports whether pattern has at least one ":name" segment.
func IsParametrized(pattern string) bool {
	for _, seg := range strings.Split(pattern, "/") {
		if isParamSegment(seg) {
			return true
		}
	}
	return false
}

func isParamSegment(seg string) bool {
	return len(seg) > len(paramPrefix) && strings.HasPrefix(seg, paramPrefix)
}

// compilePattern turns "/blog/:id" into ^/blog/([^/]+)$. Literal segments are
// quoted so "." in "/index.html" only matches a dot.
func compilePattern(pattern string) (*compiledPattern, error) {
	segs := strings.Split(pattern, "/")
	names := make([]string, 0, 2)
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if isParamSegment(seg) {
			names = append(names, strings.TrimPrefix(seg, paramPrefix))
			parts = append(parts, "([^/]+)")
			continue
		}
		parts = append(parts, regexp.QuoteMeta(seg))
	}
	re, err := regexp.Compile("^" + strings.Join(parts, "/") + "$")
	if err != nil {
		return nil, err
	}
	return &compiledPattern{re: re, names: names}, nil
}

func (p *compiledPattern) match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

// ExtractParams matches path against pattern and returns the captured named
// segments. ok is false when the path does not match. A literal pattern that
// equals path yields an empty, non-nil map.
func ExtractParams(pattern, path string) (params map[string]string, ok bool) {
	p, err := compilePattern(pattern)
	if err != nil {
		return nil, false
	}
	return p.match(path)
}
