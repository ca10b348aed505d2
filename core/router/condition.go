package router

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/lambdakit/core/request"
)

// ConditionKind tags the variant of a Condition.
type ConditionKind uint8

const (
	// KindPathTemplate matches a path template or an exact operation name.
	KindPathTemplate ConditionKind = iota + 1
	// KindPattern matches a regular expression against the path or operation name.
	KindPattern
	// KindPredicate matches with an arbitrary function.
	KindPredicate
)

func (k ConditionKind) String() string {
	switch k {
	case KindPathTemplate:
		return "template"
	case KindPattern:
		return "pattern"
	case KindPredicate:
		return "predicate"
	default:
		return "unknown"
	}
}

// Target selects what a template or pattern condition is matched against.
type Target uint8

const (
	// TargetRoute matches GET requests by path.
	TargetRoute Target = iota
	// TargetOperation matches operation invocations by name.
	TargetOperation
)

// Condition decides whether an action handles a request.
// Build one with Path, Operation, Pattern, OperationPattern or Predicate.
type Condition struct {
	kind      ConditionKind
	target    Target
	template  string
	segments  []segment
	pattern   *regexp.Regexp
	predicate func(*request.Context) bool
}

type segment struct {
	value    string
	param    bool
	wildcard bool
}

// Path matches GET route requests against a template such as "/user/:id".
// A trailing "*" segment captures the rest of the path under the "*" key.
// Path panics on a malformed template.
func Path(template string) Condition {
	segs, err := parseTemplate(template)
	if err != nil {
		panic(err)
	}
	return Condition{
		kind:     KindPathTemplate,
		target:   TargetRoute,
		template: template,
		segments: segs,
	}
}

// Operation matches operation invocations with exactly this name.
func Operation(name string) Condition {
	if name == "" {
		panic(fmt.Errorf("%w: empty operation name", ErrInvalidCondition))
	}
	return Condition{
		kind:     KindPathTemplate,
		target:   TargetOperation,
		template: name,
	}
}

// Pattern matches GET route requests whose path matches re. Named groups become
// path params; unnamed groups are stored as "$1", "$2" and so on.
func Pattern(re *regexp.Regexp) Condition {
	if re == nil {
		panic(fmt.Errorf("%w: nil pattern", ErrInvalidCondition))
	}
	return Condition{kind: KindPattern, target: TargetRoute, pattern: re}
}

// OperationPattern matches operation invocations whose name matches re.
func OperationPattern(re *regexp.Regexp) Condition {
	if re == nil {
		panic(fmt.Errorf("%w: nil pattern", ErrInvalidCondition))
	}
	return Condition{kind: KindPattern, target: TargetOperation, pattern: re}
}

// Predicate matches whenever fn returns true. No method or endpoint constraint applies.
func Predicate(fn func(*request.Context) bool) Condition {
	if fn == nil {
		panic(fmt.Errorf("%w: nil predicate", ErrInvalidCondition))
	}
	return Condition{kind: KindPredicate, predicate: fn}
}

// Kind returns the variant tag.
func (c Condition) Kind() ConditionKind {
	return c.kind
}

// Target returns what the condition is matched against.
func (c Condition) Target() Target {
	return c.target
}

// String describes the condition for logs.
func (c Condition) String() string {
	switch c.kind {
	case KindPathTemplate:
		if c.target == TargetOperation {
			return "operation " + c.template
		}
		return "route " + c.template
	case KindPattern:
		if c.target == TargetOperation {
			return "operation ~" + c.pattern.String()
		}
		return "route ~" + c.pattern.String()
	case KindPredicate:
		return "predicate"
	default:
		return "invalid"
	}
}

func (c Condition) valid() bool {
	switch c.kind {
	case KindPathTemplate:
		return c.template != ""
	case KindPattern:
		return c.pattern != nil
	case KindPredicate:
		return c.predicate != nil
	default:
		return false
	}
}

// match reports whether ctx satisfies the condition and returns extracted params.
func (c Condition) match(ctx *request.Context) (map[string]string, bool) {
	if c.kind == KindPredicate {
		return nil, c.predicate(ctx)
	}

	var subject string
	switch c.target {
	case TargetOperation:
		if !ctx.IsOperation() {
			return nil, false
		}
		subject = ctx.OperationName
	default:
		if ctx.IsOperation() || ctx.Method != http.MethodGet {
			return nil, false
		}
		subject = ctx.Path
	}

	switch c.kind {
	case KindPathTemplate:
		if c.target == TargetOperation {
			return nil, subject == c.template
		}
		return matchTemplate(c.segments, subject)
	case KindPattern:
		return matchPattern(c.pattern, subject)
	default:
		return nil, false
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func parseTemplate(template string) ([]segment, error) {
	if template == "" || template[0] != '/' {
		return nil, fmt.Errorf("%w: template %q must start with '/'", ErrInvalidCondition, template)
	}

	parts := splitPath(template)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})
	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q", ErrWildcardPosition, template)
			}
			segs = append(segs, segment{value: "*", wildcard: true})
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: empty parameter in %q", ErrInvalidCondition, template)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, template)
			}
			seen[name] = struct{}{}
			segs = append(segs, segment{value: name, param: true})
		default:
			segs = append(segs, segment{value: part})
		}
	}
	return segs, nil
}

func matchTemplate(segs []segment, path string) (map[string]string, bool) {
	parts := splitPath(path)
	params := make(map[string]string)

	for i, seg := range segs {
		if seg.wildcard {
			params["*"] = strings.Join(parts[i:], "/")
			return params, true
		}
		if i >= len(parts) {
			return nil, false
		}
		switch {
		case seg.param:
			v, err := url.PathUnescape(parts[i])
			if err != nil {
				v = parts[i]
			}
			params[seg.value] = v
		case seg.value != parts[i]:
			return nil, false
		}
	}

	if len(parts) != len(segs) {
		return nil, false
	}
	return params, true
}

func matchPattern(re *regexp.Regexp, subject string) (map[string]string, bool) {
	m := re.FindStringSubmatch(subject)
	if m == nil {
		return nil, false
	}

	params := make(map[string]string, len(m)-1)
	for i, name := range re.SubexpNames() {
		if i == 0 {
			continue
		}
		if name == "" {
			name = "$" + strconv.Itoa(i)
		}
		params[name] = m[i]
	}
	return params, true
}
