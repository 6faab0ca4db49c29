package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDuplicateRule is returned by RuleSet.Add for a second rule on the
	// same section and key.
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrInvalidRule is returned by RuleSet.Add for an empty or unusable key,
	// or for a value that would not fit on one line.
	ErrInvalidRule = errors.New("invalid rule")
)

// ValueKind selects how a value is rendered.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindInt
	KindRaw
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a replacement value with its rendering kind.
type Value struct {
	Kind ValueKind
	text string
	b    bool
	i    int64
}

// String returns a double-quoted string value.
func String(s string) Value { return Value{Kind: KindString, text: s} }

// Bool returns a bare true/false value.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }

// Int returns a bare integer value.
func Int(i int64) Value { return Value{Kind: KindInt, i: i} }

// Raw returns a value emitted verbatim.
func Raw(s string) Value { return Value{Kind: KindRaw, text: s} }

// quoteBasic renders s as a single-line TOML basic string.
func quoteBasic(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Render formats the value the way it appears after "key = ".
func (v Value) Render() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindRaw:
		return v.text
	default:
		return quoteBasic(v.text)
	}
}

// Policy records where a rule comes from. It does not change how the rule
// is applied; it is carried into reports and logs.
type Policy int

const (
	// PolicySetting is a value taken from the caller's settings.
	PolicySetting Policy = iota
	// PolicyForced is a fixed rule applied regardless of settings.
	PolicyForced
	// PolicySuppress is emitted only when settings explicitly turn a
	// capability off.
	PolicySuppress
)

func (p Policy) String() string {
	switch p {
	case PolicyForced:
		return "forced"
	case PolicySuppress:
		return "suppress"
	default:
		return "setting"
	}
}

// Rule replaces the value of Key inside Section. An empty Section means
// the root, before any header.
type Rule struct {
	Section string
	Key     string
	Value   Value
	Policy  Policy
}

// Line renders the replacement assignment without indentation or terminator.
func (r Rule) Line() string {
	return r.Key + " = " + r.Value.Render()
}

func (r Rule) String() string {
	if r.Section == "" {
		return r.Key
	}
	return r.Section + "." + r.Key
}

type ruleKey struct {
	section string
	key     string
}

// RuleSet is an ordered table of rules with at most one rule per
// (section, key).
type RuleSet struct {
	rules    []Rule
	index    map[ruleKey]int
	sections map[string]bool
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		index:    make(map[ruleKey]int),
		sections: make(map[string]bool),
	}
}

// Add appends a rule.
func (rs *RuleSet) Add(r Rule) error {
	if r.Key == "" || strings.TrimSpace(r.Key) != r.Key || strings.ContainsAny(r.Key, "=\n\r") {
		return fmt.Errorf("%w: key %q", ErrInvalidRule, r.Key)
	}
	if strings.ContainsAny(r.Section, "\n\r") {
		return fmt.Errorf("%w: section %q", ErrInvalidRule, r.Section)
	}
	if r.Value.Kind == KindRaw && strings.ContainsAny(r.Value.text, "\n\r") {
		return fmt.Errorf("%w: %s: raw value spans lines", ErrInvalidRule, r)
	}
	k := ruleKey{r.Section, r.Key}
	if _, dup := rs.index[k]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r)
	}
	rs.index[k] = len(rs.rules)
	rs.rules = append(rs.rules, r)
	if r.Section != "" {
		rs.sections[r.Section] = true
	}
	return nil
}

// Rules returns the rules in the order they were added.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// HasSection reports whether any rule targets the named section.
func (rs *RuleSet) HasSection(name string) bool {
	return rs.sections[name]
}

func (rs *RuleSet) lookup(section, key string) (int, bool) {
	i, ok := rs.index[ruleKey{section, key}]
	return i, ok
}
