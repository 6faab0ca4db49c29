package patch

import "fmt"

// DiscrepancyKind explains why a rule had no effect.
type DiscrepancyKind int

const (
	// UnreadableSection: the rule's section never appears in the document.
	UnreadableSection DiscrepancyKind = iota
	// KeyNotFound: the section appears but no line carries the key.
	KeyNotFound
)

func (k DiscrepancyKind) String() string {
	if k == UnreadableSection {
		return "unreadable_section"
	}
	return "key_not_found"
}

// Discrepancy is a non-fatal note about a rule that matched nothing.
type Discrepancy struct {
	Kind DiscrepancyKind
	Rule Rule
}

func (d Discrepancy) String() string {
	switch d.Kind {
	case UnreadableSection:
		return fmt.Sprintf("section [%s] not present; rule %s has no effect", d.Rule.Section, d.Rule)
	default:
		return fmt.Sprintf("key %s not found", d.Rule)
	}
}

// Outcome counts what one rule did.
type Outcome struct {
	Rule Rule
	// Matched is the number of lines the rule matched.
	Matched int
	// Rewritten is the number of matched lines whose bytes changed.
	Rewritten int
}

// Report summarizes one Apply call.
type Report struct {
	Outcomes      []Outcome
	Discrepancies []Discrepancy
	// MalformedHeaders holds 1-based line numbers of bracket lines that
	// were not well-formed headers. They are passed through.
	MalformedHeaders []int
	// Changed reports whether any output line differs from its input.
	Changed bool
}

// Rewrites returns the total number of rewritten lines.
func (r *Report) Rewrites() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Rewritten
	}
	return n
}

// Matches returns the total number of matched lines.
func (r *Report) Matches() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Matched
	}
	return n
}

// Apply runs rules over lines and returns a new slice. lines is not
// modified. Lines that no rule matches are returned as the same strings,
// terminators included.
func Apply(lines []string, rules *RuleSet) ([]string, *Report) {
	if rules == nil {
		rules = NewRuleSet()
	}
	report := &Report{Outcomes: make([]Outcome, rules.Len())}
	for i, r := range rules.rules {
		report.Outcomes[i].Rule = r
	}

	tracker := NewTracker(rules.HasSection)
	seen := make(map[string]bool)
	out := make([]string, 0, len(lines))

	for n, line := range lines {
		body, term := splitTerminator(line)
		l := Classify(body)

		switch l.Kind {
		case LineHeader, LineArrayHeader, LineMalformedHeader:
			sec := tracker.Observe(l)
			if sec.Kind == Tracked {
				seen[sec.Name] = true
			}
			if l.Kind == LineMalformedHeader {
				report.MalformedHeaders = append(report.MalformedHeaders, n+1)
			}
			out = append(out, line)
			continue
		case LineAssignment:
		default:
			out = append(out, line)
			continue
		}

		var section string
		switch cur := tracker.Current(); cur.Kind {
		case Root:
			section = ""
		case Tracked:
			section = cur.Name
		default:
			out = append(out, line)
			continue
		}

		idx, ok := rules.lookup(section, l.Key)
		if !ok {
			out = append(out, line)
			continue
		}

		replaced := indentOf(body) + rules.rules[idx].Line() + term
		report.Outcomes[idx].Matched++
		if replaced != line {
			report.Outcomes[idx].Rewritten++
			report.Changed = true
		}
		out = append(out, replaced)
	}

	for _, o := range report.Outcomes {
		if o.Matched > 0 {
			continue
		}
		kind := KeyNotFound
		if o.Rule.Section != "" && !seen[o.Rule.Section] {
			kind = UnreadableSection
		}
		report.Discrepancies = append(report.Discrepancies, Discrepancy{Kind: kind, Rule: o.Rule})
	}

	return out, report
}
