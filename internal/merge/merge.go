// Package merge appends reverse-proxy site blocks to a Caddyfile without
// touching blocks that are already there.
package merge

import (
	"fmt"
	"strings"

	"grimm.is/nodecfg/internal/patch"
)

// DefaultFilterOption names the option whose enclosing block is dropped
// from carried-over content.
const DefaultFilterOption = "email"

// Block is a candidate site block.
type Block struct {
	// Key is the identifying substring, usually the site address.
	Key string
	// Body is the rendered block, including its trailing newline.
	Body string
}

// Outcome is what happened to one candidate.
type Outcome int

const (
	Appended Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Appended {
		return "appended"
	}
	return "skipped"
}

// BlockResult pairs a candidate key with its outcome.
type BlockResult struct {
	Key     string
	Outcome Outcome
}

// Options control Merge.
type Options struct {
	// Header is a comment line (e.g. "# cosmoshub-4") written above the
	// appended blocks. Empty writes no header.
	Header string
	// FilterOption defaults to DefaultFilterOption.
	FilterOption string
}

// Result is the outcome of a merge.
type Result struct {
	// Content is the new document. It equals the existing content when
	// Changed is false.
	Content string
	Changed bool
	Blocks  []BlockResult
	// StrippedLines counts carried-over lines removed by the filter.
	StrippedLines int
	// Unterminated is set when a filtered block never closed; its lines
	// were kept.
	Unterminated bool
}

// Appended returns the keys of appended candidates.
func (r *Result) Appended() []string {
	var keys []string
	for _, b := range r.Blocks {
		if b.Outcome == Appended {
			keys = append(keys, b.Key)
		}
	}
	return keys
}

// Merge appends every candidate whose Key does not occur anywhere in
// existing. Membership is tested against the unmodified existing content.
func Merge(existing string, candidates []Block, opts Options) *Result {
	res := &Result{Content: existing}

	var appended []Block
	for _, c := range candidates {
		if c.Key != "" && strings.Contains(existing, c.Key) {
			res.Blocks = append(res.Blocks, BlockResult{Key: c.Key, Outcome: Skipped})
			continue
		}
		res.Blocks = append(res.Blocks, BlockResult{Key: c.Key, Outcome: Appended})
		appended = append(appended, c)
	}
	if len(appended) == 0 {
		return res
	}

	option := opts.FilterOption
	if option == "" {
		option = DefaultFilterOption
	}

	var b strings.Builder
	if opts.Header != "" {
		fmt.Fprintf(&b, "\n%s\n\n", opts.Header)
	}
	for _, c := range appended {
		b.WriteString(c.Body)
	}
	b.WriteString("\n")
	if strings.TrimSpace(existing) != "" {
		s := strip(existing, option)
		b.WriteString(s.content)
		res.StrippedLines = s.removed
		res.Unterminated = s.unterminated
	}

	res.Content = b.String()
	res.Changed = true
	return res
}

// StripBlock removes every block whose opening line contains both '{' and
// option. The block extends until the brace depth, counted from the
// opening line, returns to zero.
func StripBlock(content, option string) string {
	return strip(content, option).content
}

type stripped struct {
	content      string
	removed      int
	unterminated bool
}

func strip(content, option string) stripped {
	var (
		out     strings.Builder
		pending []string
		depth   int
		res     stripped
	)

	for _, line := range patch.SplitLines(content) {
		if pending == nil {
			if strings.Contains(line, "{") && strings.Contains(line, option) {
				depth = braceDelta(line)
				if depth <= 0 {
					res.removed++
					continue
				}
				pending = []string{line}
				continue
			}
			out.WriteString(line)
			continue
		}

		pending = append(pending, line)
		depth += braceDelta(line)
		if depth <= 0 {
			res.removed += len(pending)
			pending = nil
		}
	}

	// A block that never closes is kept as it was.
	if pending != nil {
		res.unterminated = true
		for _, l := range pending {
			out.WriteString(l)
		}
	}

	res.content = out.String()
	return res
}

func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}
