package patch

import (
	"regexp"
	"strings"
)

// LineKind classifies a single line.
type LineKind int

const (
	LineOther LineKind = iota
	LineBlank
	LineComment
	LineHeader
	LineArrayHeader
	LineMalformedHeader
	LineAssignment
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineHeader:
		return "header"
	case LineArrayHeader:
		return "array-header"
	case LineMalformedHeader:
		return "malformed-header"
	case LineAssignment:
		return "assignment"
	default:
		return "other"
	}
}

var (
	headerRe      = regexp.MustCompile(`^\[\s*([A-Za-z0-9_.\-]+)\s*\]\s*(#.*)?$`)
	arrayHeaderRe = regexp.MustCompile(`^\[\[\s*([A-Za-z0-9_.\-]+)\s*\]\]\s*(#.*)?$`)
)

// Line is the classification of one line.
type Line struct {
	Kind LineKind
	// Name is the section name for headers.
	Name string
	// Key is the trimmed text before the first '=' for assignments.
	Key string
}

// Classify inspects a line without its terminator.
func Classify(body string) Line {
	t := strings.TrimSpace(body)
	switch {
	case t == "":
		return Line{Kind: LineBlank}
	case strings.HasPrefix(t, "#"):
		return Line{Kind: LineComment}
	case strings.HasPrefix(t, "[["):
		if m := arrayHeaderRe.FindStringSubmatch(t); m != nil {
			return Line{Kind: LineArrayHeader, Name: m[1]}
		}
		return Line{Kind: LineMalformedHeader}
	case strings.HasPrefix(t, "["):
		if m := headerRe.FindStringSubmatch(t); m != nil {
			return Line{Kind: LineHeader, Name: m[1]}
		}
		return Line{Kind: LineMalformedHeader}
	}

	k, _, ok := strings.Cut(t, "=")
	if !ok {
		return Line{Kind: LineOther}
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return Line{Kind: LineOther}
	}
	return Line{Kind: LineAssignment, Key: k}
}

// SplitLines splits s into lines that keep their terminators, so that
// JoinLines(SplitLines(s)) == s for every s.
func SplitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// JoinLines concatenates lines produced by SplitLines or Apply.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}

// splitTerminator separates a line into its body and its terminator
// ("\n", "\r\n", or "").
func splitTerminator(line string) (body, term string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}

// indentOf returns the leading whitespace of body.
func indentOf(body string) string {
	return body[:len(body)-len(strings.TrimLeft(body, " \t"))]
}
