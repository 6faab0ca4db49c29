package patch

// SectionKind tags the tracker's current section.
type SectionKind int

const (
	// Root is the implicit section before the first header.
	Root SectionKind = iota
	// Tracked is a section the rule set has rules for.
	Tracked
	// Other is any section (or bracket line) the rule set ignores.
	Other
)

func (k SectionKind) String() string {
	switch k {
	case Root:
		return "root"
	case Tracked:
		return "tracked"
	default:
		return "other"
	}
}

// Section is the tracker's single current-section value. Exactly one
// section is open at a time.
type Section struct {
	Kind SectionKind
	Name string
}

// Tracker follows section headers in document order. It never looks ahead
// and keeps no memory of sections already visited, so a repeated header
// re-enters its section.
type Tracker struct {
	cur    Section
	wanted func(name string) bool
}

// NewTracker returns a tracker at Root. wanted reports whether a section
// name has rules; a nil wanted tracks nothing.
func NewTracker(wanted func(name string) bool) *Tracker {
	if wanted == nil {
		wanted = func(string) bool { return false }
	}
	return &Tracker{wanted: wanted}
}

// Current returns the open section.
func (t *Tracker) Current() Section {
	return t.cur
}

// Observe advances the tracker past one classified line and returns the
// section in effect after it.
func (t *Tracker) Observe(l Line) Section {
	switch l.Kind {
	case LineHeader:
		if t.wanted(l.Name) {
			t.cur = Section{Kind: Tracked, Name: l.Name}
		} else {
			t.cur = Section{Kind: Other, Name: l.Name}
		}
	case LineArrayHeader:
		t.cur = Section{Kind: Other, Name: l.Name}
	case LineMalformedHeader:
		t.cur = Section{Kind: Other}
	}
	return t.cur
}
