package corpus

import (
	"regexp"
	"strings"
)

// OutcomeKind classifies the result of resolving a filename.
type OutcomeKind int

const (
	// Miss means neither the file nor a placeholder for it exists.
	Miss OutcomeKind = iota
	// ExactHit means the requested filename is in the corpus.
	ExactHit
	// PlaceholderHit means a same-group substitute was chosen.
	PlaceholderHit
)

// String returns a short lowercase name for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case ExactHit:
		return "exact"
	case PlaceholderHit:
		return "placeholder"
	default:
		return "miss"
	}
}

// Outcome is the result of Resolve. Filename is the corpus key whose
// bytes are in Data; it is empty for a Miss.
type Outcome struct {
	Kind     OutcomeKind
	Data     []byte
	Filename string
}

// placeholderPattern matches gear skin variants such as pc12_gard_07.dat.
// The first group is the placeholder group key.
var placeholderPattern = regexp.MustCompile(`^(pc\d+_gard)_\d+\.dat$`)

const placeholderExt = ".dat"

// GroupKey returns the placeholder group of a filename ("pc12_gard" for
// "pc12_gard_07.dat"). The second result is false for filenames that are
// not eligible for placeholder substitution.
func GroupKey(filename string) (string, bool) {
	m := placeholderPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Resolve looks up filename. An exact key wins; otherwise an eligible
// filename is served the lexicographically smallest key that starts with
// its group key and ends in ".dat"; otherwise the outcome is a Miss.
// Matching is case-sensitive and the filename is not normalized.
func (c *Corpus) Resolve(filename string) Outcome {
	if data, ok := c.files[filename]; ok {
		return Outcome{Kind: ExactHit, Data: data, Filename: filename}
	}

	prefix, ok := GroupKey(filename)
	if !ok {
		return Outcome{Kind: Miss}
	}

	if name, data, ok := c.placeholder(prefix); ok {
		return Outcome{Kind: PlaceholderHit, Data: data, Filename: name}
	}
	return Outcome{Kind: Miss}
}

// Resolve is the function form of Corpus.Resolve.
func Resolve(filename string, c *Corpus) Outcome {
	return c.Resolve(filename)
}

// placeholder walks the keys under prefix in lexicographic order and
// returns the first candidate.
func (c *Corpus) placeholder(prefix string) (name string, data []byte, found bool) {
	c.index.WalkPrefix(prefix, func(key string, v interface{}) bool {
		if !isCandidate(key[len(prefix):]) {
			return false
		}
		name, data, found = key, v.([]byte), true
		return true
	})
	return name, data, found
}

// isCandidate reports whether the part of a key after the group prefix
// matches `.*\.dat$`.
func isCandidate(rest string) bool {
	if !strings.HasSuffix(rest, placeholderExt) {
		return false
	}
	// "." does not match a newline
	return !strings.Contains(rest[:len(rest)-len(placeholderExt)], "\n")
}
