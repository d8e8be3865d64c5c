// Package secrets detects and redacts credential-shaped substrings in tool
// output before it reaches the agent loop or any log.
package secrets

import (
	"fmt"
	"regexp"
)

// Match is one detected secret. Offsets are relative to the string as it
// existed when that pattern ran; see the note on Redact.
type Match struct {
	Kind  string
	Start int
	End   int
}

type pattern struct {
	kind string
	re   *regexp.Regexp
}

// Patterns are evaluated in this fixed priority order.
var patterns = []pattern{
	{"AWS Access Key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"GitHub PAT", regexp.MustCompile(`gh[pous]_[A-Za-z0-9_]{36,255}`)},
	{"Private Key", regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----`)},
	{"Anthropic API Key", regexp.MustCompile(`sk-ant-[A-Za-z0-9\-_]{20,}`)},
	{"OpenAI API Key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
}

// Redact scans text for secrets and replaces each occurrence with a
// [REDACTED:<kind>] marker. Replacement runs per pattern in priority order,
// right to left within each pattern so earlier offsets in the same pass stay
// valid. When several kinds match overlapping text, later patterns run
// against the already-redacted string, so match offsets are
// pattern-sequential rather than relative to a single snapshot.
func Redact(text string) (string, []Match) {
	// Cheap pre-check: collect the patterns that match at all.
	matching := make([]int, 0, len(patterns))
	for i, p := range patterns {
		if p.re.MatchString(text) {
			matching = append(matching, i)
		}
	}
	if len(matching) == 0 {
		return text, nil
	}

	result := text
	var all []Match

	for _, idx := range matching {
		p := patterns[idx]
		found := p.re.FindAllStringIndex(result, -1)

		for i := len(found) - 1; i >= 0; i-- {
			start, end := found[i][0], found[i][1]
			all = append(all, Match{Kind: p.kind, Start: start, End: end})
			result = result[:start] + fmt.Sprintf("[REDACTED:%s]", p.kind) + result[end:]
		}
	}

	return result, all
}
