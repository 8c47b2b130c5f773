package screening

import "regexp"

var hangulRun = regexp.MustCompile(`[가-힣]+`)

// segment is a maximal run of either Hangul syllables or anything else.
type segment struct {
	text   string
	hangul bool
}

// splitScript cuts s into alternating Hangul and non-Hangul runs, in order.
// Empty runs are never produced.
func splitScript(s string) []segment {
	var out []segment
	last := 0
	for _, loc := range hangulRun.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			out = append(out, segment{text: s[last:loc[0]]})
		}
		out = append(out, segment{text: s[loc[0]:loc[1]], hangul: true})
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, segment{text: s[last:]})
	}
	return out
}
