// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import (
	"sort"
	"strconv"
	"strings"
)

// labelRank assigns each canonical label name its position in the fixed
// serialization order: authority, direction, peer, dst_* (alphabetical),
// tls, no_tls_reason, status_code, classification, errno, le. This matches
// the literal order used throughout every TCP- and HTTP-family assertion in
// the ported integration tests (e.g. "direction=...,peer=...,tls=..."),
// which takes precedence over spec.md §9's prose listing where the two
// disagree.
var labelRank = map[string]int{
	"authority":      0,
	"direction":      1,
	"tls":            4,
	"no_tls_reason":  5,
	"status_code":    6,
	"classification": 7,
	"errno":          8,
	"peer":           2,
	"le":             9,
}

const dstRank = 3

func rankOf(name string) int {
	if r, ok := labelRank[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "dst_") {
		return dstRank
	}
	return len(labelRank) + 1
}

// LabelSet is a deterministic, immutable association of label name to
// value. Values are never empty-elided implicitly: a name present in a
// LabelSet is always rendered, even with an empty value (the errno="" case
// spec.md §4.1 pins down); callers decide whether to call [LabelSet.With]
// for a given name at all.
//
// LabelSet values are safe to share and reuse: [LabelSet.With] never
// mutates the receiver.
type LabelSet struct {
	entries map[string]string
}

// NewLabelSet returns an empty [LabelSet].
func NewLabelSet() LabelSet {
	return LabelSet{}
}

// With returns a copy of the [LabelSet] with name=value added (or
// overwritten if name was already present).
func (l LabelSet) With(name, value string) LabelSet {
	next := make(map[string]string, len(l.entries)+1)
	for k, v := range l.entries {
		next[k] = v
	}
	next[name] = value
	return LabelSet{entries: next}
}

// WithDst returns a copy of the [LabelSet] with a destination label added,
// preserving the dst_ prefix convention spec.md §4.2 requires (e.g.
// "addr_label" is stored and rendered as "dst_addr_label").
func (l LabelSet) WithDst(name, value string) LabelSet {
	return l.With("dst_"+name, value)
}

// sortedNames returns this LabelSet's names in canonical serialization
// order.
func (l LabelSet) sortedNames() []string {
	names := make([]string, 0, len(l.entries))
	for name := range l.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rankOf(names[i]), rankOf(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// Serialize renders the label set as a comma-separated `name="value"` list
// suitable for placement inside a Prometheus metric line's `{...}`. The
// empty [LabelSet] serializes to the empty string. The result never
// contains two consecutive commas, a leading comma, or a trailing comma.
func (l LabelSet) Serialize() string {
	names := l.sortedNames()
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(l.entries[name]))
		b.WriteByte('"')
	}
	return b.String()
}

// escapeLabelValue escapes backslash, double-quote, and newline the way
// the Prometheus text exposition format requires inside a quoted label
// value.
func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}

// bucketLabel renders a histogram bucket upper bound as the string the
// "le" label expects: "+Inf" for the final, implicit bucket, otherwise the
// bound formatted without a trailing ".0" for whole numbers (e.g. "50",
// not "50.0"), matching the literal strings the ported tests assert.
func bucketLabel(bound float64) string {
	if bound == float64(int64(bound)) {
		return strconv.FormatInt(int64(bound), 10)
	}
	return strconv.FormatFloat(bound, 'g', -1, 64)
}
