package catalog

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Default pagination values applied by Normalize.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Known boolean filter flags.
const (
	FlagIndoor  = "indoor"
	FlagFlowers = "flowers"
	FlagEdible  = "edible"
)

// FilterSet is the search, filter and pagination criteria applied to the catalog.
//
// A FilterSet is a value: every method returns a new FilterSet and never
// mutates the receiver's Flags map. Empty Search and Watering mean "not set".
// A flag missing from Flags is unset, which is different from a flag set to false.
type FilterSet struct {
	Search   string          `json:"search,omitempty"`
	Flags    map[string]bool `json:"flags,omitempty"`
	Watering string          `json:"watering,omitempty"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// FilterPatch is a partial FilterSet update. Nil pointers leave fields alone.
type FilterPatch struct {
	Search   *string
	Watering *string
	Flags    map[string]bool
	Unset    []string
	Page     *int
	Limit    *int
}

// DefaultFilters returns the filters a fresh store starts with.
func DefaultFilters() FilterSet {
	return FilterSet{Page: DefaultPage, Limit: DefaultLimit}
}

// Normalize fills in default pagination for non-positive Page and Limit.
func (f FilterSet) Normalize() FilterSet {
	out := f.Clone()
	if out.Page < 1 {
		out.Page = DefaultPage
	}
	if out.Limit < 1 {
		out.Limit = DefaultLimit
	}
	return out
}

// Flag reports the value of a flag and whether it is set.
func (f FilterSet) Flag(name string) (value, ok bool) {
	value, ok = f.Flags[name]
	return value, ok
}

// WithFlag returns a copy of f with the flag set.
func (f FilterSet) WithFlag(name string, value bool) FilterSet {
	out := f.Clone()
	if out.Flags == nil {
		out.Flags = make(map[string]bool, 1)
	}
	out.Flags[name] = value
	return out
}

// WithPage returns a copy of f pointing at page.
func (f FilterSet) WithPage(page int) FilterSet {
	out := f.Clone()
	out.Page = page
	return out
}

// Apply merges p into a copy of f.
func (f FilterSet) Apply(p FilterPatch) FilterSet {
	out := f.Clone()
	if p.Search != nil {
		out.Search = *p.Search
	}
	if p.Watering != nil {
		out.Watering = *p.Watering
	}
	for _, name := range p.Unset {
		delete(out.Flags, name)
	}
	if len(p.Flags) > 0 && out.Flags == nil {
		out.Flags = make(map[string]bool, len(p.Flags))
	}
	maps.Copy(out.Flags, p.Flags)
	if p.Page != nil {
		out.Page = *p.Page
	}
	if p.Limit != nil {
		out.Limit = *p.Limit
	}
	if len(out.Flags) == 0 {
		out.Flags = nil
	}
	return out
}

// Equal reports whether f and other have the same canonical form.
func (f FilterSet) Equal(other FilterSet) bool {
	return bytes.Equal(f.Canonical(), other.Canonical())
}

// Canonical returns a stable JSON encoding of f: keys sorted, unset optional
// fields omitted and search text NFC-normalized. Two FilterSets with the same
// field/value pairs always encode identically regardless of how they were built.
func (f FilterSet) Canonical() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	field := func(name string, value []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeJSONString(&buf, name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	// Field order below is alphabetical.
	if len(f.Flags) > 0 {
		var fb bytes.Buffer
		fb.WriteByte('{')
		for i, name := range slices.Sorted(maps.Keys(f.Flags)) {
			if i > 0 {
				fb.WriteByte(',')
			}
			writeJSONString(&fb, name)
			fb.WriteByte(':')
			fb.WriteString(strconv.FormatBool(f.Flags[name]))
		}
		fb.WriteByte('}')
		field("flags", fb.Bytes())
	}
	field("limit", []byte(strconv.Itoa(f.Limit)))
	field("page", []byte(strconv.Itoa(f.Page)))
	if f.Search != "" {
		var sb bytes.Buffer
		writeJSONString(&sb, norm.NFC.String(f.Search))
		field("search", sb.Bytes())
	}
	if f.Watering != "" {
		var wb bytes.Buffer
		writeJSONString(&wb, f.Watering)
		field("watering", wb.Bytes())
	}

	buf.WriteByte('}')
	return buf.Bytes()
}

// Clone returns a copy of f that shares no map with it.
func (f FilterSet) Clone() FilterSet {
	out := f
	if f.Flags != nil {
		out.Flags = maps.Clone(f.Flags)
	}
	return out
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// json.Marshal of a string cannot fail.
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// StringPtr returns a pointer to s, for building patches.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n, for building patches.
func IntPtr(n int) *int { return &n }
