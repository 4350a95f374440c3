package form

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Values is the collected field mapping of one session. Iteration order is
// collection order, which equals the field order of the definition.
type Values struct {
	m *orderedmap.OrderedMap[string, string]
}

func newValues() *Values {
	return &Values{m: orderedmap.New[string, string]()}
}

func (v *Values) set(name, value string) {
	v.m.Set(name, value)
}

// Get returns the collected value for a field name.
func (v *Values) Get(name string) (string, bool) {
	return v.m.Get(name)
}

// MustGet returns the collected value or the empty string. Completions use it
// for fields the definition guarantees to exist.
func (v *Values) MustGet(name string) string {
	value, _ := v.m.Get(name)
	return value
}

// Len returns the number of collected fields.
func (v *Values) Len() int {
	return v.m.Len()
}

// Names returns field names in collection order.
func (v *Values) Names() []string {
	names := make([]string, 0, v.m.Len())
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Each visits collected pairs in collection order.
func (v *Values) Each(fn func(name, value string)) {
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}
