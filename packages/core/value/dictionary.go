package value

// Dictionary is an insertion-ordered mapping from name to Value. Lookups
// go through an index so declaration order is kept without giving up
// name-based access.
type Dictionary struct {
	keys  []string
	index map[string]int
	vals  []Value
}

func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]int)}
}

// DictionaryOf builds a dictionary from alternating key/value pairs kept
// in the given order. It is mostly useful in tests.
func DictionaryOf(pairs ...any) *Dictionary {
	d := NewDictionary()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		d.Set(key, From(pairs[i+1]))
	}
	return d
}

func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dictionary) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}
	return d.vals[i], true
}

func (d *Dictionary) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (d *Dictionary) Set(key string, v Value) {
	if i, ok := d.index[key]; ok {
		d.vals[i] = v
		return
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, v)
}

func (d *Dictionary) Delete(key string) {
	i, ok := d.index[key]
	if !ok {
		return
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.keys); j++ {
		d.index[d.keys[j]] = j
	}
}

// Clone returns a copy of the top level; nested values are shared.
func (d *Dictionary) Clone() *Dictionary {
	c := NewDictionary()
	if d == nil {
		return c
	}
	for i, k := range d.keys {
		c.Set(k, d.vals[i])
	}
	return c
}

// Each calls fn for every entry in order until fn returns false.
func (d *Dictionary) Each(fn func(key string, v Value) bool) {
	if d == nil {
		return
	}
	for i, k := range d.keys {
		if !fn(k, d.vals[i]) {
			return
		}
	}
}
