package value

import "iter"

// Object maps string keys to values and remembers insertion order.
// Setting an existing key replaces its value but keeps its position.
//
// Use NewObject to construct; the zero Object is usable but a nil *Object
// only supports read methods.
type Object struct {
	keys   []string
	fields map[string]Value
}

func (*Object) isValue()   {}
func (*Object) Kind() Kind { return KindObject }

// Pair is a key-value pair for ordered Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: NewObject(O("name", String("docs")), O("count", Int(5)))
func O(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject creates an Object holding pairs in order.
func NewObject(pairs ...Pair) *Object {
	obj := &Object{
		keys:   make([]string, 0, len(pairs)),
		fields: make(map[string]Value, len(pairs)),
	}
	for _, p := range pairs {
		obj.Set(p.Key, p.Value)
	}
	return obj
}

// Set stores v under key. A nil v is stored as Null.
func (o *Object) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Delete removes key. Returns false if it was absent.
func (o *Object) Delete(key string) bool {
	if o == nil {
		return false
	}
	if _, ok := o.fields[key]; !ok {
		return false
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// All iterates entries in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.fields[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	out := NewObject()
	for k, v := range o.All() {
		out.Set(k, Clone(v))
	}
	return out
}

// equal compares entries and order.
func (o *Object) equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	if o.Len() == 0 {
		return true
	}
	for i, k := range o.keys {
		if other.keys[i] != k {
			return false
		}
		if !Equal(o.fields[k], other.fields[k]) {
			return false
		}
	}
	return true
}
