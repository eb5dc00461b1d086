package mext

import "fmt"

// valueIterator walks the items produced by a @for directive's source
// expression. A list yields its elements in order; a map yields
// [key, value] pairs in insertion order (spec.md §4.6), since OrderedMap is
// the only map type in the data model.
type valueIterator struct {
	source []*Value
	idx    int
}

func newValueIterator(v *Value) (*valueIterator, error) {
	switch v.Kind() {
	case KindList:
		return &valueIterator{source: v.List()}, nil
	case KindMap:
		om := v.Map()
		items := make([]*Value, 0, om.Len())
		for _, k := range om.Keys() {
			val, _ := om.Get(k)
			items = append(items, List(String(k), val))
		}
		return &valueIterator{source: items}, nil
	default:
		return nil, fmt.Errorf("a %s value is not iterable in @for", v.Kind())
	}
}

func (it *valueIterator) hasNext() bool { return it.idx < len(it.source) }

func (it *valueIterator) next() *Value {
	v := it.source[it.idx]
	it.idx++
	return v
}

// bindLoopVars binds one iteration's item to the @for loop variable names.
// A single name takes the whole item. Multiple names require a list item
// and are bound positionally, truncating to whichever of names/item is
// shorter (mirroring Python's zip(names, item) truncation).
func bindLoopVars(names []string, item *Value, locals map[string]*Value) error {
	if len(names) == 1 {
		locals[names[0]] = item
		return nil
	}
	if item.Kind() != KindList {
		return fmt.Errorf("cannot unpack a %s value into %d loop variables", item.Kind(), len(names))
	}
	elems := item.List()
	n := len(names)
	if len(elems) < n {
		n = len(elems)
	}
	for i := 0; i < n; i++ {
		locals[names[i]] = elems[i]
	}
	return nil
}
