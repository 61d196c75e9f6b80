package model

// Change describes an edit to an optional field. The zero value leaves
// the field untouched; Set assigns a value and Clear removes it.
type Change[T any] struct {
	set   bool
	value *T
}

// Set returns a Change that assigns v.
func Set[T any](v T) Change[T] {
	return Change[T]{set: true, value: &v}
}

// Clear returns a Change that removes the current value.
func Clear[T any]() Change[T] {
	return Change[T]{set: true}
}

// IsSet reports whether the change touches the field at all.
func (c Change[T]) IsSet() bool {
	return c.set
}

// Apply writes the change into dst. It reports whether dst was touched.
func (c Change[T]) Apply(dst **T) bool {
	if !c.set {
		return false
	}
	if c.value == nil {
		*dst = nil
		return true
	}
	v := *c.value
	*dst = &v
	return true
}

// Value returns the assigned value and whether one is present.
// A cleared or untouched change returns ok == false.
func (c Change[T]) Value() (v T, ok bool) {
	if c.value == nil {
		return v, false
	}
	return *c.value, true
}
