package models

// Optional holds a value that may not have been decided yet. The zero value is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was stored.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value, or fallback when unset.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}
