package helpers

// NonZero returns a pointer to a copy of v, or nil when v is the zero value so that unset flag names and
// environment bindings stay unset.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
