package utils

// ToPtr returns a pointer to v. Handy for optional struct fields that
// take *T.
func ToPtr[T any](v T) *T {
	return &v
}
