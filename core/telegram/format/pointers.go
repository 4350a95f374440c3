package format

// DerefInt returns *i when non-nil, otherwise def.
func DerefInt(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}
