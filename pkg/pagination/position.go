package pagination

// Locate maps a 0-based progress counter to its 1-based page number and the
// offset inside that page. It returns page 0 when perPage or progress make
// the position unaddressable.
func Locate(progress, perPage int) (page, offset int) {
	if perPage <= 0 || progress < 0 {
		return 0, 0
	}
	return progress/perPage + 1, progress % perPage
}
