package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Paginate clamps page/size and returns the offset and limit for an
// offset-based query.
func Paginate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// TotalPages returns the page count for total rows at the given limit.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
