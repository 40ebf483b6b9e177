package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any paginated query can request.
	MaxLimit = 100
)

// Request holds page-number pagination inputs for admin and agent listings
// that need stable totals rather than cursors.
type Request struct {
	Page    int
	PerPage int
}

// Limit returns the normalized page size.
func (r Request) Limit() int {
	return NormalizeLimit(r.PerPage)
}

// Offset returns the row offset for the requested page.
func (r Request) Offset() int {
	page := r.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * r.Limit()
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
