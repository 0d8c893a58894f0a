package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 100
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 500
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Skip  int
	Limit int
}

// Normalize clamps the params to safe query bounds.
func (p Params) Normalize() Params {
	out := p
	if out.Skip < 0 {
		out.Skip = 0
	}
	out.Limit = NormalizeLimit(out.Limit)
	return out
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
