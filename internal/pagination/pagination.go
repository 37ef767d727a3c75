// Package pagination derives bounded, defaulted page requests from raw
// query input. It is a pure utility: no validation of sort keys or
// positivity happens here, the query layer tolerates or ignores those.
package pagination

import "strconv"

// Sort directions understood by the query layer.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// PageRequest is the normalized (page, limit, sort, direction) tuple used
// for bounded, ordered listing.
type PageRequest struct {
	Page      int
	Limit     int
	Sort      string
	Direction string
}

// Skip returns the offset for offset-based retrieval.
func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Normalize parses raw query values, falling back to the per-endpoint
// defaults for anything missing or non-numeric.
func Normalize(rawPage, rawLimit, rawSort, rawDirection string, defaults PageRequest) PageRequest {
	req := PageRequest{
		Page:      parseIntOr(rawPage, defaults.Page),
		Limit:     parseIntOr(rawLimit, defaults.Limit),
		Sort:      defaults.Sort,
		Direction: defaults.Direction,
	}
	if rawSort != "" {
		req.Sort = rawSort
	}
	if rawDirection != "" {
		req.Direction = rawDirection
	}
	return req
}

func parseIntOr(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
