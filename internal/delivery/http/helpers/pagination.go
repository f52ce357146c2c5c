package helpers

import (
	"net/http"
	"strconv"
)

// DefaultPage is used when the page query parameter is missing or malformed.
const DefaultPage = 1

// ParsePage reads the 1-based page query parameter. Missing, malformed or
// non-positive values fall back to DefaultPage. The page size is not
// caller-controlled.
func ParsePage(r *http.Request) int {
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			return v
		}
	}
	return DefaultPage
}
