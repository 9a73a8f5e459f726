package utils

import (
	"strconv"

	"agora/internal/apperr"
)

var ErrBadID = apperr.New(apperr.CodeValidation, "id must be a positive integer")

// ParseID parses a route id. Zero and non-numeric values are rejected.
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, ErrBadID
	}
	return uint(n), nil
}
