package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrPlanNotFound = errors.New("plan not found")
)
