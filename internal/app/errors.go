package service

import "errors"

// ErrNoScores is the one domain error of the calculator: the performance
// exists but no judge has submitted anything yet.
var ErrNoScores = errors.New("no scores found for performance")
