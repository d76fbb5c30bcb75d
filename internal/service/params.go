package service

import "time"

// ReadingFilter narrows the stored prediction history.
type ReadingFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Status string    // "", or a status label like "Good" (case-insensitive)
	Limit  int       // max rows; <=0 means the service default
}
