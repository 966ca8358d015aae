package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

type Real struct{}

func New() *Real {
	return &Real{}
}

func (c *Real) Now() time.Time {
	return time.Now()
}
