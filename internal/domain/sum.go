package domain

import "math"

// Sum is a compensated (Neumaier) running sum. The zero value is an empty sum.
type Sum struct {
	sum float64
	c   float64
}

// NewSum returns a sum seeded with v.
func NewSum(v float64) Sum {
	return Sum{sum: v}
}

// Add accumulates v.
func (s *Sum) Add(v float64) {
	t := s.sum + v
	if math.Abs(s.sum) >= math.Abs(v) {
		s.c += (s.sum - t) + v
	} else {
		s.c += (v - t) + s.sum
	}
	s.sum = t
}

// Value returns the compensated total.
func (s Sum) Value() float64 {
	return s.sum + s.c
}
