package state

import "errors"

// ErrNoSlides is returned when a carousel is configured without slides.
var ErrNoSlides = errors.New("carousel needs at least one slide")

// Carousel is a cyclic cursor over Len slides.
type Carousel struct {
	Index int `json:"index"`
	Len   int `json:"len"`
}

// NewCarousel starts at slide 0. It fails with ErrNoSlides when n < 1.
func NewCarousel(n int) (Carousel, error) {
	if n < 1 {
		return Carousel{}, ErrNoSlides
	}
	return Carousel{Index: 0, Len: n}, nil
}

// Next advances one slide, wrapping from the last to the first.
func (c Carousel) Next() Carousel {
	if c.Len < 1 {
		return c
	}
	return Carousel{Index: (c.Index + 1) % c.Len, Len: c.Len}
}

// Prev steps back one slide, wrapping from the first to the last.
func (c Carousel) Prev() Carousel {
	if c.Len < 1 {
		return c
	}
	return Carousel{Index: (c.Index - 1 + c.Len) % c.Len, Len: c.Len}
}
