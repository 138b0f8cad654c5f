package mock

import "github.com/fwojciec/searchcrawl"

var _ searchcrawl.Converter = (*Converter)(nil)

// Converter is a mock implementation of searchcrawl.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
