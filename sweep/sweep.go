// Package sweep enumerates typed parameter permutations of a config and runs
// them in parallel
package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/thrasher-corp/venuesim/common"
	"github.com/thrasher-corp/venuesim/log"
	"golang.org/x/sync/errgroup"
)

// NewDimension returns a dimension assigning each of vals through set
func NewDimension[C, V any](name string, vals []V, set func(*C, V)) (Dimension[C], error) {
	if name == "" {
		return nil, errNameRequired
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s %w", name, errNoValues)
	}
	if set == nil {
		return nil, fmt.Errorf("%s %w", name, errNilSetter)
	}
	cpy := make([]V, len(vals))
	copy(cpy, vals)
	return &values[C, V]{name: name, values: cpy, set: set}, nil
}

// Name returns the dimension name
func (d *values[C, V]) Name() string {
	return d.name
}

// Len returns the amount of values
func (d *values[C, V]) Len() int {
	return len(d.values)
}

// Label formats the value at index i
func (d *values[C, V]) Label(i int) string {
	if s, ok := any(d.values[i]).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(d.values[i])
}

// Apply sets the value at index i
func (d *values[C, V]) Apply(cfg *C, i int) {
	d.set(cfg, d.values[i])
}

// NewSpace returns the product of the supplied dimensions
func NewSpace[C any](dimensions ...Dimension[C]) (*Space[C], error) {
	if len(dimensions) == 0 {
		return nil, errNoDimensions
	}
	names := make(map[string]struct{}, len(dimensions))
	count := 1
	for i := range dimensions {
		if dimensions[i] == nil || dimensions[i].Len() == 0 {
			return nil, fmt.Errorf("dimension %d %w", i, errNoValues)
		}
		if _, ok := names[dimensions[i].Name()]; ok {
			return nil, fmt.Errorf("%w %q", errDuplicateName, dimensions[i].Name())
		}
		names[dimensions[i].Name()] = struct{}{}
		count *= dimensions[i].Len()
	}
	return &Space[C]{dimensions: dimensions, count: count}, nil
}

// Count returns the amount of permutations
func (s *Space[C]) Count() int {
	return s.count
}

// Dimensions returns the dimension names in declaration order
func (s *Space[C]) Dimensions() []string {
	resp := make([]string, len(s.dimensions))
	for i := range s.dimensions {
		resp[i] = s.dimensions[i].Name()
	}
	return resp
}

// At returns permutation i applied to a copy of base. Base is copied by
// value so reference fields stay shared between permutations
func (s *Space[C]) At(base C, i int) (Permutation[C], error) {
	if i < 0 || i >= s.count {
		return Permutation[C]{}, fmt.Errorf("permutation %d out of range [0, %d)", i, s.count)
	}
	p := Permutation[C]{
		Index:    i,
		Settings: make([]Setting, len(s.dimensions)),
		Config:   base,
	}
	rem := i
	for d := range s.dimensions {
		n := s.dimensions[d].Len()
		if n <= 0 {
			return Permutation[C]{}, fmt.Errorf("dimension %q %w", s.dimensions[d].Name(), errNoValues)
		}
		idx := rem % n
		rem /= n
		s.dimensions[d].Apply(&p.Config, idx)
		p.Settings[d] = Setting{Name: s.dimensions[d].Name(), Value: s.dimensions[d].Label(idx)}
	}
	return p, nil
}

// Each calls fn with every permutation in order and stops at the first error
func (s *Space[C]) Each(base C, fn func(Permutation[C]) error) error {
	for i := 0; i < s.count; i++ {
		p, err := s.At(base, i)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// All returns every permutation in order
func (s *Space[C]) All(base C) ([]Permutation[C], error) {
	resp := make([]Permutation[C], 0, s.count)
	err := s.Each(base, func(p Permutation[C]) error {
		resp = append(resp, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Label joins the settings as name=value pairs
func (p *Permutation[C]) Label() string {
	var sb strings.Builder
	for i := range p.Settings {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Settings[i].Name)
		sb.WriteByte('=')
		sb.WriteString(p.Settings[i].Value)
	}
	return sb.String()
}

// Run executes fn for every permutation with at most workers running at once.
// Results are returned in permutation order. A failing permutation is kept in
// its result and does not stop the others, only context cancellation does
func Run[C, R any](ctx context.Context, space *Space[C], base C, workers int, fn func(context.Context, Permutation[C]) (R, error)) ([]Result[C, R], error) {
	if space == nil {
		return nil, errNoDimensions
	}
	if fn == nil {
		return nil, errNilFunc
	}
	if workers <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidWorkers, workers)
	}
	results := make([]Result[C, R], space.Count())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < space.Count(); i++ {
		p, err := space.At(base, i)
		if err != nil {
			if waitErr := g.Wait(); waitErr != nil {
				err = common.AppendError(err, waitErr)
			}
			return nil, err
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, p)
			results[p.Index] = Result[C, R]{Permutation: p, Value: v, Err: err}
			if err != nil {
				log.Warnf(log.Sweep, "permutation %d [%s] failed: %v", p.Index, p.Label(), err)
				return nil
			}
			log.Debugf(log.Sweep, "permutation %d [%s] completed", p.Index, p.Label())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
