package sweep

import "errors"

var (
	errNameRequired   = errors.New("dimension name required")
	errNoValues       = errors.New("dimension requires at least one value")
	errNilSetter      = errors.New("dimension setter is nil")
	errNoDimensions   = errors.New("space requires at least one dimension")
	errDuplicateName  = errors.New("duplicate dimension name")
	errNilFunc        = errors.New("run func is nil")
	errInvalidWorkers = errors.New("workers must be positive")
)

// Dimension is one named axis of a parameter space. Apply sets the value at
// index i on a config
type Dimension[C any] interface {
	Name() string
	Len() int
	Label(i int) string
	Apply(cfg *C, i int)
}

// values is a Dimension over a typed list of values
type values[C, V any] struct {
	name   string
	values []V
	set    func(*C, V)
}

// Space is the Cartesian product of its dimensions. The first dimension
// changes fastest when enumerating
type Space[C any] struct {
	dimensions []Dimension[C]
	count      int
}

// Setting is the value chosen for one dimension in a permutation
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Permutation is one config drawn from a space
type Permutation[C any] struct {
	Index    int
	Settings []Setting
	Config   C
}

// Result holds the outcome of running one permutation
type Result[C, R any] struct {
	Permutation Permutation[C]
	Value       R
	Err         error
}
