package optimization

import (
	"github.com/pkg/errors"
)

// Component is anything the solver addresses by name with a fixed number of rows.
type Component interface {
	Name() string
	Rows() int
}

// VariableSet is a named block of optimization variables.
type VariableSet interface {
	Component
	Values() []float64
	SetValues(values []float64) error
	Bounds() []Bounds
}

// ConstraintSet is a named block of residuals. FillJacobianBlock writes the derivative of the residuals
// with respect to the named variable set into jac, which is sized Rows() × rows of that variable set.
// A constraint that does not depend on the variable set leaves jac untouched.
type ConstraintSet interface {
	Component
	Values() ([]float64, error)
	Bounds() []Bounds
	FillJacobianBlock(varSet string, jac *Jacobian) error
}

// ErrVariableSetNotFound is returned when a variable set name is not part of a Composite.
var ErrVariableSetNotFound = errors.New("variable set not found")

// Composite is an ordered collection of variable sets laid end to end in one vector.
type Composite struct {
	sets  []VariableSet
	index map[string]int
}

// NewComposite returns an empty Composite.
func NewComposite() *Composite {
	return &Composite{index: map[string]int{}}
}

// AddComponent appends a variable set. Names must be unique.
func (c *Composite) AddComponent(vs VariableSet) error {
	if _, ok := c.index[vs.Name()]; ok {
		return errors.Errorf("variable set %q already added", vs.Name())
	}
	c.index[vs.Name()] = len(c.sets)
	c.sets = append(c.sets, vs)
	return nil
}

// Component returns the named variable set.
func (c *Composite) Component(name string) (VariableSet, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrVariableSetNotFound, "%q", name)
	}
	return c.sets[i], nil
}

// Components returns the variable sets in order.
func (c *Composite) Components() []VariableSet {
	return c.sets
}

// Offset returns the position of the named set's first variable in the stacked vector.
func (c *Composite) Offset(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return 0, errors.Wrapf(ErrVariableSetNotFound, "%q", name)
	}
	offset := 0
	for _, vs := range c.sets[:i] {
		offset += vs.Rows()
	}
	return offset, nil
}

// Rows returns the total number of variables.
func (c *Composite) Rows() int {
	rows := 0
	for _, vs := range c.sets {
		rows += vs.Rows()
	}
	return rows
}

// Values returns every set's values stacked in order.
func (c *Composite) Values() []float64 {
	values := make([]float64, 0, c.Rows())
	for _, vs := range c.sets {
		values = append(values, vs.Values()...)
	}
	return values
}

// SetValues splits x across the variable sets in order.
func (c *Composite) SetValues(x []float64) error {
	if len(x) != c.Rows() {
		return errors.Errorf("expected %d variable values but got %d", c.Rows(), len(x))
	}
	offset := 0
	for _, vs := range c.sets {
		if err := vs.SetValues(x[offset : offset+vs.Rows()]); err != nil {
			return errors.Wrapf(err, "variable set %q", vs.Name())
		}
		offset += vs.Rows()
	}
	return nil
}

// Bounds returns every set's bounds stacked in order.
func (c *Composite) Bounds() []Bounds {
	bounds := make([]Bounds, 0, c.Rows())
	for _, vs := range c.sets {
		bounds = append(bounds, vs.Bounds()...)
	}
	return bounds
}
