package optimization

import (
	"github.com/pkg/errors"
)

// Problem owns the variables and constraints handed to a solver and assembles their values, bounds and
// the full constraint Jacobian.
type Problem struct {
	variables   *Composite
	constraints []ConstraintSet
}

// NewProblem returns an empty Problem.
func NewProblem() *Problem {
	return &Problem{variables: NewComposite()}
}

// AddVariableSet appends a variable set. Names must be unique.
func (p *Problem) AddVariableSet(vs VariableSet) error {
	return p.variables.AddComponent(vs)
}

// AddConstraintSet appends a constraint set.
func (p *Problem) AddConstraintSet(cs ConstraintSet) {
	p.constraints = append(p.constraints, cs)
}

// VariableSets returns the variable sets in order.
func (p *Problem) VariableSets() []VariableSet {
	return p.variables.Components()
}

// ConstraintSets returns the constraint sets in order.
func (p *Problem) ConstraintSets() []ConstraintSet {
	return p.constraints
}

// NumVariables returns the length of the stacked variable vector.
func (p *Problem) NumVariables() int {
	return p.variables.Rows()
}

// NumConstraints returns the length of the stacked residual vector.
func (p *Problem) NumConstraints() int {
	rows := 0
	for _, cs := range p.constraints {
		rows += cs.Rows()
	}
	return rows
}

// Variables returns the current stacked variable vector.
func (p *Problem) Variables() []float64 {
	return p.variables.Values()
}

// SetVariables pushes x into the variable sets.
func (p *Problem) SetVariables(x []float64) error {
	return p.variables.SetValues(x)
}

// VariableBounds returns the stacked variable bounds.
func (p *Problem) VariableBounds() []Bounds {
	return p.variables.Bounds()
}

// ConstraintValues returns the stacked residuals of every constraint at the current variables.
func (p *Problem) ConstraintValues() ([]float64, error) {
	values := make([]float64, 0, p.NumConstraints())
	for _, cs := range p.constraints {
		v, err := cs.Values()
		if err != nil {
			return nil, errors.Wrapf(err, "constraint %q", cs.Name())
		}
		if len(v) != cs.Rows() {
			return nil, errors.Errorf("constraint %q returned %d values but has %d rows", cs.Name(), len(v), cs.Rows())
		}
		values = append(values, v...)
	}
	return values, nil
}

// ConstraintBounds returns the stacked residual bounds.
func (p *Problem) ConstraintBounds() []Bounds {
	bounds := make([]Bounds, 0, p.NumConstraints())
	for _, cs := range p.constraints {
		bounds = append(bounds, cs.Bounds()...)
	}
	return bounds
}

// ConstraintJacobian assembles the derivative of ConstraintValues with respect to Variables. Each
// constraint fills a freshly zeroed block per variable set, which is then placed at the constraint's rows
// and the variable set's columns, so a constraint can never write outside its own region.
func (p *Problem) ConstraintJacobian() (*Jacobian, error) {
	jac := NewJacobian(p.NumConstraints(), p.NumVariables())
	row := 0
	for _, cs := range p.constraints {
		col := 0
		for _, vs := range p.variables.Components() {
			block := NewJacobian(cs.Rows(), vs.Rows())
			if err := cs.FillJacobianBlock(vs.Name(), block); err != nil {
				return nil, errors.Wrapf(err, "constraint %q, variable set %q", cs.Name(), vs.Name())
			}
			block.DoNonZero(func(i, j int, v float64) {
				jac.Set(row+i, col+j, v)
			})
			col += vs.Rows()
		}
		row += cs.Rows()
	}
	return jac, nil
}
