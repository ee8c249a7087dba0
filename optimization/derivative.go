package optimization

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DerivativeReport compares the assembled constraint Jacobian with a finite-difference estimate.
type DerivativeReport struct {
	// RowErrors is the largest absolute difference in each constraint row.
	RowErrors []float64
	// MaxError is the largest absolute difference overall, found at (MaxRow, MaxCol).
	MaxError       float64
	MaxRow, MaxCol int
}

// Ok reports whether every entry agrees to within tol.
func (r DerivativeReport) Ok(tol float64) bool {
	return r.MaxError <= tol
}

// CheckDerivatives differentiates the problem's constraints numerically at the current variables and
// compares the result against ConstraintJacobian. The variables are restored before returning. A nil
// settings uses central differences.
func CheckDerivatives(p *Problem, settings *fd.JacobianSettings) (report DerivativeReport, err error) {
	m, n := p.NumConstraints(), p.NumVariables()
	if m == 0 || n == 0 {
		return DerivativeReport{}, errors.New("problem has no constraints or no variables")
	}

	analytic, err := p.ConstraintJacobian()
	if err != nil {
		return DerivativeReport{}, err
	}

	x0 := p.Variables()
	defer func() {
		multierr.AppendInto(&err, p.SetVariables(x0))
	}()

	s := fd.JacobianSettings{Formula: fd.Central}
	if settings != nil {
		s = *settings
	}
	// evaluations mutate the variable sets
	s.Concurrent = false

	var evalErr error
	numeric := mat.NewDense(m, n, nil)
	fd.Jacobian(numeric, func(y, x []float64) {
		if evalErr != nil {
			return
		}
		if evalErr = p.SetVariables(x); evalErr != nil {
			return
		}
		var values []float64
		if values, evalErr = p.ConstraintValues(); evalErr != nil {
			return
		}
		copy(y, values)
	}, x0, &s)
	if evalErr != nil {
		return DerivativeReport{}, errors.Wrap(evalErr, "evaluating constraints")
	}

	var diff mat.Dense
	diff.Sub(analytic.Dense(), numeric)
	report.RowErrors = make([]float64, m)
	for i := 0; i < m; i++ {
		row := diff.RawRowView(i)
		for j, v := range row {
			row[j] = math.Abs(v)
		}
		col := floats.MaxIdx(row)
		report.RowErrors[i] = row[col]
		if row[col] > report.MaxError || i == 0 {
			report.MaxError, report.MaxRow, report.MaxCol = row[col], i, col
		}
	}
	return report, nil
}
