package optimization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type index struct {
	row, col int
}

// Jacobian is a sparse matrix holding only the entries that were set to a non-zero value. It satisfies
// mat.Matrix so it can be handed to gonum routines directly.
type Jacobian struct {
	rows, cols int
	data       map[index]float64
}

var (
	_ mat.Matrix      = (*Jacobian)(nil)
	_ mat.NonZeroDoer = (*Jacobian)(nil)
)

// NewJacobian returns an all-zero r×c sparse matrix.
func NewJacobian(r, c int) *Jacobian {
	if r < 0 || c < 0 {
		panic(mat.ErrNegativeDimension)
	}
	return &Jacobian{rows: r, cols: c, data: map[index]float64{}}
}

// Dims returns the dimensions of the matrix.
func (j *Jacobian) Dims() (r, c int) {
	return j.rows, j.cols
}

// At returns the value at row r, column c.
func (j *Jacobian) At(r, c int) float64 {
	j.check(r, c)
	return j.data[index{r, c}]
}

// T returns the transpose of the matrix.
func (j *Jacobian) T() mat.Matrix {
	return mat.Transpose{Matrix: j}
}

// Set sets the value at row r, column c. Setting zero removes the entry. Out of range indices panic.
func (j *Jacobian) Set(r, c int, v float64) {
	j.check(r, c)
	if v == 0 {
		delete(j.data, index{r, c})
		return
	}
	j.data[index{r, c}] = v
}

// NonZeros returns the number of stored entries.
func (j *Jacobian) NonZeros() int {
	return len(j.data)
}

// DoNonZero calls fn for each stored entry. The iteration order is unspecified.
func (j *Jacobian) DoNonZero(fn func(i, j int, v float64)) {
	for idx, v := range j.data {
		fn(idx.row, idx.col, v)
	}
}

// Zero removes every entry, keeping the dimensions.
func (j *Jacobian) Zero() {
	clear(j.data)
}

// Dense returns a dense copy of the matrix.
func (j *Jacobian) Dense() *mat.Dense {
	if j.rows == 0 || j.cols == 0 {
		return &mat.Dense{}
	}
	dense := mat.NewDense(j.rows, j.cols, nil)
	j.DoNonZero(dense.Set)
	return dense
}

func (j *Jacobian) check(r, c int) {
	if r < 0 || r >= j.rows {
		panic(fmt.Sprintf("%v: row %d of %d", mat.ErrRowAccess, r, j.rows))
	}
	if c < 0 || c >= j.cols {
		panic(fmt.Sprintf("%v: column %d of %d", mat.ErrColAccess, c, j.cols))
	}
}
