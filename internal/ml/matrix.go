package ml

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix. Copying a Matrix shares Data, use Clone for a deep copy.
type Matrix struct {
	Data []float64
	Rows int
	Cols int

	// gonum views over Data, built once so multiplication does not allocate.
	view  *mat.Dense
	viewT mat.Matrix
}

func NewMatrix(rows, cols int) Matrix {
	var m = Matrix{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
	if rows > 0 && cols > 0 {
		m.view = mat.NewDense(rows, cols, m.Data)
		m.viewT = m.view.T()
	}
	return m
}

// FromRows builds a matrix from literal rows. All rows must have the same length.
func FromRows(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}
	var cols = len(rows[0])
	var m = NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, errors.Wrapf(ErrDimensionMismatch,
				"row %v has %v values, row 0 has %v", i, len(row), cols)
		}
		copy(m.Row(i), row)
	}
	return m, nil
}

func RowVector(values []float64) Matrix {
	var m = NewMatrix(1, len(values))
	copy(m.Data, values)
	return m
}

func (m *Matrix) Get(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

func (m *Matrix) Set(row, col int, value float64) {
	m.Data[row*m.Cols+col] = value
}

func (m *Matrix) Add(row, col int, delta float64) {
	m.Data[row*m.Cols+col] += delta
}

// Row returns a view of row i, writes go to the matrix.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

func (m *Matrix) Reset() {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

func (m *Matrix) Clone() Matrix {
	var result = NewMatrix(m.Rows, m.Cols)
	copy(result.Data, m.Data)
	return result
}

func (m *Matrix) SameShape(other Matrix) bool {
	return m.Rows == other.Rows && m.Cols == other.Cols
}

// Map applies f to every entry in place.
func (m *Matrix) Map(f func(x float64) float64) {
	for i, x := range m.Data {
		m.Data[i] = f(x)
	}
}

// Randomize fills every entry with a value drawn uniformly from [low, high].
func (m *Matrix) Randomize(rnd *rand.Rand, low, high float64) {
	InitUniform(rnd, m.Data, low, high)
}

// AddRow adds the 1xN row to every row of m.
func (m *Matrix) AddRow(row Matrix) error {
	if row.Rows != 1 || row.Cols != m.Cols {
		return shapeError("add row", row, *m)
	}
	for i := 0; i < m.Rows; i++ {
		floats.Add(m.Row(i), row.Data)
	}
	return nil
}

// AddScaled performs m += alpha*other.
func (m *Matrix) AddScaled(alpha float64, other Matrix) error {
	if !m.SameShape(other) {
		return shapeError("add scaled", *m, other)
	}
	floats.AddScaled(m.Data, alpha, other.Data)
	return nil
}

func (m *Matrix) Scale(alpha float64) {
	floats.Scale(alpha, m.Data)
}

// Multiply returns a*b.
func Multiply(a, b Matrix) (Matrix, error) {
	if a.Cols != b.Rows {
		return Matrix{}, shapeError("multiply", a, b)
	}
	var c = NewMatrix(a.Rows, b.Cols)
	var err = Mul(&c, a, b)
	return c, err
}

// Mul computes dst = a*b without allocating dst. dst must not share storage with a or b.
func Mul(dst *Matrix, a, b Matrix) error {
	if a.Cols != b.Rows {
		return shapeError("multiply", a, b)
	}
	if dst.Rows != a.Rows || dst.Cols != b.Cols {
		return errors.Wrapf(ErrDimensionMismatch,
			"multiply destination %vx%v, want %vx%v", dst.Rows, dst.Cols, a.Rows, b.Cols)
	}
	if dst.Rows == 0 || dst.Cols == 0 {
		return nil
	}
	if a.Cols == 0 {
		dst.Reset()
		return nil
	}
	dst.dense().Mul(a.dense(), b.dense())
	return nil
}

// MulTransB computes dst = a*transpose(b).
func MulTransB(dst *Matrix, a, b Matrix) error {
	if a.Cols != b.Cols {
		return errors.Wrapf(ErrDimensionMismatch,
			"multiply %vx%v by transpose of %vx%v", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	if dst.Rows != a.Rows || dst.Cols != b.Rows {
		return errors.Wrapf(ErrDimensionMismatch,
			"multiply destination %vx%v, want %vx%v", dst.Rows, dst.Cols, a.Rows, b.Rows)
	}
	if dst.Rows == 0 || dst.Cols == 0 {
		return nil
	}
	if a.Cols == 0 {
		dst.Reset()
		return nil
	}
	dst.dense().Mul(a.dense(), b.denseT())
	return nil
}

// AddOuter accumulates m += transpose(x)*y for row vectors x and y.
func (m *Matrix) AddOuter(x, y Matrix) error {
	if x.Rows != 1 || y.Rows != 1 || m.Rows != x.Cols || m.Cols != y.Cols {
		return errors.Wrapf(ErrDimensionMismatch,
			"outer %vx%v and %vx%v into %vx%v", x.Rows, x.Cols, y.Rows, y.Cols, m.Rows, m.Cols)
	}
	for i, xi := range x.Data {
		floats.AddScaled(m.Row(i), xi, y.Data)
	}
	return nil
}

func (m Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%v", m.Row(i))
	}
	sb.WriteString("]")
	return sb.String()
}

// dense returns the cached view, or a fresh one when Data was replaced after construction.
func (m *Matrix) dense() *mat.Dense {
	if m.hasView() {
		return m.view
	}
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

func (m *Matrix) denseT() mat.Matrix {
	if m.hasView() {
		return m.viewT
	}
	return mat.NewDense(m.Rows, m.Cols, m.Data).T()
}

func (m *Matrix) hasView() bool {
	if m.view == nil || len(m.Data) == 0 {
		return false
	}
	var r, c = m.view.Dims()
	return r == m.Rows && c == m.Cols && &m.view.RawMatrix().Data[0] == &m.Data[0]
}

func shapeError(op string, a, b Matrix) error {
	return errors.Wrapf(ErrDimensionMismatch, "%v %vx%v and %vx%v", op, a.Rows, a.Cols, b.Rows, b.Cols)
}
