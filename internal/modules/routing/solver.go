package routing

import (
	"fmt"

	"agri-supply/internal/models"
	"agri-supply/internal/modules/geo"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// UnreachableDistanceKm replaces a matrix entry whose coordinates failed validation.
// It is large enough that the nearest-neighbour step only picks such a point last.
const UnreachableDistanceKm = 1e6

// Solution is the output of Solve. Order indexes into Points and ends where it starts.
type Solution struct {
	Order           []int
	Points          []models.GeoPoint
	Unroutable      []models.GeoPoint
	TotalDistanceKm float64
	Legs            []float64
	Matrix          *mat.SymDense
}

// Solve orders the routable points with the nearest-neighbour heuristic starting at
// index 0 and closing the loop back to it. Points without both coordinates are
// returned in Unroutable and excluded from the matrix.
func Solve(points []models.GeoPoint) (*Solution, error) {
	routable := make([]models.GeoPoint, 0, len(points))
	var unroutable []models.GeoPoint
	for _, p := range points {
		if p.Routable() {
			routable = append(routable, p)
		} else {
			unroutable = append(unroutable, p)
		}
	}
	if len(routable) == 0 {
		return nil, fmt.Errorf("routing.Solve: %d points: %w", len(points), models.ErrNoRoutablePoints)
	}

	m := BuildMatrix(routable)
	order := nearestNeighbour(m)
	legs := make([]float64, len(order)-1)
	for i := 1; i < len(order); i++ {
		legs[i-1] = m.At(order[i-1], order[i])
	}

	return &Solution{
		Order:           order,
		Points:          routable,
		Unroutable:      unroutable,
		TotalDistanceKm: floats.Sum(legs),
		Legs:            legs,
		Matrix:          m,
	}, nil
}

// BuildMatrix computes the symmetric pairwise distance matrix. A pair that fails
// coordinate validation gets UnreachableDistanceKm instead of an error.
func BuildMatrix(points []models.GeoPoint) *mat.SymDense {
	n := len(points)
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := geo.PointDistanceKm(points[i], points[j])
			if err != nil {
				d = UnreachableDistanceKm
			}
			m.SetSym(i, j, d)
		}
	}
	return m
}

// nearestNeighbour walks from index 0 to the closest unvisited index each step.
// Ties go to the lowest index since only a strictly smaller distance replaces the best.
func nearestNeighbour(m *mat.SymDense) []int {
	n := m.SymmetricDim()
	if n == 1 {
		return []int{0, 0}
	}

	visited := make([]bool, n)
	order := make([]int, 0, n+1)
	current := 0
	visited[0] = true
	order = append(order, 0)

	for len(order) < n {
		next := -1
		best := 0.0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if d := m.At(current, j); next == -1 || d < best {
				next, best = j, d
			}
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}
	return append(order, 0)
}

// MoveToFront returns a copy of points with the point identified by id at index 0,
// swapped with whatever was there. ok is false when id is not present.
func MoveToFront(points []models.GeoPoint, id string) (out []models.GeoPoint, ok bool) {
	out = append([]models.GeoPoint(nil), points...)
	for i, p := range out {
		if p.ID == id {
			out[0], out[i] = out[i], out[0]
			return out, true
		}
	}
	return out, false
}

// MatrixRows copies the matrix into nested slices for JSON encoding.
func MatrixRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
