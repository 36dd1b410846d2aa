package hyper

import (
	"log"

	"github.com/KyungWonPark/Hyperalignment/internal/surf"
)

// QueryEngine finds the surface nodes of a searchlight
type QueryEngine struct {
	adj    [][]surf.Edge
	radius float64
}

// NewQueryEngine prepares searchlights of radius mm geodesic distance on s
func NewQueryEngine(s *surf.Surface, radius float64) *QueryEngine {
	adj := s.Neighbors()
	log.Printf("[NewQueryEngine] %d vertices, radius %g\n", len(adj), radius)

	return &QueryEngine{adj: adj, radius: radius}
}

// Radius returns the searchlight radius
func (qe *QueryEngine) Radius() float64 {
	return qe.radius
}

// Query returns the nodes within the radius of center, ascending
func (qe *QueryEngine) Query(center int) ([]int, error) {
	within, _, err := surf.Geodesic(qe.adj, center, qe.radius)
	return within, err
}
