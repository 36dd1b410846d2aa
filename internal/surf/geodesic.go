package surf

import (
	"container/heap"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Edge is a mesh edge to vertex To of Euclidean length Length
type Edge struct {
	To     int
	Length float64
}

// Neighbors returns the edge adjacency of every vertex. Each face
// contributes its three edges once per direction.
func (s *Surface) Neighbors() [][]Edge {
	seen := make([]map[int]bool, s.NumVertices())
	adj := make([][]Edge, s.NumVertices())

	link := func(a, b int) {
		if seen[a] == nil {
			seen[a] = make(map[int]bool)
		}
		if seen[a][b] {
			return
		}
		seen[a][b] = true
		adj[a] = append(adj[a], Edge{To: b, Length: s.distance(a, b)})
	}

	for _, f := range s.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			link(a, b)
			link(b, a)
		}
	}

	return adj
}

func (s *Surface) distance(a, b int) float64 {
	var sum float64
	for k := 0; k < 3; k++ {
		d := s.Vertices[a][k] - s.Vertices[b][k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Geodesic returns the vertices within radius of center along mesh edges,
// ascending by vertex index, with their distances
func Geodesic(adj [][]Edge, center int, radius float64) ([]int, map[int]float64, error) {
	if center < 0 || center >= len(adj) {
		return nil, nil, errors.Errorf("[Geodesic] center %d out of range [0, %d)", center, len(adj))
	}
	if radius < 0 {
		return nil, nil, errors.Errorf("[Geodesic] negative radius %g", radius)
	}

	dist := map[int]float64{center: 0}
	done := make(map[int]bool)

	pq := &vertexPQ{}
	heap.Push(pq, vertexItem{vertex: center, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(vertexItem)
		if done[item.vertex] {
			continue
		}
		if item.dist > radius {
			break
		}
		done[item.vertex] = true

		for _, e := range adj[item.vertex] {
			nd := item.dist + e.Length
			if nd > radius {
				continue
			}
			if old, ok := dist[e.To]; ok && old <= nd {
				continue
			}
			dist[e.To] = nd
			heap.Push(pq, vertexItem{vertex: e.To, dist: nd})
		}
	}

	within := make([]int, 0, len(done))
	for v := range done {
		within = append(within, v)
	}
	sort.Ints(within)

	final := make(map[int]float64, len(within))
	for _, v := range within {
		final[v] = dist[v]
	}

	return within, final, nil
}

type vertexItem struct {
	vertex int
	dist   float64
}

// vertexPQ is a min-heap on distance; stale entries are skipped when popped
type vertexPQ []vertexItem

func (pq vertexPQ) Len() int            { return len(pq) }
func (pq vertexPQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq vertexPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *vertexPQ) Push(x interface{}) { *pq = append(*pq, x.(vertexItem)) }
func (pq *vertexPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
