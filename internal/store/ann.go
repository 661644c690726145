package store

import (
	"github.com/coder/hnsw"
)

// annIndex is an HNSW graph over chunk vectors used to pick candidates.
// Removal is lazy: the key mapping is dropped and the orphaned node stays
// in the graph, which avoids coder/hnsw's trouble deleting the last node.
// Not safe for concurrent use; SQLiteStore guards it with its own lock.
type annIndex struct {
	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64 // chunk id -> graph key
	keyMap  map[uint64]string // graph key -> chunk id
	nextKey uint64
}

func newANNIndex() *annIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 64
	graph.Ml = 0.25

	return &annIndex{
		graph:  graph,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// add inserts or replaces id. Zero vectors are not added: cosine distance is
// undefined for them and they score 0 against every query.
func (a *annIndex) add(id string, vec []float32, vecNorm float64) {
	a.remove(id)
	if vecNorm == 0 {
		return
	}

	unit := make([]float32, len(vec))
	for i, x := range vec {
		unit[i] = float32(float64(x) / vecNorm)
	}

	key := a.nextKey
	a.nextKey++
	a.graph.Add(hnsw.MakeNode(key, unit))
	a.idMap[id] = key
	a.keyMap[key] = id
}

func (a *annIndex) remove(id string) {
	if key, ok := a.idMap[id]; ok {
		delete(a.keyMap, key)
		delete(a.idMap, id)
	}
}

// candidates returns up to k live chunk ids near query. The search width
// grows by the number of orphans so lazily deleted nodes do not crowd out
// live ones.
func (a *annIndex) candidates(query []float32, queryNorm float64, k int) []string {
	if k <= 0 || len(a.idMap) == 0 || queryNorm == 0 {
		return nil
	}

	unit := make([]float32, len(query))
	for i, x := range query {
		unit[i] = float32(float64(x) / queryNorm)
	}

	orphans := a.graph.Len() - len(a.idMap)
	width := min(k+orphans, a.graph.Len())

	nodes := a.graph.Search(unit, width)
	ids := make([]string, 0, min(k, len(nodes)))
	for _, node := range nodes {
		if id, ok := a.keyMap[node.Key]; ok {
			ids = append(ids, id)
			if len(ids) == k {
				break
			}
		}
	}
	return ids
}

// orphans reports lazily deleted nodes still in the graph.
func (a *annIndex) orphans() int {
	return a.graph.Len() - len(a.idMap)
}

func (a *annIndex) reset() {
	*a = *newANNIndex()
}
