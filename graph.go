package memsentry

import "sync"

// topologyMu is the single process-wide lock guarding every arena's
// adjacency list. It is always acquired before any arena's own list lock,
// never the other way around, and never while holding two arenas' list
// locks at once (spec.md §4.3).
var topologyMu sync.Mutex

// AddNeighbour appends other to a's adjacency list. The edge is
// one-directional; use Connect for a bidirectional edge.
func (a *Arena) AddNeighbour(other *Arena) {
	topologyMu.Lock()
	defer topologyMu.Unlock()
	a.neighbours = append(a.neighbours, other)
}

// Connect links a and b bidirectionally.
func Connect(a, b *Arena) {
	a.AddNeighbour(b)
	b.AddNeighbour(a)
}

// HierarchicalTotal sums TotalBytes() over every arena reachable from a,
// including a itself, following the graph built by AddNeighbour/Connect.
// A visited set makes the traversal safe on cycles produced by Connect.
func (a *Arena) HierarchicalTotal() int64 {
	var total int64
	a.walkComponent(func(n *Arena) {
		total += n.TotalBytes()
	})
	return total
}

// HierarchicalCount sums Count() over every arena reachable from a,
// including a itself.
func (a *Arena) HierarchicalCount() int {
	var total int
	a.walkComponent(func(n *Arena) {
		total += n.Count()
	})
	return total
}

// walkComponent performs a cycle-safe DFS over a's connected component
// under the topology lock, calling visit once per arena. Per spec.md
// §4.3, the per-arena list lock (taken inside TotalBytes/Count) is never
// held alongside another arena's list lock; only one is held at a time,
// always nested under topologyMu.
func (a *Arena) walkComponent(visit func(*Arena)) {
	topologyMu.Lock()
	defer topologyMu.Unlock()

	visited := make(map[*Arena]bool)
	var dfs func(*Arena)
	dfs = func(n *Arena) {
		if visited[n] {
			return
		}
		visited[n] = true
		visit(n)
		for _, next := range n.neighbours {
			dfs(next)
		}
	}
	dfs(a)
}
