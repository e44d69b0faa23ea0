package status

// Graph maps a status id to the set of status ids an order may move to.
// The graph is operator-configured data, not a hard-coded enum.
type Graph map[string]map[string]struct{}

// NewGraph builds a Graph from the configured forward edges. For every edge
// whose source status is reversible, the backward edge is added as well, so
// orders can return to a reversible status after leaving it.
func NewGraph(transitions []Transition, statuses []Status) Graph {
	reversible := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		reversible[s.ID] = s.Reversible
	}

	g := make(Graph, len(statuses))
	add := func(from, to string) {
		if g[from] == nil {
			g[from] = make(map[string]struct{})
		}
		g[from][to] = struct{}{}
	}
	for _, t := range transitions {
		add(t.FromID, t.ToID)
		if reversible[t.FromID] {
			add(t.ToID, t.FromID)
		}
	}
	return g
}

// Empty reports whether no transitions are configured. An empty graph keeps
// the historical permissive behaviour: any status is reachable from any other.
func (g Graph) Empty() bool {
	return len(g) == 0
}

// Allows reports whether an order may move from one status to another.
// Moving to the current status is always allowed as a no-op.
func (g Graph) Allows(from, to string) bool {
	if from == to || g.Empty() {
		return true
	}
	_, ok := g[from][to]
	return ok
}
