package schema

// An Ordering is one normalized snapshot: the canonical objects in
// creation order and the rank of each representation. Later rank means
// created later and destroyed earlier.
type Ordering struct {
	Objects []Object
	Ranks   map[string]int
}

// OrderObjects normalizes a sequence of object/dependency pairs into a
// total creation order. Duplicate representations are merged, every
// dependency pointer is validated against a full definition, edges are
// rewritten to the canonical objects, and the result is topologically
// sorted with ties broken by first-emission order.
func OrderObjects(nodes []Node) (*Ordering, error) {
	// Canonical object per representation, preserving first-seen order.
	var order []string
	canonical := make(map[string]Object, len(nodes))
	for _, n := range nodes {
		repr := n.Object.Representation()
		current, ok := canonical[repr]
		if !ok {
			canonical[repr] = n.Object
			order = append(order, repr)
			continue
		}
		merged, err := current.Merge(n.Object)
		if err != nil {
			return nil, err
		}
		canonical[repr] = merged
	}

	// Every pointer must resolve to a full definition in this snapshot.
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := canonical[dep.Representation()]; !ok {
				return nil, NewConfigError(dep.Representation(), "pointer not found in the defined database objects")
			}
		}
	}

	// Dependency edges on canonical representations, unioned across
	// duplicate emissions.
	deps := make(map[string]map[string]struct{}, len(canonical))
	for _, repr := range order {
		deps[repr] = make(map[string]struct{})
	}
	for _, n := range nodes {
		repr := n.Object.Representation()
		for _, dep := range n.Deps {
			if d := dep.Representation(); d != repr {
				deps[repr][d] = struct{}{}
			}
		}
	}

	// Kahn's algorithm. The ready node with the lowest first-emission
	// index is taken first, keeping the extractor's order for ties.
	index := make(map[string]int, len(order))
	for i, repr := range order {
		index[repr] = i
	}
	indegree := make(map[string]int, len(order))
	dependents := make(map[string][]string, len(order))
	for repr, ds := range deps {
		indegree[repr] = len(ds)
		for d := range ds {
			dependents[d] = append(dependents[d], repr)
		}
	}
	var ready []string
	for _, repr := range order {
		if indegree[repr] == 0 {
			ready = append(ready, repr)
		}
	}
	ord := &Ordering{
		Objects: make([]Object, 0, len(order)),
		Ranks:   make(map[string]int, len(order)),
	}
	for len(ready) > 0 {
		min := 0
		for i := range ready {
			if index[ready[i]] < index[ready[min]] {
				min = i
			}
		}
		repr := ready[min]
		ready = append(ready[:min], ready[min+1:]...)
		ord.Ranks[repr] = len(ord.Objects)
		ord.Objects = append(ord.Objects, canonical[repr])
		for _, dep := range dependents[repr] {
			if indegree[dep]--; indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(ord.Objects) != len(order) {
		var remaining []string
		for _, repr := range order {
			if _, ok := ord.Ranks[repr]; !ok {
				remaining = append(remaining, repr)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return ord, nil
}
