package flow

const (
	layerGap = 120
	rowGap   = 40
)

// layout assigns positions left to right. A node's layer is the length of
// the longest edge path reaching it; edges closing a cycle are ignored.
// Within a layer nodes keep their order.
func layout(nodes []Node, edges []Edge) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	out := make([][]int, len(nodes))
	for _, e := range edges {
		s, ok1 := index[e.Source]
		t, ok2 := index[e.Target]
		if ok1 && ok2 && s != t {
			out[s] = append(out[s], t)
		}
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(nodes))
	var order []int
	var visit func(int)
	visit = func(i int) {
		state[i] = active
		for _, t := range out[i] {
			if state[t] == unvisited {
				visit(t)
			}
		}
		state[i] = done
		order = append(order, i)
	}
	for i := range nodes {
		if state[i] == unvisited {
			visit(i)
		}
	}

	// reverse post-order is topological once back edges are ignored
	pos := make([]int, len(nodes))
	for k, i := range order {
		pos[i] = len(order) - 1 - k
	}
	layer := make([]int, len(nodes))
	for k := len(order) - 1; k >= 0; k-- {
		s := order[k]
		for _, t := range out[s] {
			if pos[t] > pos[s] && layer[t] < layer[s]+1 {
				layer[t] = layer[s] + 1
			}
		}
	}

	rows := map[int]int{}
	for i := range nodes {
		l := layer[i]
		nodes[i].Position = Position{
			X: float64(l * (NodeWidth + layerGap)),
			Y: float64(rows[l] * (NodeHeight + rowGap)),
		}
		rows[l]++
	}
}
