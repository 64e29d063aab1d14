package dag

import "github.com/dghoshal-lbl/madats/core/task"

// TopologicalOrder returns every task in an order where each task appears
// after all of its predecessors, via DFS postorder with start-of-list
// insertion.
func (d *DAG) TopologicalOrder() []*task.Task {
	visited := map[string]bool{}
	var order []*task.Task

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		for _, succ := range d.adjacency[id] {
			if !visited[succ] {
				dfs(succ)
			}
		}
		order = append([]*task.Task{d.tasks[id]}, order...)
	}

	for _, id := range d.order {
		if !visited[id] {
			dfs(id)
		}
	}
	return order
}

// BinOrder groups tasks into bins - the minimal sets of tasks that can run
// together given their dependencies - via a two-pass algorithm:
//
//  1. a BFS from every node assigns each reachable successor a bin number
//     one greater than its own, taking the maximum such assignment seen
//     from any predecessor;
//  2. a second pass pulls every task as late as possible (but never later
//     than any of its own successors' bins minus one) for just-in-time
//     staging/execution - a task with no successors is pulled into the
//     last bin.
//
// Every task's Bin field is reset to 0 before this runs, since Bin is a
// derived, per-invocation assignment that is never persisted across runs.
func (d *DAG) BinOrder() [][]*task.Task {
	for _, id := range d.order {
		d.tasks[id].Bin = 0
	}

	maxBin := 0
	for _, id := range d.order {
		if n := d.binBFS(id); n > maxBin {
			maxBin = n
		}
	}

	binsDict := map[int][]*task.Task{}
	for _, id := range d.order {
		d.readjustBin(id, maxBin, binsDict)
	}

	bins := make([][]*task.Task, len(binsDict))
	for i := range bins {
		bins[i] = binsDict[i]
	}
	return bins
}

// binBFS assigns bin numbers by BFS from start and returns the number of
// distinct bins reached (max bin + 1).
func (d *DAG) binBFS(startID string) int {
	start := d.tasks[startID]
	visited := map[string]bool{startID: true}
	queue := append([]string(nil), d.adjacency[startID]...)

	nBins := start.Bin
	for _, succID := range d.adjacency[startID] {
		succ := d.tasks[succID]
		if succ.Bin < start.Bin+1 {
			succ.Bin = start.Bin + 1
			nBins = succ.Bin
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		t := d.tasks[id]
		for _, succID := range d.adjacency[id] {
			succ := d.tasks[succID]
			if succ.Bin < t.Bin+1 {
				succ.Bin = t.Bin + 1
				nBins = succ.Bin
			}
			queue = append(queue, succID)
		}
	}
	return nBins + 1
}

// readjustBin pulls a task as late as its successors allow, then files it
// into binsDict under its final bin number.
func (d *DAG) readjustBin(id string, maxBin int, binsDict map[int][]*task.Task) {
	t := d.tasks[id]
	minBin := maxBin
	for _, succID := range d.adjacency[id] {
		if succ := d.tasks[succID]; succ.Bin < minBin {
			minBin = succ.Bin
		}
	}

	adjusted := t.Bin
	if minBin-1 > adjusted {
		adjusted = minBin - 1
	}
	t.Bin = adjusted
	binsDict[t.Bin] = append(binsDict[t.Bin], t)
}
