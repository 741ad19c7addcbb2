package engine

import "container/heap"

// Passable is the grid view the pathfinder needs
type Passable interface {
	Passable(c Cell) bool
}

// neighborOffsets is the four-connected neighbourhood in expansion order
var neighborOffsets = [...]Direction{Down, Right, Up, Left}

// Pathfinder computes shortest four-connected paths with A*
type Pathfinder struct {
	grid Passable
}

// NewPathfinder creates a pathfinder over grid
func NewPathfinder(grid Passable) *Pathfinder {
	return &Pathfinder{grid: grid}
}

type pathNode struct {
	cell  Cell
	f     int
	index int
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Search returns the shortest path from start to goal, excluding start.
// The result is empty when goal is unreachable or equal to start.
func (pf *Pathfinder) Search(start, goal Cell) []Cell {
	open := &pathQueue{}
	heap.Push(open, &pathNode{cell: start, f: 0})
	cameFrom := make(map[Cell]Cell)
	gScore := map[Cell]int{start: 0}

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode).cell

		if current == goal {
			return reconstructPath(cameFrom, current)
		}

		for _, d := range neighborOffsets {
			next := current.Add(d)
			if !pf.grid.Passable(next) {
				continue
			}
			tentative := gScore[current] + 1
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}
			cameFrom[next] = current
			gScore[next] = tentative
			heap.Push(open, &pathNode{cell: next, f: tentative + ManhattanDistance(next, goal)})
		}
	}

	return []Cell{}
}

// reconstructPath walks the back-pointers from end and reverses the result.
// The start cell has no back-pointer and is therefore excluded.
func reconstructPath(cameFrom map[Cell]Cell, end Cell) []Cell {
	path := []Cell{}
	current := end
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, current)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
