package engine

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	return abs(from.Row-to.Row) + abs(from.Col-to.Col)
}

// BFSDistance returns the four-connected shortest distance from start to
// goal over passable cells, or false when goal cannot be reached
func BFSDistance(grid Passable, start, goal Cell) (int, bool) {
	if start == goal {
		return 0, true
	}
	dist := map[Cell]int{start: 0}
	queue := []Cell{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range neighborOffsets {
			next := current.Add(d)
			if _, seen := dist[next]; seen || !grid.Passable(next) {
				continue
			}
			dist[next] = dist[current] + 1
			if next == goal {
				return dist[next], true
			}
			queue = append(queue, next)
		}
	}

	return 0, false
}

// ReachableFrom flood-fills from start and returns every passable cell it reaches
func ReachableFrom(grid Passable, start Cell) map[Cell]bool {
	visited := map[Cell]bool{}
	if !grid.Passable(start) {
		return visited
	}
	visited[start] = true
	queue := []Cell{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range neighborOffsets {
			next := current.Add(d)
			if visited[next] || !grid.Passable(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return visited
}

// CountTag counts the cells of a grid whose tag kind is kind
func CountTag(g *Grid, kind TagKind) int {
	return len(g.Find(kind))
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
