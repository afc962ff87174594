package world

import (
	"container/heap"
)

// Grid is a walkability map PathFinder searches.
type Grid interface {
	Size() (width, depth int)
	Walkable(x, z int) bool
}

// Step costs. Diagonals cost sqrt(2).
const (
	straightCost float32 = 1.0
	diagonalCost float32 = 1.414
)

// Neighbor offsets, straight moves at even indices.
var steps = [8][2]int{
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
}

type pathNode struct {
	x, z   int
	g, f   float32
	parent *pathNode
	index  int // position in the open heap, -1 once popped
}

type openHeap []*pathNode

func (h openHeap) Len() int           { return len(h) }
func (h openHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *openHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*h = old[:len(old)-1]
	return n
}

// PathFinder runs A* over a Grid with 8-way movement. Diagonal steps are
// only taken when both orthogonal neighbors are walkable.
type PathFinder struct {
	grid Grid
}

// NewPathFinder creates a path finder over grid.
func NewPathFinder(grid Grid) *PathFinder {
	return &PathFinder{grid: grid}
}

// FindPath returns the cells from start to goal inclusive, or nil when the
// goal is unreachable or not walkable.
func (pf *PathFinder) FindPath(startX, startZ, goalX, goalZ int) [][2]int {
	width, depth := pf.grid.Size()
	inBounds := func(x, z int) bool { return x >= 0 && x < width && z >= 0 && z < depth }
	if !inBounds(startX, startZ) || !pf.grid.Walkable(goalX, goalZ) {
		return nil
	}

	nodes := make([]*pathNode, width*depth)
	closed := make([]bool, width*depth)
	open := &openHeap{}

	start := &pathNode{x: startX, z: startZ, f: octile(startX, startZ, goalX, goalZ)}
	nodes[startZ*width+startX] = start
	heap.Push(open, start)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.x == goalX && cur.z == goalZ {
			return unwind(cur)
		}
		closed[cur.z*width+cur.x] = true

		for i, s := range steps {
			nx, nz := cur.x+s[0], cur.z+s[1]
			if !inBounds(nx, nz) || closed[nz*width+nx] || !pf.grid.Walkable(nx, nz) {
				continue
			}

			cost := straightCost
			if i%2 == 1 {
				if !pf.grid.Walkable(cur.x+s[0], cur.z) || !pf.grid.Walkable(cur.x, cur.z+s[1]) {
					continue
				}
				cost = diagonalCost
			}

			g := cur.g + cost
			n := nodes[nz*width+nx]
			switch {
			case n == nil:
				n = &pathNode{x: nx, z: nz, g: g, f: g + octile(nx, nz, goalX, goalZ), parent: cur}
				nodes[nz*width+nx] = n
				heap.Push(open, n)
			case g < n.g:
				n.f += g - n.g
				n.g = g
				n.parent = cur
				heap.Fix(open, n.index)
			}
		}
	}
	return nil
}

// octile is the exact cost of an unobstructed 8-way path.
func octile(x1, z1, x2, z2 int) float32 {
	dx, dz := abs(x2-x1), abs(z2-z1)
	if dx < dz {
		dx, dz = dz, dx
	}
	return float32(dz)*diagonalCost + float32(dx-dz)*straightCost
}

func unwind(n *pathNode) [][2]int {
	var path [][2]int
	for ; n != nil; n = n.parent {
		path = append(path, [2]int{n.x, n.z})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
