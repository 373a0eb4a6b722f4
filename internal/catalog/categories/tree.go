package categories

import (
	"sort"
	"strings"
)

// syntheticRoot is the parent key assigned to records without a resolvable
// parent within their connection.
const syntheticRoot int64 = 0

// SortTree orders a flat set of categories depth-first, parent before
// children, partitioned by connection. Each returned record carries its
// zero-based Depth and its Position in the overall sequence.
//
// Within a sibling group the order is (menu_order ascending with absent
// values last, case-insensitive name, id). A parent reference that is
// missing, cross-connection, or self-referential demotes the record to a
// root. Nodes trapped in a parent cycle are promoted to roots after the
// regular traversal, so the function terminates on any input. The result
// depends only on the input multiset, not its order.
func SortTree(input []Category) []Category {
	byConnection := make(map[int64][]Category)
	for _, c := range input {
		byConnection[c.ConnectionID] = append(byConnection[c.ConnectionID], c)
	}

	connectionIDs := make([]int64, 0, len(byConnection))
	for id := range byConnection {
		connectionIDs = append(connectionIDs, id)
	}
	sort.Slice(connectionIDs, func(i, j int) bool { return connectionIDs[i] < connectionIDs[j] })

	out := make([]Category, 0, len(input))
	for _, connID := range connectionIDs {
		out = append(out, sortConnection(byConnection[connID])...)
	}
	for i := range out {
		out[i].Position = i
	}
	return out
}

func sortConnection(records []Category) []Category {
	byID := make(map[int64]Category, len(records))
	for _, c := range records {
		byID[c.ID] = c
	}

	children := make(map[int64][]Category)
	for _, c := range records {
		parent := syntheticRoot
		if c.ParentID != nil && *c.ParentID != c.ID {
			if _, ok := byID[*c.ParentID]; ok {
				parent = *c.ParentID
			}
		}
		children[parent] = append(children[parent], c)
	}
	for key := range children {
		sortSiblings(children[key])
	}

	out := make([]Category, 0, len(records))
	visited := make(map[int64]bool, len(records))
	var walk func(node Category, depth int)
	walk = func(node Category, depth int) {
		if visited[node.ID] {
			return
		}
		visited[node.ID] = true
		node.Depth = depth
		out = append(out, node)
		for _, child := range children[node.ID] {
			walk(child, depth+1)
		}
	}

	for _, root := range children[syntheticRoot] {
		walk(root, 0)
	}

	// Anything still unvisited sits in a parent cycle; promote those nodes
	// to roots in sibling order so the output stays deterministic.
	if len(out) < len(records) {
		var orphans []Category
		for _, c := range records {
			if !visited[c.ID] {
				orphans = append(orphans, c)
			}
		}
		sortSiblings(orphans)
		for _, orphan := range orphans {
			walk(orphan, 0)
		}
	}

	return out
}

func sortSiblings(siblings []Category) {
	sort.Slice(siblings, func(i, j int) bool {
		oi, oj := menuOrderKey(siblings[i]), menuOrderKey(siblings[j])
		if oi != oj {
			return oi < oj
		}
		ni, nj := strings.ToLower(siblings[i].Name), strings.ToLower(siblings[j].Name)
		if ni != nj {
			return ni < nj
		}
		return siblings[i].ID < siblings[j].ID
	})
}

func menuOrderKey(c Category) int {
	if c.MenuOrder == nil {
		return int(^uint(0) >> 1)
	}
	return *c.MenuOrder
}
