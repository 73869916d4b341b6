package closure

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mgijax/wts/digraph"
)

const (
	treeBranch  = "+-------"
	treeLineMax = 79
)

// Tree is a node and the subtrees of its direct successors.
// Shared descendants appear once under every parent that reaches them.
type Tree struct {
	Node     digraph.NodeID
	Children []*Tree
}

// SubTree follows direct arcs of relType down from node. Children are
// sorted ascending and each node's children are looked up once per call.
// The arcs must be acyclic.
func SubTree(ctx context.Context, lister ChildLister, relType RelationshipType, node digraph.NodeID) (*Tree, error) {
	childrenOf := make(map[digraph.NodeID][]digraph.NodeID)
	return subTree(ctx, lister, relType, node, childrenOf)
}

func subTree(ctx context.Context, lister ChildLister, relType RelationshipType, node digraph.NodeID, childrenOf map[digraph.NodeID][]digraph.NodeID) (*Tree, error) {
	kids, ok := childrenOf[node]
	if !ok {
		var err error
		kids, err = lister.Children(ctx, relType, node)
		if err != nil {
			return nil, err
		}
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
		childrenOf[node] = kids
	}

	tree := &Tree{Node: node}
	for _, kid := range kids {
		sub, err := subTree(ctx, lister, relType, kid, childrenOf)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, sub)
	}
	return tree, nil
}

// Nodes returns every node in the tree, depth first, without repeats.
func (t *Tree) Nodes() []digraph.NodeID {
	seen := make(map[digraph.NodeID]bool)
	var out []digraph.NodeID
	var walk func(*Tree)
	walk = func(n *Tree) {
		if !seen[n.Node] {
			seen[n.Node] = true
			out = append(out, n.Node)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t)
	return out
}

// RenderTree draws the tree as indented text lines:
//
//	1
//	+-------2
//	|       +-------3
//	+-------4
//
// With showTitles set, each line reads "node : title". Lines are cut to at
// most 79 bytes on a rune boundary.
func RenderTree(t *Tree, titles map[digraph.NodeID]string, showTitles bool) []string {
	var lines []string
	renderBranch(t, titles, showTitles, "", &lines)
	return lines
}

func renderBranch(t *Tree, titles map[digraph.NodeID]string, showTitles bool, prefix string, lines *[]string) {
	line := fmt.Sprintf("%s%d", prefix, t.Node)
	if showTitles {
		line = fmt.Sprintf("%s : %s", line, titles[t.Node])
	}
	if len(line) > treeLineMax {
		cut := treeLineMax
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}
	*lines = append(*lines, line)

	// the branch marker above becomes a vertical rule for deeper levels
	prefix = strings.NewReplacer("-", " ", "+", "|").Replace(prefix)
	for _, child := range t.Children {
		renderBranch(child, titles, showTitles, prefix+treeBranch, lines)
	}
}
