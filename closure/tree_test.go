package closure

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mgijax/wts/digraph"
)

func TestRenderTree(t *testing.T) {
	// 1 on 2, 2 on 3, 2 on 4, 3 on 5, 3 on 6
	store := newFakeStore()
	store.rows(store.direct, dependsOn).AddArcs(pairs(
		[2]digraph.NodeID{1, 2}, [2]digraph.NodeID{2, 3}, [2]digraph.NodeID{2, 4},
		[2]digraph.NodeID{3, 5}, [2]digraph.NodeID{3, 6},
	)...)
	ctx := context.Background()

	tests := []struct {
		name string
		root digraph.NodeID
		want []string
	}{
		{
			name: "inner_node",
			root: 3,
			want: []string{
				"3",
				"+-------5",
				"+-------6",
			},
		},
		{
			name: "top",
			root: 1,
			want: []string{
				"1",
				"+-------2",
				"|       +-------3",
				"|       |       +-------5",
				"|       |       +-------6",
				"|       +-------4",
			},
		},
		{
			name: "leaf",
			root: 6,
			want: []string{"6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := SubTree(ctx, store, dependsOn, tt.root)
			if err != nil {
				t.Fatalf("SubTree() error = %v", err)
			}
			if got := RenderTree(tree, nil, false); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RenderTree() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestRenderTreeTitles(t *testing.T) {
	tree := &Tree{Node: 7, Children: []*Tree{{Node: 8}}}
	titles := map[digraph.NodeID]string{
		7: "release",
		8: strings.Repeat("x", 100),
	}

	lines := RenderTree(tree, titles, true)
	if lines[0] != "7 : release" {
		t.Errorf("first line = %q", lines[0])
	}
	if len(lines[1]) != 79 {
		t.Errorf("long line has %d chars, want 79", len(lines[1]))
	}
}

func TestRenderTreeMultibyteTitle(t *testing.T) {
	tree := &Tree{Node: 7}
	// byte 79 falls inside the 3-byte rune that starts at byte 78
	titles := map[digraph.NodeID]string{7: "é" + strings.Repeat("世", 40)}

	line := RenderTree(tree, titles, true)[0]
	if !utf8.ValidString(line) {
		t.Errorf("truncated line is not valid UTF-8: %q", line)
	}
	if len(line) != 78 {
		t.Errorf("truncated line has %d bytes, want 78", len(line))
	}
}

func TestTreeNodes(t *testing.T) {
	// diamond: 4 is reached twice but listed once
	tree := &Tree{Node: 1, Children: []*Tree{
		{Node: 2, Children: []*Tree{{Node: 4}}},
		{Node: 3, Children: []*Tree{{Node: 4}}},
	}}
	if got, want := tree.Nodes(), []digraph.NodeID{1, 2, 4, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
}
