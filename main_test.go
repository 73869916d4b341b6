package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/set"
)

func TestWriteChanges(t *testing.T) {
	tests := []struct {
		name    string
		changes *closure.Changes
		want    string
	}{
		{
			name: "nothing_changed",
			changes: &closure.Changes{
				Added:     digraph.NewArcSet(),
				Deleted:   digraph.NewArcSet(),
				Component: set.New[digraph.NodeID](1),
			},
			want: "No problems found\n",
		},
		{
			name: "repairs",
			changes: &closure.Changes{
				Added:     digraph.NewArcSet(digraph.NewArc(2, 3), digraph.NewArc(1, 3)),
				Deleted:   digraph.NewArcSet(digraph.NewArc(3, 1)),
				Component: set.New[digraph.NodeID](1, 2, 3),
			},
			want: "Added 2 transitive closure arcs\n" +
				"\t1 to 3\n" +
				"\t2 to 3\n" +
				"Deleted 1 transitive closure arcs\n" +
				"\t3 to 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeChanges(&buf, tt.changes)
			if got := buf.String(); got != tt.want {
				t.Errorf("writeChanges() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestWriteViolations(t *testing.T) {
	var buf bytes.Buffer
	writeViolations(&buf, 5, nil)
	if got, want := buf.String(), "TR 5 may depend on all given records\n"; got != want {
		t.Errorf("writeViolations() = %q, want %q", got, want)
	}

	buf.Reset()
	writeViolations(&buf, 5, []closure.Violation{{Origin: 5, Target: 2}})
	if got, want := buf.String(), "TR 2 already depends on TR 5\n"; got != want {
		t.Errorf("writeViolations() = %q, want %q", got, want)
	}
}

func TestWriteRebuildStats(t *testing.T) {
	var buf bytes.Buffer
	writeRebuildStats(&buf, &closure.RebuildStats{
		RelationshipType: 1,
		Components:       3,
		Nodes:            7,
		Added:            2,
		Elapsed:          1500 * time.Millisecond,
	})
	want := "Relationship type 1: 3 components, 7 records, added 2, deleted 0 (1.5s)\n"
	if got := buf.String(); got != want {
		t.Errorf("writeRebuildStats() = %q, want %q", got, want)
	}
}
