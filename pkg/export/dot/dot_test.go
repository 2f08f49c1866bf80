package dot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphKeepsShortestEdge(t *testing.T) {
	g := NewGraph()
	g.Add(Edge{Source: 1, Target: 0, Length: 9})
	g.Add(Edge{Source: 0, Target: 2, Length: 5})
	g.Add(Edge{Source: 0, Target: 2, Length: 3})
	g.Add(Edge{Source: 0, Target: 2, Length: 7})
	g.Add(Edge{Source: 0, Target: 1, Length: 4})

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []Edge{
		{Source: 0, Target: 1, Length: 4},
		{Source: 0, Target: 2, Length: 3},
		{Source: 1, Target: 0, Length: 9},
	}, g.Edges())
}

func TestEmptyGraph(t *testing.T) {
	g := NewGraph()
	assert.Empty(t, g.Edges())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g.Edges()))
	assert.Equal(t, "digraph connections {\n}\n", buf.String())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Edge{{Source: 0, Target: 3, Length: 12}, {Source: 2, Target: 1, Length: 0}})
	require.NoError(t, err)

	want := "digraph connections {\n" +
		"    source_0 -> target_3 [label=12];\n" +
		"    source_2 -> target_1 [label=0];\n" +
		"}\n"
	assert.Equal(t, want, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWritePropagatesErrors(t *testing.T) {
	assert.Error(t, Write(failingWriter{}, []Edge{{Source: 1}}))
}
