package nquads

import (
	"testing"

	"github.com/aleksaelezovic/hexagraph/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad(s, p, o, g string) store.Quad {
	if g == "" {
		return store.NewTriple([]byte(s), []byte(p), []byte(o))
	}
	return store.NewQuad([]byte(s), []byte(p), []byte(o), []byte(g))
}

func TestParseNQuads(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []store.Quad
	}{
		{
			name:  "simple triple (N-Triples format)",
			input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n",
			expected: []store.Quad{
				quad("<http://example.org/s>", "<http://example.org/p>", "<http://example.org/o>", ""),
			},
		},
		{
			name:  "quad with named graph",
			input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .\n",
			expected: []store.Quad{
				quad("<http://example.org/s>", "<http://example.org/p>", "<http://example.org/o>", "<http://example.org/g>"),
			},
		},
		{
			name: "literals",
			input: `<http://example.org/s1> <http://example.org/p1> "literal1" .
<http://example.org/s2> <http://example.org/p2> "literal2"^^<http://www.w3.org/2001/XMLSchema#string> <http://example.org/g> .
<http://example.org/s3> <http://example.org/p3> "hello"@EN .
<http://example.org/s4> <http://example.org/p4> "say \"hi\"\nnow" .
`,
			expected: []store.Quad{
				quad("<http://example.org/s1>", "<http://example.org/p1>", `"literal1"`, ""),
				quad("<http://example.org/s2>", "<http://example.org/p2>",
					`"literal2"^^<http://www.w3.org/2001/XMLSchema#string>`, "<http://example.org/g>"),
				quad("<http://example.org/s3>", "<http://example.org/p3>", `"hello"@en`, ""),
				quad("<http://example.org/s4>", "<http://example.org/p4>", `"say \"hi\"\nnow"`, ""),
			},
		},
		{
			name: "with PREFIX",
			input: `PREFIX ex: <http://example.org/>
ex:s ex:p ex:o .
`,
			expected: []store.Quad{
				quad("<http://example.org/s>", "<http://example.org/p>", "<http://example.org/o>", ""),
			},
		},
		{
			name: "blank nodes",
			input: `_:b1 <http://example.org/p> "value" .
<http://example.org/s> <http://example.org/p> _:b2 _:graph .
`,
			expected: []store.Quad{
				quad("_:b1", "<http://example.org/p>", `"value"`, ""),
				quad("<http://example.org/s>", "<http://example.org/p>", "_:b2", "_:graph"),
			},
		},
		{
			name: "numeric literals",
			input: `<http://example.org/s> <http://example.org/p> 42 .
<http://example.org/s2> <http://example.org/p2> 3.14 .
`,
			expected: []store.Quad{
				quad("<http://example.org/s>", "<http://example.org/p>",
					`"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, ""),
				quad("<http://example.org/s2>", "<http://example.org/p2>",
					`"3.14"^^<http://www.w3.org/2001/XMLSchema#double>`, ""),
			},
		},
		{
			name: "comments and blank lines",
			input: `# a comment

<http://example.org/s> <http://example.org/p> <http://example.org/o> . # trailing
`,
			expected: []store.Quad{
				quad("<http://example.org/s>", "<http://example.org/p>", "<http://example.org/o>", ""),
			},
		},
		{
			name:     "empty document",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := NewParser(tt.input).Parse()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, quads)
		})
	}
}

func TestParseNTriplesAsQuads(t *testing.T) {
	quads, err := NewParser("<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n").Parse()
	require.NoError(t, err)
	require.Len(t, quads, 1)

	// No graph means the default graph
	assert.Equal(t, store.DefaultGraph, quads[0].Graph)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"missing dot", "<http://example.org/s> <http://example.org/p> <http://example.org/o>\n", "line 2"},
		{"unclosed IRI", "<http://example.org/s <http://example.org/p> <o> .\n", "line 1"},
		{"unclosed literal", `<s> <p> "abc .`, "line 1"},
		{"undefined prefix", "<s> <p> ex:o .\n", "line 1"},
		{"missing object", "<s> <p> .\n", "line 1"},
		{"error on later line", "<s> <p> <o> .\n<s> <p> @ .\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(tt.input).Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestNextStreams(t *testing.T) {
	p := NewParser("<a> <b> <c> .\n<d> <e> <f> <g> .\n")

	first, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, quad("<a>", "<b>", "<c>", ""), first)

	second, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, quad("<d>", "<e>", "<f>", "<g>"), second)

	_, ok, err = p.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
