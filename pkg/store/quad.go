package store

import "fmt"

// DefaultGraph is the reserved term of the unnamed graph. A nil or empty graph
// term always means the default graph.
var DefaultGraph = []byte{}

// Quad is a directed, labeled fact scoped to a graph. Terms are opaque bytes.
type Quad struct {
	Subject   []byte
	Predicate []byte
	Object    []byte
	Graph     []byte
}

// NewQuad creates a quad in graph
func NewQuad(subject, predicate, object, graph []byte) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object, Graph: graph}
}

// NewTriple creates a quad in the default graph
func NewTriple(subject, predicate, object []byte) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object, Graph: DefaultGraph}
}

func (q Quad) String() string {
	if len(q.Graph) == 0 {
		return fmt.Sprintf("%q %q %q", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%q %q %q %q", q.Subject, q.Predicate, q.Object, q.Graph)
}

// term returns the term playing role in q
func (q Quad) term(role Role) []byte {
	switch role {
	case RoleSubject:
		return q.Subject
	case RolePredicate:
		return q.Predicate
	case RoleObject:
		return q.Object
	default:
		if q.Graph == nil {
			return DefaultGraph
		}
		return q.Graph
	}
}

// Triple is an edge of one graph as yielded by Edges
type Triple struct {
	Subject   []byte
	Predicate []byte
	Object    []byte
}

func (t Triple) String() string {
	return fmt.Sprintf("%q %q %q", t.Subject, t.Predicate, t.Object)
}
