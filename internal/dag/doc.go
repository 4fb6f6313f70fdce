// Package dag holds the dependency graph between pipeline stages. Nodes are
// plain string IDs. Each node keeps its prerequisites in the order they were
// declared, because the executor visits them in that order.
package dag
