package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is returned (wrapped in a *CycleError) when the graph
// contains a cycle, making a topological order impossible.
var ErrCycleDetected = errors.New("cycle detected in dependency graph")

// CalculateInDegrees computes the number of unresolved dependencies of
// every node.
func (g *Graph) CalculateInDegrees() map[string]int {
	inDegree := make(map[string]int, g.nodes.Len())
	for _, name := range g.nodes.Keys() {
		inDegree[name] = 0
	}
	for _, dependents := range g.dependents {
		for _, d := range dependents {
			inDegree[d]++
		}
	}
	return inDegree
}

// Passes groups nodes into layers. Pass 0 holds the nodes without
// dependencies; pass n holds the nodes whose dependencies all lie in
// earlier passes. Within a pass, nodes keep insertion order.
func (g *Graph) Passes() ([][]string, error) {
	inDegree := g.CalculateInDegrees()
	placed := make(map[string]bool, len(inDegree))

	var passes [][]string
	for len(placed) < g.nodes.Len() {
		var pass []string
		for _, name := range g.nodes.Keys() {
			if !placed[name] && inDegree[name] == 0 {
				pass = append(pass, name)
			}
		}
		if len(pass) == 0 {
			return nil, &CycleError{Info: g.DetectIncompleteProcessing()}
		}
		for _, name := range pass {
			placed[name] = true
			for _, d := range g.dependents[name] {
				inDegree[d]--
			}
		}
		passes = append(passes, pass)
	}
	return passes, nil
}

// TopologicalSort returns every node so that each node appears after all of
// its dependencies. The order is the concatenation of Passes.
func (g *Graph) TopologicalSort() ([]string, error) {
	passes, err := g.Passes()
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, g.nodes.Len())
	for _, p := range passes {
		order = append(order, p...)
	}
	return order, nil
}

// ReverseOrder returns the topological order reversed: dependents first.
// It is a valid order for dropping or deleting.
func (g *Graph) ReverseOrder() ([]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	reversed := make([]string, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}
	return reversed, nil
}

// Validate checks the graph for cycles.
func (g *Graph) Validate() error {
	if info := g.DetectIncompleteProcessing(); info != nil {
		return &CycleError{Info: info}
	}
	return nil
}

// CycleInfo describes the nodes left over when the ordering stalls.
type CycleInfo struct {
	TotalNodes        int
	ProcessedNodes    int
	UnprocessedNodes  []string // part of or blocked by a cycle
	CycleParticipants []string // subset of UnprocessedNodes on a cycle
	CyclePath         []string // e.g. [A, B, C, A]
}

// CycleError reports a dependency cycle between catalog objects.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in dependency graph: %d of %d objects could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)

	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf("\nCycle path: %s", strings.Join(e.Info.CyclePath, " -> "))
	}
	if len(e.Info.CycleParticipants) > 0 {
		msg += fmt.Sprintf("\nObjects in cycle: %s", strings.Join(e.Info.CycleParticipants, ", "))
	}

	participants := make(map[string]bool, len(e.Info.CycleParticipants))
	for _, p := range e.Info.CycleParticipants {
		participants[p] = true
	}
	var blocked []string
	for _, u := range e.Info.UnprocessedNodes {
		if !participants[u] {
			blocked = append(blocked, u)
		}
	}
	if len(blocked) > 0 {
		msg += fmt.Sprintf("\nObjects blocked by cycle: %s", strings.Join(blocked, ", "))
	}
	return msg
}

// Unwrap lets errors.Is match ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// DetectIncompleteProcessing runs Kahn's algorithm and describes the nodes
// that could not be processed. It returns nil when the graph is acyclic.
func (g *Graph) DetectIncompleteProcessing() *CycleInfo {
	inDegree := g.CalculateInDegrees()

	var queue []string
	for _, name := range g.nodes.Keys() {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	processed := make(map[string]bool)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		processed[node] = true
		for _, d := range g.dependents[node] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(processed) == g.nodes.Len() {
		return nil
	}

	unprocessed := make(map[string]bool)
	var remaining []string
	for _, name := range g.nodes.Keys() {
		if !processed[name] {
			unprocessed[name] = true
			remaining = append(remaining, name)
		}
	}

	var participants []string
	for _, name := range remaining {
		if g.canReach(name, name, make(map[string]bool), unprocessed, true) {
			participants = append(participants, name)
		}
	}

	var path []string
	if len(participants) > 0 {
		path = g.FindCyclePath(participants[0], unprocessed)
	}

	return &CycleInfo{
		TotalNodes:        g.nodes.Len(),
		ProcessedNodes:    len(processed),
		UnprocessedNodes:  remaining,
		CycleParticipants: participants,
		CyclePath:         path,
	}
}

// FindCyclePath returns a cycle through start restricted to allowed nodes,
// with start at both ends, or nil.
func (g *Graph) FindCyclePath(start string, allowed map[string]bool) []string {
	path := []string{start}
	if g.dfsFindPath(start, start, make(map[string]bool), allowed, &path) {
		return path
	}
	return nil
}

func (g *Graph) dfsFindPath(current, target string, visited, allowed map[string]bool, path *[]string) bool {
	for _, next := range g.dependents[current] {
		if !allowed[next] {
			continue
		}
		if next == target {
			*path = append(*path, target)
			return true
		}
		if visited[next] {
			continue
		}
		visited[next] = true
		*path = append(*path, next)
		if g.dfsFindPath(next, target, visited, allowed, path) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}

func (g *Graph) canReach(current, target string, visited, allowed map[string]bool, isStart bool) bool {
	if current == target && !isStart {
		return true
	}
	if visited[current] || !allowed[current] {
		return false
	}
	visited[current] = true
	for _, next := range g.dependents[current] {
		if g.canReach(next, target, visited, allowed, false) {
			return true
		}
	}
	return false
}
