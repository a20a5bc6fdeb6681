package dagexec

import "github.com/agentcore/orchestrator/pkg/core"

// buildDAG creates one node per step and reverse-indexes dependents.
// Nodes with no dependencies start out ready.
func buildDAG(steps []core.Step) map[string]*core.DAGNode {
	nodes := make(map[string]*core.DAGNode, len(steps))
	for _, s := range steps {
		status := core.StepPending
		if len(s.DependsOn) == 0 {
			status = core.StepReady
		}
		nodes[s.ID] = &core.DAGNode{
			Step:         s,
			Status:       status,
			Dependencies: append([]string(nil), s.DependsOn...),
		}
	}
	for id, n := range nodes {
		for _, dep := range n.Dependencies {
			if depNode, ok := nodes[dep]; ok {
				depNode.Dependents = append(depNode.Dependents, id)
			}
		}
	}
	return nodes
}

// detectCycle runs an iterative depth-first search over the dependents
// graph and returns the step ids involved in a cycle, if any.
func detectCycle(nodes map[string]*core.DAGNode) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))

	type frame struct {
		id   string
		next int
	}

	for start := range nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := nodes[top.id]
			if top.next < len(node.Dependents) {
				child := node.Dependents[top.next]
				top.next++
				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{id: child})
				case gray:
					ids := make([]string, 0, len(stack))
					for _, f := range stack {
						ids = append(ids, f.id)
					}
					return ids
				}
				continue
			}
			color[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}
