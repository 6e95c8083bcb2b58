package agent

import (
	"context"
	"fmt"
)

// Graph is the fixed supervisor/responder routing graph. Every run visits the
// supervisor once and at most one responder, it cannot cycle.
type Graph struct {
	supervisor *Supervisor
	responders map[string]Responder
}

func NewGraph(supervisor *Supervisor, responders ...Responder) *Graph {
	byName := make(map[string]Responder, len(responders))
	for _, responder := range responders {
		byName[responder.Name()] = responder
	}
	return &Graph{
		supervisor: supervisor,
		responders: byName,
	}
}

// Run executes one turn. It returns the ordered routing decisions made during
// the turn. On FINISH the state is returned unchanged.
func (g *Graph) Run(ctx context.Context, state *State) ([]string, error) {
	decision, err := g.supervisor.Route(ctx, state)
	if err != nil {
		return nil, err
	}

	state.Next = decision
	trace := []string{decision}

	if decision == RouteFinish {
		return trace, nil
	}

	responder, ok := g.responders[decision]
	if !ok {
		// The supervisor picked a member no responder node was registered for.
		return trace, fmt.Errorf("%w: no responder registered for %q", ErrContractViolation, decision)
	}

	if err := responder.Respond(ctx, state); err != nil {
		return trace, err
	}
	return trace, nil
}
