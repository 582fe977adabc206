package nn

import (
	"fmt"

	"github.com/baldhumanity/neatcore/neat"
)

// compiledStep is one evaluation-plan step with its activation pre-resolved.
type compiledStep struct {
	node   int
	fn     ActivationFunc
	inputs []neat.PhenotypeInput
}

// FeedForwardNetwork interprets a phenotype's evaluation plan. The plan is
// already topologically ordered, so activation is a single pass over the
// steps.
type FeedForwardNetwork struct {
	inputIDs  []int
	outputIDs []int
	steps     []compiledStep
	aggregate AggregationFunc
}

// Option configures network construction.
type Option func(*FeedForwardNetwork) error

// WithAggregation selects the aggregation applied to every node's weighted
// inputs. The default is "sum".
func WithAggregation(name string) Option {
	return func(n *FeedForwardNetwork) error {
		fn, err := GetAggregation(name)
		if err != nil {
			return err
		}
		n.aggregate = fn
		return nil
	}
}

// NewFeedForwardNetwork compiles a phenotype into an activatable network,
// resolving every symbolic activation reference against the registry.
func NewFeedForwardNetwork(p *neat.Phenotype, opts ...Option) (*FeedForwardNetwork, error) {
	n := &FeedForwardNetwork{
		inputIDs:  p.InputIDs,
		outputIDs: p.OutputIDs,
		steps:     make([]compiledStep, 0, len(p.Steps)),
		aggregate: SumAggregation,
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	for _, step := range p.Steps {
		fn, err := GetActivation(step.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", step.Node, err)
		}
		n.steps = append(n.steps, compiledStep{node: step.Node, fn: fn, inputs: step.Inputs})
	}
	return n, nil
}

// Activate computes the network's outputs for one input vector. The input
// slice must match the number of input nodes. A node with no incoming
// enabled connections produces its activation applied to zero.
func (n *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputIDs) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)",
			len(inputs), len(n.inputIDs))
	}

	values := make(map[int]float64, len(n.inputIDs)+len(n.steps))
	for i, id := range n.inputIDs {
		values[id] = inputs[i]
	}

	// Reusable buffer for weighted input values to reduce allocations.
	var buf []float64
	for _, step := range n.steps {
		if cap(buf) < len(step.inputs) {
			buf = make([]float64, 0, len(step.inputs))
		}
		weighted := buf[:0]
		for _, in := range step.inputs {
			weighted = append(weighted, values[in.Source]*in.Weight)
		}
		buf = weighted

		values[step.node] = step.fn(n.aggregate(weighted))
	}

	outputs := make([]float64, len(n.outputIDs))
	for i, id := range n.outputIDs {
		outputs[i] = values[id]
	}
	return outputs, nil
}
