package qlearning

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

const (
	DefaultAlpha   = 0.1
	DefaultGamma   = 0.9
	DefaultEpsilon = 0.1
)

var ErrInvalidParameter = errors.New("invalid agent parameter")

type Option func(agent *Agent)

// WithAlpha - step size of the value update, must be in (0, 1].
func WithAlpha(alpha float64) Option {
	return func(a *Agent) {
		a.alpha = alpha
	}
}

// WithGamma - discount of future reward, must be in [0, 1].
func WithGamma(gamma float64) Option {
	return func(a *Agent) {
		a.gamma = gamma
	}
}

// WithEpsilon - exploration probability, must be in [0, 1].
func WithEpsilon(epsilon float64) Option {
	return func(a *Agent) {
		a.epsilon = epsilon
	}
}

// WithValueTable - starts the agent from previously learned values.
func WithValueTable(table *ValueTable) Option {
	return func(a *Agent) {
		if table != nil {
			a.values = table
		}
	}
}

// Agent is a tabular Q-learning player. It owns its value table and is not safe for concurrent use.
type Agent struct {
	mark    string
	alpha   float64
	gamma   float64
	epsilon float64
	values  *ValueTable
	rng     *rand.Rand
}

func NewAgent(mark string, rng *rand.Rand, options ...Option) (*Agent, error) {
	if !entity.IsValidMark(mark) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	agent := &Agent{ // Default values
		mark:    mark,
		alpha:   DefaultAlpha,
		gamma:   DefaultGamma,
		epsilon: DefaultEpsilon,
		values:  NewValueTable(),
		rng:     rng,
	}
	for _, option := range options {
		option(agent)
	}

	if agent.rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}
	if agent.alpha <= 0 || agent.alpha > 1 {
		return nil, fmt.Errorf("%w: alpha %v not in (0, 1]", ErrInvalidParameter, agent.alpha)
	}
	if agent.gamma < 0 || agent.gamma > 1 {
		return nil, fmt.Errorf("%w: gamma %v not in [0, 1]", ErrInvalidParameter, agent.gamma)
	}
	if agent.epsilon < 0 || agent.epsilon > 1 {
		return nil, fmt.Errorf("%w: epsilon %v not in [0, 1]", ErrInvalidParameter, agent.epsilon)
	}

	return agent, nil
}

func (that *Agent) Mark() string {
	return that.mark
}

func (that *Agent) Alpha() float64 {
	return that.alpha
}

func (that *Agent) Gamma() float64 {
	return that.gamma
}

func (that *Agent) Epsilon() float64 {
	return that.epsilon
}

func (that *Agent) Values() *ValueTable {
	return that.values
}

// Greedy - the same agent with exploration turned off. Both share one value table.
func (that *Agent) Greedy() *Agent {
	greedy := *that
	greedy.epsilon = 0
	return &greedy
}

// ChooseAction - epsilon-greedy pick among legal, ties between best actions are broken at random.
func (that *Agent) ChooseAction(state string, legal []int) (int, error) {
	if len(legal) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	if that.epsilon > 0 && that.rng.Float64() < that.epsilon {
		return legal[that.rng.IntN(len(legal))], nil
	}

	best := make([]int, 0, len(legal))
	bestValue := 0.0
	for i, action := range legal {
		value := that.values.Get(state, action)
		switch {
		case i == 0 || value > bestValue:
			bestValue = value
			best = append(best[:0], action)
		case value == bestValue:
			best = append(best, action)
		}
	}

	return best[that.rng.IntN(len(best))], nil
}

// Learn - one Q-learning update. An empty nextLegal marks a terminal transition and nothing is bootstrapped.
func (that *Agent) Learn(state string, action int, reward float64, nextState string, nextLegal []int) {
	maxNext := 0.0
	for i, next := range nextLegal {
		value := that.values.Get(nextState, next)
		if i == 0 || value > maxNext {
			maxNext = value
		}
	}

	current := that.values.Get(state, action)
	that.values.Set(state, action, (1-that.alpha)*current+that.alpha*(reward+that.gamma*maxNext))
}
