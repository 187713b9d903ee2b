package qlearning

import (
	"math/rand/v2"
)

// Snapshot is the persisted form of a trained agent.
type Snapshot struct {
	Mark     string  `json:"mark"`
	Alpha    float64 `json:"alpha"`
	Gamma    float64 `json:"gamma"`
	Epsilon  float64 `json:"epsilon"`
	Episodes int     `json:"episodes"`
	Entries  []Entry `json:"entries"`
}

// Snapshot - copies the agent's parameters and values, episodes is how long it trained.
func (that *Agent) Snapshot(episodes int) *Snapshot {
	return &Snapshot{
		Mark:     that.mark,
		Alpha:    that.alpha,
		Gamma:    that.gamma,
		Epsilon:  that.epsilon,
		Episodes: episodes,
		Entries:  that.values.Entries(),
	}
}

// RestoreAgent - rebuilds an agent from a snapshot with a fresh random source.
func RestoreAgent(snapshot *Snapshot, rng *rand.Rand) (*Agent, error) {
	return NewAgent(snapshot.Mark, rng,
		WithAlpha(snapshot.Alpha),
		WithGamma(snapshot.Gamma),
		WithEpsilon(snapshot.Epsilon),
		WithValueTable(NewValueTableFromEntries(snapshot.Entries)),
	)
}
