package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const emptyState = "         "

type mockBot struct {
	mock.Mock
}

func (m *mockBot) MakeTurn(game service.Game, mark string) (int, error) {
	args := m.Called(game, mark)
	return args.Int(0), args.Error(1)
}

// expectTurn - scripts the bot to mark cell on the engine it receives.
func expectTurn(t *testing.T, bot *mockBot, mark string, cell int) {
	t.Helper()

	bot.On("MakeTurn", mock.Anything, mark).
		Run(func(args mock.Arguments) {
			game := args.Get(0).(service.Game)
			require.NoError(t, game.ApplyMove(cell, mark))
		}).
		Return(cell, nil).
		Once()
}

type recorderStub struct {
	results map[string]int
	size    int
}

func (r *recorderStub) ObserveEpisode(phase, result string) {
	r.results[phase+"/"+result]++
}

func (r *recorderStub) SetValueTableSize(entries int) {
	r.size = entries
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAgent(t *testing.T, mark string, seed uint64, options ...qlearning.Option) *qlearning.Agent {
	t.Helper()

	agent, err := qlearning.NewAgent(mark, rand.New(rand.NewPCG(seed, seed+1)), options...)
	require.NoError(t, err)

	return agent
}

func TestTrainer_Train_ScriptedEpisodes(t *testing.T) {
	t.Run("Agent win updates every agent move", func(t *testing.T) {
		// Given: a greedy agent steered towards the top row
		agent := newAgent(t, entity.PlayerX, 1, qlearning.WithEpsilon(0))
		agent.Values().Set(emptyState, 0, 0.5)
		agent.Values().Set("X  O     ", 1, 0.5)
		agent.Values().Set("XX OO    ", 2, 0.5)

		// Given: an opponent answering on 3 then 4
		bot := &mockBot{}
		expectTurn(t, bot, entity.PlayerO, 3)
		expectTurn(t, bot, entity.PlayerO, 4)

		recorder := &recorderStub{results: map[string]int{}}
		trainer := NewTrainer(newLogger(), agent, bot, WithRecorder(recorder))

		// When: a single episode is played
		stats, err := trainer.Train(context.Background(), 1)

		// Then: the agent won
		require.NoError(t, err)
		assert.Equal(t, Stats{Episodes: 1, Wins: 1}, stats)
		assert.Equal(t, 1, recorder.results[metrics.PhaseTraining+"/"+ResultWin])
		assert.Equal(t, 3, recorder.size)
		bot.AssertExpectations(t)

		// Then: intermediate moves bootstrap from the next agent decision
		values := agent.Values()
		assert.InDelta(t, 0.9*0.5+0.1*(0+0.9*0.5), values.Get(emptyState, 0), 1e-12)
		assert.InDelta(t, 0.9*0.5+0.1*(0+0.9*0.5), values.Get("X  O     ", 1), 1e-12)

		// Then: the winning move is pulled towards +1 without bootstrapping
		assert.InDelta(t, 0.9*0.5+0.1*RewardWin, values.Get("XX OO    ", 2), 1e-12)
		assert.Equal(t, 3, values.Len())
	})

	t.Run("Opponent win penalizes the agent's last move only", func(t *testing.T) {
		// Given: a greedy agent that ignores its winning cell on the third move
		agent := newAgent(t, entity.PlayerX, 2, qlearning.WithEpsilon(0))
		agent.Values().Set(emptyState, 0, 0.5)
		agent.Values().Set("X  O     ", 1, 0.5)
		agent.Values().Set("XX OO    ", 8, 0.5)

		// Given: an opponent completing the middle row
		bot := &mockBot{}
		expectTurn(t, bot, entity.PlayerO, 3)
		expectTurn(t, bot, entity.PlayerO, 4)
		expectTurn(t, bot, entity.PlayerO, 5)

		trainer := NewTrainer(newLogger(), agent, bot)

		// When: a single episode is played
		stats, err := trainer.Train(context.Background(), 1)

		// Then: the agent lost and only its last pair got the penalty
		require.NoError(t, err)
		assert.Equal(t, Stats{Episodes: 1, Losses: 1}, stats)
		assert.InDelta(t, 0.9*0.5+0.1*RewardLoss, agent.Values().Get("XX OO    ", 8), 1e-12)
		assert.InDelta(t, 0.9*0.5+0.1*(0+0.9*0.5), agent.Values().Get("X  O     ", 1), 1e-12)
		bot.AssertExpectations(t)
	})

	t.Run("Opponent failure aborts training", func(t *testing.T) {
		// Given: an opponent that cannot move
		agent := newAgent(t, entity.PlayerX, 3)
		bot := &mockBot{}
		bot.On("MakeTurn", mock.Anything, entity.PlayerO).Return(0, apperror.ErrNoAvailableMoves).Once()

		trainer := NewTrainer(newLogger(), agent, bot)

		// When: training starts
		_, err := trainer.Train(context.Background(), 5)

		// Then: the error is reported
		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}

func TestTrainer_Train_Cancelled(t *testing.T) {
	// Given: an already cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := newAgent(t, entity.PlayerX, 4)
	trainer := NewTrainer(newLogger(), agent, service.NewRandomBot(rand.New(rand.NewPCG(5, 6))))

	// When: training starts
	stats, err := trainer.Train(ctx, 100)

	// Then: no episode is played
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Episodes)
}

func TestTrainer_AgentAsO(t *testing.T) {
	// Given: an agent playing O, which still moves first in training
	agent := newAgent(t, entity.PlayerO, 8)
	bot := service.NewRandomBot(rand.New(rand.NewPCG(9, 10)))
	trainer := NewTrainer(newLogger(), agent, bot, WithLogEvery(0))

	// When: training and evaluating for a while
	stats, err := trainer.Train(context.Background(), 2000)
	require.NoError(t, err)
	evaluation, err := trainer.Evaluate(context.Background(), 200)
	require.NoError(t, err)

	// Then: every game is counted exactly once
	assert.Equal(t, 2000, stats.Wins+stats.Draws+stats.Losses)
	assert.Equal(t, 200, evaluation.Episodes)
	assert.Equal(t, 200, evaluation.Wins+evaluation.Draws+evaluation.Losses)
	assert.Positive(t, agent.Values().Len())
}

func TestTrainer_Train_WarnsAboutSecondMover(t *testing.T) {
	for _, tc := range []struct {
		mark string
		warn bool
	}{
		{entity.PlayerO, true},
		{entity.PlayerX, false},
	} {
		t.Run(tc.mark, func(t *testing.T) {
			// Given: a trainer logging into a buffer
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			agent := newAgent(t, tc.mark, 11)
			bot := service.NewRandomBot(rand.New(rand.NewPCG(12, 13)))
			trainer := NewTrainer(logger, agent, bot, WithLogEvery(0))

			// When: training a single episode
			_, err := trainer.Train(context.Background(), 1)
			require.NoError(t, err)

			// Then: only the O agent is warned about the opening mismatch
			if tc.warn {
				assert.Contains(t, logs.String(), `"level":"WARN"`)
			} else {
				assert.NotContains(t, logs.String(), `"level":"WARN"`)
			}
		})
	}
}

func TestTrainer_Convergence(t *testing.T) {
	if testing.Short() {
		t.Skip("long training run")
	}

	// Given: a default agent playing X against a random opponent
	agent := newAgent(t, entity.PlayerX, 42)
	bot := service.NewRandomBot(rand.New(rand.NewPCG(7, 11)))
	trainer := NewTrainer(newLogger(), agent, bot)

	// When: it trains for 50,000 episodes
	stats, err := trainer.Train(context.Background(), DefaultEpisodes)
	require.NoError(t, err)
	require.Equal(t, DefaultEpisodes, stats.Episodes)

	// Then: learned values stay bounded
	for _, entry := range agent.Values().Entries() {
		require.GreaterOrEqual(t, entry.Value, -10.0, "state %q action %d", entry.State, entry.Action)
		require.LessOrEqual(t, entry.Value, 10.0, "state %q action %d", entry.State, entry.Action)
	}

	// Then: the greedy agent rarely loses against the random opponent
	entries := agent.Values().Len()
	evaluation, err := trainer.Evaluate(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, evaluation.Episodes)
	assert.GreaterOrEqual(t, evaluation.NonLosingRate(), 0.9)

	// Then: evaluation does not learn
	assert.Equal(t, entries, agent.Values().Len())
	assert.InDelta(t, qlearning.DefaultEpsilon, agent.Epsilon(), 1e-12)
}

func TestRewardFor(t *testing.T) {
	assert.InDelta(t, RewardWin, rewardFor(entity.PlayerX, entity.PlayerX), 1e-12)
	assert.InDelta(t, RewardDraw, rewardFor(entity.PlayerTie, entity.PlayerX), 1e-12)
	assert.InDelta(t, RewardLoss, rewardFor(entity.PlayerO, entity.PlayerX), 1e-12)

	assert.Equal(t, ResultWin, resultFor(entity.PlayerO, entity.PlayerO))
	assert.Equal(t, ResultDraw, resultFor(entity.PlayerTie, entity.PlayerO))
	assert.Equal(t, ResultLoss, resultFor(entity.PlayerX, entity.PlayerO))
}

func TestStats_NonLosingRate(t *testing.T) {
	assert.Zero(t, Stats{}.NonLosingRate())
	assert.InDelta(t, 0.75, Stats{Episodes: 4, Wins: 2, Draws: 1, Losses: 1}.NonLosingRate(), 1e-12)
}
