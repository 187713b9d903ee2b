package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/tictactoe"
)

const (
	DefaultEpisodes = 50000
	DefaultLogEvery = 10000

	RewardWin  = 1.0
	RewardDraw = 0.5
	RewardLoss = -1.0

	ResultWin  = "win"
	ResultDraw = "draw"
	ResultLoss = "loss"
)

// Stats counts finished games from the agent's side.
type Stats struct {
	Episodes int `json:"episodes"`
	Wins     int `json:"wins"`
	Draws    int `json:"draws"`
	Losses   int `json:"losses"`
}

// NonLosingRate - share of games won or drawn.
func (that Stats) NonLosingRate() float64 {
	if that.Episodes == 0 {
		return 0
	}
	return float64(that.Wins+that.Draws) / float64(that.Episodes)
}

func (that *Stats) add(result string) {
	that.Episodes++
	switch result {
	case ResultWin:
		that.Wins++
	case ResultDraw:
		that.Draws++
	default:
		that.Losses++
	}
}

type TrainerOption func(trainer *Trainer)

// WithLogEvery - how many episodes pass between progress logs, 0 disables them.
func WithLogEvery(episodes int) TrainerOption {
	return func(t *Trainer) {
		if episodes >= 0 {
			t.logEvery = episodes
		}
	}
}

// WithRecorder - where episode outcomes are reported.
func WithRecorder(recorder metrics.Recorder) TrainerOption {
	return func(t *Trainer) {
		if recorder != nil {
			t.recorder = recorder
		}
	}
}

// Trainer runs self-play episodes between the agent and a bot.
type Trainer struct {
	logger   *slog.Logger
	agent    *qlearning.Agent
	bot      service.BotService
	engine   *tictactoe.Engine
	recorder metrics.Recorder
	logEvery int
}

func NewTrainer(logger *slog.Logger, agent *qlearning.Agent, bot service.BotService, options ...TrainerOption) *Trainer {
	trainer := &Trainer{
		logger:   logger.With("component", "trainer"),
		agent:    agent,
		bot:      bot,
		engine:   tictactoe.NewEngine(),
		recorder: metrics.NewNoop(),
		logEvery: DefaultLogEvery,
	}
	for _, option := range options {
		option(trainer)
	}
	return trainer
}

// Train - plays episodes games, the agent learning after each of its moves. A non-positive count means DefaultEpisodes.
func (that *Trainer) Train(ctx context.Context, episodes int) (Stats, error) {
	log := that.logger.With("method", "Train", "mark", that.agent.Mark())

	if episodes <= 0 {
		episodes = DefaultEpisodes
	}

	var stats Stats
	log.Info("training started", "episodes", episodes)

	if that.agent.Mark() != entity.PlayerX {
		// evaluation and play open with X, so the agent will meet positions it never learned
		log.Warn("agent moves first in training but second in evaluation and play")
	}

	for episode := 1; episode <= episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("training stopped after %d episodes: %w", stats.Episodes, err)
		}

		result, err := that.playTrainingEpisode()
		if err != nil {
			return stats, fmt.Errorf("episode %d: %w", episode, err)
		}

		stats.add(result)
		that.recorder.ObserveEpisode(metrics.PhaseTraining, result)

		if that.logEvery > 0 && episode%that.logEvery == 0 {
			that.recorder.SetValueTableSize(that.agent.Values().Len())
			log.Info("training progress",
				"episode", episode,
				"wins", stats.Wins, "draws", stats.Draws, "losses", stats.Losses,
				"entries", that.agent.Values().Len())
		}
	}

	that.recorder.SetValueTableSize(that.agent.Values().Len())
	log.Info("training finished",
		"episodes", stats.Episodes,
		"non_losing_rate", stats.NonLosingRate(),
		"entries", that.agent.Values().Len())

	return stats, nil
}

// Evaluate - plays games with the greedy agent and does not learn. X always opens.
func (that *Trainer) Evaluate(ctx context.Context, games int) (Stats, error) {
	log := that.logger.With("method", "Evaluate", "mark", that.agent.Mark())

	greedy := that.agent.Greedy()

	var stats Stats
	for game := 1; game <= games; game++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("evaluation stopped after %d games: %w", stats.Episodes, err)
		}

		result, err := that.playEvaluationGame(greedy)
		if err != nil {
			return stats, fmt.Errorf("game %d: %w", game, err)
		}

		stats.add(result)
		that.recorder.ObserveEpisode(metrics.PhaseEvaluation, result)
	}

	log.Info("evaluation finished",
		"games", stats.Episodes,
		"wins", stats.Wins, "draws", stats.Draws, "losses", stats.Losses,
		"non_losing_rate", stats.NonLosingRate())

	return stats, nil
}

// playTrainingEpisode - the agent always moves first, the bot answers under the other mark.
func (that *Trainer) playTrainingEpisode() (string, error) {
	mark := that.agent.Mark()
	opponent := entity.OpponentMark(mark)

	that.engine.Reset()
	state := that.engine.State()

	for {
		action, err := that.agent.ChooseAction(state, that.engine.AvailableMoves())
		if err != nil {
			return "", fmt.Errorf("agent failed to choose action: %w", err)
		}

		if err = that.engine.ApplyMove(action, mark); err != nil {
			return "", fmt.Errorf("agent failed to make turn: %w", err)
		}

		if winner := that.engine.Evaluate(); winner != entity.EmptyCell {
			that.agent.Learn(state, action, rewardFor(winner, mark), that.engine.State(), nil)
			return resultFor(winner, mark), nil
		}

		if _, err = that.bot.MakeTurn(that.engine, opponent); err != nil {
			return "", fmt.Errorf("opponent failed to make turn: %w", err)
		}

		nextState := that.engine.State()

		if winner := that.engine.Evaluate(); winner != entity.EmptyCell {
			that.agent.Learn(state, action, rewardFor(winner, mark), nextState, nil)
			return resultFor(winner, mark), nil
		}

		that.agent.Learn(state, action, 0, nextState, that.engine.AvailableMoves())
		state = nextState
	}
}

func (that *Trainer) playEvaluationGame(greedy *qlearning.Agent) (string, error) {
	mark := greedy.Mark()
	opponent := entity.OpponentMark(mark)

	that.engine.Reset()

	turn := entity.PlayerX
	for !that.engine.IsFinished() {
		if turn == mark {
			action, err := greedy.ChooseAction(that.engine.State(), that.engine.AvailableMoves())
			if err != nil {
				return "", fmt.Errorf("agent failed to choose action: %w", err)
			}
			if err = that.engine.ApplyMove(action, mark); err != nil {
				return "", fmt.Errorf("agent failed to make turn: %w", err)
			}
		} else if _, err := that.bot.MakeTurn(that.engine, opponent); err != nil {
			return "", fmt.Errorf("opponent failed to make turn: %w", err)
		}

		turn = entity.OpponentMark(turn)
	}

	return resultFor(that.engine.Evaluate(), mark), nil
}

func rewardFor(winner, mark string) float64 {
	switch winner {
	case mark:
		return RewardWin
	case entity.PlayerTie:
		return RewardDraw
	default:
		return RewardLoss
	}
}

func resultFor(winner, mark string) string {
	switch winner {
	case mark:
		return ResultWin
	case entity.PlayerTie:
		return ResultDraw
	default:
		return ResultLoss
	}
}
