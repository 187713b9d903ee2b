package service

import (
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
)

// Game is the part of the engine a bot needs.
type Game interface {
	AvailableMoves() []int
	ApplyMove(cell int, mark string) error
}

// BotService plays the opponent side against the learning agent.
type BotService interface {
	MakeTurn(game Game, mark string) (int, error)
}

type randomBot struct {
	rng *rand.Rand
}

// NewRandomBot - an opponent that picks uniformly among the empty cells.
func NewRandomBot(rng *rand.Rand) BotService {
	return &randomBot{rng: rng}
}

func (that *randomBot) MakeTurn(game Game, mark string) (int, error) {
	availableCells := game.AvailableMoves()
	if len(availableCells) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	chosenCell := availableCells[that.rng.IntN(len(availableCells))]

	if err := game.ApplyMove(chosenCell, mark); err != nil {
		return 0, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return chosenCell, nil
}
