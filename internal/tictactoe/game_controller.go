package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// Engine keeps the board of a single game and enforces the move rules.
type Engine struct {
	board entity.Board
}

func NewEngine() *Engine {
	return &Engine{}
}

// Reset - clears every cell.
func (that *Engine) Reset() {
	that.board = entity.Board{}
}

// AvailableMoves - empty cells in ascending order.
func (that *Engine) AvailableMoves() []int {
	return that.board.AvailableMoves()
}

// ApplyMove - places mark on cell, the board is left untouched on error.
func (that *Engine) ApplyMove(cell int, mark string) error {
	if err := validateMove(that.board, mark, cell); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	if that.board.IsFinished() {
		return apperror.ErrGameFinished
	}

	that.board[cell] = mark

	return nil
}

// Evaluate - outcome of the current board, see entity.Board.Result.
func (that *Engine) Evaluate() string {
	return that.board.Result()
}

// IsFinished - true once the board is won or drawn.
func (that *Engine) IsFinished() bool {
	return that.board.IsFinished()
}

// State - key of the current board.
func (that *Engine) State() string {
	return that.board.Key()
}

func (that *Engine) Board() entity.Board {
	return that.board
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, mark string, cell int) error {
	if cell < 0 || cell >= len(board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if !entity.IsValidMark(mark) {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}
