package entity

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""

	// BoardSize is the number of cells on the 3x3 board.
	BoardSize = 9

	emptyKeyRune = ' '
)

var (
	ErrInvalidBoard = errors.New("invalid board key")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board holds the marks of the nine cells, row by row.
type Board [BoardSize]string

// ParseBoard - builds a board from its key, the inverse of Board.Key.
func ParseBoard(key string) (Board, error) {
	var board Board

	if len(key) != BoardSize {
		return board, fmt.Errorf("%w: %q has %d cells", ErrInvalidBoard, key, len(key))
	}

	for i, r := range key {
		switch r {
		case emptyKeyRune:
			board[i] = EmptyCell
		case 'X':
			board[i] = PlayerX
		case 'O':
			board[i] = PlayerO
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q at cell %d", ErrInvalidBoard, r, i)
		}
	}

	return board, nil
}

// Key - canonical string form of the board, a space stands for an empty cell.
func (that Board) Key() string {
	var sb strings.Builder
	sb.Grow(BoardSize)

	for _, cell := range that {
		if cell == EmptyCell {
			sb.WriteRune(emptyKeyRune)
			continue
		}
		sb.WriteString(cell)
	}

	return sb.String()
}

// AvailableMoves - indices of the empty cells in ascending order.
func (that Board) AvailableMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}
	return moves
}

// Result - PlayerX or PlayerO for a win, PlayerTie for a full board, EmptyCell while the game goes on.
func (that Board) Result() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return PlayerTie
}

func (that Board) IsFinished() bool {
	return that.Result() != EmptyCell
}
