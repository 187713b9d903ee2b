package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/tictactoe"
)

const (
	promptMove  = "Your move (0-8): "
	promptRetry = "Invalid. Try again: "
)

var ErrInputClosed = errors.New("input closed before the game ended")

type agent interface {
	Mark() string
	ChooseAction(state string, legal []int) (int, error)
}

// Session is one console game between a human and a trained agent.
type Session struct {
	agent  agent
	engine *tictactoe.Engine
	in     *bufio.Scanner
	out    io.Writer
}

func NewSession(agent agent, in io.Reader, out io.Writer) *Session {
	return &Session{
		agent:  agent,
		engine: tictactoe.NewEngine(),
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run - plays until the board is decided and returns the winner mark or entity.PlayerTie. X opens.
func (that *Session) Run(ctx context.Context) (string, error) {
	that.engine.Reset()
	that.display()

	turn := entity.PlayerX
	for !that.engine.IsFinished() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("game interrupted: %w", err)
		}

		if turn == that.agent.Mark() {
			if err := that.agentTurn(); err != nil {
				return "", err
			}
		} else if err := that.humanTurn(turn); err != nil {
			return "", err
		}

		that.display()
		turn = entity.OpponentMark(turn)
	}

	winner := that.engine.Evaluate()
	if winner == entity.PlayerTie {
		fmt.Fprintln(that.out, "Result: Draw")
	} else {
		fmt.Fprintln(that.out, "Result:", winner)
	}

	return winner, nil
}

func (that *Session) agentTurn() error {
	move, err := that.agent.ChooseAction(that.engine.State(), that.engine.AvailableMoves())
	if err != nil {
		return fmt.Errorf("agent failed to choose action: %w", err)
	}

	if err = that.engine.ApplyMove(move, that.agent.Mark()); err != nil {
		return fmt.Errorf("agent failed to make turn: %w", err)
	}

	return nil
}

// humanTurn - prompts until a legal cell is entered.
func (that *Session) humanTurn(mark string) error {
	fmt.Fprint(that.out, promptMove)

	for {
		if !that.in.Scan() {
			if err := that.in.Err(); err != nil {
				return fmt.Errorf("failed to read move: %w", err)
			}
			return ErrInputClosed
		}

		cell, err := strconv.Atoi(strings.TrimSpace(that.in.Text()))
		if err == nil {
			err = that.engine.ApplyMove(cell, mark)
		}
		if err == nil {
			return nil
		}

		fmt.Fprint(that.out, promptRetry)
	}
}

func (that *Session) display() {
	board := that.engine.Board()

	fmt.Fprintln(that.out)
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := range cells {
			cells[col] = board[row*3+col]
			if cells[col] == entity.EmptyCell {
				cells[col] = " "
			}
		}

		fmt.Fprintln(that.out, " "+strings.Join(cells, " | "))
		if row < 2 {
			fmt.Fprintln(that.out, "---+---+---")
		}
	}
	fmt.Fprintln(that.out)
}
