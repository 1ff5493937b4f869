package replay

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"github.com/hoornstra/missmeester/internal/errors"
	"github.com/hoornstra/missmeester/internal/logger"
)

// Step is one ply of a walked game: the 0-based ply index, the position after
// the move was played (FEN), and the move itself in UCI notation.
type Step struct {
	Ply  int
	FEN  string
	Move string
}

// ParseGame parses a single PGN text into a game. An unparseable or empty
// movetext is a validation error, not a crash.
func ParseGame(pgnText string) (*chess.Game, error) {
	opt, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return nil, errors.NewValidationError("pgn", err.Error())
	}
	return chess.NewGame(opt), nil
}

// Walk replays a game's mainline and returns one Step per move, in encounter
// order. It only reads the game's precomputed positions, never mutating the
// source game, so calling it again restarts the walk from scratch.
func Walk(g *chess.Game) []Step {
	moves := g.Moves()
	positions := g.Positions()

	// Positions holds the starting position plus one entry per move.
	if len(positions) != len(moves)+1 {
		logger.Default().WithPrefix("replay").Warn(
			"unexpected positions length: got %d positions for %d moves", len(positions), len(moves))
	}

	steps := make([]Step, 0, len(moves))
	for i := range moves {
		if i+1 >= len(positions) {
			break
		}
		steps = append(steps, Step{
			Ply:  i,
			FEN:  positions[i+1].String(),
			Move: moves[i].String(),
		})
	}
	return steps
}

// MoveList returns a game's mainline in UCI notation, for storage on tactic
// records so the full game can be replayed later.
func MoveList(g *chess.Game) []string {
	moves := g.Moves()
	out := make([]string, len(moves))
	for i := range moves {
		out[i] = moves[i].String()
	}
	return out
}

// Frame is one board state of a full-game playback.
type Frame struct {
	Ply  int
	Move string
	FEN  string
}

// Playback replays a recorded UCI move list on a scratch board. When a
// recorded move is illegal against the reconstructed position, playback stops
// there: the frames played so far are returned together with an error naming
// the offending ply, and remain valid.
func Playback(moves []string) ([]Frame, error) {
	pos := chess.StartingPosition()
	frames := make([]Frame, 0, len(moves))

	for i, uci := range moves {
		move, err := chess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			return frames, errors.NewValidationError("moves",
				fmt.Sprintf("unreadable move %q at ply %d: %v", uci, i, err))
		}

		legal := false
		for _, vm := range pos.ValidMoves() {
			if vm.String() == move.String() {
				legal = true
				break
			}
		}
		if !legal {
			return frames, errors.NewValidationError("moves",
				fmt.Sprintf("illegal move %q at ply %d", uci, i))
		}

		pos = pos.Update(move)
		frames = append(frames, Frame{Ply: i, Move: uci, FEN: pos.String()})
	}
	return frames, nil
}
