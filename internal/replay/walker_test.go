package replay_test

import (
	"testing"

	"github.com/hoornstra/missmeester/internal/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortGame = `[Event "Voorbeeld"]
[White "Wit"]
[Black "Zwart"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 *`

func TestWalk_OneStepPerMove(t *testing.T) {
	g, err := replay.ParseGame(shortGame)
	require.NoError(t, err)

	steps := replay.Walk(g)
	require.Len(t, steps, 5)

	for i, s := range steps {
		assert.Equal(t, i, s.Ply, "plies are 0-based in encounter order")
		assert.NotEmpty(t, s.FEN)
		assert.NotEmpty(t, s.Move)
	}
	assert.Equal(t, "e2e4", steps[0].Move)
	assert.Contains(t, steps[0].FEN, " b ", "after white's first move black is to move")
}

func TestWalk_Restartable(t *testing.T) {
	g, err := replay.ParseGame(shortGame)
	require.NoError(t, err)

	first := replay.Walk(g)
	second := replay.Walk(g)
	assert.Equal(t, first, second, "a fresh walk replays the same sequence")
}

func TestParseGame_Unparseable(t *testing.T) {
	_, err := replay.ParseGame("this is not chess")
	assert.Error(t, err)
}

func TestMoveList(t *testing.T) {
	g, err := replay.ParseGame(shortGame)
	require.NoError(t, err)

	moves := replay.MoveList(g)
	require.Len(t, moves, 5)
	assert.Equal(t, "e2e4", moves[0])
	assert.Equal(t, "e7e5", moves[1])
}

func TestPlayback_FullGame(t *testing.T) {
	frames, err := replay.Playback([]string{"e2e4", "e7e5", "g1f3"})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, 0, frames[0].Ply)
	assert.Equal(t, "g1f3", frames[2].Move)
	assert.NotEmpty(t, frames[2].FEN)
}

func TestPlayback_IllegalMoveStopsAtPly(t *testing.T) {
	frames, err := replay.Playback([]string{"e2e4", "e7e5", "e4e5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ply 2")
	assert.Len(t, frames, 2, "earlier plies remain valid")
}

func TestPlayback_UnreadableMove(t *testing.T) {
	frames, err := replay.Playback([]string{"e2e4", "????"})
	require.Error(t, err)
	assert.Len(t, frames, 1)
}

func TestPlayback_Empty(t *testing.T) {
	frames, err := replay.Playback(nil)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
