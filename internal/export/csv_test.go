package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hoornstra/missmeester/internal/export"
	"github.com/hoornstra/missmeester/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	tactics := []models.Tactic{
		{
			ID:       "abc-123",
			GameMeta: models.GameMeta{White: "Wit", Black: "Zwart", Event: "Voorbeeld", Date: "2024.01.15"},
			Ply:      12,
			Delta:    -250,
		},
		{
			ID:       "def-456",
			GameMeta: models.GameMeta{White: "A", Black: "B", Event: "-", Date: "-"},
			Ply:      3,
			Delta:    210,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, tactics))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,White,Black,Event,Date,ply,delta", lines[0])
	assert.Equal(t, "abc-123,Wit,Zwart,Voorbeeld,2024.01.15,12,-250", lines[1])
	assert.Equal(t, "def-456,A,B,-,-,3,210", lines[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))
	assert.Equal(t, "id,White,Black,Event,Date,ply,delta\n", buf.String())
}
