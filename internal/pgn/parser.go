package pgn

import (
	"regexp"
	"strings"

	"github.com/hoornstra/missmeester/internal/models"
)

var headerRe = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)

// ParseHeaders extracts PGN header tags into a map
func ParseHeaders(pgn string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(pgn, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if len(m) == 3 {
			out[m[1]] = m[2]
		}
	}
	return out
}

// Meta builds game metadata from a PGN text, substituting "-" for any of the
// four tracked headers that is missing or empty.
func Meta(pgn string) models.GameMeta {
	h := ParseHeaders(pgn)
	get := func(key string) string {
		if v := h[key]; v != "" {
			return v
		}
		return "-"
	}
	return models.GameMeta{
		White: get("White"),
		Black: get("Black"),
		Event: get("Event"),
		Date:  get("Date"),
	}
}

// SplitGames cuts a multi-game PGN blob into individual game texts. A new game
// starts at a header block that follows movetext, so files with any number of
// consecutive header lines per game split correctly. Returns nil for blobs
// with no content.
func SplitGames(blob string) []string {
	var (
		games   []string
		current []string
		inMoves bool
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			games = append(games, text)
		}
		current = current[:0]
		inMoves = false
	}

	for _, line := range strings.Split(blob, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && headerRe.MatchString(trimmed) {
			if inMoves {
				flush()
			}
			current = append(current, line)
			continue
		}
		if trimmed != "" {
			inMoves = true
		}
		current = append(current, line)
	}
	flush()

	return games
}
