package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tetris/game"
)

// Remote is a Decider backed by an agent server's /decide endpoint.
type Remote struct {
	URL    string
	Client *http.Client
}

func NewRemote(url string) *Remote {
	return &Remote{URL: strings.TrimRight(url, "/"), Client: http.DefaultClient}
}

func (r *Remote) Decide(b *game.Board, kind game.Kind) (game.Placement, error) {
	payload := struct {
		Board []string `json:"board"`
		Piece string   `json:"piece"`
	}{Board: playfieldRows(b), Piece: kind.String()}

	body, err := json.Marshal(payload)
	if err != nil {
		return game.Placement{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := r.Client.Post(r.URL+"/decide", "application/json", bytes.NewReader(body))
	if err != nil {
		return game.Placement{}, fmt.Errorf("failed to contact agent at %s: %w", r.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return game.Placement{}, game.ErrNoLegalPlacement
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return game.Placement{}, fmt.Errorf("agent at %s returned status %d: %s", r.URL, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decided struct {
		Rotation int     `json:"rotation"`
		Column   int     `json:"column"`
		Row      int     `json:"row"`
		Cleared  int     `json:"cleared"`
		Score    float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decided); err != nil {
		return game.Placement{}, fmt.Errorf("failed to decode agent response: %w", err)
	}
	return game.Placement{
		Kind:     kind,
		Rotation: decided.Rotation,
		Column:   decided.Column,
		Row:      decided.Row,
		Cleared:  decided.Cleared,
		Score:    decided.Score,
	}, nil
}

// playfieldRows writes the playable rows of b top-down in the format
// game.ParseBoard reads.
func playfieldRows(b *game.Board) []string {
	rows := make([]string, b.Height())
	for i := range rows {
		y := b.Height() - 1 - i
		var sb strings.Builder
		for x := 0; x < b.Width(); x++ {
			if b.Occupied(y, x) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows[i] = sb.String()
	}
	return rows
}
