package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"tetris/game"
)

type decideRequest struct {
	Board []string `json:"board"`
	Piece string   `json:"piece"`
}

type decideResponse struct {
	Rotation int     `json:"rotation"`
	Column   int     `json:"column"`
	Row      int     `json:"row"`
	Cleared  int     `json:"cleared"`
	Score    float64 `json:"score"`
}

// NewServer exposes a on POST /decide for boards of the given size. The board
// is sent as rows written top-down, '#' for filled cells.
func NewServer(a *Agent, width, height int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /decide", func(w http.ResponseWriter, r *http.Request) {
		var req decideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		kind, err := game.ParseKind(req.Piece)
		if err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		board, err := game.ParseBoard(width, height, req.Board...)
		if err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}

		p, err := a.Decide(board, kind)
		if errors.Is(err, game.ErrNoLegalPlacement) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("decide failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Debug().Msgf("decided %s rotation %d column %d score %.3f", kind, p.Rotation, p.Column, p.Score)

		w.Header().Set("Content-Type", "application/json")
		resp := decideResponse{Rotation: p.Rotation, Column: p.Column, Row: p.Row, Cleared: p.Cleared, Score: p.Score}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, "failed to encode placement: "+err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}

// Serve blocks serving a on addr.
func Serve(addr string, a *Agent, width, height int) error {
	log.Info().Msgf("[AgentServer] listening on %s", addr)
	return http.ListenAndServe(addr, NewServer(a, width, height))
}
