package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
)

// AdminHandler exposes the answer-key update endpoint. The body is a JSON
// object of stage number to answer, e.g. {"1": "escape", "2": "room"};
// empty values and unparseable stage keys are skipped.
type AdminHandler struct {
	answers *game.AnswerKey
}

// NewAdminHandler creates an admin handler over the given answer key.
func NewAdminHandler(answers *game.AnswerKey) *AdminHandler {
	return &AdminHandler{answers: answers}
}

// HandleUpdateAnswers applies an answer-key update and echoes the resulting
// key back.
func (h *AdminHandler) HandleUpdateAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	update := make(map[int]string, len(body))
	for key, answer := range body {
		stage, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		update[stage] = answer
	}
	h.answers.Update(update)

	log.Info().Int("stages_updated", len(update)).Msg("answer key updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"answers": h.answers.All(),
	})
}

// RegisterRoutes registers the admin route on the mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/answers", h.HandleUpdateAnswers)
}
