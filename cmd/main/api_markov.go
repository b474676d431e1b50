package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/CTAG07/markovbot/pkg/markov"
)

// MarkovAPI holds the dependencies for the chain API handlers.
type MarkovAPI struct {
	chain  *markov.Chain
	config *GenerateConfig
	logger *slog.Logger
}

// NewMarkovAPI creates a new instance of the MarkovAPI.
func NewMarkovAPI(chain *markov.Chain, config *GenerateConfig, logger *slog.Logger) *MarkovAPI {
	return &MarkovAPI{
		chain:  chain,
		config: config,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/markov endpoints.
func (m *MarkovAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/markov/generate", m.handleGenerate)
	mux.HandleFunc("/api/markov/stats", m.handleStats)
}

// GenerateResponse is the body returned by a successful generation.
type GenerateResponse struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// handleGenerate synthesizes one text. Query parameters: start ("w1 w2"),
// max_length, seed (for reproducible output) and truncate.
func (m *MarkovAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	maxLength := m.config.MaxLength
	truncate := m.config.Truncate
	var rng markov.RandomSource

	if v := q.Get("max_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "max_length must be an integer")
			return
		}
		maxLength = n
	}
	if v := q.Get("truncate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "truncate must be a boolean")
			return
		}
		truncate = b
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "seed must be an unsigned integer")
			return
		}
		rng = markov.NewSource(seed)
	}

	opts := []markov.GenerateOption{
		markov.WithMaxLength(maxLength),
		markov.WithTruncate(truncate),
		markov.WithLogger(m.logger),
	}

	var text string
	var err error
	if start := q.Get("start"); start != "" {
		words := strings.Fields(start)
		if len(words) != 2 {
			respondWithError(w, http.StatusBadRequest, "start must be exactly two words")
			return
		}
		text, err = m.chain.SynthesizeFrom(r.Context(), markov.Prefix{First: words[0], Second: words[1]}, rng, opts...)
	} else {
		text, err = m.chain.Synthesize(r.Context(), rng, opts...)
	}

	if err != nil {
		switch {
		case errors.Is(err, markov.ErrInvalidMaxLength):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, markov.ErrEmptyModel),
			errors.Is(err, markov.ErrNonTerminating),
			errors.Is(err, markov.ErrUnknownPrefix):
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			m.logger.Error("Failed to generate text", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Generation failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateResponse{Text: text, Tokens: len(strings.Fields(text))})
}

// handleStats returns statistics about the loaded chain.
func (m *MarkovAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, m.chain.Stats())
}
