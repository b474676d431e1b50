package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/CTAG07/markovbot/pkg/chatbot"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS stats_replies (
    event_id      TEXT     PRIMARY KEY,
    message_id    TEXT     NOT NULL,
    channel_id    TEXT     NOT NULL,
    author_id     TEXT     NOT NULL,
    trigger_name  TEXT     NOT NULL,
    outcome       TEXT     NOT NULL,
    words         INTEGER  NOT NULL,
    duration_ms   INTEGER  NOT NULL,
    created_at    DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS stats_channel (
    channel_id    TEXT     PRIMARY KEY,
    total_replies INTEGER  NOT NULL DEFAULT 1,
    first_seen    DATETIME NOT NULL,
    last_seen     DATETIME NOT NULL
);
`

// GlobalStatsSummary provides a high-level overview of every recorded reply.
type GlobalStatsSummary struct {
	TotalReplies   int64            `json:"total_replies"`
	UniqueChannels int64            `json:"unique_channels"`
	UniqueAuthors  int64            `json:"unique_authors"`
	TotalWords     int64            `json:"total_words"`
	ByOutcome      map[string]int64 `json:"by_outcome"`
}

// ChannelStats is one row of the per-channel listing.
type ChannelStats struct {
	ChannelID    string    `json:"channel_id"`
	TotalReplies int64     `json:"total_replies"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// StatsAPI stores reply events and serves the statistics handlers.
type StatsAPI struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

func NewStatsAPI(db *sql.DB, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		db:     db,
		logger: logger,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", s.handleSummary)
	mux.HandleFunc("/api/stats/channels", s.handleChannels)
}

// RecordReply logs a reply event and bumps its channel's counters in a single transaction.
func (s *StatsAPI) RecordReply(ctx context.Context, event chatbot.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	at := event.At.UTC()
	_, err = tx.ExecContext(ctx, `
        INSERT INTO stats_replies (event_id, message_id, channel_id, author_id, trigger_name, outcome, words, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, event.ID, event.MessageID, event.ChannelID, event.AuthorID, string(event.Trigger), string(event.Outcome),
		event.Words, event.Duration.Milliseconds(), at)
	if err != nil {
		return fmt.Errorf("failed to insert reply event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO stats_channel (channel_id, first_seen, last_seen) VALUES (?, ?, ?)
        ON CONFLICT(channel_id) DO UPDATE SET total_replies = total_replies + 1, last_seen = ?
    `, event.ChannelID, at, at, at)
	if err != nil {
		return fmt.Errorf("failed to upsert stats_channel: %w", err)
	}

	return tx.Commit()
}

// Summary aggregates every recorded reply.
func (s *StatsAPI) Summary(ctx context.Context) (*GlobalStatsSummary, error) {
	summary := &GlobalStatsSummary{ByOutcome: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COUNT(DISTINCT channel_id), COUNT(DISTINCT author_id), COALESCE(SUM(words), 0)
        FROM stats_replies
    `).Scan(&summary.TotalReplies, &summary.UniqueChannels, &summary.UniqueAuthors, &summary.TotalWords)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize replies: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM stats_replies GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to group replies by outcome: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)
	for rows.Next() {
		var outcome string
		var count int64
		if err = rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		summary.ByOutcome[outcome] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

// TopChannels returns the channels with the most replies, busiest first.
func (s *StatsAPI) TopChannels(ctx context.Context, limit int) ([]ChannelStats, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT channel_id, total_replies, first_seen, last_seen FROM stats_channel ORDER BY total_replies DESC, channel_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	channels := make([]ChannelStats, 0)
	for rows.Next() {
		var c ChannelStats
		if err = rows.Scan(&c.ChannelID, &c.TotalReplies, &c.FirstSeen, &c.LastSeen); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	summary, err := s.Summary(r.Context())
	if err != nil {
		s.logger.Error("Failed to get stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve stats summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	channels, err := s.TopChannels(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to get top channels", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve channel stats")
		return
	}
	respondWithJSON(w, http.StatusOK, channels)
}
