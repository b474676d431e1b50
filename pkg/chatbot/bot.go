package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/CTAG07/markovbot/pkg/markov"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Trigger names the rule that made the bot answer a message.
type Trigger string

const (
	TriggerHello    Trigger = "hello"
	TriggerQuestion Trigger = "question"
	TriggerMention  Trigger = "mention"
	TriggerSeed     Trigger = "seed"
	TriggerStats    Trigger = "stats"
)

// Outcome describes how a reply was produced.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeTruncated     Outcome = "truncated"
	OutcomeEmptyModel    Outcome = "empty_model"
	OutcomeStepLimit     Outcome = "step_limit"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeUnknownPrefix Outcome = "unknown_prefix"
	OutcomeBadRequest    Outcome = "bad_request"
	OutcomeError         Outcome = "error"
)

// Replies sent instead of synthesized text.
const (
	helloReply         = "Hello!"
	emptyModelReply    = "I haven't read enough text to make anything up yet."
	stepLimitReply     = "I got carried away and had to stop myself. Ask me again?"
	timeoutReply       = "That took me too long to think about. Ask me again?"
	seedUsageReply     = "Usage: %s <word> <word>"
	unknownPrefixReply = "I've never seen %q together."
	errorReply         = "Something went wrong while I was thinking of a reply."
)

// Message is an inbound chat message, already stripped of transport details.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	Mentioned bool // the bot itself is mentioned
	FromSelf  bool // the bot wrote the message
}

// Event is the record of one answered message.
type Event struct {
	ID        string
	MessageID string
	ChannelID string
	AuthorID  string
	Trigger   Trigger
	Outcome   Outcome
	Words     int
	Duration  time.Duration
	At        time.Time
}

// Recorder stores reply events.
type Recorder interface {
	RecordReply(ctx context.Context, event Event) error
}

// Config holds the bot's reply behavior.
type Config struct {
	// MaxWords caps the length of a synthesized reply.
	MaxWords int `json:"max_words"`
	// Truncate makes capped replies send the text so far instead of an apology.
	Truncate bool `json:"truncate"`
	// TimeoutMs bounds the wall-clock time of one synthesis.
	TimeoutMs int `json:"timeout_ms"`
	// Greeting is the command answered with a hello.
	Greeting string `json:"greeting"`
	// Question is the message prefix that asks for an example.
	Question string `json:"question"`
	// SeedCommand starts a reply from two given words.
	SeedCommand string `json:"seed_command"`
	// StatsCommand reports chain statistics.
	StatsCommand string `json:"stats_command"`
}

// DefaultConfig returns the commands and limits the bot uses out of the box.
func DefaultConfig() *Config {
	return &Config{
		MaxWords:     200,
		Truncate:     true,
		TimeoutMs:    2000,
		Greeting:     "$hello",
		Question:     "Do you have an example of a Markov Chain?",
		SeedCommand:  "$markov",
		StatsCommand: "$stats",
	}
}

// Bot answers chat messages from an immutable chain. It holds no per-message
// state and may be called from many goroutines at once.
type Bot struct {
	chain     *markov.Chain
	config    Config
	recorder  Recorder
	logger    *slog.Logger
	newSource func() markov.RandomSource
	now       func() time.Time
}

// Option configures a Bot.
type Option func(*Bot)

// WithRecorder sets where reply events are stored. By default they are dropped.
func WithRecorder(r Recorder) Option {
	return func(b *Bot) { b.recorder = r }
}

// WithLogger sets the bot's logger. By default all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSourceFactory sets the function that builds the random source for each
// synthesis. By default every call gets a fresh, randomly seeded PCG source.
func WithSourceFactory(f func() markov.RandomSource) Option {
	return func(b *Bot) { b.newSource = f }
}

// New creates a Bot serving chain.
func New(chain *markov.Chain, config *Config, opts ...Option) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	b := &Bot{
		chain:  chain,
		config: *config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newSource: func() markov.RandomSource {
			return markov.NewSource(rand.Uint64())
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle decides whether and how to answer m. It returns the reply and true
// when the bot has something to say. Failures are reported as informational
// replies, never as errors.
func (b *Bot) Handle(ctx context.Context, m Message) (string, bool) {
	if m.FromSelf {
		return "", false
	}

	content := strings.TrimSpace(m.Content)
	start := b.now()

	var (
		trigger Trigger
		reply   string
		outcome Outcome
	)
	switch {
	case b.config.Greeting != "" && strings.HasPrefix(content, b.config.Greeting):
		trigger, reply, outcome = TriggerHello, helloReply, OutcomeOK
	case b.config.StatsCommand != "" && strings.HasPrefix(content, b.config.StatsCommand):
		trigger, reply, outcome = TriggerStats, b.statsReply(), OutcomeOK
	case b.config.SeedCommand != "" && isCommand(content, b.config.SeedCommand):
		trigger = TriggerSeed
		reply, outcome = b.seeded(ctx, strings.Fields(content)[1:])
	case b.config.Question != "" && strings.HasPrefix(content, b.config.Question):
		trigger = TriggerQuestion
		reply, outcome = b.synthesize(ctx, nil)
	case m.Mentioned:
		trigger = TriggerMention
		reply, outcome = b.synthesize(ctx, nil)
	default:
		return "", false
	}

	event := Event{
		ID:        uuid.NewString(),
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.AuthorID,
		Trigger:   trigger,
		Outcome:   outcome,
		Words:     len(strings.Fields(reply)),
		Duration:  b.now().Sub(start),
		At:        start,
	}
	if outcome != OutcomeOK && outcome != OutcomeTruncated {
		event.Words = 0
	}
	b.record(ctx, event)

	return reply, true
}

// isCommand reports whether content is cmd alone or cmd followed by arguments.
func isCommand(content, cmd string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && fields[0] == cmd
}

func (b *Bot) seeded(ctx context.Context, args []string) (string, Outcome) {
	if len(args) != 2 {
		return fmt.Sprintf(seedUsageReply, b.config.SeedCommand), OutcomeBadRequest
	}
	start := markov.Prefix{First: args[0], Second: args[1]}
	return b.synthesize(ctx, &start)
}

// synthesize runs one walk under the configured timeout, from start when it is
// given, and maps modeling failures onto informational replies.
func (b *Bot) synthesize(ctx context.Context, start *markov.Prefix) (string, Outcome) {
	if b.config.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.config.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	opts := []markov.GenerateOption{
		markov.WithTruncate(b.config.Truncate),
		markov.WithLogger(b.logger),
	}
	if b.config.MaxWords > 0 {
		opts = append(opts, markov.WithMaxLength(b.config.MaxWords))
	}

	var (
		text string
		err  error
	)
	rng := b.newSource()
	if start != nil {
		text, err = b.chain.SynthesizeFrom(ctx, *start, rng, opts...)
	} else {
		text, err = b.chain.Synthesize(ctx, rng, opts...)
	}

	switch {
	case err == nil:
		if b.config.MaxWords > 0 && len(strings.Fields(text)) >= b.config.MaxWords {
			return text, OutcomeTruncated
		}
		return text, OutcomeOK
	case errors.Is(err, markov.ErrEmptyModel):
		return emptyModelReply, OutcomeEmptyModel
	case errors.Is(err, markov.ErrNonTerminating):
		return stepLimitReply, OutcomeStepLimit
	case errors.Is(err, markov.ErrUnknownPrefix):
		return fmt.Sprintf(unknownPrefixReply, start.String()), OutcomeUnknownPrefix
	case errors.Is(err, context.DeadlineExceeded):
		b.logger.WarnContext(ctx, "Synthesis timed out", slog.Int("timeout_ms", b.config.TimeoutMs))
		return timeoutReply, OutcomeTimeout
	default:
		b.logger.ErrorContext(ctx, "Synthesis failed", slog.Any("error", err))
		return errorReply, OutcomeError
	}
}

func (b *Bot) statsReply() string {
	if b.chain.Empty() {
		return emptyModelReply
	}
	s := b.chain.Stats()
	return fmt.Sprintf("I know %s words in %s pairs, built from %s tokens of text.",
		humanize.Comma(int64(s.Vocabulary)),
		humanize.Comma(int64(s.Keys)),
		humanize.Comma(int64(s.Tokens)),
	)
}

func (b *Bot) record(ctx context.Context, event Event) {
	b.logger.InfoContext(ctx, "Replied to message",
		slog.String("event_id", event.ID),
		slog.String("channel_id", event.ChannelID),
		slog.String("trigger", string(event.Trigger)),
		slog.String("outcome", string(event.Outcome)),
		slog.Int("words", event.Words),
		slog.Duration("duration", event.Duration),
	)
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordReply(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "Failed to record reply", slog.String("event_id", event.ID), slog.Any("error", err))
	}
}
