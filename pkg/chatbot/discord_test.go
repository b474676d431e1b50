package chatbot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

func TestToMessage(t *testing.T) {
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Content:   "hello <@bot>",
		Author:    &discordgo.User{ID: "u1"},
		Mentions:  []*discordgo.User{{ID: "other"}, {ID: "bot"}},
	}

	got := toMessage(m, "bot")
	want := Message{ID: "m1", ChannelID: "c1", AuthorID: "u1", Content: "hello <@bot>", Mentioned: true}
	if got != want {
		t.Errorf("toMessage() = %+v, want %+v", got, want)
	}

	m.Author = &discordgo.User{ID: "bot"}
	m.Mentions = nil
	got = toMessage(m, "bot")
	if !got.FromSelf || got.Mentioned {
		t.Errorf("expected own, unmentioned message, got %+v", got)
	}
}

func TestClampMessage(t *testing.T) {
	if got := clampMessage("short text", 2000); got != "short text" {
		t.Errorf("short text changed to %q", got)
	}

	long := strings.Repeat("word ", 500)
	got := clampMessage(long, 2000)
	if utf8.RuneCountInString(got) > 2000 {
		t.Errorf("clamped message has %d runes", utf8.RuneCountInString(got))
	}
	if strings.HasSuffix(got, " ") || strings.HasSuffix(got, "wor") {
		t.Errorf("message was not cut on a word boundary: %q", got[len(got)-10:])
	}

	unbroken := strings.Repeat("é", 2100)
	if got := clampMessage(unbroken, 2000); utf8.RuneCountInString(got) != 2000 {
		t.Errorf("expected 2000 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestNewDiscordRequiresToken(t *testing.T) {
	if _, err := NewDiscord("", New(nil, nil), nil); err == nil {
		t.Error("expected an error for an empty token")
	}
}
