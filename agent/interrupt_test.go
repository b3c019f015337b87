package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaC215/agent-service-toolkit/graph/checkpoint/inmemory"
)

func TestExtractBirthdate(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  string
		found bool
	}{
		{"iso", []string{"I was born on 1990-04-25"}, "1990-04-25", true},
		{"iso single digits", []string{"born 1990-4-5"}, "1990-04-05", true},
		{"slash", []string{"my birthday is 07/23/1985!"}, "1985-07-23", true},
		{"word", []string{"March 5, 1990 is my birthdate"}, "1990-03-05", true},
		{"word ordinal", []string{"I arrived on january 3rd 2001"}, "2001-01-03", true},
		{"newest first", []string{"2000-01-01", "1990-01-01"}, "2000-01-01", true},
		{"future rejected", []string{"I will be born on 2990-01-01"}, "", false},
		{"no date", []string{"hello there"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractBirthdate(tt.texts)
			require.Equal(t, tt.found, found)
			if found {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestZodiacSign(t *testing.T) {
	tests := []struct {
		month time.Month
		day   int
		want  string
	}{
		{time.January, 1, "Capricorn"},
		{time.January, 20, "Aquarius"},
		{time.March, 20, "Pisces"},
		{time.March, 21, "Aries"},
		{time.April, 25, "Taurus"},
		{time.July, 23, "Leo"},
		{time.December, 21, "Sagittarius"},
		{time.December, 22, "Capricorn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, zodiacSign(tt.month, tt.day), "%v %d", tt.month, tt.day)
	}
}

func TestInterruptAgentAsksForBirthdate(t *testing.T) {
	llm := newScriptedModel(aiText("Zodiac signs originate from ancient Babylon..."))
	saver := inmemory.NewSaver()
	agent, err := NewInterruptAgent(llm, WithCheckpointSaver(saver))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := agent.Invoke(ctx, &RunInput{ThreadID: "zodiac-1", Message: "What's my sign?"})
	require.NoError(t, err)
	assert.Contains(t, first.Content, "Please tell me your birthdate?")

	checkpoint, err := saver.Get(ctx, "zodiac-1")
	require.NoError(t, err)
	require.NotNil(t, checkpoint.PendingInterrupt)
	assert.Equal(t, "determine_birthdate", checkpoint.PendingInterrupt.NodeID)

	// Resuming with a date completes the run without re-running the
	// background node.
	second, err := agent.Invoke(ctx, &RunInput{ThreadID: "zodiac-1", Message: "1990-01-01"})
	require.NoError(t, err)
	assert.Contains(t, second.Content, "Capricorn")

	checkpoint, err = saver.Get(ctx, "zodiac-1")
	require.NoError(t, err)
	assert.Nil(t, checkpoint.PendingInterrupt)

	// The resume input is consumed by the interrupt, not logged as a turn.
	history, err := agent.History(ctx, "zodiac-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "What's my sign?", history[0].Content)
	assert.Contains(t, history[1].Content, "Babylon")
	assert.Contains(t, history[2].Content, "Capricorn")
}

func TestInterruptAgentReasksOnBadDate(t *testing.T) {
	llm := newScriptedModel(aiText("Some zodiac background."))
	saver := inmemory.NewSaver()
	agent, err := NewInterruptAgent(llm, WithCheckpointSaver(saver))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := agent.Invoke(ctx, &RunInput{ThreadID: "zodiac-2", Message: "Tell me my sign"})
	require.NoError(t, err)
	assert.Contains(t, first.Content, "Please tell me your birthdate?")

	second, err := agent.Invoke(ctx, &RunInput{ThreadID: "zodiac-2", Message: "bananas"})
	require.NoError(t, err)
	assert.Contains(t, second.Content, "YYYY-MM-DD format")

	third, err := agent.Invoke(ctx, &RunInput{ThreadID: "zodiac-2", Message: "1990-07-23"})
	require.NoError(t, err)
	assert.Contains(t, third.Content, "Leo")
}

func TestInterruptAgentSkipsInterruptWhenDateKnown(t *testing.T) {
	llm := newScriptedModel(aiText("Background on zodiac signs."))
	agent, err := NewInterruptAgent(llm, WithCheckpointSaver(inmemory.NewSaver()))
	require.NoError(t, err)

	final, err := agent.Invoke(context.Background(), &RunInput{
		ThreadID: "zodiac-3",
		Message:  "I was born on 1990-04-25, what's my sign?",
	})
	require.NoError(t, err)
	assert.Contains(t, final.Content, "Taurus")
}
