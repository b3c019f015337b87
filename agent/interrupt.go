package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// StateKeyBirthdate holds the extracted birthdate in YYYY-MM-DD form.
const StateKeyBirthdate = "birthdate"

const zodiacBackgroundPrompt = `
You are a helpful assistant that tells users their zodiac sign.
Provide a one paragraph summary of the origin of zodiac signs.
Don't tell the user what their sign is, you are just demonstrating your knowledge on the topic.
`

// NewInterruptAgent creates an agent that demonstrates interrupt and
// resume: it chats about zodiac signs, then suspends the run to ask for
// the user's birthdate when the conversation does not contain one, and
// finishes by reporting the sign once a date is available.
func NewInterruptAgent(llm model.Model, opts ...Option) (*Agent, error) {
	determineBirthdate := func(ctx context.Context, state graph.State) (any, error) {
		birthdate, ok := extractBirthdate(messageTexts(state.Messages()))
		if !ok {
			answer, err := graph.Interrupt(ctx, state, "birthdate",
				"No birthdate was found in the conversation.\nPlease tell me your birthdate?")
			if err != nil {
				return nil, err
			}
			birthdate, ok = extractBirthdate([]string{fmt.Sprintf("%v", answer)})
			if !ok {
				// A second interrupt site so an unparseable answer asks
				// again instead of failing the run.
				answer, err = graph.Interrupt(ctx, state, "birthdate_format",
					"I couldn't understand the date format. Please provide your birthdate in YYYY-MM-DD format.")
				if err != nil {
					return nil, err
				}
				birthdate, ok = extractBirthdate([]string{fmt.Sprintf("%v", answer)})
				if !ok {
					return nil, errors.New("could not parse a birthdate from the provided input")
				}
			}
		}
		return graph.State{StateKeyBirthdate: birthdate.Format("2006-01-02")}, nil
	}

	determineSign := func(ctx context.Context, state graph.State) (any, error) {
		raw, _ := state[StateKeyBirthdate].(string)
		if raw == "" {
			return nil, errors.New("no birthdate found in state")
		}
		birthdate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid birthdate in state: %w", err)
		}
		sign := zodiacSign(birthdate.Month(), birthdate.Day())
		answer := schema.NewAIMessage(fmt.Sprintf(
			"Someone born on %s has the zodiac sign %s.",
			birthdate.Format("January 2, 2006"), sign))
		answer.RunID = runIDOf(executionContext(state))
		return graph.State{
			graph.StateKeyMessages:     []schema.Message{answer},
			graph.StateKeyLastResponse: answer.Content,
		}, nil
	}

	g, err := graph.NewStateGraph(interruptStateSchema()).
		AddLLMNode("background", llm, zodiacBackgroundPrompt, nil).
		AddNode("determine_birthdate", determineBirthdate).
		AddNode("determine_sign", determineSign).
		SetEntryPoint("background").
		AddEdge("background", "determine_birthdate").
		AddEdge("determine_birthdate", "determine_sign").
		SetFinishPoint("determine_sign").
		Compile()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithDescription("An agent that uses interrupts to ask for the user's birthdate."),
	}, opts...)
	return New("interrupt-agent", g, opts...)
}

// interruptStateSchema extends the message schema with the extracted
// birthdate, which survives across the interrupt checkpoint.
func interruptStateSchema() *graph.StateSchema {
	s := graph.MessagesStateSchema()
	s.AddField(StateKeyBirthdate, graph.StateField{
		Type:    reflect.TypeOf(""),
		Reducer: graph.DefaultReducer,
	})
	return s
}

// messageTexts returns the contents of the human turns, newest first, so
// the most recent mention of a date wins.
func messageTexts(messages []schema.Message) []string {
	var texts []string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.RoleHuman {
			texts = append(texts, messages[i].Content)
		}
	}
	return texts
}

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	wordDatePattern  = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
)

// extractBirthdate scans the given texts for a date in one of the accepted
// formats (YYYY-MM-DD, MM/DD/YYYY, Month Day, Year). Dates in the future
// are rejected.
func extractBirthdate(texts []string) (time.Time, bool) {
	for _, text := range texts {
		var candidate string
		if m := isoDatePattern.FindStringSubmatch(text); m != nil {
			candidate = fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3]))
		} else if m := slashDatePattern.FindStringSubmatch(text); m != nil {
			candidate = fmt.Sprintf("%s-%s-%s", m[3], pad2(m[1]), pad2(m[2]))
		} else if m := wordDatePattern.FindStringSubmatch(text); m != nil {
			month, err := time.Parse("January", capitalize(m[1]))
			if err != nil {
				continue
			}
			candidate = fmt.Sprintf("%s-%02d-%s", m[3], int(month.Month()), pad2(m[2]))
		} else {
			continue
		}
		parsed, err := time.Parse("2006-01-02", candidate)
		if err != nil || parsed.After(time.Now()) {
			continue
		}
		return parsed, true
	}
	return time.Time{}, false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// zodiacSign maps a calendar date to its western zodiac sign.
func zodiacSign(month time.Month, day int) string {
	switch {
	case (month == time.March && day >= 21) || (month == time.April && day <= 19):
		return "Aries"
	case (month == time.April && day >= 20) || (month == time.May && day <= 20):
		return "Taurus"
	case (month == time.May && day >= 21) || (month == time.June && day <= 20):
		return "Gemini"
	case (month == time.June && day >= 21) || (month == time.July && day <= 22):
		return "Cancer"
	case (month == time.July && day >= 23) || (month == time.August && day <= 22):
		return "Leo"
	case (month == time.August && day >= 23) || (month == time.September && day <= 22):
		return "Virgo"
	case (month == time.September && day >= 23) || (month == time.October && day <= 22):
		return "Libra"
	case (month == time.October && day >= 23) || (month == time.November && day <= 21):
		return "Scorpio"
	case (month == time.November && day >= 22) || (month == time.December && day <= 21):
		return "Sagittarius"
	case (month == time.December && day >= 22) || (month == time.January && day <= 19):
		return "Capricorn"
	case (month == time.January && day >= 20) || (month == time.February && day <= 18):
		return "Aquarius"
	default:
		return "Pisces"
	}
}
