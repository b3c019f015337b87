package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// SafetyAssessment is the verdict of a content safety check.
type SafetyAssessment string

// Safety verdicts.
const (
	SafetySafe   SafetyAssessment = "safe"
	SafetyUnsafe SafetyAssessment = "unsafe"
	SafetyError  SafetyAssessment = "error"
)

// SafetyOutput is the structured result of a content safety check.
type SafetyOutput struct {
	Assessment       SafetyAssessment `json:"safety_assessment"`
	UnsafeCategories []string         `json:"unsafe_categories,omitempty"`
}

// unsafeContentCategories maps policy category codes to human readable
// names, in prompt order.
var unsafeContentCategories = []struct {
	Code string
	Name string
}{
	{"S1", "Violent Crimes."},
	{"S2", "Non-Violent Crimes."},
	{"S3", "Sex Crimes."},
	{"S4", "Child Exploitation."},
	{"S5", "Defamation."},
	{"S6", "Specialized Advice."},
	{"S7", "Privacy."},
	{"S8", "Intellectual Property."},
	{"S9", "Indiscriminate Weapons."},
	{"S10", "Hate."},
	{"S11", "Self-Harm."},
	{"S12", "Sexual Content."},
	{"S13", "Elections."},
	{"S14", "Code Interpreter Abuse."},
}

const guardInstructionsTemplate = `
Task: Check if there is unsafe content in '%s' messages in conversations according to our safety policy with the below categories.

<BEGIN UNSAFE CONTENT CATEGORIES>
%s
<END UNSAFE CONTENT CATEGORIES>

<BEGIN CONVERSATION>

%s

<END CONVERSATION>

Provide your safety assessment for ONLY THE LAST %s in the above conversation:
- First line must read 'safe' or 'unsafe'.
- If unsafe, a second line must include a comma-separated list of violated categories.`

// ContentGuard classifies conversation turns against a safety policy using
// a dedicated moderation model. A nil model disables the check, which then
// always reports safe.
type ContentGuard struct {
	llm model.Model
}

// NewContentGuard creates a content guard backed by the given moderation
// model. Pass nil to disable moderation.
func NewContentGuard(llm model.Model) *ContentGuard {
	return &ContentGuard{llm: llm}
}

// Enabled reports whether a moderation model is configured.
func (g *ContentGuard) Enabled() bool {
	return g != nil && g.llm != nil
}

// Check assesses the safety of the last turn attributed to role ("User" or
// "Agent") given the conversation so far.
func (g *ContentGuard) Check(ctx context.Context, role string, messages []schema.Message) (SafetyOutput, error) {
	if !g.Enabled() {
		return SafetyOutput{Assessment: SafetySafe}, nil
	}
	prompt := compileGuardPrompt(role, messages)
	output, err := completeText(ctx, g.llm, []schema.Message{schema.NewHumanMessage(prompt)})
	if err != nil {
		return SafetyOutput{}, fmt.Errorf("safety check failed: %w", err)
	}
	return parseGuardOutput(output), nil
}

// compileGuardPrompt renders the moderation prompt from the human and ai
// turns of the conversation.
func compileGuardPrompt(role string, messages []schema.Message) string {
	var categories strings.Builder
	for _, c := range unsafeContentCategories {
		fmt.Fprintf(&categories, "%s: %s\n", c.Code, c.Name)
	}

	var turns []string
	for _, m := range messages {
		if m.Removed {
			continue
		}
		switch m.Role {
		case schema.RoleHuman:
			turns = append(turns, "User: "+m.Content)
		case schema.RoleAI:
			turns = append(turns, "Agent: "+m.Content)
		}
	}
	return fmt.Sprintf(guardInstructionsTemplate,
		role, strings.TrimRight(categories.String(), "\n"), strings.Join(turns, "\n\n"), role)
}

// parseGuardOutput parses the two-line moderation verdict. Anything that
// does not match the expected shape is reported as an error assessment,
// never as safe.
func parseGuardOutput(output string) SafetyOutput {
	output = strings.TrimSpace(output)
	if output == "safe" {
		return SafetyOutput{Assessment: SafetySafe}
	}
	lines := strings.Split(output, "\n")
	if len(lines) != 2 || strings.TrimSpace(lines[0]) != "unsafe" {
		return SafetyOutput{Assessment: SafetyError}
	}
	codeNames := make(map[string]string, len(unsafeContentCategories))
	for _, c := range unsafeContentCategories {
		codeNames[c.Code] = strings.TrimSuffix(c.Name, ".")
	}
	var readable []string
	for _, code := range strings.Split(lines[1], ",") {
		name, ok := codeNames[strings.TrimSpace(code)]
		if !ok {
			return SafetyOutput{Assessment: SafetyError}
		}
		readable = append(readable, name)
	}
	return SafetyOutput{Assessment: SafetyUnsafe, UnsafeCategories: readable}
}

// formatSafetyMessage renders the ai message shown to the user when a turn
// is blocked.
func formatSafetyMessage(safety SafetyOutput) schema.Message {
	return schema.NewAIMessage(fmt.Sprintf(
		"This conversation was flagged for unsafe content: %s",
		strings.Join(safety.UnsafeCategories, ", ")))
}
