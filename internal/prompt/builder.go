// Package prompt builds the system instructions sent to the model for each
// conversation stage.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xiaot623/medintake/internal/domain"
)

// ErrNoPrompt is returned for stages that never call the model.
var ErrNoPrompt = errors.New("stage has no model prompt")

// Builder renders stage prompts for one locale. It never mutates sessions.
type Builder struct {
	locale Locale
}

// NewBuilder creates a prompt builder.
func NewBuilder(locale Locale) *Builder {
	return &Builder{locale: locale}
}

// Locale returns the locale the builder renders for.
func (b *Builder) Locale() Locale {
	return b.locale
}

// Build returns the system prompt for the session's current stage.
func (b *Builder) Build(sess *domain.Session) (string, error) {
	switch sess.Stage {
	case domain.StageCollecting:
		return b.Collecting(sess.CollectedInfo), nil
	case domain.StageTreatment:
		return b.Treatment(sess.UserID), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrNoPrompt, sess.Stage)
	}
}

// Collecting returns the prompt for the symptom collection stage.
func (b *Builder) Collecting(info domain.CollectedInfo) string {
	return fmt.Sprintf(`You are a doctor. You should assist the user to find the best treatment for their health.

Talk only in %s!

You need to gather this information from the user:
- What part of the body hurts? (an organ like stomach, throat, head etc.)
- Body temperature or heat symptoms
- Any previous treatment they have tried

Current collected info: %s

Ask clear follow-up questions **one at a time** to gather the missing information.
Once all info is collected, say exactly: "%s"

Be empathetic and professional.`,
		b.locale.Language, renderInfo(info), b.locale.CompletionAnnouncement)
}

// Treatment returns the prompt for the treatment advice stage.
func (b *Builder) Treatment(userID string) string {
	return fmt.Sprintf(`You are a Doctor Agent. You are a helpful assistant that helps users understand what to do when they are sick.

Talk only in %[1]s!

You should help the user understand:
- What might be happening to them based on their symptoms
- Home remedies for their situation
- Over-the-counter medications that are commonly available
- When to see a doctor

The conversation history contains the symptoms and information gathered.

- FIRST: Always call the %[2]s tool with your complete medical recommendations
- THEN: Provide your response to the user
- If the user wants to finish or save the content, call the %[3]s tool with the user name: %[4]s

Always provide possible explanations and treatment recommendations.
Be clear that this is not a substitute for professional medical advice.`,
		b.locale.Language, domain.ToolUpdateDraftContent, domain.ToolPersistDraft, userID)
}

// renderInfo renders collected info as JSON with sorted keys.
func renderInfo(info domain.CollectedInfo) string {
	if info == nil {
		info = domain.NewCollectedInfo()
	}
	out, err := json.Marshal(info)
	if err != nil {
		return "{}"
	}
	return string(out)
}
