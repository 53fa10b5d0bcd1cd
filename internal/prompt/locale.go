package prompt

import (
	"fmt"
	"strings"
)

// Locale bundles the language-dependent text of a conversation.
type Locale struct {
	Code string
	// Language is the name the model is told to answer in.
	Language        string
	DefaultUserName string

	// GreetingTemplate takes the user name.
	GreetingTemplate string
	// CompletionAnnouncement is the sentence the model is told to say once
	// every intake field is known.
	CompletionAnnouncement string
	// CompletionPhrases are matched against model replies to detect the end
	// of intake. Any one of them is enough.
	CompletionPhrases []string
	// TerminationKeywords are matched against lower-cased user input in the
	// treatment stage.
	TerminationKeywords []string

	// FarewellTemplate takes the save result.
	FarewellTemplate string
	// PersistFailedTemplate takes the save result.
	PersistFailedTemplate string
	AlreadyFinishedReply  string
	ErrorReply            string
	// DraftFallbackPrefix precedes the draft when the model answered with
	// tool calls only.
	DraftFallbackPrefix string
}

// Greeting returns the fixed greeting for name.
func (l Locale) Greeting(name string) string {
	return fmt.Sprintf(l.GreetingTemplate, name)
}

// Farewell returns the closing reply after a successful save.
func (l Locale) Farewell(saveResult string) string {
	return fmt.Sprintf(l.FarewellTemplate, saveResult)
}

// PersistFailed returns the reply after a failed save.
func (l Locale) PersistFailed(saveResult string) string {
	return fmt.Sprintf(l.PersistFailedTemplate, saveResult)
}

// Hebrew is the default locale.
var Hebrew = Locale{
	Code:                   "he",
	Language:               "Hebrew",
	DefaultUserName:        "משתמש",
	GreetingTemplate:       "שלום %s! אני דוקטור AI. איך אתה מרגיש היום? ספר לי מה מציק לך.",
	CompletionAnnouncement: "כל המידע נאסף! מכין את ההמלצות הרפואיות...",
	CompletionPhrases:      []string{"כל המידע נאסף", "מכין את ההמלצות"},
	TerminationKeywords:    []string{"שמור", "סיים", "תודה", "זה הכל"},
	FarewellTemplate:       "תודה! %s. אני מקווה שעזרתי לך. זכור - אם המצב מחמיר, חשוב לפנות לרופא!",
	PersistFailedTemplate:  "לא הצלחתי לשמור את ההמלצות: %s. נסה שוב בעוד רגע.",
	AlreadyFinishedReply:   "השיחה כבר הסתיימה. כדי להתחיל שיחה חדשה יש לאפס את השיחה.",
	ErrorReply:             "שגיאה במערכת",
	DraftFallbackPrefix:    "עדכנתי את ההמלצות:",
}

// English is an alternative locale.
var English = Locale{
	Code:                   "en",
	Language:               "English",
	DefaultUserName:        "user",
	GreetingTemplate:       "Hello %s! I am Doctor AI. How are you feeling today? Tell me what is bothering you.",
	CompletionAnnouncement: "All information gathered! Preparing medical recommendations...",
	CompletionPhrases:      []string{"all information gathered", "preparing medical recommendations"},
	TerminationKeywords:    []string{"save", "finish", "done", "thank", "that's all", "that is all"},
	FarewellTemplate:       "Thank you! %s. I hope I helped. Remember, if things get worse, see a doctor!",
	PersistFailedTemplate:  "I could not save your recommendations: %s. Please try again in a moment.",
	AlreadyFinishedReply:   "This conversation is already completed. Reset it to start over.",
	ErrorReply:             "System error",
	DraftFallbackPrefix:    "I updated your recommendations:",
}

var locales = map[string]Locale{
	Hebrew.Code:  Hebrew,
	English.Code: English,
}

// LookupLocale returns the locale for code.
func LookupLocale(code string) (Locale, error) {
	l, ok := locales[strings.ToLower(code)]
	if !ok {
		return Locale{}, fmt.Errorf("unknown locale %q", code)
	}
	return l, nil
}
