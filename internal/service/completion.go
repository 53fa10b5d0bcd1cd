package service

import "strings"

// CompletionDetector decides whether a model reply ends symptom collection.
type CompletionDetector interface {
	IsCollectionComplete(reply string) bool
}

// TerminationDetector decides whether user input asks to end the conversation.
type TerminationDetector interface {
	IsTermination(text string) bool
}

// SentinelDetector matches model replies against fixed completion phrases,
// ignoring case.
type SentinelDetector struct {
	phrases []string
}

func NewSentinelDetector(phrases []string) *SentinelDetector {
	return &SentinelDetector{phrases: lowerAll(phrases)}
}

func (d *SentinelDetector) IsCollectionComplete(reply string) bool {
	return containsAny(strings.ToLower(reply), d.phrases)
}

// KeywordDetector matches lower-cased user input against termination keywords.
type KeywordDetector struct {
	keywords []string
}

func NewKeywordDetector(keywords []string) *KeywordDetector {
	return &KeywordDetector{keywords: lowerAll(keywords)}
}

func (d *KeywordDetector) IsTermination(text string) bool {
	return containsAny(strings.ToLower(text), d.keywords)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
