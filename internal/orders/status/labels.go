package status

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tone is the semantic badge color for a status.
type Tone string

const (
	ToneSuccess     Tone = "success"
	ToneWarning     Tone = "warning"
	ToneInfo        Tone = "info"
	ToneDestructive Tone = "destructive"
	ToneDefault     Tone = "default"
)

// Label renders a status value for display: underscores and hyphens become
// spaces and each word is title cased.
func Label(value string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(value))
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(strings.Join(words, " ")))
}

// tones is shared across the three dimensions; values that appear in more
// than one dimension render the same everywhere.
var tones = map[string]Tone{
	"draft":              ToneDefault,
	"pending":            ToneWarning,
	"confirmed":          ToneInfo,
	"processing":         ToneInfo,
	"shipped":            ToneInfo,
	"delivered":          ToneSuccess,
	"cancelled":          ToneDestructive,
	"refunded":           ToneDefault,
	"returned":           ToneWarning,
	"authorized":         ToneInfo,
	"partially_paid":     ToneWarning,
	"paid":               ToneSuccess,
	"failed":             ToneDestructive,
	"partially_refunded": ToneWarning,
	"unfulfilled":        ToneDefault,
	"partial":            ToneWarning,
	"fulfilled":          ToneSuccess,
}

// Color returns the badge tone for a status value.
func Color(value string) Tone {
	if tone, ok := tones[normalize(value)]; ok {
		return tone
	}
	return ToneDefault
}

// Badge is a label and tone pair.
type Badge struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// BadgeFor builds the display badge for a status value.
func BadgeFor(value string) Badge {
	return Badge{Value: value, Label: Label(value), Tone: Color(value)}
}
