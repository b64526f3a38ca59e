package mood

import (
	"strings"
	"unicode"
)

var (
	positiveWords = wordSet(
		"great", "awesome", "excited", "love", "happy", "yes", "perfect",
		"amazing", "excellent", "wonderful", "fantastic", "brilliant", "good",
		"nice", "cool", "yay", "hooray", "congrats", "success", "win", "thanks",
	)

	negativeWords = wordSet(
		"problem", "issue", "stuck", "frustrated", "no", "difficult", "hard",
		"bad", "wrong", "error", "fail", "broken", "bug", "annoying", "confused",
		"struggling", "terrible", "awful", "hate", "sad", "angry",
	)

	energeticWords = wordSet(
		"go", "fast", "quick", "now", "hurry", "rush", "action", "move",
		"sprint", "push", "drive", "power", "energetic", "pumped",
	)

	calmWords = wordSet(
		"focus", "think", "consider", "plan", "slow", "careful", "steady",
		"calm", "relax", "breathe", "pause", "reflect", "peaceful", "quiet", "gentle",
	)

	chaoticWords = wordSet(
		"chaos", "chaotic", "mess", "messy", "crazy", "wild", "insane",
		"madness", "panic", "argh", "wtf", "everywhere",
	)
)

// Classify is the local fallback used when no external classifier answers.
// It scores keyword buckets, punctuation, capitals and emoji. Shouting
// combined with negative or chaotic words reads as chaotic.
func Classify(text string) Classification {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Classification{Kind: Neutral, Intensity: DefaultIntensity}
	}

	var positive, negative, energetic, calm, chaotic int

	for _, token := range tokenize(trimmed) {
		switch {
		case positiveWords[token]:
			positive++
		case negativeWords[token]:
			negative++
		case energeticWords[token]:
			energetic++
		case calmWords[token]:
			calm++
		case chaoticWords[token]:
			chaotic++
		}
	}

	exclamations := strings.Count(trimmed, "!")
	shouting := capsRatio(trimmed) > 0.5
	emoji := countEmoji(trimmed)

	energetic += exclamations + emoji
	if shouting {
		energetic += 2
	}

	positive += emoji

	// aggressive tone doubles whatever chaos is already present
	if (shouting || exclamations >= 2) && (negative > 0 || chaotic > 0) {
		chaotic = chaotic*2 + 2
	}

	switch {
	case chaotic >= 2:
		return classification(Chaotic, 55+chaotic*10)
	case energetic > 2:
		return classification(Energetic, 60+energetic*10)
	case positive > negative:
		return classification(Positive, 50+positive*10)
	case negative > positive:
		return classification(Negative, 50+negative*10)
	case calm > 0:
		return classification(Calm, 40+calm*10)
	}

	return Classification{Kind: Neutral, Intensity: DefaultIntensity}
}

func classification(kind Kind, intensity int) Classification {
	return Classification{Kind: kind, Intensity: ClampIntensity(float64(intensity))}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// share of upper-case letters; short strings never count as shouting
func capsRatio(text string) float64 {
	letters, upper := 0, 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}

		letters++

		if unicode.IsUpper(r) {
			upper++
		}
	}

	if letters < 4 {
		return 0
	}

	return float64(upper) / float64(letters)
}

func countEmoji(text string) int {
	n := 0

	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			n++
		}
	}

	return n
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}

	return set
}
