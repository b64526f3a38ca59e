package llm

// braces are avoided on purpose: the ark chain formats these as templates
const classifierSystemPrompt = `You rate the mood of short chat messages written during a collaborative drawing session.

Pick exactly one mood from: positive, negative, neutral, energetic, calm, chaotic.
Rate its intensity from 0 (barely present) to 100 (overwhelming).

Answer with a single JSON object with the keys "mood" (string) and "intensity" (number).
Return ONLY the JSON object, no markdown or explanations.`

const classifierUserPrompt = `Message: {text}`
