package interview

import (
	"regexp"
	"strings"
)

// linkRemovedPlaceholder replaces URLs in displayed text so readers can see
// that a link was dropped rather than silently losing words.
const linkRemovedPlaceholder = "[link removed]"

var (
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	wwwPattern    = regexp.MustCompile(`www\.\S+`)
	domainPattern = regexp.MustCompile(`\S+\.(?:com|org|net|io|gg|co|dev|ai)\S*`)

	checkOutPattern = regexp.MustCompile(`(?i)check out\s+\S+`)
	visitPattern    = regexp.MustCompile(`(?i)visit\s+\S+`)

	starActionPattern       = regexp.MustCompile(`\*[^*]+\*`)
	underscoreActionPattern = regexp.MustCompile(`_[^_]+_`)

	pausePattern   = regexp.MustCompile(`(?i)\[pause\]`)
	sysNotePattern = regexp.MustCompile(`(?i)\[(?:system|note|internal|thinking):[^\]]*\]`)
	// Catch-all for any remaining SHOUTING-style bracketed directives.
	bracketMetaPattern = regexp.MustCompile(`\[[A-Z][A-Z\s]*:[^\]]*\]`)
)

// CleanForSpeech strips everything that must never be read aloud: URLs and
// bare domains, "check out X" / "visit X" references, *asterisk* and
// _underscore_ roleplay actions, and bracketed control markers or system
// notes. Whitespace is collapsed afterwards. The result of a second pass over
// already-cleaned text is identical to the first.
func CleanForSpeech(text string) string {
	// "check out X" / "visit X" run before the URL patterns: removing the URL
	// first would leave the phrase dangling in front of the next word, and a
	// second cleaning pass would then eat that word too.
	cleaned := checkOutPattern.ReplaceAllString(text, "")
	cleaned = visitPattern.ReplaceAllString(cleaned, "")

	cleaned = urlPattern.ReplaceAllString(cleaned, "")
	cleaned = wwwPattern.ReplaceAllString(cleaned, "")
	cleaned = domainPattern.ReplaceAllString(cleaned, "")

	cleaned = starActionPattern.ReplaceAllString(cleaned, "")
	cleaned = underscoreActionPattern.ReplaceAllString(cleaned, "")

	cleaned = strings.ReplaceAll(cleaned, CompleteMarker, "")
	cleaned = pausePattern.ReplaceAllString(cleaned, "")
	cleaned = sysNotePattern.ReplaceAllString(cleaned, "")
	cleaned = bracketMetaPattern.ReplaceAllString(cleaned, "")

	return strings.Join(strings.Fields(cleaned), " ")
}

// CleanForDisplay prepares text for the accessibility channel and the
// transcript: URLs are replaced with a visible placeholder instead of being
// deleted, and the completion marker is removed. Roleplay actions are kept
// since they are harmless in written form.
func CleanForDisplay(text string) string {
	cleaned := urlPattern.ReplaceAllString(text, linkRemovedPlaceholder)
	cleaned = wwwPattern.ReplaceAllString(cleaned, linkRemovedPlaceholder)
	cleaned = domainPattern.ReplaceAllString(cleaned, linkRemovedPlaceholder)
	cleaned = strings.ReplaceAll(cleaned, CompleteMarker, "")
	return strings.TrimSpace(cleaned)
}
