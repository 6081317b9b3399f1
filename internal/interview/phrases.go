// Package interview implements the conversational interview loop: turn
// segmentation over a voice connection, trigger-phrase detection, dialogue
// orchestration against an LLM, and the scripted lines spoken around the
// model's questions.
package interview

import (
	"sort"
	"strings"
)

// CompleteMarker is the sentinel the model appends when it considers the
// interview finished. It is stripped before anything is spoken or displayed
// and is only honoured once the minimum question count is reached.
const CompleteMarker = "[INTERVIEW_COMPLETE]"

// triggerWindow is how far back from the end of an utterance a trigger phrase
// is still accepted, to tolerate trailing filler after the phrase.
const triggerWindow = 50

// advanceTriggers are the phrases that hand the turn back to the interviewer.
// Matched against the end of an utterance.
var advanceTriggers = []string{
	"next question", "next question please", "next", "go to the next question",
	"ready for the next question", "ready for next question", "next one",
	"next one please", "that's my answer", "i'm ready", "im ready",
}

// affirmativePhrases signal "yes, I'm done talking".
var affirmativePhrases = []string{
	"yeah", "yes", "yup", "yep", "yap", "yuh-huh", "uh-huh", "sure", "mmhmm", "mhm",
	"bet", "for sure", "cool", "tight", "you got it", "yuppers", "yip", "oh yeah",
	"hell yeah", "hella", "lets go", "let's go", "lets do it", "let's do it",
	"send it", "do it", "hit me", "do it up", "go on then", "bring it on",
	"bring it", "waiting on you", "affirmative", "absolutely", "of course",
	"i'm waiting on you", "i've been ready", "i was born ready", "i done been ready",
	"well go on then", "whatever", "i don't care", "do whatever you want",
	"whatever's clever", "leggo", "lessgo", "try and stop me", "cha-ching",
	"ka-ching", "i thought you'd never ask", "do it then", "that's it", "that's all",
	"i'm done", "i'm finished", "that's everything", "nothing else", "nope that's it",
	"all good", "good to go", "ready", "go ahead", "proceed", "continue", "move on",
	"fire away", "shoot", "go for it", "yessir", "yes sir", "yes ma'am",
	"yessum", "aye", "aye aye", "roger", "roger that", "copy", "copy that", "10-4",
	"indeed", "correct", "right", "exactly", "precisely", "certainly",
	"definitely", "surely", "okay", "ok", "k", "kk", "alright", "aight", "ight",
}

// negativePhrases signal "no, I'm still talking / let me continue".
var negativePhrases = []string{
	"wait", "hold up", "hold on", "stop", "lemme think", "let me think",
	"i need to think", "i'm still talking", "let me redo", "let me re-do",
	"can you start over", "start over", "what the fuck", "wtf", "ah man", "aw man",
	"mannnn", "let me finish", "i didn't finish", "i didnt finish", "you cut me off",
	"you stepped on me", "you're stepping on my toes", "you're cutting me off",
	"you just cut me off", "again", "stop doing that", "don't talk til i'm finished",
	"i'm not done", "not done yet", "not yet", "hang on", "one sec", "one second",
	"gimme a sec", "give me a second", "no", "nope", "nah", "naw", "negative",
	"not quite", "actually", "well actually", "um", "uh", "uhh", "umm", "hmm",
	"let me", "i want to", "i wanna", "there's more", "also", "and another thing",
	"one more thing", "but wait", "oh and", "plus", "additionally", "furthermore",
	"more to say", "not finished", "still got more", "keep going", "i'll keep going",
	"continuing", "as i was saying", "anyway", "anywho", "so anyway", "back to",
}

// triggersByLength is advanceTriggers sorted longest-first so that stripping
// removes the most specific phrase (e.g. "next question please" before "next").
var triggersByLength = func() []string {
	out := make([]string, len(advanceTriggers))
	copy(out, advanceTriggers)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// ContainsAdvanceTrigger reports whether text ends with (or nearly ends with)
// a phrase that hands the turn back to the interviewer. A trigger is accepted
// either as an exact suffix or anywhere within the last few dozen characters,
// to tolerate trailing filler like "next question ... um yeah".
func ContainsAdvanceTrigger(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, trigger := range advanceTriggers {
		if strings.HasSuffix(lower, trigger) {
			return true
		}
		if len(lower) > len(trigger) {
			tail := lower
			if len(tail) > triggerWindow {
				tail = tail[len(tail)-triggerWindow:]
			}
			if strings.Contains(tail, trigger) {
				return true
			}
		}
	}
	return false
}

// StripAdvanceTrigger removes a trailing trigger phrase from text, longest
// phrase first. When no trigger is present the trimmed input is returned
// unchanged, so stripping is safe to apply unconditionally.
func StripAdvanceTrigger(text string) string {
	if text == "" {
		return text
	}
	clean := strings.TrimSpace(text)
	lower := strings.ToLower(clean)
	for _, trigger := range triggersByLength {
		if strings.HasSuffix(lower, trigger) {
			return strings.TrimSpace(clean[:len(clean)-len(trigger)])
		}
	}
	return clean
}

// IsAffirmative reports whether the utterance indicates the applicant is done
// talking. Both exact matches and substring containment count; callers that
// consult both classifiers decide ambiguity by their own evaluation order.
func IsAffirmative(text string) bool {
	return matchesVocabulary(text, affirmativePhrases)
}

// IsNegative reports whether the utterance indicates the applicant wants to
// keep talking.
func IsNegative(text string) bool {
	return matchesVocabulary(text, negativePhrases)
}

func matchesVocabulary(text string, vocab []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range vocab {
		if lower == phrase || strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
