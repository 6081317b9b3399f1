package interview

import (
	"fmt"
	"os"
	"strings"

	"github.com/stafflens/stafflens/internal/config"
)

// botName labels interviewer lines in the transcript. The analysis prompt
// keys on this label to separate the interviewer from the applicant.
const botName = "StaffLens"

// systemPromptTemplate is the fixed frame around the configurable community
// context. The hard constraints up top exist because every word of the
// model's reply is read aloud.
const systemPromptTemplate = `CRITICAL RULES - READ FIRST:
1. **KEEP IT SHORT** - Maximum 2 sentences per response. One brief reaction + one question. That's it.
2. **NO URLS OR LINKS** - Never include ANY URLs, websites, or web references.
3. **NO ROLEPLAY ACTIONS** - Never use *asterisk actions* like *clears throat*. Just speak.
4. **NO GREETINGS** - The applicant has already been greeted. Jump straight into your question.
5. **NO SYSTEM NOTES** - Never include [SYSTEM:], [NOTE:], [THINKING:], or any bracketed commentary. Your entire response is read aloud.

You are an AI interviewer for a Discord community conducting a voice interview.

%s

YOUR GOALS:
1. Make the applicant comfortable while gathering useful information
2. Assess their personality, communication skills, and culture fit
3. Understand their background and what they can contribute

RESPONSE FORMAT (STRICT):
- Sentence 1: Brief reaction to what they said (optional)
- Sentence 2: Your next question
- THAT'S IT. No more. No paragraphs. No lists. No elaboration.
- DO NOT say "Hello", "Hi", "Welcome", or any greeting - the applicant was already greeted.

GUIDELINES:
- Ask ONE question at a time
- React naturally but BRIEFLY
- If they give short answers, gently probe deeper
- You MUST ask at least 5-6 questions before wrapping up
- Only wrap up after substantial conversation (minimum 6 exchanges)

When ready to end (ONLY after 6+ questions), include "` + CompleteMarker + `" at the end.

Remember: This is VOICE. Keep it conversational and SHORT. NO GREETINGS. DO NOT END EARLY.`

// defaultCommunityContext is used when no prompt is configured.
const defaultCommunityContext = `CONTEXT:
- This is a general Discord community
- You're having a voice conversation (keep responses concise and natural for speech)
- The applicant can hear you speak, so be warm and conversational`

// silenceReminder is spoken at most once per silence gap when the applicant
// said something but went quiet without handing the turn back.
const silenceReminder = "Take your time! When you're finished with your answer, just say 'next question' and I'll move on."

// patiencePrompt is spoken when the applicant has said nothing at all during
// the first exchanges.
const patiencePrompt = "Take your time! I'm here whenever you're ready."

// firstQuestionLead introduces the opening question.
const firstQuestionLead = "Alright, let's begin. First question:"

// transitionLine announces the next question. Phrased to avoid the advance
// trigger vocabulary so the bot's own words can never hand the turn back.
const transitionLine = "Great, thanks for that. Here's another one:"

// SystemPrompt builds the interviewer system prompt from the configured
// community context. PromptFile wins over the inline Prompt; with neither set
// a generic context is used.
func SystemPrompt(cfg config.InterviewConfig) (string, error) {
	context := cfg.Prompt
	if cfg.PromptFile != "" {
		data, err := os.ReadFile(cfg.PromptFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		context = string(data)
	}
	context = strings.TrimSpace(context)
	if context == "" {
		context = defaultCommunityContext
	}
	return fmt.Sprintf(systemPromptTemplate, context), nil
}

// IntroMessage is the scripted greeting spoken when the interview starts. It
// explains the "next question" protocol so the applicant knows how to hand
// the turn back.
func IntroMessage(applicantName string) string {
	return fmt.Sprintf(
		"Hello %s! Welcome. This is the first stage of your application interview. "+
			"I'll be asking you a few questions to get to know you better. "+
			"Keep in mind, I'm an AI bot, so to make this easier on both of us, "+
			"at the end of every answer, please say 'next question', and I'll know to move on. "+
			"Take as long as you need with your answers! "+
			"If you have any questions after we're done, please direct them to the person who set up this interview.",
		applicantName,
	)
}

// ClosingMessage is the scripted sign-off spoken when the interview ends
// naturally.
func ClosingMessage(applicantName string) string {
	return fmt.Sprintf(
		"That concludes our interview, %s. "+
			"Thank you so much for taking the time to speak with me today. "+
			"I'll put together a summary for the team to review. "+
			"If you have any questions, please reach out to the person who set up this interview. "+
			"Take care!",
		applicantName,
	)
}

// initialNudge is the synthetic user message that prompts the model for its
// opening question.
func initialNudge(applicantName string) string {
	return fmt.Sprintf(
		"[SYSTEM: A new applicant named %s has just joined the voice channel. "+
			"Ask your first interview question. Remember to keep it short since this will be spoken aloud.]",
		applicantName,
	)
}
