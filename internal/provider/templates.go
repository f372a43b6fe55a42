package provider

import "slices"

// Interview types with a dedicated screening template.
const (
	InterviewTechnical  = "technical"
	InterviewMarketing  = "marketing"
	InterviewBehavioral = "behavioral"
	InterviewLeadership = "leadership"
	InterviewGeneral    = "general"
)

// ChatAssistantName is the name of the agent created by the chat route.
const ChatAssistantName = "InterviewAce Chat Assistant"

const resumeIntegration = "The candidate has provided their resume. Use this information to ask specific, " +
	"personalized questions about their experience, projects, and achievements. Reference their actual work " +
	"history, skills, and accomplishments mentioned in their resume."

type agentTemplate struct {
	name     string
	welcome  string
	sections []ContextSection
}

var chatAssistant = agentTemplate{
	name:    ChatAssistantName,
	welcome: "Hello! I'm your InterviewAce assistant. I can help you with interview preparation, career guidance, and answer questions about various industries. How can I help you today?",
	sections: []ContextSection{
		{Title: "Purpose", Body: "Provide comprehensive interview preparation assistance, career guidance, and industry knowledge through chat-based interactions."},
		{Title: "Capabilities", Body: "Answer questions about interview techniques, industry trends, career advice, resume tips, salary negotiations, and provide personalized guidance based on user's background."},
		{Title: "Knowledge Areas", Body: "Interview preparation, career development, industry insights, resume writing, networking, salary negotiation, company research, and job search strategies."},
		{Title: "Interaction Style", Body: "Be friendly, professional, and helpful. Provide detailed, actionable advice. Ask follow-up questions to better understand user needs. Use examples and real-world scenarios."},
	},
}

// screening describes the parts of an HR screening template that vary by
// interview type. Everything else is shared.
type screening struct {
	name       string
	position   string // "technical position", "" for a plain "application"
	background string // qualifier in "Basic <x>background check"
	assessment string // qualifier in "Quick <x>assessment"
	interview  string // "technical interview"
	questions  string
	resume     string
	criteria   string
}

var screenings = map[string]screening{
	InterviewTechnical: {
		name:       "Technical HR Screening Assistant",
		position:   "technical",
		background: "technical ",
		assessment: "technical ",
		interview:  "technical",
		questions:  "Ask: Current role and experience, Programming languages they know, Years of experience in software development, Why they're interested in this role, One technical challenge they've solved recently.",
		resume:     "If resume is available: Ask specific questions about projects mentioned, technologies listed, achievements, and experience details. Reference their actual work history and skills.",
		criteria:   "If candidate shows: Basic technical knowledge, Clear communication, Relevant experience, Professional demeanor → Schedule them for technical interview. If not → Politely decline and say 'we'll inform you'.",
	},
	InterviewMarketing: {
		name:       "Marketing HR Screening Assistant",
		position:   "marketing",
		background: "marketing ",
		assessment: "marketing ",
		interview:  "marketing",
		questions:  "Ask: Current role and experience, Marketing tools they've used, Years of experience in marketing, Why they're interested in this role, One successful marketing campaign they've worked on.",
		resume:     "If resume is available: Ask specific questions about marketing campaigns mentioned, tools and platforms listed, achievements, and experience details. Reference their actual work history and skills.",
		criteria:   "If candidate shows: Basic marketing knowledge, Clear communication, Relevant experience, Professional demeanor → Schedule them for marketing interview. If not → Politely decline and say 'we'll inform you'.",
	},
	InterviewBehavioral: {
		name:       "Behavioral HR Screening Assistant",
		assessment: "behavioral ",
		interview:  "behavioral",
		questions:  "Ask: Current role and experience, Years of experience, Why they're interested in this role, How they handle workplace challenges, One achievement they're proud of.",
		resume:     "If resume is available: Ask specific questions about roles and responsibilities mentioned, achievements listed, career progression, and experience details. Reference their actual work history.",
		criteria:   "If candidate shows: Professional communication, Relevant experience, Positive attitude, Clear career goals → Schedule them for behavioral interview. If not → Politely decline and say 'we'll inform you'.",
	},
	InterviewLeadership: {
		name:       "Leadership HR Screening Assistant",
		position:   "leadership",
		background: "leadership ",
		assessment: "leadership ",
		interview:  "leadership",
		questions:  "Ask: Current role and team size, Years of leadership experience, Why they're interested in this role, How they motivate their team, One leadership challenge they've overcome.",
		resume:     "If resume is available: Ask specific questions about leadership roles mentioned, team sizes managed, achievements, and experience details. Reference their actual leadership history.",
		criteria:   "If candidate shows: Leadership experience, Professional communication, Strategic thinking, Team management skills → Schedule them for leadership interview. If not → Politely decline and say 'we'll inform you'.",
	},
	InterviewGeneral: {
		name:      "General HR Screening Assistant",
		interview: "general",
		questions: "Ask: Current role and experience, Years of experience, Why they're interested in this role, What they know about the company, Their career goals.",
		resume:    "If resume is available: Ask specific questions about roles and responsibilities mentioned, achievements listed, career progression, and experience details. Reference their actual work history.",
		criteria:  "If candidate shows: Professional communication, Relevant experience, Good attitude, Clear motivation → Schedule them for general interview. If not → Politely decline and say 'we'll inform you'.",
	},
}

func (s screening) template() agentTemplate {
	welcome := "Hello! I'm calling from our HR department regarding your application. This is a brief 5-minute screening call to understand your background and assess your fit for the role. Let's start with your name and what position you applied for."
	if s.position != "" {
		welcome = "Hello! I'm calling from our HR department regarding your " + s.position + " position application. This is a brief 5-minute screening call to understand your background and assess your fit for the role. Let's start with your name and what " + s.position + " position you applied for."
	}

	// The general template invites the candidate to "an interview" on success.
	invite := "a " + s.interview + " interview"
	if s.interview == InterviewGeneral {
		invite = "an interview"
	}

	return agentTemplate{
		name:    s.name,
		welcome: welcome,
		sections: []ContextSection{
			{Title: "Purpose", Body: "Conduct a 5-minute HR screening call to evaluate if the candidate is suitable for a " + s.interview + " interview. This is NOT the actual interview, just a preliminary screening."},
			{Title: "Call Structure", Body: "1. Introduction and verification (1 minute) 2. Basic " + s.background + "background check (2 minutes) 3. Quick " + s.assessment + "assessment (1 minute) 4. Decision and next steps (1 minute). Total call should be exactly 5 minutes."},
			{Title: "Screening Questions", Body: s.questions},
			{Title: "Resume-Based Questions", Body: s.resume},
			{Title: "Evaluation Criteria", Body: s.criteria},
			{Title: "Important Instructions", Body: "IMPORTANT: This is a 5-minute HR SCREENING call, NOT the actual interview. Be professional but friendly. If candidate is suitable, say 'We'd like to schedule you for " + invite + ". Our team will contact you within 24 hours to arrange this.' If not suitable, say 'Thank you for your time. We'll review your application and inform you of our decision.' Keep the call to exactly 5 minutes."},
		},
	}
}

// InterviewTypes lists the interview types that have their own template.
func InterviewTypes() []string {
	return []string{InterviewTechnical, InterviewMarketing, InterviewBehavioral, InterviewLeadership, InterviewGeneral}
}

// NormalizeInterviewType maps unknown types to general. Matching is exact,
// so "Technical" is general too.
func NormalizeInterviewType(interviewType string) string {
	if _, ok := screenings[interviewType]; ok {
		return interviewType
	}
	return InterviewGeneral
}

// NewChatAssistantConfig returns the configuration of the chat assistant agent.
func NewChatAssistantConfig() AgentConfig {
	return newAgentConfig(KindChat, chatAssistant)
}

// NewInterviewConfig returns the voice screening agent for interviewType.
// Unknown types use the general template. With hasResume the agent is told
// to personalize questions from the attached resume.
//
// Every call returns a fresh value; templates are never mutated.
func NewInterviewConfig(interviewType string, hasResume bool) AgentConfig {
	cfg := newAgentConfig(KindVoice, screenings[NormalizeInterviewType(interviewType)].template())
	if hasResume {
		cfg.ContextBreakdown = append(cfg.ContextBreakdown, ContextSection{Title: "Resume Integration", Body: resumeIntegration})
	}
	return cfg
}

func newAgentConfig(kind AgentKind, t agentTemplate) AgentConfig {
	return AgentConfig{
		Kind:             kind,
		Name:             t.name,
		WelcomeMessage:   t.welcome,
		ContextBreakdown: slices.Clone(t.sections),
		Transcriber: Transcriber{
			Provider:         "deepgram_stream",
			Model:            "nova-2",
			SilenceTimeoutMS: 2000,
		},
		Model: ModelSettings{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Voice: Voice{
			Provider: "eleven_labs",
			VoiceID:  "JBFqnCBsd6RMkjVDRZzb",
		},
		WebSearch: WebSearch{
			Enabled:  true,
			Provider: "DuckDuckGo",
		},
		Filler: Filler{
			Enabled:  true,
			AfterSec: 1,
			Fillers:  []string{"Let me think about that", "That's a great question", "I'd like to help you with that"},
		},
	}
}
