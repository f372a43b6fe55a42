// Package advice produces canned career guidance when the provider cannot
// answer a chat message.
package advice

import "strings"

// Topic is the subject a message was matched to.
type Topic string

const (
	TopicInterview  Topic = "interview"
	TopicResume     Topic = "resume"
	TopicCareer     Topic = "career"
	TopicSalary     Topic = "salary"
	TopicNetworking Topic = "networking"
	TopicGreeting   Topic = "greeting"
	TopicGeneral    Topic = "general"
)

type rule struct {
	topic    Topic
	keywords []string
	reply    string
}

// Rules are checked in order and the first match wins. Matching is by
// substring, so "hi" also matches "this".
var rules = []rule{
	{
		topic:    TopicInterview,
		keywords: []string{"interview", "prepare"},
		reply:    "Great question! For interview preparation, I recommend: 1) Research the company thoroughly, 2) Practice common questions, 3) Prepare your STAR method responses, 4) Dress appropriately, and 5) Bring questions to ask. What specific aspect of interview prep would you like to focus on?",
	},
	{
		topic:    TopicResume,
		keywords: []string{"resume", "cv"},
		reply:    "For resume writing, focus on: 1) Quantifiable achievements, 2) Action verbs, 3) Tailoring to job description, 4) Clean formatting, and 5) Proofreading. Would you like specific tips for your industry or role?",
	},
	{
		topic:    TopicCareer,
		keywords: []string{"career", "job"},
		reply:    "Career development involves: 1) Continuous learning, 2) Networking, 3) Skill development, 4) Goal setting, and 5) Adaptability. What's your current career situation? I can provide more targeted advice.",
	},
	{
		topic:    TopicSalary,
		keywords: []string{"salary", "negotiate", "pay"},
		reply:    "Salary negotiation tips: 1) Research market rates, 2) Know your worth, 3) Practice your pitch, 4) Consider total compensation, and 5) Be confident but flexible. What's your experience level?",
	},
	{
		topic:    TopicNetworking,
		keywords: []string{"network", "connect"},
		reply:    "Networking strategies: 1) Attend industry events, 2) Use LinkedIn effectively, 3) Follow up with contacts, 4) Offer value to others, and 5) Build genuine relationships. What industry are you in?",
	},
	{
		topic:    TopicGreeting,
		keywords: []string{"hello", "hi", "hey"},
		reply:    "Hello! I'm here to help you with interview preparation, career guidance, and professional development. What would you like to know about today?",
	},
}

const defaultReply = "I understand you're asking about professional development. I can help with interview preparation, career advice, resume writing, salary negotiation, networking, and industry insights. What specific topic would you like to explore?"

// Classify returns the topic of message.
func Classify(message string) Topic {
	topic, _ := match(message)
	return topic
}

// Respond returns the canned reply for message.
func Respond(message string) string {
	_, reply := match(message)
	return reply
}

func match(message string) (Topic, string) {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.topic, r.reply
			}
		}
	}
	return TopicGeneral, defaultReply
}
