package analysis

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

const systemPrompt = `You are analyzing messages from a personal WhatsApp archive. Be precise and factual. Return only a valid JSON object matching the requested shape. Do not invent content that is not present in the messages. Free-text fields use the language of the messages.`

const sentimentPromptTemplate = `Classify the overall sentiment of this conversation and return a JSON object with exactly these fields:

{
  "sentiment": "positive|negative|neutral|mixed",
  "polarity": 0.0,
  "rationale": "One or two sentences explaining the classification"
}

polarity ranges from -1.0 (very negative) to 1.0 (very positive).

Chat: %s

Messages:
%s`

const topicsPromptTemplate = `List the main topics of this conversation and return a JSON object with exactly these fields:

{
  "topics": [
    {"label": "short topic label", "examples": ["verbatim message showing the topic"]}
  ]
}

Return at most %d topics. Labels are one to three words. Each topic carries one or two verbatim example messages.

Chat: %s

Messages:
%s`

const entitiesPromptTemplate = `Extract the named entities mentioned in this conversation and return a JSON object with exactly these fields:

{
  "people": ["name"],
  "places": ["place"],
  "organizations": ["organization"]
}

Only include entities that literally appear in the message texts. Do not list the message senders themselves.

Chat: %s

Messages:
%s`

// renderMessages flattens sampled messages into prompt lines.
func renderMessages(msgs []search.Result) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString("- [")
		sb.WriteString(m.Sender)
		sb.WriteString("] ")
		sb.WriteString(m.Message)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func sentimentMessages(chatName string, msgs []search.Result) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(sentimentPromptTemplate, chatName, renderMessages(msgs))},
	}
}

func topicsMessages(chatName string, msgs []search.Result, k int) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(topicsPromptTemplate, k, chatName, renderMessages(msgs))},
	}
}

func entitiesMessages(chatName string, msgs []search.Result) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(entitiesPromptTemplate, chatName, renderMessages(msgs))},
	}
}
