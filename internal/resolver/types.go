package resolver

// Source identifies the strategy that produced a resolution result.
// Confidence tracks source quality: direct_match(100) >
// normalized_match(95) > fuzzy_match(computed, 80 and up) >
// individual_chat_context(75) > co_occurrence(60-70) > default(0).
type Source string

const (
	SourceDirectMatch           Source = "direct_match"
	SourceNormalizedMatch       Source = "normalized_match"
	SourceFuzzyMatch            Source = "fuzzy_match"
	SourceIndividualChatContext Source = "individual_chat_context"
	SourceCoOccurrence          Source = "co_occurrence"
	SourceManualCorrection      Source = "manual_correction"
	SourceEmptyInput            Source = "empty_input"
	SourceDefault               Source = "default"
	SourceSelf                  Source = "self"
	SourceGroup                 Source = "group"
)

// Result is the outcome of a single contact resolution. DisplayName is
// never empty; unresolvable identifiers carry the fallback name with
// confidence zero.
type Result struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Confidence  int    `json:"confidence"`
	Source      Source `json:"source,omitempty"`
}

// Context carries optional hints for a resolution. A non-empty ChatID
// unlocks the contextual strategies.
type Context struct {
	ChatID    string
	MessageID string
}

// ChatType classifies a chat id.
type ChatType string

const (
	ChatIndividual ChatType = "individual"
	ChatGroup      ChatType = "group"
	ChatUnknown    ChatType = "unknown"
)

// Participant is one resolved member of a group chat.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ChatInfo describes a chat as a message destination.
type ChatInfo struct {
	ChatID       string        `json:"chat_id"`
	DisplayName  string        `json:"display_name"`
	Type         ChatType      `json:"type"`
	Participants []Participant `json:"participants"`
	Confidence   int           `json:"confidence"`
}

// Destination ties a message to its resolved sender, chat and
// recipient.
type Destination struct {
	Sender     Result   `json:"sender"`
	Chat       ChatInfo `json:"chat"`
	Recipient  Result   `json:"recipient"`
	IsOutgoing bool     `json:"is_outgoing"`
}
