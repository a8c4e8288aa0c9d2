package analysis

// Usage accumulates token counts across the LLM calls of one analysis.
type Usage struct {
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost_usd"`
}

// ChatSentiment is the sentiment classification of one chat.
type ChatSentiment struct {
	ChatID    string  `json:"chat_id"`
	ChatName  string  `json:"chat_name"`
	Sentiment string  `json:"sentiment"` // positive, negative, neutral or mixed
	Polarity  float64 `json:"polarity"`  // -1.0 to 1.0
	Rationale string  `json:"rationale"`
	Sampled   int     `json:"sampled_messages"`
}

// SentimentReport aggregates per-chat sentiment classifications.
type SentimentReport struct {
	Chats  []ChatSentiment `json:"chats"`
	Counts map[string]int  `json:"counts"`
	Usage  Usage           `json:"usage"`
}

// Topic is one conversation topic with supporting examples.
type Topic struct {
	Label    string   `json:"label"`
	Chats    int      `json:"chats"` // number of chats where the topic appears
	Examples []string `json:"examples"`
}

// TopicsReport lists the dominant topics across the analyzed chats.
type TopicsReport struct {
	Topics []Topic `json:"topics"`
	Usage  Usage   `json:"usage"`
}

// EntityCount is a named entity with the number of chats mentioning it.
type EntityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// EntitiesReport groups extracted entities by kind.
type EntitiesReport struct {
	People        []EntityCount `json:"people"`
	Places        []EntityCount `json:"places"`
	Organizations []EntityCount `json:"organizations"`
	Usage         Usage         `json:"usage"`
}

// Cluster is one group of semantically similar messages.
type Cluster struct {
	ID       int      `json:"id"`
	Size     int      `json:"size"`
	Cohesion float64  `json:"cohesion"` // mean cosine similarity to the centroid
	Examples []string `json:"examples"` // members closest to the centroid
}
