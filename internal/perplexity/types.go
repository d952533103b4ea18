package perplexity

// Message is one chat message in a completion request or response.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat-completions payload sent to the answer API. The
// search filters are the hard constraints; the user message carries the
// advisory natural-language instruction.
type Request struct {
	Model                 string    `json:"model"`
	Messages              []Message `json:"messages"`
	SearchDomainFilter    []string  `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter   string    `json:"search_recency_filter,omitempty"`
	SearchAfterDateFilter string    `json:"search_after_date_filter,omitempty"`
}

// Response is the subset of the chat-completions response we consume.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice holds one generated answer.
type Choice struct {
	Message Message `json:"message"`
}
