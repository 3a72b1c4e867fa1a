package models

// ChatRequest is the request body of the assistant endpoint.
type ChatRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

// ChatResponse carries either a free-form reply or a list of tips.
type ChatResponse struct {
	Response string   `json:"response,omitempty"`
	Tips     []string `json:"tips,omitempty"`
}
