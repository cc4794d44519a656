package dto

type ChatRequest struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language" validate:"omitempty,max=64"`
}

type SourceDTO struct {
	Page    *int   `json:"page,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

type ChatResponse struct {
	SessionId string      `json:"session_id"`
	Response  string      `json:"response"`
	Mode      string      `json:"mode"`
	Sources   []SourceDTO `json:"sources,omitempty"`
}

type ResetSessionRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type TurnResponse struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type ChatHistoryResponse struct {
	SessionId string          `json:"session_id"`
	Mode      string          `json:"mode"`
	Turns     []*TurnResponse `json:"turns"`
}
