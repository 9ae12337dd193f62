package api

import "encoding/json"

// Envelope is the uniform response wrapper used by every backend endpoint.
type Envelope struct {
	Success   bool            `json:"success"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ChatMessage is one question/answer turn as the backend stores it.
type ChatMessage struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	Response     string        `json:"response"`
	Sources      []string      `json:"sources"`
	Timestamp    string        `json:"timestamp"`
	EnhancedInfo *EnhancedInfo `json:"enhanced_info,omitempty"`
}

// ConfidenceInfo is the backend's quality signal for an answer.
type ConfidenceInfo struct {
	Level           string   `json:"level"`
	Score           float64  `json:"score"`
	Explanation     string   `json:"explanation"`
	Recommendations []string `json:"recommendations"`
}

// ContextSummary describes the retrieval context an answer was built from.
type ContextSummary struct {
	TotalDocs  int      `json:"total_docs"`
	TotalChars int      `json:"total_chars"`
	Sources    []string `json:"sources"`
}

// ConversationContext summarizes the memory state of a conversation.
type ConversationContext struct {
	TotalTurns  int    `json:"total_turns"`
	HasSummary  bool   `json:"has_summary"`
	RecentTurns int    `json:"recent_turns"`
	LastUpdated string `json:"last_updated"`
}

// EnhancedInfo carries the structured metadata the backend attaches to an
// assistant answer: classification, latency, confidence and memory context.
type EnhancedInfo struct {
	QueryType           string               `json:"query_type"`
	ComplexityScore     float64              `json:"complexity_score"`
	ProcessingTime      float64              `json:"processing_time"`
	ContextSummary      ContextSummary       `json:"context_summary"`
	Confidence          *ConfidenceInfo      `json:"confidence,omitempty"`
	Recommendations     []string             `json:"recommendations"`
	IsFollowUp          bool                 `json:"is_follow_up"`
	ConversationContext *ConversationContext `json:"conversation_context,omitempty"`
}

// ChatResponse is the payload of POST /chat.
type ChatResponse struct {
	ConversationID string      `json:"conversation_id"`
	Message        ChatMessage `json:"message"`
}

// Conversation is a session summary as returned by GET /conversations.
type Conversation struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message"`
}

// ConversationWithMessages is a full session as returned by
// GET /conversations?id=<id>.
type ConversationWithMessages struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
}

// User is an account as the backend reports it.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// AuthStatus is the payload of GET /auth/status.
type AuthStatus struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// UploadResult is the payload of POST /upload/pdf.
type UploadResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	TextLength int    `json:"text_length"`
	SourceURL  string `json:"source_url"`
	IsNew      bool   `json:"is_new"`
	Message    string `json:"message"`
}

// PDFSource is one ingested document as the database reports it.
type PDFSource struct {
	DocumentHash   string `json:"document_hash"`
	OriginalSource string `json:"original_source"`
	Type           string `json:"type"` // "scraped" or "uploaded"
}

// PDFStats is the document store's inventory: counts by origin, processing
// outcomes, and the ingested sources themselves.
type PDFStats struct {
	TotalPDFs    int `json:"total_pdfs"`
	ScrapedPDFs  int `json:"scraped_pdfs"`
	UploadedPDFs int `json:"uploaded_pdfs"`

	ProcessingStatus struct {
		Success int `json:"success"`
		Failed  int `json:"failed"`
	} `json:"processing_status"`

	RecentAdditions struct {
		Last24h  int `json:"last_24h"`
		LastWeek int `json:"last_week"`
	} `json:"recent_additions"`

	PDFSources []PDFSource `json:"pdf_sources"`
}

// RAGStats is the answering service's usage statistics.
type RAGStats struct {
	TotalQueries           int            `json:"total_queries"`
	AvgProcessingTime      float64        `json:"avg_processing_time"`
	ConfidenceDistribution map[string]int `json:"confidence_distribution"`
	QueryTypeDistribution  map[string]int `json:"query_type_distribution,omitempty"`
}

// MemoryStats is the conversation-memory subsystem's statistics.
type MemoryStats struct {
	CacheSize                 int     `json:"cache_size"`
	ActiveConversations       int     `json:"active_conversations"`
	TotalMemories             int     `json:"total_memories"`
	AverageConversationLength float64 `json:"average_conversation_length"`
	FollowUpRate              float64 `json:"follow_up_rate"`
}
