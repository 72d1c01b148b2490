package rag

// User-facing messages.
const (
	Title                = "Retrieval Augmented Generation"
	InitFailedMessage    = "Chain initialization failed. Please try again."
	EmptyQuestionMessage = "Query cannot be empty"
)

// HistoryLimit is the number of recent questions shown on the page.
const HistoryLimit = 10

// AskSignals represents the signals sent from the question form.
type AskSignals struct {
	Question string `json:"question"`
}
