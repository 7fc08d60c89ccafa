package transcribe

// Job is the provider's view of a transcription request.
type Job struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Text     string `json:"text,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
}

// SubmitURLRequest submits a transcription job by audio URL.
type SubmitURLRequest struct {
	AudioURL string         `json:"audio_url"`
	Emails   []string       `json:"emails,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url,omitempty"`
}

// StatusResponse reports a job's state and, when complete, its text.
type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
}

// WebhookPayload is the provider's completion callback body.
type WebhookPayload struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
