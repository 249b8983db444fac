// Package jobs submits editor content to the execution backend and follows
// the job to a terminal state by polling its status route.
package jobs

import "strings"

// Status values used by the execution backend.
const (
	StatusPushSuccess = "push-success"
	StatusPending     = "pending"
	StatusPopSuccess  = "pop-success"
	StatusPopIssue    = "pop-issue"
)

const DefaultSuccessOutput = "Execution completed"

// Submission is the body of a set-job request.
type Submission struct {
	User      string `json:"user"`
	Filename  string `json:"filename"`
	Language  string `json:"language"`
	Code      string `json:"code"`
	Extension string `json:"extension"`
}

// SubmitResponse acknowledges a submission.
type SubmitResponse struct {
	Status    string `json:"status"`
	StatusURL string `json:"statusUrl"`
	Message   string `json:"message,omitempty"`
}

// Execution is the program outcome reported by a finished job.
type Execution struct {
	Output string `json:"output"`
	Status string `json:"status"`
}

type StatusData struct {
	Response Execution `json:"response"`
}

// StatusResponse is one answer from a job's status route.
type StatusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    *StatusData `json:"data,omitempty"`
}

var languages = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"py":   "python",
	"java": "java",
	"rs":   "rust",
}

// LanguageFromExtension maps a file extension, with or without its leading
// dot, to the backend's language name.
func LanguageFromExtension(ext string) string {
	clean := strings.ToLower(strings.TrimPrefix(ext, "."))
	if lang, ok := languages[clean]; ok {
		return lang
	}
	return "plaintext"
}
