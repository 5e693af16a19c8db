package secondary

import (
	"context"
	"time"
)

// ErrorKind is the coarse category of a remote failure.
type ErrorKind string

const (
	KindTimeout  ErrorKind = "timeout"
	KindNetwork  ErrorKind = "network"
	KindHTTPAuth ErrorKind = "http_auth"
	KindHTTP     ErrorKind = "http"
	KindRequest  ErrorKind = "request"
)

// ClientError is the typed failure returned by the Canvas client.
type ClientError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Kind       ErrorKind
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// CanvasClient defines the secondary port for the LMS API.
type CanvasClient interface {
	// ListCourses returns the user's active courses.
	ListCourses(ctx context.Context) ([]Course, error)

	// ListAssignmentsDue returns upcoming assignments due within the window.
	ListAssignmentsDue(ctx context.Context, within time.Duration) ([]Assignment, error)

	// GetAssignment returns an assignment, or nil when the API returns no object.
	GetAssignment(ctx context.Context, id int64) (*Assignment, error)

	// ListAccounts returns the accounts visible to the user.
	ListAccounts(ctx context.Context) ([]Account, error)

	// GetBrandingTheme returns the account theme, or nil when empty.
	GetBrandingTheme(ctx context.Context) (*Theme, error)

	// SubmitAssignment submits a file. Currently a stub with no upload.
	SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (map[string]any, error)
}

// ClientProvider hands out a configured client.
type ClientProvider interface {
	// Client returns a client or an error explaining what configuration is missing.
	Client(ctx context.Context) (CanvasClient, error)

	// OptionalClient returns a client when a token is configured, else nil.
	OptionalClient(ctx context.Context) CanvasClient
}

// Course is a Canvas course.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name,omitempty"`
	CourseCode string `json:"course_code,omitempty"`
}

// RubricItem is one rubric criterion as returned by Canvas.
type RubricItem struct {
	Description     string `json:"description,omitempty"`
	Criterion       string `json:"criterion,omitempty"`
	LongDescription string `json:"long_description,omitempty"`
}

// Assignment is a Canvas assignment.
type Assignment struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	DueAt       string       `json:"due_at,omitempty"`
	CourseID    *int64       `json:"course_id,omitempty"`
	Rubric      []RubricItem `json:"rubric,omitempty"`
	HTMLURL     string       `json:"html_url,omitempty"`
}

// Account is a Canvas account.
type Account struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Theme carries the branding fields Canvas may expose.
type Theme struct {
	Logo      string `json:"logo,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
	BrandLogo string `json:"brand_logo,omitempty"`
}
