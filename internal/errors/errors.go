package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeRemoteAPI     ErrorType = "REMOTE_API"
	TypePagination    ErrorType = "PAGINATION"
	TypeObserver      ErrorType = "OBSERVER"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if field, ok := e.Context["field"].(string); ok && field != "" {
			msg += fmt.Sprintf(" [%s]", field)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Configuration errors
var (
	ErrConfigMissing = NewAppError(TypeConfiguration, "Configuration file not found", nil).
				WithSuggestion("Create ~/.issuebot/config.toml or pass --config <path>")

	ErrConfigUnsupportedFormat = NewAppError(TypeConfiguration, "Unsupported configuration format", nil).
					WithSuggestion("Use a .toml, .yaml or .yml file")

	ErrConfigDecode = NewAppError(TypeConfiguration, "Configuration file could not be decoded", nil).
			WithSuggestion("Check the file syntax")

	ErrNoRepositories = NewAppError(TypeConfiguration, "No repositories to monitor", nil).
				WithSuggestion("Add a [[repositories]] entry with organization and name")

	ErrInvalidRepository = NewAppError(TypeConfiguration, "Repository needs both organization and name", nil)

	ErrConflictingCredentials = NewAppError(TypeConfiguration, "Both a token and a username/password pair are configured", nil).
					WithSuggestion("Keep either github.token or github.username + github.password")

	ErrIncompleteCredentials = NewAppError(TypeConfiguration, "A password was configured without a username", nil).
					WithSuggestion("Set github.username or export GITHUB_USERNAME")

	ErrInvalidInterval = NewAppError(TypeConfiguration, "Monitor interval must be greater than zero", nil).
				WithSuggestion("Use a duration such as \"5m\"")

	ErrInvalidPageSize = NewAppError(TypeConfiguration, "per_page must be between 1 and 100", nil)

	ErrInvalidMaxPages = NewAppError(TypeConfiguration, "max_pages cannot be negative", nil)

	ErrUnsupportedLanguage = NewAppError(TypeConfiguration, "Language not supported", nil).
				WithSuggestion("Supported languages: en, es")
)

// Internal errors
var (
	ErrObserverPanic = NewAppError(TypeInternal, "observer panicked", nil)
)
