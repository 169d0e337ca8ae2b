package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/thomas-vilte/issuebot/internal/models"
)

// RemoteAPIError is returned when fetching the issues of a repository fails,
// either with a non-success HTTP status or before a response was received
// (StatusCode is 0 in that case).
type RemoteAPIError struct {
	Repository models.Repository
	StatusCode int
	URL        string
	Err        error

	// RateLimited is set when the hosting API rejected the call because a
	// primary or secondary rate limit was exhausted.
	RateLimited bool
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote api error [%s]: request to %s failed: %v", e.Repository, e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote api error [%s]: HTTP %d from %s: %v", e.Repository, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("remote api error [%s]: HTTP %d from %s", e.Repository, e.StatusCode, e.URL)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

func NewRemoteAPIError(repo models.Repository, statusCode int, url string, err error) *RemoteAPIError {
	return &RemoteAPIError{
		Repository: repo,
		StatusCode: statusCode,
		URL:        url,
		Err:        err,
	}
}

// IsNotFound reports whether err is a RemoteAPIError for a 404 response.
func IsNotFound(err error) bool {
	var apiErr *RemoteAPIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a RemoteAPIError caused by GitHub's
// primary (403) or secondary (429) rate limits.
func IsRateLimited(err error) bool {
	var apiErr *RemoteAPIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	return apiErr.RateLimited || apiErr.StatusCode == http.StatusTooManyRequests
}

// MalformedLinkError describes a single Link header entry that could not be
// parsed. Such entries are skipped, which ends pagination at the current page
// when the broken entry was the "next" relation.
type MalformedLinkError struct {
	Entry  string
	Reason string
}

func (e *MalformedLinkError) Error() string {
	return fmt.Sprintf("malformed link entry %q: %s", e.Entry, e.Reason)
}

func NewMalformedLinkError(entry, reason string) *MalformedLinkError {
	return &MalformedLinkError{Entry: entry, Reason: reason}
}

// ObserverDispatchError is reported when an observer fails to handle an issue.
type ObserverDispatchError struct {
	Observer string
	Issue    models.Issue
	Err      error
}

func (e *ObserverDispatchError) Error() string {
	return fmt.Sprintf("observer %s failed on %s#%d: %v", e.Observer, e.Issue.Repository, e.Issue.Number, e.Err)
}

func (e *ObserverDispatchError) Unwrap() error {
	return e.Err
}

func NewObserverDispatchError(observer string, issue models.Issue, err error) *ObserverDispatchError {
	return &ObserverDispatchError{
		Observer: observer,
		Issue:    issue,
		Err:      err,
	}
}
