package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/models"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)

	BotEmoji     = "🤖"
	SuccessEmoji = Success.Sprint("✅")
	WarningEmoji = Warning.Sprint("⚠️")
	InfoEmoji    = Info.Sprint("ℹ️")
)

// SmartSpinner draws only when w is an *os.File attached to a terminal.
// Any other writer gets the final Success or Warning line and nothing else.
type SmartSpinner struct {
	spinner *spinner.Spinner
	w       io.Writer
	enabled bool
}

func NewSmartSpinner(w io.Writer, initialMessage string) *SmartSpinner {
	opts := []spinner.Option{
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" " + BotEmoji + " " + initialMessage),
		spinner.WithWriter(w),
	}
	f, isFile := w.(*os.File)
	if isFile {
		opts = append(opts, spinner.WithWriterFile(f))
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, opts...)
	return &SmartSpinner{spinner: s, w: w, enabled: isFile}
}

func (s *SmartSpinner) Start() {
	if s.enabled {
		s.spinner.Start()
	}
}

func (s *SmartSpinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage may be called while the spinner is drawing.
func (s *SmartSpinner) UpdateMessage(msg string) {
	s.spinner.Lock()
	defer s.spinner.Unlock()
	s.spinner.Suffix = " " + BotEmoji + " " + msg
}

func (s *SmartSpinner) Success(msg string) {
	s.Stop()
	PrintSuccess(s.w, msg)
}

func (s *SmartSpinner) Warning(msg string) {
	s.Stop()
	PrintWarning(s.w, msg)
}

func PrintSuccess(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", SuccessEmoji, Success.Sprint(msg))
}

func PrintError(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Error.Sprint("❌"), Error.Sprint(msg))
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", WarningEmoji, Warning.Sprint(msg))
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", InfoEmoji, Info.Sprint(msg))
}

func PrintKeyValue(w io.Writer, key, value string) {
	keyColored := Dim.Sprint(key + ":")
	valueColored := color.New(color.FgWhite, color.Bold).Sprint(value)
	_, _ = fmt.Fprintf(w, "   %s %s\n", keyColored, valueColored)
}

// PrintRepositories lists repositories one per line under header.
func PrintRepositories(w io.Writer, header string, repos []models.Repository) {
	_, _ = fmt.Fprintf(w, "%s %s\n", BotEmoji, Accent.Sprint(header))
	for _, repo := range repos {
		_, _ = fmt.Fprintf(w, "   • %s\n", repo)
	}
}

// WithDuration appends the rounded duration, dimmed, to msg.
func WithDuration(msg string, duration time.Duration) string {
	return msg + " " + Dim.Sprintf("(%s)", duration.Round(10*time.Millisecond))
}

// HandleAppError prints err to w. AppErrors get their type, details and
// suggestion; anything else is printed as a plain error line. If
// translations is nil, English defaults are used.
func HandleAppError(w io.Writer, err error, translations ...*i18n.Translations) {
	if err == nil {
		return
	}

	var t *i18n.Translations
	if len(translations) > 0 && translations[0] != nil {
		t = translations[0]
	}

	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) {
		PrintError(w, err.Error())
		return
	}

	suggestionColor := color.New(color.FgCyan)

	_, _ = fmt.Fprintln(w)
	_, _ = Error.Fprintf(w, "❌ %s: %s\n", appErr.Type, appErr.Message)

	if field, ok := appErr.Context["field"].(string); ok && field != "" {
		_, _ = Dim.Fprintf(w, "   Field: %s\n", field)
	}
	if appErr.Err != nil {
		_, _ = Dim.Fprintf(w, "   Details: %v\n", appErr.Err)
	}

	if appErr.Suggestion != "" {
		_, _ = fmt.Fprintln(w)
		tryPrefix := "Try:"
		if t != nil {
			tryPrefix = t.GetMessage("ui_error_try_suggestion", 0, nil)
		}
		_, _ = suggestionColor.Fprintf(w, "💡 %s ", tryPrefix)
		lines := strings.Split(appErr.Suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				_, _ = fmt.Fprintln(w, line)
			} else {
				_, _ = fmt.Fprintf(w, "       %s\n", line)
			}
		}
	}
	_, _ = fmt.Fprintln(w)
}
