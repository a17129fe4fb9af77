package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTemplate    = "index.html"
	resultsTemplate = "results"

	pageTitle       = "Video Insight Analyzer"
	pageDescription = "A simple backend-focused tool to extract communication insights from a public video URL (e.g., YouTube, Loom)."
	urlPlaceholder  = "e.g., https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

// Templates parses the embedded page and results fragment.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type PageData struct {
	Title        string
	Description  string
	ClientReady  bool
	KeyMissing   string
	InitError    string
	VideoURL     string
	Placeholder  string
	RunningLabel string
	Footer       string
	Results      *ResultsView
}

type ResultsView struct {
	Kind    string
	Status  *StatusView
	Alert   *AlertView
	Success *SuccessView
}

type StatusView struct {
	Label string
	State string
	Lines []string
}

type AlertView struct {
	Level   string
	Title   string
	Message string
	Hint    string
	Detail  string
}

type SuccessView struct {
	Clarity      string
	Focus        string
	Transcript   string
	VideoTitle   string
	VideoChannel string
}

func newPageData(app *AppContext, videoURL string) PageData {
	data := PageData{
		Title:        pageTitle,
		Description:  pageDescription,
		ClientReady:  app.ClientReady,
		VideoURL:     videoURL,
		Placeholder:  urlPlaceholder,
		RunningLabel: constants.StatusMessages.Running,
		Footer:       fmt.Sprintf(constants.UIMessages.Footer, app.Provider),
	}
	if !app.ClientReady {
		data.KeyMissing = fmt.Sprintf(constants.UIMessages.KeyMissing, app.APIKeyName)
	}
	if app.InitError != "" {
		data.InitError = fmt.Sprintf(constants.UIMessages.InitFailed, app.Provider, app.InitError)
	}
	return data
}

func invalidURLView() *ResultsView {
	return &ResultsView{
		Kind:  "invalid_input",
		Alert: &AlertView{Level: "error", Message: constants.UIMessages.InvalidURL},
	}
}

// buildResults maps every outcome variant onto its view and HTTP status.
func buildResults(outcome domain.Outcome, provider string, lines []string) (*ResultsView, int) {
	view := &ResultsView{
		Kind: outcome.Kind.String(),
		Status: &StatusView{
			Label: constants.StatusMessages.Running,
			State: "error",
			Lines: lines,
		},
	}

	switch outcome.Kind {
	case domain.OutcomeSuccess:
		result := outcome.Result
		view.Status.Label = constants.StatusMessages.Complete
		view.Status.State = "complete"
		success := &SuccessView{
			Clarity:    result.ClarityPercent(),
			Focus:      result.CommunicationFocus,
			Transcript: result.Transcript,
		}
		if result.Video != nil {
			success.VideoTitle = result.Video.Title
			success.VideoChannel = result.Video.Channel
		}
		view.Success = success
		return view, http.StatusOK

	case domain.OutcomeAPIFailure:
		view.Alert = &AlertView{
			Level:   "error",
			Title:   "API Error:",
			Message: outcome.Message,
			Hint:    fmt.Sprintf(constants.UIMessages.APIErrorHint, provider),
		}
		return view, http.StatusBadGateway

	case domain.OutcomeProcessingFailure:
		view.Alert = &AlertView{
			Level:   "error",
			Title:   "Processing Error:",
			Message: outcome.Message,
			Hint:    constants.UIMessages.ProcessingHint,
		}
		return view, http.StatusUnprocessableEntity

	case domain.OutcomeUnknownFailure:
		view.Alert = unknownAlert(outcome)
		return view, http.StatusInternalServerError

	default:
		view.Kind = domain.OutcomeUnknownFailure.String()
		view.Alert = unknownAlert(domain.Outcome{
			Kind:    domain.OutcomeUnknownFailure,
			Message: fmt.Sprintf("unrecognized outcome %q", outcome.Kind),
		})
		return view, http.StatusInternalServerError
	}
}

func unknownAlert(outcome domain.Outcome) *AlertView {
	return &AlertView{
		Level:   "error",
		Title:   "An unexpected error occurred during processing:",
		Message: outcome.Message,
		Detail:  outcome.Detail,
	}
}

func renderResults(tmpl *template.Template, view *ResultsView) (string, error) {
	if view == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, resultsTemplate, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
