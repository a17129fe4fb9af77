package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/video-insight-analyzer/internal/constants"
	"github.com/kapu/video-insight-analyzer/internal/domain"
	"github.com/kapu/video-insight-analyzer/internal/metrics"
	"github.com/kapu/video-insight-analyzer/internal/service/ai"
	apperrors "github.com/kapu/video-insight-analyzer/pkg/errors"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoURL string) (*domain.AudioSource, error)
}

// Analyzer is the shared LLM client handle.
type Analyzer interface {
	ProviderName() string
	Analyze(ctx context.Context, audio *domain.AudioSource) (*ai.Analysis, *ai.GenerateMetadata, error)
}

type DetailsLookup interface {
	VideoDetails(ctx context.Context, videoURL string) (*domain.VideoDetails, error)
}

type Pipeline struct {
	extractor AudioExtractor
	details   DetailsLookup
	logger    *zap.Logger
}

// New builds the pipeline. details may be nil.
func New(extractor AudioExtractor, details DetailsLookup, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		details:   details,
		logger:    logger,
	}
}

// ProcessVideoInsights downloads the audio behind videoURL, sends it to client
// and assembles the result. videoURL must already be syntactically valid.
func (p *Pipeline) ProcessVideoInsights(ctx context.Context, videoURL string, client Analyzer, report domain.StatusReporter) (*domain.AnalysisResult, error) {
	if client == nil {
		return nil, apperrors.NewConfigError("analysis client is not initialized", "client")
	}

	report.Report(1, constants.StatusMessages.Starting)
	report.Report(2, constants.StatusMessages.Extracting)

	audio, err := p.extractor.ExtractAudio(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := audio.Cleanup(); err != nil {
			p.logger.Warn("Failed to remove audio work dir", zap.String("path", audio.Path), zap.Error(err))
		}
	}()

	report.Report(3, fmt.Sprintf(constants.StatusMessages.Sending, client.ProviderName()))

	analysis, metadata, err := client.Analyze(ctx, audio)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Analysis received",
		zap.String("url", videoURL),
		zap.String("provider", metadata.Provider),
		zap.String("model", metadata.Model),
		zap.Float64("clarity_score", analysis.ClarityScore),
		zap.String("communication_focus", analysis.CommunicationFocus),
		zap.Int("transcript_chars", len(analysis.Transcript)),
	)

	report.Report(4, constants.StatusMessages.Structuring)

	return &domain.AnalysisResult{
		ClarityScore:       analysis.ClarityScore,
		CommunicationFocus: analysis.CommunicationFocus,
		Transcript:         analysis.Transcript,
		Video:              p.lookupDetails(ctx, videoURL),
	}, nil
}

// Run executes one pipeline call and folds every way it can end, panics
// included, into a domain.Outcome.
func (p *Pipeline) Run(ctx context.Context, videoURL string, client Analyzer, report domain.StatusReporter) domain.Outcome {
	start := time.Now()

	var (
		result *domain.AnalysisResult
		err    error
	)

	var catcher panics.Catcher
	catcher.Try(func() {
		result, err = p.ProcessVideoInsights(ctx, videoURL, client, report)
	})

	var outcome domain.Outcome
	if recovered := catcher.Recovered(); recovered != nil {
		p.logger.Error("Pipeline panicked",
			zap.String("url", videoURL),
			zap.Any("panic", recovered.Value),
		)
		outcome = domain.UnknownFailed(recovered.AsError(), recovered.String())
	} else {
		outcome = Classify(result, err)
	}

	elapsed := time.Since(start)
	metrics.AnalysesTotal.WithLabelValues(outcome.Kind.String()).Inc()
	metrics.AnalysisDuration.WithLabelValues(outcome.Kind.String()).Observe(elapsed.Seconds())

	fields := []zap.Field{
		zap.String("url", videoURL),
		zap.String("outcome", outcome.Kind.String()),
		zap.Duration("elapsed", elapsed),
	}
	if outcome.Kind == domain.OutcomeSuccess {
		p.logger.Info("Pipeline finished", fields...)
	} else {
		p.logger.Warn("Pipeline failed", append(fields, zap.String("message", outcome.Message))...)
	}

	return outcome
}

// Classify maps a pipeline return onto the closed outcome set.
func Classify(result *domain.AnalysisResult, err error) domain.Outcome {
	if err == nil {
		if result == nil {
			err = errors.New("pipeline returned no result")
			return domain.UnknownFailed(err, errorChain(err))
		}
		return domain.Succeeded(result)
	}

	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return domain.APIFailed(err)
	}

	var processingErr *apperrors.ProcessingError
	if errors.As(err, &processingErr) {
		return domain.ProcessingFailed(err)
	}

	return domain.UnknownFailed(err, errorChain(err))
}

func (p *Pipeline) lookupDetails(ctx context.Context, videoURL string) *domain.VideoDetails {
	if p.details == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, constants.YouTubeConfig.LookupTimeout)
	defer cancel()

	details, err := p.details.VideoDetails(lookupCtx, videoURL)
	if err != nil {
		p.logger.Warn("Video details lookup failed", zap.String("url", videoURL), zap.Error(err))
		return nil
	}
	return details
}

// errorChain renders every wrapped error on its own line with its type.
func errorChain(err error) string {
	var sb strings.Builder
	for depth := 0; err != nil; depth++ {
		if depth > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString("caused by ")
		}
		fmt.Fprintf(&sb, "%T: %s", err, err.Error())
		err = errors.Unwrap(err)
	}
	return sb.String()
}
