package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// analysisKey is where generated analysis text is cached inside the stored
// result payload.
const analysisKey = "_analysis"

const systemInstruction = "You are a machining process engineer. Given summary " +
	"metrics and a time-series excerpt from a cutting simulation, write a concise " +
	"engineering assessment of tool performance, thermal behavior and expected " +
	"tool life. Use plain prose, no markdown."

// SeriesPoint is one sample of the engine's result time series.
type SeriesPoint struct {
	Time            float64 `json:"time"`
	Temperature     float64 `json:"temperature"`
	Stress          float64 `json:"stress"`
	AccumulatedWear float64 `json:"accumulated_wear"`
}

// Metrics summarizes peak values across one result series.
type Metrics struct {
	MaxTemperature    float64
	MaxStress         float64
	MaxWear           float64
	PredictedLifeMins float64
}

// Analyzer post-processes completed results into a narrative report, caching
// at most one successful external call per job.
type Analyzer struct {
	jobs            repository.SimulationRepository
	client          CompletionClient
	logger          *zap.Logger
	maxSeriesPoints int
}

// NewAnalyzer builds an analyzer.
func NewAnalyzer(jobs repository.SimulationRepository, client CompletionClient, logger *zap.Logger, maxSeriesPoints int) *Analyzer {
	if maxSeriesPoints <= 0 {
		maxSeriesPoints = 40
	}
	return &Analyzer{jobs: jobs, client: client, logger: logger, maxSeriesPoints: maxSeriesPoints}
}

// Analyze returns the narrative analysis for a completed job. A cached
// analysis is returned immediately; otherwise the external collaborator is
// called once and its output persisted back into the result payload. A failed
// external call is surfaced to the caller and not cached, so retries remain
// possible.
func (a *Analyzer) Analyze(ctx context.Context, sim *domain.Simulation) (string, error) {
	if sim.Status != domain.SimulationStatusCompleted || sim.Results == nil || *sim.Results == "" {
		return "", apperrors.NewConflict("simulation results not ready for analysis", nil)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*sim.Results), &payload); err != nil {
		return "", apperrors.NewConflict("simulation results are not structured data", nil)
	}

	if cached, ok := payload[analysisKey]; ok {
		var text string
		if err := json.Unmarshal(cached, &text); err == nil && text != "" {
			return text, nil
		}
	}

	var series []SeriesPoint
	if raw, ok := payload["time_series_data"]; ok {
		_ = json.Unmarshal(raw, &series)
	}
	if len(series) == 0 {
		return "", apperrors.NewConflict("simulation results contain no time series", nil)
	}

	metrics := summarize(series, payload)

	text, err := a.client.Complete(ctx, systemInstruction, buildPrompt(metrics, series, a.maxSeriesPoints))
	if err != nil {
		a.logger.Warn("analysis generation failed", zap.String("job_id", sim.ID), zap.Error(err))
		return "", apperrors.NewDependencyFailed("analysis generation failed", err)
	}

	if err := a.cache(ctx, sim.ID, payload, text); err != nil {
		// The text was produced; a cache failure should not hide it.
		a.logger.Error("failed to cache analysis", zap.String("job_id", sim.ID), zap.Error(err))
	}
	return text, nil
}

func (a *Analyzer) cache(ctx context.Context, jobID string, payload map[string]json.RawMessage, text string) error {
	encoded, err := json.Marshal(text)
	if err != nil {
		return err
	}
	payload[analysisKey] = encoded

	updated, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return a.jobs.SetResults(ctx, jobID, string(updated))
}

// summarize scans the series once for peak values.
func summarize(series []SeriesPoint, payload map[string]json.RawMessage) Metrics {
	var m Metrics
	for _, p := range series {
		if p.Temperature > m.MaxTemperature {
			m.MaxTemperature = p.Temperature
		}
		if p.Stress > m.MaxStress {
			m.MaxStress = p.Stress
		}
		if p.AccumulatedWear > m.MaxWear {
			m.MaxWear = p.AccumulatedWear
		}
	}
	if raw, ok := payload["predicted_tool_life_minutes"]; ok {
		_ = json.Unmarshal(raw, &m.PredictedLifeMins)
	}
	return m
}

func buildPrompt(m Metrics, series []SeriesPoint, maxPoints int) string {
	excerpt := series
	if len(excerpt) > maxPoints {
		excerpt = excerpt[:maxPoints]
	}
	excerptJSON, _ := json.Marshal(excerpt)

	var b strings.Builder
	fmt.Fprintf(&b, "Peak temperature: %.2f\n", m.MaxTemperature)
	fmt.Fprintf(&b, "Peak stress: %.2f\n", m.MaxStress)
	fmt.Fprintf(&b, "Peak accumulated wear: %.4f\n", m.MaxWear)
	if m.PredictedLifeMins > 0 {
		fmt.Fprintf(&b, "Predicted tool life (minutes): %.1f\n", m.PredictedLifeMins)
	}
	fmt.Fprintf(&b, "Time series excerpt (first %d points): %s\n", len(excerpt), excerptJSON)
	return b.String()
}
