package research

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/llm"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Driver pipeline constants
const (
	DefaultDriverCount = 8

	// Candidates scoring below this after precondition validation are dropped.
	combinedScoreThreshold = 0.2

	// Combined score weights
	weightRelevance    = 0.30
	weightAlignment    = 0.40
	weightPlausibility = 0.20
	weightEvidence     = 0.10

	// Precondition evidence searches initiated per rolling minute.
	DefaultSearchRatePerMinute = 300
)

// plausibilityWeights maps a dominance scenario's timescale plausibility
// label onto its scoring weight.
var plausibilityWeights = map[string]float64{
	"high":     1.0,
	"medium":   0.7,
	"low":      0.4,
	"very_low": 0.1,
}

const defaultPlausibilityWeight = 0.5

func plausibilityWeight(label string) float64 {
	norm := strings.ToLower(strings.TrimSpace(label))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	if w, ok := plausibilityWeights[norm]; ok {
		return w
	}
	return defaultPlausibilityWeight
}

func emergenceLabel(alignment float64) string {
	switch {
	case alignment >= 0.75:
		return "strong"
	case alignment >= 0.50:
		return "moderate"
	case alignment >= 0.25:
		return "weak"
	default:
		return "very_weak"
	}
}

// combinedScore blends relevance, precondition alignment, timescale
// plausibility and evidence quality into one ranking score.
func combinedScore(relevance, alignment, plausibility, evidenceQuality float64) float64 {
	return weightRelevance*relevance +
		weightAlignment*alignment +
		weightPlausibility*plausibility +
		weightEvidence*evidenceQuality
}

// DriverService runs the five-phase driver discovery pipeline.
type DriverService struct {
	gen      domain.GenerationClient
	searcher domain.SearchClient
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewDriverService(gen domain.GenerationClient, searcher domain.SearchClient, logger *zap.Logger) *DriverService {
	return &DriverService{
		gen:      gen,
		searcher: searcher,
		limiter:  newSearchLimiter(DefaultSearchRatePerMinute),
		logger:   logger,
	}
}

// SetSearchRate changes the precondition search rate limit.
func (s *DriverService) SetSearchRate(perMinute int) {
	s.limiter = newSearchLimiter(perMinute)
}

func newSearchLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
}

// candidateAnalysis is the per-candidate working record threaded through
// phase 3. Each concurrent task writes only to its own precondition slot,
// partitioned by candidate and precondition index.
type candidateAnalysis struct {
	candidate       domain.CandidateDriver
	scenario        domain.DominanceScenario
	preconditions   []domain.Precondition
	alignment       float64
	plausibility    float64
	evidenceQuality float64
	combined        float64
}

// ResearchDrivers runs the full pipeline for a question and returns at most
// targetCount scored drivers plus the precondition analyses gathered along
// the way. priorContext optionally carries base-rate findings into the
// broad scan. Only a phase-1 failure is fatal; every later failure degrades
// the result instead of erroring.
func (s *DriverService) ResearchDrivers(ctx context.Context, q domain.Question, targetCount int, priorContext string) ([]domain.ScoredDriver, []domain.PreconditionAnalysis, error) {
	if targetCount <= 0 {
		targetCount = DefaultDriverCount
	}
	details := q.DetailsMarkdown()

	candidates, err := s.broadScan(ctx, details, priorContext)
	if err != nil {
		return nil, nil, fmt.Errorf("broad scan: %w", err)
	}
	s.logger.Info("phase 1: broad scan complete", zap.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	kept := s.filterCandidates(ctx, details, candidates, targetCount)
	s.logger.Info("phase 2: filtered candidates", zap.Int("kept", len(kept)))

	survivors, analyses := s.validatePreconditions(ctx, details, kept)
	s.logger.Info("phase 3: precondition validation complete",
		zap.Int("survivors", len(survivors)), zap.Int("analyses", len(analyses)))

	scored := s.collectEvidence(ctx, details, survivors)
	s.logger.Info("phase 4: evidence validation complete", zap.Int("validated", len(scored)))

	final := s.scoreAndSelect(ctx, details, scored, targetCount)
	s.logger.Info("phase 5: final selection complete", zap.Int("drivers", len(final)))

	return final, analyses, nil
}

// broadScan asks for 30-50 candidate drivers spanning all STEEP categories.
// Failure here is fatal to the pipeline; retry policy belongs to the client.
func (s *DriverService) broadScan(ctx context.Context, details, priorContext string) ([]domain.CandidateDriver, error) {
	contextBlock := ""
	if priorContext != "" {
		contextBlock = "\nPrior research context:\n" + priorContext + "\n"
	}
	prompt := fmt.Sprintf(llm.BroadScanPrompt, details, contextBlock)
	return llm.Invoke[[]domain.CandidateDriver](ctx, s.gen, prompt)
}

// filterCandidates keeps the top min(len, 2*target) candidates by model
// selection. Out-of-range indices are dropped; duplicate indices are kept
// as returned (idempotent re-selection). If the call fails the fallback is
// the same cut by initial relevance.
func (s *DriverService) filterCandidates(ctx context.Context, details string, candidates []domain.CandidateDriver, targetCount int) []domain.CandidateDriver {
	keep := min(len(candidates), 2*targetCount)

	prompt := fmt.Sprintf(llm.FilterPrompt, details, renderCandidates(candidates), keep)
	indices, err := llm.Invoke[[]int](ctx, s.gen, prompt)
	if err != nil {
		s.logger.Warn("candidate filter failed, falling back to relevance order", zap.Error(err))
		byRelevance := make([]domain.CandidateDriver, len(candidates))
		copy(byRelevance, candidates)
		sort.SliceStable(byRelevance, func(i, j int) bool {
			return byRelevance[i].InitialRelevance > byRelevance[j].InitialRelevance
		})
		return byRelevance[:keep]
	}

	kept := make([]domain.CandidateDriver, 0, keep)
	for _, idx := range indices {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		kept = append(kept, candidates[idx])
		if len(kept) == keep {
			break
		}
	}
	return kept
}

// validatePreconditions is the computational core: per-candidate scenario
// and precondition generation (3a), rate-limited per-precondition evidence
// search and classification (3b), then index-keyed recombination and
// scoring (3c). It returns the surviving analyses sorted by combined score
// plus one PreconditionAnalysis per candidate that completed 3a, including
// those the score threshold later removed.
func (s *DriverService) validatePreconditions(ctx context.Context, details string, kept []domain.CandidateDriver) ([]*candidateAnalysis, []domain.PreconditionAnalysis) {
	// 3a: fan out scenario + precondition generation per candidate.
	results, errs := gather(ctx, kept, func(ctx context.Context, i int, c domain.CandidateDriver) (*candidateAnalysis, error) {
		scenario, err := llm.Invoke[domain.DominanceScenario](ctx, s.gen,
			fmt.Sprintf(llm.DominancePrompt, details, c.Name, c.Category.Title(), c.Mechanism))
		if err != nil {
			return nil, fmt.Errorf("dominance scenario: %w", err)
		}
		preconditions, err := llm.Invoke[[]domain.Precondition](ctx, s.gen,
			fmt.Sprintf(llm.PreconditionsPrompt, details, c.Name, scenario.Description))
		if err != nil {
			return nil, fmt.Errorf("preconditions: %w", err)
		}
		return &candidateAnalysis{candidate: c, scenario: scenario, preconditions: preconditions}, nil
	})

	var analyzed []*candidateAnalysis
	for i, ca := range results {
		if errs[i] != nil {
			s.logger.Warn("candidate dropped during precondition analysis",
				zap.String("driver", kept[i].Name), zap.Error(errs[i]))
			continue
		}
		analyzed = append(analyzed, ca)
	}

	// 3b: flatten every (candidate, precondition) pair into one rate-limited
	// task list. A failed task defaults its precondition to absent.
	type preTask struct {
		ca     *candidateAnalysis
		preIdx int
	}
	var tasks []preTask
	for _, ca := range analyzed {
		for p := range ca.preconditions {
			tasks = append(tasks, preTask{ca: ca, preIdx: p})
		}
	}
	gather(ctx, tasks, func(ctx context.Context, _ int, t preTask) (struct{}, error) {
		if err := s.assessPrecondition(ctx, t.ca, t.preIdx); err != nil {
			t.ca.preconditions[t.preIdx].Status = domain.PreconditionAbsent
			s.logger.Debug("precondition assessment failed, defaulting to absent",
				zap.String("driver", t.ca.candidate.Name),
				zap.Int("precondition", t.preIdx),
				zap.Error(err))
		}
		return struct{}{}, nil
	})

	// 3c: recombine by candidate index and score.
	analyses := make([]domain.PreconditionAnalysis, 0, len(analyzed))
	var survivors []*candidateAnalysis
	for _, ca := range analyzed {
		total := len(ca.preconditions)
		met, cited := 0, 0
		for _, p := range ca.preconditions {
			if p.Status.Met() {
				met++
			}
			if len(p.Citations) > 0 {
				cited++
			}
		}
		if total > 0 {
			ca.alignment = float64(met) / float64(total)
			ca.evidenceQuality = float64(cited) / float64(total)
		}
		ca.plausibility = plausibilityWeight(ca.scenario.TimescalePlausibility)
		ca.combined = combinedScore(ca.candidate.InitialRelevance, ca.alignment, ca.plausibility, ca.evidenceQuality)

		analyses = append(analyses, domain.PreconditionAnalysis{
			DriverName:        ca.candidate.Name,
			DominanceScenario: ca.scenario,
			Preconditions:     ca.preconditions,
			AlignmentScore:    ca.alignment,
			EmergenceLabel:    emergenceLabel(ca.alignment),
		})

		if ca.combined < combinedScoreThreshold {
			s.logger.Debug("candidate below combined score threshold",
				zap.String("driver", ca.candidate.Name), zap.Float64("score", ca.combined))
			continue
		}
		survivors = append(survivors, ca)
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].combined > survivors[j].combined
	})

	return survivors, analyses
}

// assessPrecondition performs one rate-limited evidence search plus the
// status classification call for one precondition. The assessment's index
// is validated against the candidate's precondition list; the result is
// applied to the task's own slot.
func (s *DriverService) assessPrecondition(ctx context.Context, ca *candidateAnalysis, preIdx int) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	pre := &ca.preconditions[preIdx]
	evidence, err := s.searcher.Search(ctx, ca.candidate.Name+" "+pre.Description)
	if err != nil {
		return fmt.Errorf("evidence search: %w", err)
	}

	prompt := fmt.Sprintf(llm.PreconditionStatusPrompt,
		ca.candidate.Name, renderPreconditions(ca.preconditions), preIdx, evidence, preIdx)
	assessment, err := llm.Invoke[domain.PreconditionAssessment](ctx, s.gen, prompt)
	if err != nil {
		return fmt.Errorf("status classification: %w", err)
	}
	if assessment.Index < 0 || assessment.Index >= len(ca.preconditions) {
		return fmt.Errorf("assessment index %d out of range", assessment.Index)
	}

	status, err := domain.ParsePreconditionStatus(assessment.Status)
	if err != nil {
		return err
	}
	pre.Status = status
	pre.EvidenceSummary = assessment.EvidenceSummary
	pre.Citations = assessment.Citations
	return nil
}

// collectEvidence fans out one search plus one signal-extraction call per
// survivor. A candidate yielding zero signals, or whose calls fail, is
// dropped rather than erroring the batch.
func (s *DriverService) collectEvidence(ctx context.Context, details string, survivors []*candidateAnalysis) []domain.ScoredDriver {
	results, errs := gather(ctx, survivors, func(ctx context.Context, i int, ca *candidateAnalysis) (domain.ScoredDriver, error) {
		var zero domain.ScoredDriver

		evidence, err := s.searcher.Search(ctx, ca.candidate.Name+" "+ca.candidate.Mechanism)
		if err != nil {
			return zero, fmt.Errorf("evidence search: %w", err)
		}

		signals, err := llm.Invoke[[]domain.SignalEvidence](ctx, s.gen,
			fmt.Sprintf(llm.SignalsPrompt, ca.candidate.Name, ca.candidate.Category.Title(), details, evidence))
		if err != nil {
			return zero, fmt.Errorf("signal extraction: %w", err)
		}
		if len(signals) == 0 {
			return zero, fmt.Errorf("no supporting signals found")
		}

		return domain.ScoredDriver{
			Name:           ca.candidate.Name,
			Category:       ca.candidate.Category,
			Mechanism:      ca.candidate.Mechanism,
			Directionality: ca.candidate.Directionality,
			Signals:        signals,
		}, nil
	})

	var scored []domain.ScoredDriver
	for i, d := range results {
		if errs[i] != nil {
			s.logger.Warn("candidate dropped during evidence validation",
				zap.String("driver", survivors[i].candidate.Name), zap.Error(errs[i]))
			continue
		}
		scored = append(scored, d)
	}
	return scored
}

// scoreAndSelect scores all validated drivers in one call, mutating the
// placeholder fields in place, then (if needed) asks for the final diverse
// subset. Out-of-range indices in either response are ignored.
func (s *DriverService) scoreAndSelect(ctx context.Context, details string, scored []domain.ScoredDriver, targetCount int) []domain.ScoredDriver {
	if len(scored) == 0 {
		return nil
	}

	listing := renderScoredDrivers(scored)
	assessments, err := llm.Invoke[[]domain.DriverAssessment](ctx, s.gen,
		fmt.Sprintf(llm.ScoreDriversPrompt, details, listing))
	if err != nil {
		s.logger.Warn("driver scoring failed, keeping placeholder assessments", zap.Error(err))
	} else {
		for _, a := range assessments {
			if a.Index < 0 || a.Index >= len(scored) {
				continue
			}
			scored[a.Index].DirectionOfPressure = a.DirectionOfPressure
			scored[a.Index].Strength = a.Strength
			scored[a.Index].Uncertainty = a.Uncertainty
		}
	}

	if len(scored) <= targetCount {
		return scored
	}

	indices, err := llm.Invoke[[]int](ctx, s.gen,
		fmt.Sprintf(llm.SelectDriversPrompt, details, renderScoredDrivers(scored), targetCount))
	if err != nil {
		s.logger.Warn("final driver selection failed, keeping score order", zap.Error(err))
		return scored[:targetCount]
	}

	final := make([]domain.ScoredDriver, 0, targetCount)
	for _, idx := range indices {
		if idx < 0 || idx >= len(scored) {
			continue
		}
		final = append(final, scored[idx])
		if len(final) == targetCount {
			break
		}
	}
	return final
}

func renderCandidates(candidates []domain.CandidateDriver) string {
	lines := make([]string, 0, len(candidates))
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s (relevance: %.2f, %s)\n   Mechanism: %s",
			i, c.Category, c.Name, c.InitialRelevance, c.Directionality, c.Mechanism))
	}
	return strings.Join(lines, "\n")
}

func renderScoredDrivers(drivers []domain.ScoredDriver) string {
	lines := make([]string, 0, len(drivers))
	for i, d := range drivers {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s (%s)\n   Mechanism: %s",
			i, d.Category, d.Name, d.Directionality, d.Mechanism))
	}
	return strings.Join(lines, "\n")
}

func renderPreconditions(preconditions []domain.Precondition) string {
	lines := make([]string, 0, len(preconditions))
	for i, p := range preconditions {
		lines = append(lines, fmt.Sprintf("%d. %s", i, p.Description))
	}
	return strings.Join(lines, "\n")
}
