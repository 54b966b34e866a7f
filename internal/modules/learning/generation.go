package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

type ensureInsightsInput struct {
	Progress   *types.UserDomainProgress
	DomainName string
	TopicName  string
	Level      int
	// Performance is gathered from the level's own history when nil and generation runs.
	Performance *aigateway.TopicPerformance
	// Regenerate forces new content even when the level already has enough insights.
	Regenerate bool
}

// ensureInsightsForLevel makes sure the (topic, level) row exists and holds generated insights.
// When generation runs, existing insights are replaced and the completion threshold becomes the
// number of insights actually created.
func (u Usecases) ensureInsightsForLevel(dbc dbctx.Context, in ensureInsightsInput) (*types.TopicProgress, error) {
	if in.Progress == nil {
		return nil, fmt.Errorf("ensure insights: nil progress")
	}
	tp, _, err := u.deps.Topics.GetOrCreate(dbc, in.Progress.ID, in.TopicName, in.Level)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return nil, apierr.Validation("invalid_topic", "topic %q level %d", in.TopicName, in.Level)
	}
	existing, err := u.deps.Insights.CountByTopicProgress(dbc, tp.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"insights_generated": true}
	if in.Regenerate || int(existing) < tp.RequiredInsightsForLevelCompletion {
		perf := in.Performance
		if perf == nil {
			if perf, err = u.gatherPerformance(dbc, in.Progress, in.DomainName, tp); err != nil {
				return nil, err
			}
		}
		if existing > 0 {
			if err := u.deps.Insights.DeleteByTopicProgress(dbc, tp.ID); err != nil {
				return nil, err
			}
		}
		details := u.requestInsights(dbc.Ctx, aigateway.InsightsRequest{
			DomainName:      in.DomainName,
			TopicName:       tp.TopicName,
			Level:           tp.Level,
			UserID:          in.Progress.UserID,
			Performance:     perf,
			TopicProgressID: tp.ID,
		})
		rows := u.buildInsights(tp, details)
		if len(rows) > 0 {
			if _, err := u.deps.Insights.Create(dbc, rows); err != nil {
				return nil, err
			}
		}
		u.deps.Metrics.AddInsightsGenerated("ai", len(rows))
		u.deps.Log.Info("generated insights",
			"topic", tp.TopicName,
			"level", tp.Level,
			"replaced", existing,
			"created", len(rows),
			"user_id", in.Progress.UserID,
		)
		updates["required_insights_for_level_completion"] = len(rows)
		updates["completed_insights_count"] = 0
		tp.RequiredInsightsForLevelCompletion = len(rows)
		tp.CompletedInsightsCount = 0
	}
	if err := u.deps.Topics.UpdateFields(dbc, tp.ID, updates); err != nil {
		return nil, err
	}
	tp.InsightsGenerated = true
	return tp, nil
}

// buildInsights turns collaborator output into rows. Insights without a usable question are
// skipped, since they could never be completed.
func (u Usecases) buildInsights(tp *types.TopicProgress, details []aigateway.InsightDetail) []*types.Insight {
	out := make([]*types.Insight, 0, len(details))
	for _, d := range details {
		questions := make([]*types.Question, 0, len(d.Questions))
		for _, q := range d.Questions {
			text := strings.TrimSpace(q.QuestionText)
			correct := strings.TrimSpace(q.CorrectAnswer)
			if text == "" || correct == "" {
				continue
			}
			options := q.Options
			if options == nil {
				options = []string{}
			}
			feedback := q.AnswerFeedbacks
			if feedback == nil {
				feedback = map[string]string{}
			}
			questions = append(questions, &types.Question{
				Position:        len(questions),
				QuestionType:    types.ParseQuestionType(q.QuestionType),
				QuestionText:    text,
				Options:         types.EncodeJSON(options),
				CorrectAnswer:   correct,
				AnswerFeedbacks: types.EncodeJSON(feedback),
			})
		}
		if len(questions) == 0 {
			u.deps.Log.Warn("dropping insight without questions", "topic", tp.TopicName, "title", d.Title)
			continue
		}
		title := strings.TrimSpace(d.Title)
		if title == "" {
			title = fmt.Sprintf("%s insight %d", tp.TopicName, len(out)+1)
		}
		meta := d.AIMetadata
		if meta == nil {
			meta = map[string]any{}
		}
		out = append(out, &types.Insight{
			TopicProgressID: tp.ID,
			Position:        len(out),
			Title:           title,
			Explanation:     d.Explanation,
			AIMetadata:      types.EncodeJSON(meta),
			Level:           tp.Level,
			RelevanceScore:  0.5 + u.deps.Rand()*0.5,
			Questions:       questions,
		})
	}
	return out
}

// gatherPerformance collects every answer the learner gave to the insights of tp, paired with the
// question, plus the stored assessment answers. A nil tp yields the assessment answers only.
func (u Usecases) gatherPerformance(dbc dbctx.Context, progress *types.UserDomainProgress, domainName string, tp *types.TopicProgress) (*aigateway.TopicPerformance, error) {
	perf := &aigateway.TopicPerformance{
		UserID:              progress.UserID,
		DomainName:          domainName,
		AssessmentAnswers:   storedAssessment(progress),
		InsightsPerformance: []aigateway.InsightPerformance{},
	}
	if tp == nil {
		return perf, nil
	}
	perf.TopicName = tp.TopicName
	perf.CurrentLevel = tp.Level

	insights, err := u.deps.Insights.ListByTopicProgress(dbc, tp.ID)
	if err != nil {
		return nil, err
	}
	questionIDs := lo.FlatMap(insights, func(in *types.Insight, _ int) []uuid.UUID {
		return lo.Map(in.Questions, func(q *types.Question, _ int) uuid.UUID { return q.ID })
	})
	answers, err := u.deps.Answers.ListByUserAndQuestionIDs(dbc, progress.UserID, questionIDs)
	if err != nil {
		return nil, err
	}
	byQuestion := lo.GroupBy(answers, func(a *types.UserAnswer) uuid.UUID { return a.QuestionID })

	for _, in := range insights {
		var details []aigateway.UserAnswerDetail
		for _, q := range in.Questions {
			for _, a := range byQuestion[q.ID] {
				details = append(details, answerDetail(q, a))
			}
		}
		if len(details) == 0 {
			continue
		}
		perf.InsightsPerformance = append(perf.InsightsPerformance, aigateway.InsightPerformance{
			InsightID:         in.ID,
			InsightTitle:      in.Title,
			QuestionsAnswered: details,
			TimesShown:        in.TimesShown,
		})
	}
	return perf, nil
}

func storedAssessment(progress *types.UserDomainProgress) []aigateway.AssessmentAnswer {
	out := []aigateway.AssessmentAnswer{}
	if progress == nil || len(progress.AssessmentAnswers) == 0 {
		return out
	}
	if err := json.Unmarshal(progress.AssessmentAnswers, &out); err != nil || out == nil {
		return []aigateway.AssessmentAnswer{}
	}
	return out
}

// resolveAssessment expands submitted answers to the full question text and options. Every id
// must belong to the domain.
func (u Usecases) resolveAssessment(dbc dbctx.Context, domainID uuid.UUID, answers []AssessmentAnswerInput) ([]aigateway.AssessmentAnswer, error) {
	out := make([]aigateway.AssessmentAnswer, 0, len(answers))
	if len(answers) == 0 {
		return out, nil
	}
	ids := lo.Uniq(lo.Map(answers, func(a AssessmentAnswerInput, _ int) uuid.UUID { return a.QuestionID }))
	rows, err := u.deps.Assessment.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(rows, func(q *types.AssessmentQuestion) uuid.UUID { return q.ID })
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || q.DomainID != domainID {
			return nil, apierr.NotFound("assessment_question_not_found", "assessment question %s", a.QuestionID)
		}
		out = append(out, aigateway.AssessmentAnswer{
			QuestionID:     q.ID,
			QuestionText:   q.QuestionText,
			Options:        q.OptionList(),
			SelectedAnswer: a.SelectedAnswer,
		})
	}
	return out, nil
}

type callMemoKey struct{}

type memoResult struct {
	val any
	err error
}

// callMemo holds collaborator results for one engine operation.
type callMemo struct {
	mu      sync.Mutex
	results map[string]memoResult
}

func withCallMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(callMemoKey{}).(*callMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, callMemoKey{}, &callMemo{results: map[string]memoResult{}})
}

// memoized returns the result recorded under key for this operation, calling fn only the first
// time. Without a memo on ctx, fn always runs.
func memoized[T any](ctx context.Context, key string, fn func() (T, error)) (T, error) {
	m, ok := ctx.Value(callMemoKey{}).(*callMemo)
	if !ok {
		return fn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, hit := m.results[key]; hit {
		v, _ := r.val.(T)
		return v, r.err
	}
	v, err := fn()
	m.results[key] = memoResult{val: v, err: err}
	return v, err
}

// The gateway is normally wrapped in the fallback decorator; these helpers apply the same
// fallbacks so a bare adapter can never fail an engine operation.

func (u Usecases) requestLearningPath(ctx context.Context, req aigateway.LearningPathRequest) types.LearningPath {
	resp, err := memoized(ctx, "learning_path|"+req.DomainName, func() (*aigateway.LearningPathResponse, error) {
		return u.deps.AI.GenerateLearningPath(ctx, req)
	})
	topics := []string{}
	if err == nil && resp != nil {
		topics = lo.Filter(lo.Map(resp.Topics, func(t string, _ int) string { return strings.TrimSpace(t) }),
			func(t string, _ int) bool { return t != "" })
	}
	if len(topics) == 0 {
		u.deps.Log.Warn("using fallback learning path", "domain", req.DomainName, "error", err)
		topics = aigateway.FallbackLearningPath(req.DomainName).Topics
	}
	return types.LearningPath{DomainName: req.DomainName, Topics: topics}
}

func (u Usecases) requestInsights(ctx context.Context, req aigateway.InsightsRequest) []aigateway.InsightDetail {
	// Keyed by topic and level: a replay creates the level row again under a new id.
	details, err := memoized(ctx, fmt.Sprintf("insights|%s|%d", req.TopicName, req.Level), func() ([]aigateway.InsightDetail, error) {
		return u.deps.AI.GenerateInsights(ctx, req)
	})
	if err != nil {
		u.deps.Log.Warn("insight generation failed, level left empty",
			"topic", req.TopicName, "level", req.Level, "error", err)
		return aigateway.FallbackInsights()
	}
	if len(details) == 0 {
		u.deps.Log.Warn("collaborator returned no insights", "topic", req.TopicName, "level", req.Level)
	}
	return details
}

func (u Usecases) requestReview(ctx context.Context, req aigateway.ReviewRequest) aigateway.ReviewResponse {
	resp, err := memoized(ctx, "review|"+req.TopicProgressID.String(), func() (*aigateway.ReviewResponse, error) {
		return u.deps.AI.GenerateReview(ctx, req)
	})
	if err != nil || resp == nil {
		u.deps.Log.Warn("using fallback review", "topic_progress_id", req.TopicProgressID, "error", err)
		resp = aigateway.FallbackReview()
	}
	return *resp
}
