package learning

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

// MaxRevisionQuestions caps the previously answered questions attached to a review.
const MaxRevisionQuestions = 3

const (
	OutcomeAdvance   = "advance"
	OutcomeReinforce = "reinforce"
)

type ReviewOutput struct {
	TopicProgressID   uuid.UUID                    `json:"topic_progress_id"`
	TopicName         string                       `json:"topic_name"`
	Level             int                          `json:"level"`
	Accuracy          float64                      `json:"accuracy"`
	Summary           string                       `json:"summary"`
	Strengths         []string                     `json:"strengths"`
	Weaknesses        []string                     `json:"weaknesses"`
	RevisionQuestions []aigateway.RevisionQuestion `json:"revision_questions"`
	// Degraded is set when the summary is the fixed fallback text.
	Degraded bool `json:"degraded"`
}

// GetReview summarizes the learner's performance on the current level. It is only available once
// every required insight is completed.
func (u Usecases) GetReview(ctx context.Context, userID, domainID uuid.UUID) (out ReviewOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_review",
		observability.AttributeUserID(userID),
		observability.AttributeDomainID(domainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.write(ctx, "get_review", func(dbc dbctx.Context) error {
		out = ReviewOutput{}
		st, err := u.loadStarted(dbc, userID, domainID, true)
		if err != nil {
			return err
		}
		tp, err := u.currentTopicProgress(dbc, st)
		if err != nil {
			return err
		}
		if !tp.ReviewAvailable() {
			return apierr.PreconditionFailed("review_not_available",
				"completed %d of %d insights for %q level %d",
				tp.CompletedInsightsCount, tp.RequiredInsightsForLevelCompletion, tp.TopicName, tp.Level)
		}

		perf, answered, err := u.reviewPerformance(dbc, userID, tp)
		if err != nil {
			return err
		}
		resp := u.requestReview(dbc.Ctx, aigateway.ReviewRequest{
			UserID:          userID,
			TopicProgressID: tp.ID,
			PerformanceData: perf,
		})

		// Revision questions always come from the learner's own history.
		picked := lo.Shuffle(answered)
		if len(picked) > MaxRevisionQuestions {
			picked = picked[:MaxRevisionQuestions]
		}
		if err := u.deps.Topics.UpdateFields(dbc, tp.ID, map[string]interface{}{
			"last_reviewed_at": u.now(),
		}); err != nil {
			return err
		}

		out = ReviewOutput{
			TopicProgressID:   tp.ID,
			TopicName:         tp.TopicName,
			Level:             tp.Level,
			Accuracy:          perf.Accuracy,
			Summary:           resp.Summary,
			Strengths:         lo.Ternary(resp.Strengths == nil, []string{}, resp.Strengths),
			Weaknesses:        lo.Ternary(resp.Weaknesses == nil, []string{}, resp.Weaknesses),
			RevisionQuestions: lo.Map(picked, func(q *types.Question, _ int) aigateway.RevisionQuestion { return revisionQuestion(q) }),
			Degraded:          resp.Fallback || resp.Summary == aigateway.FallbackReviewSummary,
		}
		return nil
	})
	if err != nil {
		return ReviewOutput{}, err
	}
	return out, nil
}

// reviewPerformance aggregates every answer given in the level. It also returns the distinct
// questions that were answered, in insight order.
func (u Usecases) reviewPerformance(dbc dbctx.Context, userID uuid.UUID, tp *types.TopicProgress) (aigateway.ReviewPerformance, []*types.Question, error) {
	perf := aigateway.ReviewPerformance{
		TopicName:                tp.TopicName,
		Level:                    tp.Level,
		UserID:                   userID,
		CompletedInsightsInLevel: tp.CompletedInsightsCount,
		AnsweredQuestions:        []aigateway.UserAnswerDetail{},
	}
	insights, err := u.deps.Insights.ListByTopicProgress(dbc, tp.ID)
	if err != nil {
		return perf, nil, err
	}
	questions := lo.FlatMap(insights, func(in *types.Insight, _ int) []*types.Question { return in.Questions })
	answers, err := u.deps.Answers.ListByUserAndQuestionIDs(dbc, userID,
		lo.Map(questions, func(q *types.Question, _ int) uuid.UUID { return q.ID }))
	if err != nil {
		return perf, nil, err
	}
	byQuestion := lo.GroupBy(answers, func(a *types.UserAnswer) uuid.UUID { return a.QuestionID })

	answered := make([]*types.Question, 0, len(byQuestion))
	for _, q := range questions {
		rows := byQuestion[q.ID]
		if len(rows) == 0 {
			continue
		}
		answered = append(answered, q)
		for _, a := range rows {
			perf.AnsweredQuestions = append(perf.AnsweredQuestions, answerDetail(q, a))
		}
	}
	perf.TotalQuestionsAnswered = len(perf.AnsweredQuestions)
	perf.TotalCorrectAnswers = lo.CountBy(perf.AnsweredQuestions, func(d aigateway.UserAnswerDetail) bool { return d.IsCorrect })
	if perf.TotalQuestionsAnswered > 0 {
		perf.Accuracy = float64(perf.TotalCorrectAnswers) * 100 / float64(perf.TotalQuestionsAnswered)
	}
	return perf, answered, nil
}

type CompleteReviewInput struct {
	UserID       uuid.UUID
	DomainID     uuid.UUID
	Satisfactory bool
}

type CompleteReviewOutput struct {
	Outcome          string           `json:"outcome"`
	TopicProgressID  uuid.UUID        `json:"topic_progress_id"`
	TopicName        string           `json:"topic_name"`
	Level            int              `json:"level"`
	RequiredInsights int              `json:"required_insights"`
	State            types.LevelState `json:"state"`
}

// CompleteReviewAndAdvance closes the review of the current level. A satisfactory review marks the
// level done and opens level+1 on the same topic; otherwise the level's content is regenerated
// from the learner's answers and its counter starts over. The current topic never changes here.
func (u Usecases) CompleteReviewAndAdvance(ctx context.Context, in CompleteReviewInput) (out CompleteReviewOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "complete_review",
		observability.AttributeUserID(in.UserID),
		observability.AttributeDomainID(in.DomainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.write(ctx, "complete_review", func(dbc dbctx.Context) error {
		out = CompleteReviewOutput{}
		st, err := u.loadStarted(dbc, in.UserID, in.DomainID, true)
		if err != nil {
			return err
		}
		tp, err := u.currentTopicProgress(dbc, st)
		if err != nil {
			return err
		}
		if !tp.ReviewAvailable() {
			return apierr.PreconditionFailed("review_not_available",
				"completed %d of %d insights for %q level %d",
				tp.CompletedInsightsCount, tp.RequiredInsightsForLevelCompletion, tp.TopicName, tp.Level)
		}
		perf, err := u.gatherPerformance(dbc, st.progress, st.domain.Name, tp)
		if err != nil {
			return err
		}
		now := u.now()

		var next *types.TopicProgress
		if in.Satisfactory {
			if err := u.deps.Topics.UpdateFields(dbc, tp.ID, map[string]interface{}{
				"completed_at":     now,
				"last_reviewed_at": now,
			}); err != nil {
				return err
			}
			next, err = u.ensureInsightsForLevel(dbc, ensureInsightsInput{
				Progress:    st.progress,
				DomainName:  st.domain.Name,
				TopicName:   tp.TopicName,
				Level:       tp.Level + 1,
				Performance: perf,
			})
			out.Outcome = OutcomeAdvance
		} else {
			if err := u.deps.Topics.UpdateFields(dbc, tp.ID, map[string]interface{}{
				"completed_insights_count": 0,
				"completed_at":             nil,
				"last_reviewed_at":         now,
				"reinforcement_count":      tp.ReinforcementCount + 1,
			}); err != nil {
				return err
			}
			next, err = u.ensureInsightsForLevel(dbc, ensureInsightsInput{
				Progress:    st.progress,
				DomainName:  st.domain.Name,
				TopicName:   tp.TopicName,
				Level:       tp.Level,
				Performance: perf,
				Regenerate:  true,
			})
			out.Outcome = OutcomeReinforce
		}
		if err != nil {
			return err
		}
		out.TopicProgressID = next.ID
		out.TopicName = next.TopicName
		out.Level = next.Level
		out.RequiredInsights = next.RequiredInsightsForLevelCompletion
		out.State = next.State()
		return nil
	})
	if err != nil {
		return CompleteReviewOutput{}, err
	}
	u.deps.Metrics.IncReviewCompleted(out.Outcome)
	u.deps.Log.Info("review completed", "user_id", in.UserID, "domain_id", in.DomainID,
		"outcome", out.Outcome, "topic", out.TopicName, "level", out.Level)
	return out, nil
}
