package learning

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

type NextInsightOutput struct {
	// NoContent means every insight of the current level is completed and review is reachable.
	NoContent bool         `json:"no_content"`
	Insight   *InsightView `json:"insight,omitempty"`
}

// GetNextInsight serves the next uncompleted insight of the current (topic, level): never-shown
// insights first, then the least recently shown, ties broken by relevance.
func (u Usecases) GetNextInsight(ctx context.Context, userID, domainID uuid.UUID) (out NextInsightOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_next_insight",
		observability.AttributeUserID(userID),
		observability.AttributeDomainID(domainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.write(ctx, "get_next_insight", func(dbc dbctx.Context) error {
		out = NextInsightOutput{}
		st, err := u.loadStarted(dbc, userID, domainID, true)
		if err != nil {
			return err
		}
		topic, ok, err := st.progress.CurrentTopic()
		if err != nil {
			return apierr.Internal("learning_path_corrupt", err)
		}
		if !ok {
			return apierr.NotFound("topic_not_found", "topic index %d", st.progress.CurrentTopicIndex)
		}
		tp, err := u.deps.Topics.GetCurrent(dbc, st.progress.ID, topic)
		if err != nil {
			return err
		}
		if tp == nil || !tp.InsightsGenerated {
			level := 1
			if tp != nil {
				level = tp.Level
			}
			if tp, err = u.ensureInsightsForLevel(dbc, ensureInsightsInput{
				Progress:   st.progress,
				DomainName: st.domain.Name,
				TopicName:  topic,
				Level:      level,
			}); err != nil {
				return err
			}
		}
		span.SetAttributes(observability.AttributeTopic(tp.TopicName, tp.Level)...)

		next, err := u.deps.Insights.NextUncompleted(dbc, tp.ID)
		if err != nil {
			return err
		}
		if next == nil {
			out.NoContent = true
			return nil
		}
		now := u.now()
		if err := u.deps.Insights.MarkServed(dbc, next.ID, now); err != nil {
			return err
		}
		next.TimesShown++
		next.LastAccessedAt = &now
		view := insightView(next, tp.TopicName)
		out.Insight = &view
		return nil
	})
	if err != nil {
		return NextInsightOutput{}, err
	}
	if out.Insight != nil {
		u.deps.Metrics.IncInsightServed()
	}
	return out, nil
}

type SubmitAnswerInput struct {
	UserID         uuid.UUID
	QuestionID     uuid.UUID
	SelectedAnswer string
	TimeTakenMs    *int64
}

type SubmitAnswerOutput struct {
	QuestionID    uuid.UUID `json:"question_id"`
	IsCorrect     bool      `json:"is_correct"`
	CorrectAnswer string    `json:"correct_answer"`
	Feedback      string    `json:"feedback"`
	// InsightCompleted is true only for the submission that completed the insight.
	InsightCompleted bool `json:"insight_completed"`
}

// SubmitAnswer grades and records one answer. An insight completes once every one of its
// questions has been answered at least once; its level counter moves exactly once per insight.
func (u Usecases) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (out SubmitAnswerOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "submit_answer",
		observability.AttributeUserID(in.UserID),
		observability.AttributeQuestionID(in.QuestionID),
	)
	defer observability.FinishSpan(span, &err)

	if in.UserID == uuid.Nil {
		return out, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if in.QuestionID == uuid.Nil {
		return out, apierr.Validation("invalid_question_id", "missing question_id")
	}
	if strings.TrimSpace(in.SelectedAnswer) == "" {
		return out, apierr.Validation("missing_answer", "selected answer is empty")
	}
	if in.TimeTakenMs != nil && *in.TimeTakenMs < 0 {
		return out, apierr.Validation("invalid_time_taken", "time taken %d ms", *in.TimeTakenMs)
	}

	err = u.write(ctx, "submit_answer", func(dbc dbctx.Context) error {
		out = SubmitAnswerOutput{}
		q, err := u.deps.Questions.GetByID(dbc, in.QuestionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apierr.NotFound("question_not_found", "question %s", in.QuestionID)
		}
		insight, err := u.deps.Insights.GetByIDWithQuestions(dbc, q.InsightID)
		if err != nil {
			return err
		}
		if insight == nil {
			return apierr.NotFound("question_not_found", "question %s has no insight", in.QuestionID)
		}
		tp, err := u.deps.Topics.GetByIDForUpdate(dbc, insight.TopicProgressID)
		if err != nil {
			return err
		}
		if tp == nil {
			return apierr.NotFound("question_not_found", "question %s has no topic progress", in.QuestionID)
		}
		progress, err := u.deps.Progress.GetByID(dbc, tp.UserDomainProgressID)
		if err != nil {
			return err
		}
		// Questions are generated per learner; someone else's question is reported as unknown.
		if progress == nil || progress.UserID != in.UserID {
			return apierr.NotFound("question_not_found", "question %s", in.QuestionID)
		}

		correct := q.IsCorrect(in.SelectedAnswer)
		if _, err := u.deps.Answers.Create(dbc, []*types.UserAnswer{{
			UserID:         in.UserID,
			QuestionID:     q.ID,
			SelectedAnswer: strings.TrimSpace(in.SelectedAnswer),
			IsCorrect:      correct,
			TimeTakenMs:    in.TimeTakenMs,
			AnsweredAt:     u.now(),
		}}); err != nil {
			return err
		}
		out = SubmitAnswerOutput{
			QuestionID:    q.ID,
			IsCorrect:     correct,
			CorrectAnswer: q.CorrectAnswer,
			Feedback:      q.FeedbackFor(strings.TrimSpace(in.SelectedAnswer), correct),
		}
		if insight.Completed {
			return nil
		}

		questionIDs := lo.Map(insight.Questions, func(iq *types.Question, _ int) uuid.UUID { return iq.ID })
		answered, err := u.deps.Answers.CountDistinctAnsweredQuestions(dbc, in.UserID, questionIDs)
		if err != nil {
			return err
		}
		if int(answered) < len(questionIDs) {
			return nil
		}
		flipped, err := u.deps.Insights.MarkCompleted(dbc, insight.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		if err := u.deps.Topics.IncrementCompleted(dbc, tp.ID); err != nil {
			return err
		}
		out.InsightCompleted = true
		return nil
	})
	if err != nil {
		return SubmitAnswerOutput{}, err
	}
	u.deps.Metrics.IncAnswer(out.IsCorrect)
	if out.InsightCompleted {
		u.deps.Metrics.IncInsightCompleted()
	}
	return out, nil
}

type TopicProgressOutput struct {
	TopicProgressID                uuid.UUID        `json:"topic_progress_id"`
	TopicName                      string           `json:"topic_name"`
	Level                          int              `json:"level"`
	CompletedInsightsCount         int              `json:"completed_insights_count"`
	TotalInsightsInLevel           int              `json:"total_insights_in_level"`
	TotalGeneratedInsightsForTopic int              `json:"total_generated_insights_for_topic"`
	ReviewAvailable                bool             `json:"review_available"`
	State                          types.LevelState `json:"state"`
}

// GetTopicProgress reports the current (topic, level) of a started domain.
func (u Usecases) GetTopicProgress(ctx context.Context, userID, domainID uuid.UUID) (out TopicProgressOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_topic_progress",
		observability.AttributeUserID(userID),
		observability.AttributeDomainID(domainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.read(ctx, "get_topic_progress", func(dbc dbctx.Context) error {
		st, err := u.loadStarted(dbc, userID, domainID, false)
		if err != nil {
			return err
		}
		tp, err := u.currentTopicProgress(dbc, st)
		if err != nil {
			return err
		}
		levels, err := u.deps.Topics.ListByTopic(dbc, st.progress.ID, tp.TopicName)
		if err != nil {
			return err
		}
		total := 0
		for _, l := range levels {
			n, err := u.deps.Insights.CountByTopicProgress(dbc, l.ID)
			if err != nil {
				return err
			}
			total += int(n)
		}
		out = TopicProgressOutput{
			TopicProgressID:                tp.ID,
			TopicName:                      tp.TopicName,
			Level:                          tp.Level,
			CompletedInsightsCount:         tp.CompletedInsightsCount,
			TotalInsightsInLevel:           tp.RequiredInsightsForLevelCompletion,
			TotalGeneratedInsightsForTopic: total,
			ReviewAvailable:                tp.ReviewAvailable(),
			State:                          tp.State(),
		}
		return nil
	})
	if err != nil {
		return TopicProgressOutput{}, err
	}
	return out, nil
}

// currentTopicProgress returns the highest level reached on the current topic.
func (u Usecases) currentTopicProgress(dbc dbctx.Context, st *startedDomain) (*types.TopicProgress, error) {
	topic, ok, err := st.progress.CurrentTopic()
	if err != nil {
		return nil, apierr.Internal("learning_path_corrupt", err)
	}
	if !ok {
		return nil, apierr.NotFound("topic_not_found", "topic index %d", st.progress.CurrentTopicIndex)
	}
	tp, err := u.deps.Topics.GetCurrent(dbc, st.progress.ID, topic)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return nil, apierr.NotFound("topic_progress_not_found", "topic %q not opened", topic)
	}
	return tp, nil
}
