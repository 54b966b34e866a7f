package learning

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

type AssessmentAnswerInput struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
}

type StartDomainInput struct {
	UserID            uuid.UUID
	DomainID          uuid.UUID
	AssessmentAnswers []AssessmentAnswerInput
}

type StartDomainOutput struct {
	ProgressID        uuid.UUID `json:"progress_id"`
	DomainName        string    `json:"domain_name"`
	Topics            []string  `json:"topics"`
	CurrentTopicIndex int       `json:"current_topic_index"`
	// Resumed is true when an existing path was returned unchanged.
	Resumed bool `json:"resumed"`
}

// StartDomain creates the learner's progress for a domain, asks the collaborator for a learning
// path and prepares level 1 of the first topic. Repeat calls return the stored path.
func (u Usecases) StartDomain(ctx context.Context, in StartDomainInput) (out StartDomainOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "start_domain",
		observability.AttributeUserID(in.UserID),
		observability.AttributeDomainID(in.DomainID),
	)
	defer observability.FinishSpan(span, &err)

	if in.UserID == uuid.Nil {
		return out, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if in.DomainID == uuid.Nil {
		return out, apierr.Validation("invalid_domain_id", "missing domain_id")
	}

	err = u.write(ctx, "start_domain", func(dbc dbctx.Context) error {
		out = StartDomainOutput{}
		user, err := u.deps.Users.GetByID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apierr.NotFound("user_not_found", "user %s", in.UserID)
		}
		domain, err := u.deps.Domains.GetByID(dbc, in.DomainID)
		if err != nil {
			return err
		}
		if domain == nil {
			return apierr.NotFound("domain_not_found", "domain %s", in.DomainID)
		}

		progress, created, err := u.deps.Progress.CreateIfAbsent(dbc, &types.UserDomainProgress{
			UserID:   in.UserID,
			DomainID: in.DomainID,
		})
		if err != nil {
			return err
		}
		if progress == nil {
			return apierr.Internal("progress_create_failed", fmt.Errorf("progress for user %s domain %s not stored", in.UserID, in.DomainID))
		}
		if !created && progress.HasLearningPath() {
			lp, err := progress.Path()
			if err != nil {
				return err
			}
			out = StartDomainOutput{
				ProgressID:        progress.ID,
				DomainName:        domain.Name,
				Topics:            lp.Topics,
				CurrentTopicIndex: progress.CurrentTopicIndex,
				Resumed:           true,
			}
			return nil
		}

		assessment, err := u.resolveAssessment(dbc, domain.ID, in.AssessmentAnswers)
		if err != nil {
			return err
		}
		perf := &aigateway.TopicPerformance{
			UserID:              in.UserID,
			DomainName:          domain.Name,
			AssessmentAnswers:   assessment,
			InsightsPerformance: []aigateway.InsightPerformance{},
		}
		lp := u.requestLearningPath(dbc.Ctx, aigateway.LearningPathRequest{
			DomainName:  domain.Name,
			UserID:      in.UserID,
			Performance: perf,
		})
		progress.LearningPath = types.EncodeJSON(lp)
		progress.AssessmentAnswers = types.EncodeJSON(assessment)
		progress.CurrentTopicIndex = 0
		if err := u.deps.Progress.UpdateFields(dbc, progress.ID, map[string]interface{}{
			"learning_path":       progress.LearningPath,
			"assessment_answers":  progress.AssessmentAnswers,
			"current_topic_index": 0,
		}); err != nil {
			return err
		}

		if _, err := u.ensureInsightsForLevel(dbc, ensureInsightsInput{
			Progress:    progress,
			DomainName:  domain.Name,
			TopicName:   lp.Topics[0],
			Level:       1,
			Performance: perf,
		}); err != nil {
			return err
		}
		out = StartDomainOutput{
			ProgressID:        progress.ID,
			DomainName:        domain.Name,
			Topics:            lp.Topics,
			CurrentTopicIndex: 0,
		}
		return nil
	})
	if err != nil {
		return StartDomainOutput{}, err
	}
	u.deps.Log.Info("domain started", "user_id", in.UserID, "domain_id", in.DomainID, "topics", len(out.Topics), "resumed", out.Resumed)
	return out, nil
}

type SelectTopicInput struct {
	UserID     uuid.UUID
	DomainID   uuid.UUID
	TopicIndex int
}

type SelectTopicOutput struct {
	TopicIndex      int       `json:"topic_index"`
	TopicName       string    `json:"topic_name"`
	Level           int       `json:"level"`
	TopicProgressID uuid.UUID `json:"topic_progress_id"`
}

// SelectTopic moves the learner to another topic of the path at the level already reached there.
func (u Usecases) SelectTopic(ctx context.Context, in SelectTopicInput) (out SelectTopicOutput, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "select_topic",
		observability.AttributeUserID(in.UserID),
		observability.AttributeDomainID(in.DomainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.write(ctx, "select_topic", func(dbc dbctx.Context) error {
		st, err := u.loadStarted(dbc, in.UserID, in.DomainID, true)
		if err != nil {
			return err
		}
		if in.TopicIndex < 0 || in.TopicIndex >= len(st.path.Topics) {
			return apierr.Validation("invalid_topic_index", "topic index %d outside [0,%d)", in.TopicIndex, len(st.path.Topics))
		}
		topic := st.path.Topics[in.TopicIndex]
		if err := u.deps.Progress.UpdateFields(dbc, st.progress.ID, map[string]interface{}{
			"current_topic_index": in.TopicIndex,
		}); err != nil {
			return err
		}
		st.progress.CurrentTopicIndex = in.TopicIndex

		level, err := u.deps.Topics.MaxLevel(dbc, st.progress.ID, topic)
		if err != nil {
			return err
		}
		if level < 1 {
			level = 1
		}
		tp, err := u.ensureInsightsForLevel(dbc, ensureInsightsInput{
			Progress:   st.progress,
			DomainName: st.domain.Name,
			TopicName:  topic,
			Level:      level,
		})
		if err != nil {
			return err
		}
		out = SelectTopicOutput{TopicIndex: in.TopicIndex, TopicName: topic, Level: tp.Level, TopicProgressID: tp.ID}
		return nil
	})
	if err != nil {
		return SelectTopicOutput{}, err
	}
	return out, nil
}

type TopicOverview struct {
	Index             int              `json:"index"`
	TopicName         string           `json:"topic_name"`
	Level             int              `json:"level"`
	CompletedInsights int              `json:"completed_insights"`
	RequiredInsights  int              `json:"required_insights"`
	ReviewAvailable   bool             `json:"review_available"`
	State             types.LevelState `json:"state"`
	Unlocked          bool             `json:"unlocked"`
	Current           bool             `json:"current"`
}

type DomainOverview struct {
	ProgressID        uuid.UUID       `json:"progress_id"`
	DomainID          uuid.UUID       `json:"domain_id"`
	DomainName        string          `json:"domain_name"`
	CurrentTopicIndex int             `json:"current_topic_index"`
	Topics            []TopicOverview `json:"topics"`
}

// GetDomainOverview reports per-topic progress. Topic 0 is always unlocked; any other topic is
// unlocked once the previous topic, or the topic itself, has reached level 2.
func (u Usecases) GetDomainOverview(ctx context.Context, userID, domainID uuid.UUID) (out DomainOverview, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_domain_overview",
		observability.AttributeUserID(userID),
		observability.AttributeDomainID(domainID),
	)
	defer observability.FinishSpan(span, &err)

	err = u.read(ctx, "get_domain_overview", func(dbc dbctx.Context) error {
		st, err := u.loadStarted(dbc, userID, domainID, false)
		if err != nil {
			return err
		}
		rows, err := u.deps.Topics.ListByProgress(dbc, st.progress.ID)
		if err != nil {
			return err
		}
		currentByTopic := lo.MapValues(
			lo.GroupBy(rows, func(tp *types.TopicProgress) string { return tp.TopicName }),
			func(levels []*types.TopicProgress, _ string) *types.TopicProgress {
				return lo.MaxBy(levels, func(a, b *types.TopicProgress) bool { return a.Level > b.Level })
			},
		)

		out = DomainOverview{
			ProgressID:        st.progress.ID,
			DomainID:          st.domain.ID,
			DomainName:        st.domain.Name,
			CurrentTopicIndex: st.progress.CurrentTopicIndex,
			Topics:            make([]TopicOverview, 0, len(st.path.Topics)),
		}
		prevLevel := 0
		for i, topic := range st.path.Topics {
			item := TopicOverview{
				Index:            i,
				TopicName:        topic,
				Level:            1,
				RequiredInsights: types.DefaultRequiredInsights,
				State:            types.LevelActive,
				Current:          i == st.progress.CurrentTopicIndex,
			}
			if tp := currentByTopic[topic]; tp != nil {
				item.Level = tp.Level
				item.CompletedInsights = tp.CompletedInsightsCount
				item.RequiredInsights = tp.RequiredInsightsForLevelCompletion
				item.ReviewAvailable = tp.ReviewAvailable()
				item.State = tp.State()
			}
			item.Unlocked = i == 0 || prevLevel >= 2 || item.Level >= 2
			prevLevel = item.Level
			out.Topics = append(out.Topics, item)
		}
		return nil
	})
	if err != nil {
		return DomainOverview{}, err
	}
	return out, nil
}

// ListDomains returns the catalog, served from the cache when it is warm.
func (u Usecases) ListDomains(ctx context.Context) (out []DomainSummary, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "list_domains")
	defer observability.FinishSpan(span, &err)

	rows, err := u.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(d *types.Domain, _ int) DomainSummary { return domainSummary(d) }), nil
}

// ListDomainsWithStatus flags the domains the user has already started.
func (u Usecases) ListDomainsWithStatus(ctx context.Context, userID uuid.UUID) (out []DomainWithStatus, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "list_domains_with_status", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	rows, err := u.catalog(ctx)
	if err != nil {
		return nil, err
	}
	var started []*types.UserDomainProgress
	err = u.read(ctx, "list_user_progress", func(dbc dbctx.Context) error {
		var err error
		started, err = u.deps.Progress.ListByUser(dbc, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	inProgress := lo.Associate(started, func(p *types.UserDomainProgress) (uuid.UUID, bool) { return p.DomainID, true })
	return lo.Map(rows, func(d *types.Domain, _ int) DomainWithStatus {
		return DomainWithStatus{DomainSummary: domainSummary(d), InProgress: inProgress[d.ID]}
	}), nil
}

// GetAssessmentQuestions lists the fixed questions asked when the domain is started.
func (u Usecases) GetAssessmentQuestions(ctx context.Context, domainID uuid.UUID) (out []AssessmentQuestionView, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_assessment_questions", observability.AttributeDomainID(domainID))
	defer observability.FinishSpan(span, &err)

	err = u.read(ctx, "get_assessment_questions", func(dbc dbctx.Context) error {
		domain, err := u.deps.Domains.GetByID(dbc, domainID)
		if err != nil {
			return err
		}
		if domain == nil {
			return apierr.NotFound("domain_not_found", "domain %s", domainID)
		}
		rows, err := u.deps.Assessment.ListByDomainID(dbc, domainID)
		if err != nil {
			return err
		}
		out = lo.Map(rows, func(q *types.AssessmentQuestion, _ int) AssessmentQuestionView {
			return AssessmentQuestionView{ID: q.ID, QuestionText: q.QuestionText, Options: q.OptionList()}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountCompletedInsights sums completed insights over every topic and level the user touched.
func (u Usecases) CountCompletedInsights(ctx context.Context, userID uuid.UUID) (n int64, err error) {
	err = u.read(ctx, "count_completed_insights", func(dbc dbctx.Context) error {
		n, err = u.deps.Topics.SumCompletedByUser(dbc, userID)
		return err
	})
	return n, err
}

func (u Usecases) catalog(ctx context.Context) ([]*types.Domain, error) {
	if u.deps.Catalog != nil {
		if rows, ok := u.deps.Catalog.Get(ctx); ok {
			return rows, nil
		}
	}
	var rows []*types.Domain
	err := u.read(ctx, "list_domains", func(dbc dbctx.Context) error {
		var err error
		rows, err = u.deps.Domains.List(dbc)
		return err
	})
	if err != nil {
		return nil, err
	}
	if u.deps.Catalog != nil {
		u.deps.Catalog.Set(ctx, rows)
	}
	return rows, nil
}

type startedDomain struct {
	progress *types.UserDomainProgress
	domain   *types.Domain
	path     types.LearningPath
}

// loadStarted resolves a started domain with a non-empty learning path. lock takes the progress
// row for update, serializing writers for one (user, domain).
func (u Usecases) loadStarted(dbc dbctx.Context, userID, domainID uuid.UUID, lock bool) (*startedDomain, error) {
	var (
		progress *types.UserDomainProgress
		err      error
	)
	if lock {
		progress, err = u.deps.Progress.GetByUserAndDomainForUpdate(dbc, userID, domainID)
	} else {
		progress, err = u.deps.Progress.GetByUserAndDomain(dbc, userID, domainID)
	}
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, apierr.NotFound("progress_not_found", "domain %s not started", domainID)
	}
	lp, err := progress.Path()
	if err != nil {
		return nil, apierr.Internal("learning_path_corrupt", err)
	}
	if len(lp.Topics) == 0 {
		return nil, apierr.NotFound("learning_path_not_found", "domain %s has no learning path", domainID)
	}
	domain, err := u.deps.Domains.GetByID(dbc, domainID)
	if err != nil {
		return nil, err
	}
	if domain == nil {
		return nil, apierr.NotFound("domain_not_found", "domain %s", domainID)
	}
	return &startedDomain{progress: progress, domain: domain, path: lp}, nil
}
