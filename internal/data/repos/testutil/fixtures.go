package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/insightpath-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedDomain creates a domain with nQuestions assessment questions.
func SeedDomain(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, nQuestions int) *types.Domain {
	tb.Helper()
	d := &types.Domain{
		ID:          uuid.New(),
		Name:        name,
		Description: "Explore " + name + ".",
		Category:    "Test",
	}
	for i := 0; i < nQuestions; i++ {
		d.AssessmentQuestions = append(d.AssessmentQuestions, &types.AssessmentQuestion{
			Position:     i,
			QuestionText: fmt.Sprintf("Question %d about %s?", i+1, name),
			Options:      types.EncodeJSON([]string{"A", "B", "C"}),
		})
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed domain: %v", err)
	}
	return d
}

// SeedProgress creates a progress record with the given topics as its learning path.
func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, domainID uuid.UUID, domainName string, topics []string) *types.UserDomainProgress {
	tb.Helper()
	p := &types.UserDomainProgress{
		ID:       uuid.New(),
		UserID:   userID,
		DomainID: domainID,
	}
	if topics != nil {
		p.LearningPath = types.EncodeJSON(types.LearningPath{DomainName: domainName, Topics: topics})
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedTopicProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, progressID uuid.UUID, topic string, level, required int) *types.TopicProgress {
	tb.Helper()
	tp := &types.TopicProgress{
		ID:                                 uuid.New(),
		UserDomainProgressID:               progressID,
		TopicName:                          topic,
		Level:                              level,
		RequiredInsightsForLevelCompletion: required,
	}
	if err := tx.WithContext(ctx).Create(tp).Error; err != nil {
		tb.Fatalf("seed topic progress: %v", err)
	}
	return tp
}

// SeedInsight creates an insight with one multiple-choice question whose correct answer is "A".
func SeedInsight(tb testing.TB, ctx context.Context, tx *gorm.DB, topicProgressID uuid.UUID, level, position int, relevance float64) *types.Insight {
	tb.Helper()
	in := &types.Insight{
		ID:              uuid.New(),
		TopicProgressID: topicProgressID,
		Position:        position,
		Title:           fmt.Sprintf("Insight %d", position+1),
		Explanation:     "explanation",
		Level:           level,
		RelevanceScore:  relevance,
		Questions: []*types.Question{{
			QuestionType:  types.QuestionMultipleChoice,
			QuestionText:  "Pick A",
			Options:       types.EncodeJSON([]string{"A", "B"}),
			CorrectAnswer: "A",
		}},
	}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed insight: %v", err)
	}
	return in
}
