package learning

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
)

type DomainSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
}

type DomainWithStatus struct {
	DomainSummary
	InProgress bool `json:"in_progress"`
}

type AssessmentQuestionView struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
}

// QuestionView never carries the correct answer or feedback.
type QuestionView struct {
	ID           uuid.UUID          `json:"id"`
	QuestionType types.QuestionType `json:"question_type"`
	QuestionText string             `json:"question_text"`
	Options      []string           `json:"options,omitempty"`
}

type InsightView struct {
	ID          uuid.UUID      `json:"id"`
	TopicName   string         `json:"topic_name"`
	Level       int            `json:"level"`
	Title       string         `json:"title"`
	Explanation string         `json:"explanation"`
	TimesShown  int            `json:"times_shown"`
	Questions   []QuestionView `json:"questions"`
}

func domainSummary(d *types.Domain) DomainSummary {
	return DomainSummary{ID: d.ID, Name: d.Name, Description: d.Description, Category: d.Category}
}

// questionView exposes options for multiple choice only; true/false answers are implied.
func questionView(q *types.Question) QuestionView {
	v := QuestionView{ID: q.ID, QuestionType: q.QuestionType, QuestionText: q.QuestionText}
	if q.QuestionType == types.QuestionMultipleChoice {
		v.Options = q.OptionList()
	}
	return v
}

func insightView(in *types.Insight, topic string) InsightView {
	return InsightView{
		ID:          in.ID,
		TopicName:   topic,
		Level:       in.Level,
		Title:       in.Title,
		Explanation: in.Explanation,
		TimesShown:  in.TimesShown,
		Questions: lo.Map(in.Questions, func(q *types.Question, _ int) QuestionView {
			return questionView(q)
		}),
	}
}

func revisionQuestion(q *types.Question) aigateway.RevisionQuestion {
	v := questionView(q)
	return aigateway.RevisionQuestion{
		QuestionID:   v.ID,
		QuestionType: string(v.QuestionType),
		QuestionText: v.QuestionText,
		Options:      v.Options,
	}
}

// answerDetail pairs a stored answer with its question for collaborator payloads.
func answerDetail(q *types.Question, a *types.UserAnswer) aigateway.UserAnswerDetail {
	return aigateway.UserAnswerDetail{
		QuestionID:     q.ID,
		QuestionText:   q.QuestionText,
		Options:        q.OptionList(),
		SelectedAnswer: a.SelectedAnswer,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      a.IsCorrect,
		TimeTakenMs:    a.TimeTakenMs,
	}
}
