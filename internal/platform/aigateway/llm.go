package aigateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/insightpath-backend/internal/platform/llm"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const questionConcurrency = 4

const (
	systemLearningPath = "You are a curriculum designer. Build a learning path for the given domain: " +
		"10-20 unique topic titles that gradually increase in difficulty and cover the domain comprehensively. " +
		"When an initial assessment is supplied, adjust the emphasis or ordering of early topics to the learner, " +
		"but keep the path balanced and generally applicable."
	systemInsights = "You are an instructional designer creating adaptive micro-learning insights. " +
		"Produce 6-10 insights for the given topic and level. Each has a title of about 5-10 words and an " +
		"explanation of 3-5 sentences (about a one-minute read). When performance data is supplied, reinforce " +
		"concepts the learner got wrong and build on what they answered correctly. Keep content general and unbiased."
	systemQuestions = "You are a question writer. Given an insight title and explanation, write about 2 questions " +
		"that check understanding. Each question is MULTIPLE_CHOICE or TRUE_FALSE with exactly one correct answer " +
		"taken from its options; TRUE_FALSE questions use the options True and False. Give short feedback per option."
	systemReview = "You are a tutor preparing a spaced-repetition review. From the performance data write a " +
		"2-3 paragraph summary recapping progress and areas of focus, plus 3-5 strengths and 3-5 weaknesses."
)

// LLMGateway is the in-process collaborator: it prompts an llm.Provider with JSON-schema
// constrained output instead of calling a remote service.
type LLMGateway struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	log         *logger.Logger
}

func NewLLMGateway(provider llm.Provider, maxTokens int, temperature float64, log *logger.Logger) *LLMGateway {
	if log == nil {
		log = logger.NewNop()
	}
	return &LLMGateway{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		log:         log.With("client", "AICollaboratorLLM"),
	}
}

func (g *LLMGateway) Name() string { return "llm:" + g.provider.ModelID() }

func (g *LLMGateway) GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error) {
	payload := map[string]any{"domainName": req.DomainName}
	if !req.Performance.Empty() {
		payload["assessmentAnswers"] = req.Performance.AssessmentAnswers
	}
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := g.generate(llm.WithPurpose(ctx, CallLearningPath), systemLearningPath, payload, learningPathSchema, &out); err != nil {
		return nil, err
	}
	return &LearningPathResponse{DomainName: req.DomainName, Topics: dedupeTopics(out.Topics)}, nil
}

func (g *LLMGateway) GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error) {
	payload := map[string]any{
		"domainName": req.DomainName,
		"topicName":  req.TopicName,
		"level":      req.Level,
	}
	if !req.Performance.Empty() {
		payload["userTopicPerformanceData"] = req.Performance
	}
	var out struct {
		Insights []struct {
			Title       string `json:"title"`
			Explanation string `json:"explanation"`
		} `json:"insights"`
	}
	if err := g.generate(llm.WithPurpose(ctx, CallInsights), systemInsights, payload, insightsSchema, &out); err != nil {
		return nil, err
	}

	insights := make([]InsightDetail, 0, len(out.Insights))
	for _, in := range out.Insights {
		insights = append(insights, InsightDetail{
			Title:       strings.TrimSpace(in.Title),
			Explanation: strings.TrimSpace(in.Explanation),
			AIMetadata:  map[string]any{"model": g.provider.ModelID(), "level": req.Level},
		})
	}
	if len(insights) == 0 {
		g.log.Warn("model returned no insights; using generic insight", "topic", req.TopicName, "level", req.Level)
		insights = append(insights, InsightDetail{
			Title: fmt.Sprintf("Key Concepts of %s", req.TopicName),
			Explanation: fmt.Sprintf("Understanding %s is important. This section will cover fundamental aspects. "+
				"Ensure to review related materials if needed.", req.TopicName),
			AIMetadata: map[string]any{"model": g.provider.ModelID(), "level": req.Level, "generic": true},
		})
	}

	qctx := llm.WithPurpose(ctx, "questions")
	eg, egctx := errgroup.WithContext(qctx)
	eg.SetLimit(questionConcurrency)
	for i := range insights {
		i := i
		eg.Go(func() error {
			qs, err := g.questionsFor(egctx, insights[i])
			if err != nil {
				// One insight without questions should not sink the batch.
				g.log.Warn("question generation failed", "insight", insights[i].Title, "error", err)
				insights[i].Questions = []QuestionDetail{}
				return nil
			}
			insights[i].Questions = qs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return insights, nil
}

func (g *LLMGateway) questionsFor(ctx context.Context, in InsightDetail) ([]QuestionDetail, error) {
	payload := map[string]any{"title": in.Title, "explanation": in.Explanation}
	var out struct {
		Questions []struct {
			QuestionType  string   `json:"questionType"`
			QuestionText  string   `json:"questionText"`
			Options       []string `json:"options"`
			CorrectAnswer string   `json:"correctAnswer"`
			Feedback      []struct {
				Answer   string `json:"answer"`
				Feedback string `json:"feedback"`
			} `json:"feedback"`
		} `json:"questions"`
	}
	if err := g.generate(ctx, systemQuestions, payload, questionsSchema, &out); err != nil {
		return nil, err
	}
	qs := make([]QuestionDetail, 0, len(out.Questions))
	for _, q := range out.Questions {
		fb := make(map[string]string, len(q.Feedback))
		for _, f := range q.Feedback {
			if f.Answer != "" && f.Feedback != "" {
				fb[f.Answer] = f.Feedback
			}
		}
		qs = append(qs, QuestionDetail{
			QuestionType:    q.QuestionType,
			QuestionText:    q.QuestionText,
			Options:         q.Options,
			CorrectAnswer:   q.CorrectAnswer,
			AnswerFeedbacks: fb,
		})
	}
	return qs, nil
}

func (g *LLMGateway) GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	payload := map[string]any{
		"topicName":       req.PerformanceData.TopicName,
		"level":           req.PerformanceData.Level,
		"performanceData": req.PerformanceData,
	}
	var out struct {
		Summary    string   `json:"summary"`
		Strengths  []string `json:"strengths"`
		Weaknesses []string `json:"weaknesses"`
	}
	if err := g.generate(llm.WithPurpose(ctx, CallReview), systemReview, payload, reviewSchema, &out); err != nil {
		return nil, err
	}
	return &ReviewResponse{
		Summary:           out.Summary,
		Strengths:         out.Strengths,
		Weaknesses:        out.Weaknesses,
		RevisionQuestions: []RevisionQuestion{},
	}, nil
}

func (g *LLMGateway) generate(ctx context.Context, system string, payload any, schema *llm.Schema, out any) error {
	prompt, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode prompt: %w", err)
	}
	req := llm.UserPrompt(system, string(prompt), schema, g.maxTokens)
	req.Temperature = g.temperature
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	return llm.Decode(resp, schema, out)
}

func dedupeTopics(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

var learningPathSchema = &llm.Schema{
	Name:        "learning_path",
	Description: "Ordered topics for a learning path",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"minItems": 10,
				"maxItems": 20,
			},
		},
		"required": []any{"topics"},
	},
}

var insightsSchema = &llm.Schema{
	Name:        "insights",
	Description: "Micro-learning insights for one topic level",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"insights": map[string]any{
				"type":     "array",
				"maxItems": 10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string", "minLength": 3},
						"explanation": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []any{"title", "explanation"},
				},
			},
		},
		"required": []any{"insights"},
	},
}

var questionsSchema = &llm.Schema{
	Name:        "questions",
	Description: "Quiz questions for one insight",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"questionType":  map[string]any{"type": "string", "enum": []any{"MULTIPLE_CHOICE", "TRUE_FALSE"}},
						"questionText":  map[string]any{"type": "string", "minLength": 1},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctAnswer": map[string]any{"type": "string", "minLength": 1},
						"feedback": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"answer":   map[string]any{"type": "string"},
									"feedback": map[string]any{"type": "string"},
								},
								"required": []any{"answer", "feedback"},
							},
						},
					},
					"required": []any{"questionType", "questionText", "options", "correctAnswer"},
				},
			},
		},
		"required": []any{"questions"},
	},
}

var reviewSchema = &llm.Schema{
	Name:        "review",
	Description: "Spaced-repetition review of one topic level",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":    map[string]any{"type": "string", "minLength": 1},
			"strengths":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"weaknesses": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"summary", "strengths", "weaknesses"},
	},
}
