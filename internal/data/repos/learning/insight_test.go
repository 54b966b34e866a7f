package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/insightpath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

func TestInsightRepoServingOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewInsightRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "insightrepo@example.com")
	d := testutil.SeedDomain(t, ctx, tx, "Insight Domain", 0)
	p := testutil.SeedProgress(t, ctx, tx, u.ID, d.ID, d.Name, []string{"T"})
	tp := testutil.SeedTopicProgress(t, ctx, tx, p.ID, "T", 1, 3)

	low := testutil.SeedInsight(t, ctx, tx, tp.ID, 1, 0, 0.55)
	high := testutil.SeedInsight(t, ctx, tx, tp.ID, 1, 1, 0.95)
	mid := testutil.SeedInsight(t, ctx, tx, tp.ID, 1, 2, 0.75)

	if n, err := repo.CountByTopicProgress(dbc, tp.ID); err != nil || n != 3 {
		t.Fatalf("CountByTopicProgress: n=%d err=%v", n, err)
	}

	next, err := repo.NextUncompleted(dbc, tp.ID)
	if err != nil || next == nil || next.ID != high.ID {
		t.Fatalf("NextUncompleted: want highest relevance, got=%v err=%v", next, err)
	}
	if len(next.Questions) != 1 {
		t.Fatalf("questions not preloaded: %d", len(next.Questions))
	}

	// Shown insights go behind never-shown ones.
	now := time.Now().UTC()
	if err := repo.MarkServed(dbc, high.ID, now); err != nil {
		t.Fatalf("MarkServed: %v", err)
	}
	next, err = repo.NextUncompleted(dbc, tp.ID)
	if err != nil || next == nil || next.ID != mid.ID {
		t.Fatalf("NextUncompleted after serve: got=%v err=%v", next, err)
	}
	if err := repo.MarkServed(dbc, mid.ID, now.Add(time.Second)); err != nil {
		t.Fatalf("MarkServed: %v", err)
	}
	if err := repo.MarkServed(dbc, low.ID, now.Add(2*time.Second)); err != nil {
		t.Fatalf("MarkServed: %v", err)
	}
	next, err = repo.NextUncompleted(dbc, tp.ID)
	if err != nil || next == nil || next.ID != high.ID {
		t.Fatalf("NextUncompleted least recent: got=%v err=%v", next, err)
	}
	if next.TimesShown != 1 {
		t.Fatalf("TimesShown: %d", next.TimesShown)
	}

	flipped, err := repo.MarkCompleted(dbc, high.ID)
	if err != nil || !flipped {
		t.Fatalf("MarkCompleted: flipped=%v err=%v", flipped, err)
	}
	flipped, err = repo.MarkCompleted(dbc, high.ID)
	if err != nil || flipped {
		t.Fatalf("MarkCompleted twice: flipped=%v err=%v", flipped, err)
	}
	next, err = repo.NextUncompleted(dbc, tp.ID)
	if err != nil || next == nil || next.ID != mid.ID {
		t.Fatalf("NextUncompleted skips completed: got=%v err=%v", next, err)
	}
}

func TestInsightRepoDeleteByTopicProgress(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	repo := NewInsightRepo(db, log)
	questions := NewQuestionRepo(db, log)
	answers := NewUserAnswerRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "insightdelete@example.com")
	d := testutil.SeedDomain(t, ctx, tx, "Delete Domain", 0)
	p := testutil.SeedProgress(t, ctx, tx, u.ID, d.ID, d.Name, []string{"T"})
	tp := testutil.SeedTopicProgress(t, ctx, tx, p.ID, "T", 1, 2)
	other := testutil.SeedTopicProgress(t, ctx, tx, p.ID, "T", 2, 2)

	in := testutil.SeedInsight(t, ctx, tx, tp.ID, 1, 0, 0.6)
	kept := testutil.SeedInsight(t, ctx, tx, other.ID, 2, 0, 0.6)

	qs := []*types.Question{in.Questions[0], kept.Questions[0]}
	for _, q := range qs {
		if _, err := answers.Create(dbc, []*types.UserAnswer{{UserID: u.ID, QuestionID: q.ID, SelectedAnswer: "A", IsCorrect: true}}); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	if err := repo.DeleteByTopicProgress(dbc, tp.ID); err != nil {
		t.Fatalf("DeleteByTopicProgress: %v", err)
	}
	if n, _ := repo.CountByTopicProgress(dbc, tp.ID); n != 0 {
		t.Fatalf("insights left: %d", n)
	}
	if n, _ := repo.CountByTopicProgress(dbc, other.ID); n != 1 {
		t.Fatalf("other level touched: %d", n)
	}
	rows, err := answers.ListByUserAndQuestionIDs(dbc, u.ID, []uuid.UUID{qs[0].ID, qs[1].ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("answers after delete: err=%v len=%d", err, len(rows))
	}
	left, err := questions.GetByIDs(dbc, []uuid.UUID{qs[0].ID, qs[1].ID})
	if err != nil || len(left) != 1 || left[0].ID != qs[1].ID {
		t.Fatalf("questions after delete: err=%v rows=%v", err, left)
	}
}

func TestUserAnswerRepoDistinctCount(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	answers := NewUserAnswerRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "answers@example.com")
	q1, q2 := uuid.New(), uuid.New()

	for _, qid := range []uuid.UUID{q1, q1, q2} {
		if _, err := answers.Create(dbc, []*types.UserAnswer{{UserID: u.ID, QuestionID: qid, SelectedAnswer: "B"}}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if n, err := answers.CountDistinctAnsweredQuestions(dbc, u.ID, []uuid.UUID{q1, q2, uuid.New()}); err != nil || n != 2 {
		t.Fatalf("CountDistinctAnsweredQuestions: n=%d err=%v", n, err)
	}
	if rows, err := answers.ListByUserAndQuestionIDs(dbc, u.ID, []uuid.UUID{q1, q2}); err != nil || len(rows) != 3 {
		t.Fatalf("ListByUserAndQuestionIDs: err=%v len=%d", err, len(rows))
	}
}

func TestAICallLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewAICallLogRepo(db, testutil.Logger(t))
	uid := uuid.New()
	if _, err := repo.Create(dbc, []*types.AICallLog{
		{UserID: &uid, CallType: "learning_path", Model: "mock", Success: true},
		{CallType: "review", Model: "mock", Fallback: true, Error: "timeout"},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var rows []*types.AICallLog
	if err := tx.Where("call_type = ?", "review").Find(&rows).Error; err != nil || len(rows) != 1 || !rows[0].Fallback {
		t.Fatalf("review rows: err=%v rows=%v", err, rows)
	}
	if rows[0].ID == uuid.Nil || rows[0].CreatedAt.IsZero() {
		t.Fatalf("row defaults not set: %+v", rows[0])
	}
	var n int64
	if err := tx.Model(&types.AICallLog{}).Where("user_id = ?", uid).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("rows for user: n=%d err=%v", n, err)
	}
}
