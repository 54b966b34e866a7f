package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/insightpath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

func TestDomainRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewDomainRepo(db, testutil.Logger(t))
	aq := NewAssessmentQuestionRepo(db, testutil.Logger(t))

	rows, err := repo.Create(dbc, []*types.Domain{
		{
			Name:     "Chess Strategy & Tactics",
			Category: "Vocational",
			AssessmentQuestions: []*types.AssessmentQuestion{
				{Position: 1, QuestionText: "second", Options: types.EncodeJSON([]string{"x"})},
				{Position: 0, QuestionText: "first", Options: types.EncodeJSON([]string{"y", "z"})},
			},
		},
		{Name: "Algebra", Category: "Science & Mathematics"},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}
	chess := rows[0]

	if got, err := repo.GetByName(dbc, "Chess Strategy & Tactics"); err != nil || got == nil || got.ID != chess.ID {
		t.Fatalf("GetByName: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByName(dbc, "Unknown"); err != nil || got != nil {
		t.Fatalf("GetByName(unknown): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, chess.ID); err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}

	list, err := repo.List(dbc)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: err=%v len=%d", err, len(list))
	}
	if list[0].Name != "Algebra" {
		t.Fatalf("List order: first=%q", list[0].Name)
	}

	qs, err := aq.ListByDomainID(dbc, chess.ID)
	if err != nil || len(qs) != 2 {
		t.Fatalf("ListByDomainID: err=%v len=%d", err, len(qs))
	}
	if qs[0].QuestionText != "first" || len(qs[0].OptionList()) != 2 {
		t.Fatalf("assessment order/options: %+v", qs[0])
	}
	if byID, err := aq.GetByIDs(dbc, []uuid.UUID{qs[1].ID}); err != nil || len(byID) != 1 || byID[0].QuestionText != "second" {
		t.Fatalf("GetByIDs: err=%v rows=%v", err, byID)
	}
}
