package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/insightpath-backend/internal/data/aggregates"
	"github.com/yungbote/insightpath-backend/internal/data/repos"
	"github.com/yungbote/insightpath-backend/internal/data/repos/testutil"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(c.GenericQuestions) != 4 {
		t.Fatalf("expected 4 generic questions, got %d", len(c.GenericQuestions))
	}
	if len(c.Categories) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(c.Categories))
	}
	found := false
	for _, cat := range c.Categories {
		for _, d := range cat.Domains {
			if d.Name == "Chess Strategy & Tactics" {
				found = cat.Name == "Vocational & Practical Skills"
			}
		}
	}
	if !found {
		t.Fatalf("chess domain missing from vocational category")
	}
}

func TestParseRejectsDuplicateDomain(t *testing.T) {
	raw := []byte(`
categories:
  - name: A
    domains: [{name: Go}]
  - name: B
    domains: [{name: Go}]
`)
	if _, err := Parse(raw); err == nil || !strings.Contains(err.Error(), "Go") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestBuildSubstitutesDomainName(t *testing.T) {
	c := &Catalog{GenericQuestions: []Question{{Text: "Why learn [Domain]?", Options: []string{"x"}}}}
	row := c.Build("Languages", Domain{Name: "Learn French", Questions: []Question{{Text: "Bonjour means?"}}})
	if row.Description != "Explore Learn French." {
		t.Fatalf("unexpected default description %q", row.Description)
	}
	if len(row.AssessmentQuestions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(row.AssessmentQuestions))
	}
	if row.AssessmentQuestions[0].QuestionText != "Why learn Learn French?" {
		t.Fatalf("placeholder not replaced: %q", row.AssessmentQuestions[0].QuestionText)
	}
	if got := row.AssessmentQuestions[1].OptionList(); len(got) != 0 {
		t.Fatalf("expected empty options, got %v", got)
	}
	if row.AssessmentQuestions[1].Position != 1 {
		t.Fatalf("positions not sequential")
	}
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.n++
	return nil
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	domains := repos.NewDomainRepo(db, log)
	inv := &countingInvalidator{}
	seeder := NewSeeder(domains, aggregates.NewGormTxRunner(db, 1, nil), inv, log)
	ctx := context.Background()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	created, err := seeder.Seed(ctx, c)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if created != c.DomainCount() {
		t.Fatalf("created=%d want=%d", created, c.DomainCount())
	}
	again, err := seeder.Seed(ctx, c)
	if err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	if again != 0 {
		t.Fatalf("second seed created %d domains", again)
	}
	if inv.n != 1 {
		t.Fatalf("cache invalidated %d times, want 1", inv.n)
	}

	dbc := dbctx.Context{Ctx: ctx}
	all, err := domains.List(dbc)
	if err != nil || len(all) != c.DomainCount() {
		t.Fatalf("count=%d err=%v", len(all), err)
	}
	py, err := domains.GetByName(dbc, "Python Programming")
	if err != nil || py == nil {
		t.Fatalf("python domain missing: %v", err)
	}
	qs, err := repos.NewAssessmentQuestionRepo(db, log).ListByDomainID(dbc, py.ID)
	if err != nil {
		t.Fatalf("ListByDomainID: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("expected 4 generic + 1 concept question, got %d", len(qs))
	}
	if !strings.Contains(qs[0].QuestionText, "Python Programming") {
		t.Fatalf("generic question not personalised: %q", qs[0].QuestionText)
	}
}
