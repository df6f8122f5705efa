package service

import (
	"context"
	"errors"
	"testing"

	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/repository"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/testutil"
	"github.com/khyeongtaek/startup-BE-sub001/internal/shared/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type engineEnv struct {
	db    *gorm.DB
	repos *repository.Repositories
	svc   *ApprovalService
}

func setupEngine(t *testing.T) *engineEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewApprovalService(db, repos, notify.NopDispatcher{}, zap.NewNop())

	testutil.SeedEmployee(t, db, "emp-creator", "Creator")
	testutil.SeedEmployee(t, db, "emp-a", "Approver A")
	testutil.SeedEmployee(t, db, "emp-b", "Approver B")
	testutil.SeedEmployee(t, db, "emp-c", "Approver C")
	testutil.SeedEmployee(t, db, "emp-cc", "Reference Holder")
	testutil.SeedTemplate(t, db, "tpl-leave", "휴가 신청서", "emp-creator")

	return &engineEnv{db: db, repos: repos, svc: svc}
}

func (e *engineEnv) submit(t *testing.T, approvers []string, references []string) *entity.ApprovalDocument {
	t.Helper()
	doc, err := e.svc.Create(context.Background(), CreateDocumentReq{
		Title:        "연차 사용 신청",
		Content:      "연차 1일 사용",
		TemplateID:   "tpl-leave",
		Submit:       true,
		ApproverIDs:  approvers,
		ReferenceIDs: references,
	}, "emp-creator")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return doc
}

func TestSubmitRoundTrip(t *testing.T) {
	env := setupEngine(t)

	doc := env.submit(t, []string{"emp-a", "emp-b", "emp-c"}, []string{"emp-cc"})

	if doc.Status != entity.DocumentStatusPending {
		t.Errorf("expected status pending, got %s", doc.Status)
	}
	if doc.Title != "연차 사용 신청" || doc.Content != "연차 1일 사용" {
		t.Errorf("submitted fields not reproduced: %q / %q", doc.Title, doc.Content)
	}
	if doc.TemplateID != "tpl-leave" {
		t.Errorf("expected template tpl-leave, got %s", doc.TemplateID)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(doc.Lines))
	}
	wantApprovers := []string{"emp-a", "emp-b", "emp-c"}
	for i, line := range doc.Lines {
		if line.Position != i+1 {
			t.Errorf("line %d: expected position %d, got %d", i, i+1, line.Position)
		}
		if line.ApproverID != wantApprovers[i] {
			t.Errorf("line %d: expected approver %s, got %s", i, wantApprovers[i], line.ApproverID)
		}
		if line.Status != entity.LineStatusPending {
			t.Errorf("line %d: expected pending, got %s", i, line.Status)
		}
	}
	if len(doc.References) != 1 || doc.References[0].EmployeeID != "emp-cc" {
		t.Errorf("expected one reference for emp-cc, got %+v", doc.References)
	}
}

func TestSubmitEmptyApproversFails(t *testing.T) {
	env := setupEngine(t)

	_, err := env.svc.Create(context.Background(), CreateDocumentReq{
		Title:      "빈 결재선",
		TemplateID: "tpl-leave",
		Submit:     true,
	}, "emp-creator")

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var count int64
	env.db.Model(&entity.ApprovalDocument{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no documents persisted, got %d", count)
	}
	env.db.Model(&entity.ApprovalLine{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no lines persisted, got %d", count)
	}
}

func TestCreateWithUnknownTemplateFails(t *testing.T) {
	env := setupEngine(t)

	_, err := env.svc.Create(context.Background(), CreateDocumentReq{
		Title:      "양식 없음",
		TemplateID: "tpl-missing",
	}, "emp-creator")

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateWithDeletedTemplateFails(t *testing.T) {
	env := setupEngine(t)
	if err := env.repos.Template.MarkDeleted(context.Background(), "tpl-leave"); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}

	_, err := env.svc.Create(context.Background(), CreateDocumentReq{
		Title:      "삭제된 양식",
		TemplateID: "tpl-leave",
	}, "emp-creator")

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestApproveAllInOrder(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b", "emp-c"}, nil)

	actors := []string{"emp-a", "emp-b", "emp-c"}
	for i, actor := range actors {
		line := doc.Lines[i]
		updated, err := env.svc.Approve(ctx, doc.ID, line.ID, actor, "확인")
		if err != nil {
			t.Fatalf("approve position %d: %v", i+1, err)
		}
		if i < len(actors)-1 {
			if updated.Status != entity.DocumentStatusPending {
				t.Errorf("after position %d: expected pending, got %s", i+1, updated.Status)
			}
			active := entity.ActiveLine(updated.Lines)
			if active == nil || active.Position != i+2 {
				t.Errorf("after position %d: expected active position %d", i+1, i+2)
			}
		} else {
			if updated.Status != entity.DocumentStatusApproved {
				t.Errorf("expected approved, got %s", updated.Status)
			}
			for _, l := range updated.Lines {
				if l.Status != entity.LineStatusApproved {
					t.Errorf("line %d: expected approved, got %s", l.Position, l.Status)
				}
				if l.DecidedAt == nil {
					t.Errorf("line %d: expected decided_at set", l.Position)
				}
			}
		}
	}
}

func TestApproveOutOfOrderFails(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b"}, nil)

	_, err := env.svc.Approve(ctx, doc.ID, doc.Lines[1].ID, "emp-b", "")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError, got %v", err)
	}

	// state must be unchanged
	after, err := env.svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Status != entity.DocumentStatusPending {
		t.Errorf("expected pending, got %s", after.Status)
	}
	for _, l := range after.Lines {
		if l.Status != entity.LineStatusPending {
			t.Errorf("line %d: expected pending, got %s", l.Position, l.Status)
		}
	}
	if after.Version != doc.Version {
		t.Errorf("expected version unchanged at %d, got %d", doc.Version, after.Version)
	}
}

func TestApproveTwiceFails(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b"}, nil)

	if _, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", ""); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", "")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError on second approve, got %v", err)
	}
}

func TestDecideByWrongActorFails(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b"}, nil)

	_, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-b", "")
	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestRejectSkipsLaterLines(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b", "emp-c"}, nil)

	if _, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", "동의"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := env.svc.Reject(ctx, doc.ID, doc.Lines[1].ID, "emp-b", "근거 부족")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	if updated.Status != entity.DocumentStatusRejected {
		t.Errorf("expected rejected, got %s", updated.Status)
	}
	if updated.Lines[0].Status != entity.LineStatusApproved {
		t.Errorf("line 1: expected approved, got %s", updated.Lines[0].Status)
	}
	if updated.Lines[1].Status != entity.LineStatusRejected {
		t.Errorf("line 2: expected rejected, got %s", updated.Lines[1].Status)
	}
	if updated.Lines[1].Comment != "근거 부족" {
		t.Errorf("line 2: expected comment preserved, got %q", updated.Lines[1].Comment)
	}
	if updated.Lines[2].Status != entity.LineStatusSkipped {
		t.Errorf("line 3: expected skipped, got %s", updated.Lines[2].Status)
	}

	// C can no longer act on the skipped line
	_, err = env.svc.Approve(ctx, doc.ID, doc.Lines[2].ID, "emp-c", "")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError for skipped line, got %v", err)
	}
}

func TestRecallBeforeAnyDecision(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b"}, nil)

	updated, err := env.svc.Recall(ctx, doc.ID, "emp-creator")
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if updated.Status != entity.DocumentStatusRecalled {
		t.Errorf("expected recalled, got %s", updated.Status)
	}
	for _, l := range updated.Lines {
		if l.Status != entity.LineStatusSkipped {
			t.Errorf("line %d: expected skipped, got %s", l.Position, l.Status)
		}
	}

	// terminal: no further decisions
	_, err = env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", "")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError on recalled document, got %v", err)
	}
}

func TestRecallAfterDecisionFails(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-b"}, nil)
	if _, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := env.svc.Recall(ctx, doc.ID, "emp-creator")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestRecallByNonCreatorFails(t *testing.T) {
	env := setupEngine(t)

	doc := env.submit(t, []string{"emp-a"}, nil)

	_, err := env.svc.Recall(context.Background(), doc.ID, "emp-a")
	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestDuplicateApproverIsTwoSteps(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a", "emp-a"}, nil)
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}

	updated, err := env.svc.Approve(ctx, doc.ID, doc.Lines[0].ID, "emp-a", "1차")
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if updated.Status != entity.DocumentStatusPending {
		t.Errorf("expected pending after first step, got %s", updated.Status)
	}

	updated, err = env.svc.Approve(ctx, doc.ID, doc.Lines[1].ID, "emp-a", "2차")
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if updated.Status != entity.DocumentStatusApproved {
		t.Errorf("expected approved, got %s", updated.Status)
	}
}

func TestDraftEditAndSubmit(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc, err := env.svc.Create(ctx, CreateDocumentReq{
		Title:      "초안",
		Content:    "작성중",
		TemplateID: "tpl-leave",
	}, "emp-creator")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if doc.Status != entity.DocumentStatusDraft {
		t.Fatalf("expected draft, got %s", doc.Status)
	}
	if len(doc.Lines) != 0 {
		t.Fatalf("expected draft without lines, got %d", len(doc.Lines))
	}

	doc, err = env.svc.UpdateDraft(ctx, doc.ID, UpdateDraftReq{
		Title:   "수정된 초안",
		Content: "검토 완료",
	}, "emp-creator")
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if doc.Title != "수정된 초안" {
		t.Errorf("expected updated title, got %q", doc.Title)
	}
	if doc.UpdatedBy == nil || *doc.UpdatedBy != "emp-creator" {
		t.Errorf("expected updater set by draft edit, got %v", doc.UpdatedBy)
	}

	doc, err = env.svc.Submit(ctx, doc.ID, SubmitReq{
		ApproverIDs: []string{"emp-a", "emp-b"},
	}, "emp-creator")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if doc.Status != entity.DocumentStatusPending {
		t.Errorf("expected pending, got %s", doc.Status)
	}
	if len(doc.Lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(doc.Lines))
	}
}

func TestSubmitNonDraftFails(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	doc := env.submit(t, []string{"emp-a"}, nil)

	_, err := env.svc.Submit(ctx, doc.ID, SubmitReq{
		ApproverIDs: []string{"emp-b"},
	}, "emp-creator")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestEditPendingDocumentFails(t *testing.T) {
	env := setupEngine(t)

	doc := env.submit(t, []string{"emp-a"}, nil)

	_, err := env.svc.UpdateDraft(context.Background(), doc.ID, UpdateDraftReq{
		Title: "수정 시도",
	}, "emp-creator")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestListBoxes(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	submitted := env.submit(t, []string{"emp-a"}, []string{"emp-cc"})
	if _, err := env.svc.Create(ctx, CreateDocumentReq{
		Title:      "보관 초안",
		TemplateID: "tpl-leave",
	}, "emp-creator"); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	drafted, total, err := env.svc.ListBox(ctx, "emp-creator", BoxDrafted, 1, 20)
	if err != nil {
		t.Fatalf("list drafted: %v", err)
	}
	if total != 1 || len(drafted) != 1 {
		t.Errorf("expected 1 draft, got %d", total)
	}

	pending, total, err := env.svc.ListBox(ctx, "emp-a", BoxPending, 1, 20)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].ID != submitted.ID {
		t.Errorf("expected the submitted document in emp-a's pending box")
	}

	referenced, total, err := env.svc.ListBox(ctx, "emp-cc", BoxReferenced, 1, 20)
	if err != nil {
		t.Fatalf("list referenced: %v", err)
	}
	if total != 1 || len(referenced) != 1 || referenced[0].ID != submitted.ID {
		t.Errorf("expected the submitted document in emp-cc's referenced box")
	}

	if _, _, err := env.svc.ListBox(ctx, "emp-a", "unknown", 1, 20); err == nil {
		t.Error("expected error for unknown box")
	}
}
