package service

import "github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"

// Action kinds checked by the guard.
const (
	actionSubmit = "submit"
	actionEdit   = "edit"
	actionDecide = "decide"
	actionRecall = "recall"
)

// authorize checks that the actor is entitled to perform the given action on
// the document (and, for decisions, the line). Creator may submit, edit and
// recall their own documents; only the approver bound to a line may decide it.
// No admin overrides exist.
func authorize(actorID string, doc *entity.ApprovalDocument, line *entity.ApprovalLine, action string) error {
	switch action {
	case actionSubmit, actionEdit, actionRecall:
		if doc.CreatedBy != actorID {
			return authorizationErrorf("only the document creator may %s", action)
		}
		return nil
	case actionDecide:
		if line == nil || line.ApproverID != actorID {
			return authorizationErrorf("only the assigned approver may decide this line")
		}
		return nil
	}
	return authorizationErrorf("unknown action %q", action)
}
