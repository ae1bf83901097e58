// Package lifecycle implements the soft-delete / restore state machine
// shared by content resources.
//
//	active --SoftDelete--> deleted --Restore--> active   (restorable)
//	active --SoftDelete--> deleted                       (terminal)
//
// Only the deletion markers (and, for masked resources, the textual
// content) change; ids, owners, parents and timestamps are untouched.
package lifecycle

import (
	"time"

	"communityboard/internal/apperr"
)

// Placeholder replaces the body of masked resources once deleted.
const Placeholder = "[deleted]"

// Deletable is implemented by resources carrying deletion markers.
type Deletable interface {
	DeletedTime() *time.Time
	MarkDeleted(at time.Time, by string)
	ClearDeleted()
}

// Maskable resources hide their content when deleted.
type Maskable interface {
	MaskContent(placeholder string)
}

type Policy struct {
	Kind        string
	Restorable  bool
	MaskContent bool
}

var (
	Communities = Policy{Kind: "community", Restorable: true}
	Posts       = Policy{Kind: "post", Restorable: true}
	Comments    = Policy{Kind: "comment", MaskContent: true}
)

func Deleted(r Deletable) bool {
	return r.DeletedTime() != nil
}

// SoftDelete moves r to the deleted state. Deleting twice is reported as
// not found: a deleted resource no longer exists for mutation purposes.
func (p Policy) SoftDelete(r Deletable, by string, now time.Time) error {
	if Deleted(r) {
		return apperr.Newf(apperr.ErrNotFound, "%s already deleted", p.Kind)
	}

	r.MarkDeleted(now.UTC(), by)

	if p.MaskContent {
		if m, ok := r.(Maskable); ok {
			m.MaskContent(Placeholder)
		}
	}
	return nil
}

// Restore moves r back to the active state.
func (p Policy) Restore(r Deletable) error {
	if !p.Restorable {
		return apperr.Newf(apperr.ErrDomainRule, "%s cannot be restored", p.Kind)
	}
	if !Deleted(r) {
		return apperr.Newf(apperr.ErrConflict, "%s is not deleted", p.Kind)
	}

	r.ClearDeleted()
	return nil
}
