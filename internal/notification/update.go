package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/mediadash/internal/model"
)

// FieldUpdate is a partial edit of a notification's non-status fields.
// Nil pointers and zero Changes leave the corresponding field untouched.
type FieldUpdate struct {
	Title   *string
	Message *string

	DocketNumber   model.Change[string]
	JobName        model.Change[string]
	ProjectManager model.Change[string]

	IsGrabbed        *bool
	IsPriorityAssist *bool
	GrabbedBy        model.Change[string]
	GrabbedAt        model.Change[time.Time]

	// Action toggles are kept in memory only. An update that touches
	// nothing else does not persist.
	ShouldCreateWorkPicture *bool
	ShouldCreateSimianJob   *bool
}

// persisted reports whether u touches any field that is saved.
func (u FieldUpdate) persisted() bool {
	return u.Title != nil ||
		u.Message != nil ||
		u.DocketNumber.IsSet() ||
		u.JobName.IsSet() ||
		u.ProjectManager.IsSet() ||
		u.IsGrabbed != nil ||
		u.IsPriorityAssist != nil ||
		u.GrabbedBy.IsSet() ||
		u.GrabbedAt.IsSet()
}

// DocketMessage returns the canonical message for a docket notification.
func DocketMessage(docketNumber, jobName string) string {
	return fmt.Sprintf("Docket %s: %s", docketNumber, jobName)
}

// UpdateFields applies u to the notification with the given identifier.
// Setting a docket number rewrites the message to "Docket <number>:
// <jobName>" whenever a job name is present.
func (s *Store) UpdateFields(ctx context.Context, id string, u FieldUpdate) {
	n := s.find(id)
	if n == nil {
		return
	}

	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Message != nil {
		n.Message = *u.Message
	}

	u.JobName.Apply(&n.JobName)
	u.ProjectManager.Apply(&n.ProjectManager)

	if u.DocketNumber.Apply(&n.DocketNumber) {
		docket, hasDocket := u.DocketNumber.Value()
		if hasDocket && n.JobName != nil && *n.JobName != "" {
			n.Message = DocketMessage(docket, *n.JobName)
		}
	}

	if u.IsGrabbed != nil {
		n.IsGrabbed = *u.IsGrabbed
	}
	if u.IsPriorityAssist != nil {
		n.IsPriorityAssist = *u.IsPriorityAssist
	}
	u.GrabbedBy.Apply(&n.GrabbedBy)
	u.GrabbedAt.Apply(&n.GrabbedAt)

	if u.ShouldCreateWorkPicture != nil {
		n.ShouldCreateWorkPicture = *u.ShouldCreateWorkPicture
	}
	if u.ShouldCreateSimianJob != nil {
		n.ShouldCreateSimianJob = *u.ShouldCreateSimianJob
	}

	if !u.persisted() {
		return
	}
	s.recompute()
	s.persist(ctx)
}

// Grab records that member claimed the notification's thread.
func (s *Store) Grab(ctx context.Context, id, member string, priorityAssist bool) {
	s.UpdateFields(ctx, id, FieldUpdate{
		IsGrabbed:        model.Ptr(true),
		IsPriorityAssist: model.Ptr(priorityAssist),
		GrabbedBy:        model.Set(member),
		GrabbedAt:        model.Set(s.now()),
	})
}
