package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags what kind of alert a notification represents.
type NotificationType string

const (
	TypeNewDocket    NotificationType = "NEW_DOCKET"
	TypeFileDelivery NotificationType = "FILE_DELIVERY"
	TypeRequest      NotificationType = "REQUEST"
	TypeError        NotificationType = "ERROR"
	TypeInfo         NotificationType = "INFO"
	TypeJunk         NotificationType = "JUNK"
	TypeSkipped      NotificationType = "SKIPPED"
)

// AllNotificationTypes lists every valid notification type.
var AllNotificationTypes = []NotificationType{
	TypeNewDocket,
	TypeFileDelivery,
	TypeRequest,
	TypeError,
	TypeInfo,
	TypeJunk,
	TypeSkipped,
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsReclassification reports whether assigning t to an existing
// notification means "this was never a real notification". Such a
// reclassification is handled by removing the record.
func (t NotificationType) IsReclassification() bool {
	return t == TypeJunk || t == TypeSkipped
}

// NotificationStatus is the lifecycle state of a notification.
type NotificationStatus string

const (
	StatusPending   NotificationStatus = "PENDING"
	StatusApproved  NotificationStatus = "APPROVED"
	StatusDismissed NotificationStatus = "DISMISSED"
	StatusCompleted NotificationStatus = "COMPLETED"
)

// AllNotificationStatuses lists every valid status.
var AllNotificationStatuses = []NotificationStatus{
	StatusPending,
	StatusApproved,
	StatusDismissed,
	StatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s NotificationStatus) Valid() bool {
	for _, known := range AllNotificationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Notification is an actionable alert surfaced to the media team.
// Optional fields are nil when unset and are omitted from the
// serialized form.
type Notification struct {
	// ID is assigned at creation and never reused.
	ID string `json:"id"`

	Type      NotificationType   `json:"type"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	CreatedAt time.Time          `json:"created_at"`
	Status    NotificationStatus `json:"status"`

	// ArchivedAt is set only by the archive operation and drives expiry.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	// CompletedAt is set when a request is marked complete.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// EmailID is the deduplication key. At most one notification per
	// non-empty EmailID is kept.
	EmailID *string `json:"email_id,omitempty"`

	ThreadID       *string `json:"thread_id,omitempty"`
	DocketNumber   *string `json:"docket_number,omitempty"`
	JobName        *string `json:"job_name,omitempty"`
	SourceEmail    *string `json:"source_email,omitempty"`
	ProjectManager *string `json:"project_manager,omitempty"`
	EmailSubject   *string `json:"email_subject,omitempty"`
	EmailBody      *string `json:"email_body,omitempty"`

	// FileLinks and FileLinkDescriptions are parallel; descriptions are
	// either absent or the same length as the links.
	FileLinks            []string `json:"file_links,omitempty"`
	FileLinkDescriptions []string `json:"file_link_descriptions,omitempty"`

	// Grab workflow: which team member claimed a file-delivery thread.
	IsGrabbed        bool       `json:"is_grabbed"`
	IsPriorityAssist bool       `json:"is_priority_assist"`
	GrabbedBy        *string    `json:"grabbed_by,omitempty"`
	GrabbedAt        *time.Time `json:"grabbed_at,omitempty"`

	// Action toggles are held in memory only and reset on reload.
	ShouldCreateWorkPicture bool `json:"-"`
	ShouldCreateSimianJob   bool `json:"-"`

	// Snapshots captured at construction so the presentation layer can
	// reset edited values.
	OriginalDocketNumber   *string `json:"original_docket_number,omitempty"`
	OriginalJobName        *string `json:"original_job_name,omitempty"`
	OriginalProjectManager *string `json:"original_project_manager,omitempty"`
	OriginalMessage        string  `json:"original_message"`
}

// Params holds the values an ingestion collaborator supplies to
// construct a notification.
type Params struct {
	Type                 NotificationType `json:"type"`
	Title                string           `json:"title"`
	Message              string           `json:"message"`
	EmailID              *string          `json:"email_id,omitempty"`
	ThreadID             *string          `json:"thread_id,omitempty"`
	DocketNumber         *string          `json:"docket_number,omitempty"`
	JobName              *string          `json:"job_name,omitempty"`
	SourceEmail          *string          `json:"source_email,omitempty"`
	ProjectManager       *string          `json:"project_manager,omitempty"`
	EmailSubject         *string          `json:"email_subject,omitempty"`
	EmailBody            *string          `json:"email_body,omitempty"`
	FileLinks            []string         `json:"file_links,omitempty"`
	FileLinkDescriptions []string         `json:"file_link_descriptions,omitempty"`
}

// NewNotification builds a pending notification from p with a fresh
// identifier and default action toggles.
func NewNotification(p Params, now time.Time) Notification {
	descriptions := p.FileLinkDescriptions
	if len(descriptions) != len(p.FileLinks) {
		descriptions = nil
	}

	return Notification{
		ID:                      uuid.New().String(),
		Type:                    p.Type,
		Title:                   p.Title,
		Message:                 p.Message,
		CreatedAt:               now,
		Status:                  StatusPending,
		EmailID:                 p.EmailID,
		ThreadID:                p.ThreadID,
		DocketNumber:            p.DocketNumber,
		JobName:                 p.JobName,
		SourceEmail:             p.SourceEmail,
		ProjectManager:          p.ProjectManager,
		EmailSubject:            p.EmailSubject,
		EmailBody:               p.EmailBody,
		FileLinks:               cloneStrings(p.FileLinks),
		FileLinkDescriptions:    cloneStrings(descriptions),
		ShouldCreateWorkPicture: true,
		ShouldCreateSimianJob:   false,
		OriginalDocketNumber:    clonePtr(p.DocketNumber),
		OriginalJobName:         clonePtr(p.JobName),
		OriginalProjectManager:  clonePtr(p.ProjectManager),
		OriginalMessage:         p.Message,
	}
}

// DedupKey returns the email identifier used for deduplication, or ""
// when the notification has none.
func (n Notification) DedupKey() string {
	if n.EmailID == nil {
		return ""
	}
	return *n.EmailID
}

// IsArchived reports whether n was dismissed through the archive
// operation. A notification dismissed via a plain status update is not
// archived.
func (n Notification) IsArchived() bool {
	return n.Status == StatusDismissed && n.ArchivedAt != nil
}

// Clone returns a deep copy of n.
func (n Notification) Clone() Notification {
	c := n
	c.ArchivedAt = clonePtr(n.ArchivedAt)
	c.CompletedAt = clonePtr(n.CompletedAt)
	c.EmailID = clonePtr(n.EmailID)
	c.ThreadID = clonePtr(n.ThreadID)
	c.DocketNumber = clonePtr(n.DocketNumber)
	c.JobName = clonePtr(n.JobName)
	c.SourceEmail = clonePtr(n.SourceEmail)
	c.ProjectManager = clonePtr(n.ProjectManager)
	c.EmailSubject = clonePtr(n.EmailSubject)
	c.EmailBody = clonePtr(n.EmailBody)
	c.FileLinks = cloneStrings(n.FileLinks)
	c.FileLinkDescriptions = cloneStrings(n.FileLinkDescriptions)
	c.GrabbedBy = clonePtr(n.GrabbedBy)
	c.GrabbedAt = clonePtr(n.GrabbedAt)
	c.OriginalDocketNumber = clonePtr(n.OriginalDocketNumber)
	c.OriginalJobName = clonePtr(n.OriginalJobName)
	c.OriginalProjectManager = clonePtr(n.OriginalProjectManager)
	return c
}

// Ptr returns a pointer to v. It is handy for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
