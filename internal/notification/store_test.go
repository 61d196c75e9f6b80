package notification_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/notification"
	"github.com/nhle/mediadash/internal/testutil"
)

func newNote(clock *testutil.Clock, title string, emailID string) model.Notification {
	p := model.Params{
		Type:    model.TypeNewDocket,
		Title:   title,
		Message: title + " message",
	}
	if emailID != "" {
		p.EmailID = model.Ptr(emailID)
	}
	return model.NewNotification(p, clock.Now())
}

func ids(items []model.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func countPending(items []model.Notification) int {
	c := 0
	for _, n := range items {
		if n.Status == model.StatusPending {
			c++
		}
	}
	return c
}

func TestStore_Add_NewestFirst(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	a := newNote(clock, "a", "m-a")
	b := newNote(clock, "b", "m-b")
	s.Add(ctx, a)
	s.Add(ctx, b)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{b.ID, a.ID}, ids(s.All()))
	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, 2, blobs.Writes())
}

func TestStore_Add_DeduplicatesByEmailID(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	keys := []string{"x", "y", "x", "", "y", "x", ""}
	latest := map[string]string{}
	for i, k := range keys {
		n := newNote(clock, fmt.Sprintf("n%d", i), k)
		s.Add(ctx, n)
		if k != "" {
			latest[k] = n.ID
		}

		seen := map[string]int{}
		for _, item := range s.All() {
			if key := item.DedupKey(); key != "" {
				seen[key]++
			}
		}
		for key, c := range seen {
			assert.Equal(t, 1, c, "email id %q after add %d", key, i)
		}
	}

	for key, id := range latest {
		var found bool
		for _, item := range s.All() {
			if item.DedupKey() == key {
				assert.Equal(t, id, item.ID, "survivor for %q", key)
				found = true
			}
		}
		assert.True(t, found, "no survivor for %q", key)
	}
	// x, y and two notifications without an email id.
	assert.Equal(t, 4, s.Len())
}

func TestStore_Add_SameIDReplaces(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "")
	s.Add(ctx, n)
	n.Title = "edited"
	s.Add(ctx, n)

	require.Equal(t, 1, s.Len())
	got, ok := s.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, "edited", got.Title)
}

func TestStore_UnreadCountTracksEveryMutation(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	check := func(step string) {
		t.Helper()
		assert.Equal(t, countPending(s.All()), s.UnreadCount(), step)
	}

	a := newNote(clock, "a", "1")
	b := newNote(clock, "b", "2")
	c := newNote(clock, "c", "3")

	s.Add(ctx, a)
	check("add a")
	s.Add(ctx, b)
	check("add b")
	s.Add(ctx, c)
	check("add c")
	s.Archive(ctx, a.ID)
	check("archive a")
	s.UpdateStatus(ctx, b.ID, model.StatusApproved)
	check("approve b")
	s.UpdateStatus(ctx, b.ID, model.StatusPending)
	check("reopen b")
	s.Complete(ctx, c.ID)
	check("complete c")
	s.Restore(ctx, a.ID)
	check("restore a")
	s.Remove(ctx, b.ID)
	check("remove b")
	s.Add(ctx, newNote(clock, "c2", "3"))
	check("replace c")
	s.UpdateStatus(ctx, a.ID, model.StatusDismissed)
	check("dismiss a")
	s.ClearDismissed(ctx)
	check("clear dismissed")
	s.ClearAll(ctx)
	check("clear all")
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_MissingIDIsNoOp(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)
	before := s.All()

	s.Archive(ctx, "missing")
	s.UpdateStatus(ctx, "missing", model.StatusApproved)
	s.UpdateFields(ctx, "missing", notification.FieldUpdate{DocketNumber: model.Set("D1")})
	s.Complete(ctx, "missing")
	s.Restore(ctx, "missing")
	s.Remove(ctx, "missing")

	assert.Equal(t, before, s.All())
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_Archive_Idempotent(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)

	s.Archive(ctx, n.ID)
	first, _ := s.Get(n.ID)
	require.NotNil(t, first.ArchivedAt)

	clock.Advance(time.Minute)
	s.Archive(ctx, n.ID)
	second, _ := s.Get(n.ID)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, model.StatusDismissed, second.Status)
	require.NotNil(t, second.ArchivedAt)
	assert.True(t, second.ArchivedAt.After(*first.ArchivedAt))
	assert.Equal(t, clock.Now(), *second.ArchivedAt)
}

func TestStore_UpdateStatus_LeavesArchivedAt(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	archived := newNote(clock, "archived", "1")
	dismissed := newNote(clock, "dismissed", "2")
	s.Add(ctx, archived)
	s.Add(ctx, dismissed)

	s.Archive(ctx, archived.ID)
	s.UpdateStatus(ctx, archived.ID, model.StatusApproved)
	got, _ := s.Get(archived.ID)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.NotNil(t, got.ArchivedAt)

	s.UpdateStatus(ctx, dismissed.ID, model.StatusDismissed)
	got, _ = s.Get(dismissed.ID)
	assert.Equal(t, model.StatusDismissed, got.Status)
	assert.Nil(t, got.ArchivedAt)
}

func TestStore_Views(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	pending := newNote(clock, "pending", "1")
	archivedEarly := newNote(clock, "archived early", "2")
	archivedLate := newNote(clock, "archived late", "3")
	dismissed := newNote(clock, "dismissed", "4")
	approved := newNote(clock, "approved", "5")
	for _, n := range []model.Notification{pending, archivedEarly, archivedLate, dismissed, approved} {
		s.Add(ctx, n)
	}

	s.Archive(ctx, archivedEarly.ID)
	clock.Advance(time.Minute)
	s.Archive(ctx, archivedLate.ID)
	s.UpdateStatus(ctx, dismissed.ID, model.StatusDismissed)
	s.UpdateStatus(ctx, approved.ID, model.StatusApproved)

	assert.Equal(t, []string{pending.ID}, ids(s.Pending()))
	assert.Equal(t, []string{archivedLate.ID, archivedEarly.ID}, ids(s.Archived()))
	// Dismissed without an archive time stays active.
	assert.Equal(t, []string{approved.ID, dismissed.ID, pending.ID}, ids(s.Active()))
}

func TestStore_Views_ReturnCopies(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	n.FileLinks = []string{"https://example.com/a"}
	s.Add(ctx, n)

	view := s.All()
	view[0].Title = "mutated"
	view[0].FileLinks[0] = "mutated"
	*view[0].EmailID = "mutated"

	got, _ := s.Get(n.ID)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, "https://example.com/a", got.FileLinks[0])
	assert.Equal(t, "1", got.DedupKey())
}

func TestStore_ClearDismissed(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	archived := newNote(clock, "archived", "1")
	dismissed := newNote(clock, "dismissed", "2")
	kept := newNote(clock, "kept", "3")
	s.Add(ctx, archived)
	s.Add(ctx, dismissed)
	s.Add(ctx, kept)
	s.Archive(ctx, archived.ID)
	s.UpdateStatus(ctx, dismissed.ID, model.StatusDismissed)

	s.ClearDismissed(ctx)

	assert.Equal(t, []string{kept.ID}, ids(s.All()))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_RunExpirySweep_Boundary(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()
	now := clock.Now()

	old := newNote(clock, "old", "1")
	recent := newNote(clock, "recent", "2")
	never := newNote(clock, "never archived", "3")
	dismissed := newNote(clock, "dismissed", "4")
	for _, n := range []model.Notification{old, recent, never, dismissed} {
		s.Add(ctx, n)
	}

	clock.T = now.Add(-24*time.Hour - time.Second)
	s.Archive(ctx, old.ID)
	clock.T = now.Add(-23 * time.Hour)
	s.Archive(ctx, recent.ID)
	s.UpdateStatus(ctx, dismissed.ID, model.StatusDismissed)

	writes := blobs.Writes()
	removed := s.RunExpirySweep(ctx, now, 0)

	assert.Equal(t, 1, removed)
	assert.Equal(t, writes+1, blobs.Writes())
	_, ok := s.Get(old.ID)
	assert.False(t, ok)
	for _, id := range []string{recent.ID, never.ID, dismissed.ID} {
		_, ok := s.Get(id)
		assert.True(t, ok, id)
	}

	// Nothing else qualifies: no change, no write.
	writes = blobs.Writes()
	assert.Equal(t, 0, s.RunExpirySweep(ctx, now, notification.DefaultExpiryWindow))
	assert.Equal(t, writes, blobs.Writes())
	assert.Equal(t, 3, s.Len())
}

func TestStore_RunExpirySweep_IgnoresUnarchived(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	pending := newNote(clock, "pending", "1")
	dismissed := newNote(clock, "dismissed", "2")
	s.Add(ctx, pending)
	s.Add(ctx, dismissed)
	s.UpdateStatus(ctx, dismissed.ID, model.StatusDismissed)

	removed := s.RunExpirySweep(ctx, clock.Now().Add(10*365*24*time.Hour), time.Hour)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, s.Len())
}

func TestStore_RunExpirySweep_CustomWindow(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)
	s.Archive(ctx, n.ID)

	assert.Equal(t, 0, s.RunExpirySweep(ctx, clock.Now().Add(59*time.Minute), time.Hour))
	assert.Equal(t, 1, s.RunExpirySweep(ctx, clock.Now().Add(61*time.Minute), time.Hour))
	assert.Equal(t, 0, s.Len())
}

func TestStore_UpdateFields_DocketRewritesMessage(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	tests := []struct {
		name    string
		jobName *string
		update  notification.FieldUpdate
		want    string
	}{
		{
			name:    "job name in same update",
			update:  notification.FieldUpdate{DocketNumber: model.Set("D200"), JobName: model.Set("Trailer")},
			want:    "Docket D200: Trailer",
		},
		{
			name:    "existing job name",
			jobName: model.Ptr("Spot"),
			update:  notification.FieldUpdate{DocketNumber: model.Set("D300")},
			want:    "Docket D300: Spot",
		},
		{
			name:   "no job name keeps message",
			update: notification.FieldUpdate{DocketNumber: model.Set("D400")},
			want:   "original message",
		},
		{
			name:    "cleared docket keeps message",
			jobName: model.Ptr("Spot"),
			update:  notification.FieldUpdate{DocketNumber: model.Clear[string]()},
			want:    "original message",
		},
		{
			name:    "docket wins over explicit message",
			jobName: model.Ptr("Promo"),
			update: notification.FieldUpdate{
				Message:      model.Ptr("hand written"),
				DocketNumber: model.Set("D500"),
			},
			want: "Docket D500: Promo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := model.NewNotification(model.Params{
				Type:    model.TypeNewDocket,
				Title:   tt.name,
				Message: "original message",
				JobName: tt.jobName,
			}, clock.Now())
			s.Add(ctx, n)

			s.UpdateFields(ctx, n.ID, tt.update)

			got, ok := s.Get(n.ID)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Message)
			assert.Equal(t, "original message", got.OriginalMessage)
		})
	}
}

func TestStore_UpdateFields_ClearAndSet(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := model.NewNotification(model.Params{
		Type:           model.TypeFileDelivery,
		Title:          "delivery",
		ProjectManager: model.Ptr("Dana"),
	}, clock.Now())
	s.Add(ctx, n)

	s.UpdateFields(ctx, n.ID, notification.FieldUpdate{
		ProjectManager: model.Clear[string](),
		Title:          model.Ptr("renamed"),
	})

	got, _ := s.Get(n.ID)
	assert.Nil(t, got.ProjectManager)
	assert.Equal(t, "renamed", got.Title)
	require.NotNil(t, got.OriginalProjectManager)
	assert.Equal(t, "Dana", *got.OriginalProjectManager)
}

func TestStore_Grab(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "delivery", "1")
	s.Add(ctx, n)
	writes := blobs.Writes()

	s.Grab(ctx, n.ID, "sam", true)

	got, _ := s.Get(n.ID)
	assert.True(t, got.IsGrabbed)
	assert.True(t, got.IsPriorityAssist)
	require.NotNil(t, got.GrabbedBy)
	assert.Equal(t, "sam", *got.GrabbedBy)
	require.NotNil(t, got.GrabbedAt)
	assert.Equal(t, clock.Now(), *got.GrabbedAt)
	assert.Equal(t, writes+1, blobs.Writes())
}

func TestStore_UpdateFields_ActionFlagsSkipPersistence(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)
	writes := blobs.Writes()

	s.UpdateFields(ctx, n.ID, notification.FieldUpdate{
		ShouldCreateWorkPicture: model.Ptr(false),
		ShouldCreateSimianJob:   model.Ptr(true),
	})

	assert.Equal(t, writes, blobs.Writes())
	got, _ := s.Get(n.ID)
	assert.False(t, got.ShouldCreateWorkPicture)
	assert.True(t, got.ShouldCreateSimianJob)

	s.UpdateFields(ctx, n.ID, notification.FieldUpdate{DocketNumber: model.Set("D1")})
	assert.Equal(t, writes+1, blobs.Writes())
}

func TestStore_PersistsAcrossRestart(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	a := model.NewNotification(model.Params{
		Type:                 model.TypeFileDelivery,
		Title:                "delivery",
		Message:              "files are in",
		EmailID:              model.Ptr("m1"),
		ThreadID:             model.Ptr("t1"),
		DocketNumber:         model.Ptr("D100"),
		JobName:              model.Ptr("Trailer"),
		SourceEmail:          model.Ptr("vendor@example.com"),
		EmailSubject:         model.Ptr("Delivery"),
		EmailBody:            model.Ptr("See links"),
		FileLinks:            []string{"https://files.example.com/1"},
		FileLinkDescriptions: []string{"mix"},
	}, clock.Now())
	b := newNote(clock, "b", "m2")
	s.Add(ctx, a)
	s.Add(ctx, b)
	s.Archive(ctx, b.ID)
	s.UpdateFields(ctx, a.ID, notification.FieldUpdate{ShouldCreateWorkPicture: model.Ptr(false)})

	reloaded := notification.New(blobs, notification.WithClock(clock.Now))
	reloaded.Initialize(ctx)

	require.Equal(t, 2, reloaded.Len())
	assert.Equal(t, []string{b.ID, a.ID}, ids(reloaded.All()))
	assert.Equal(t, 1, reloaded.UnreadCount())

	got, ok := reloaded.Get(a.ID)
	require.True(t, ok)
	want, _ := s.Get(a.ID)
	// Action toggles reset on reload.
	want.ShouldCreateWorkPicture = true
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.FileLinks, got.FileLinks)
	assert.Equal(t, want.FileLinkDescriptions, got.FileLinkDescriptions)
	assert.Equal(t, *want.DocketNumber, *got.DocketNumber)
	assert.Equal(t, *want.OriginalJobName, *got.OriginalJobName)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.ShouldCreateWorkPicture)
	assert.False(t, got.ShouldCreateSimianJob)
	assert.Nil(t, got.ArchivedAt)
	assert.Nil(t, got.ProjectManager)

	archived, _ := reloaded.Get(b.ID)
	require.NotNil(t, archived.ArchivedAt)
	assert.True(t, clock.Now().Equal(*archived.ArchivedAt))
}

func TestStore_Initialize_ExpiresArchived(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	kept := newNote(clock, "b", "2")
	s.Add(ctx, n)
	s.Add(ctx, kept)
	s.Archive(ctx, n.ID)

	clock.Advance(25 * time.Hour)
	reloaded := notification.New(blobs, notification.WithClock(clock.Now))
	reloaded.Initialize(ctx)

	assert.Equal(t, []string{kept.ID}, ids(reloaded.All()))
	assert.Equal(t, 1, reloaded.UnreadCount())
}

func TestStore_Initialize_UsesConfiguredWindow(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)
	s.Archive(ctx, n.ID)
	clock.Advance(30 * time.Hour)
	writes := blobs.Writes()

	reloaded := notification.New(blobs,
		notification.WithClock(clock.Now),
		notification.WithExpiryWindow(48*time.Hour),
	)
	reloaded.Initialize(ctx)

	assert.Equal(t, []string{n.ID}, ids(reloaded.Archived()))
	assert.Equal(t, writes, blobs.Writes(), "nothing expired, nothing written")

	// A non-positive window falls back to the configured one.
	assert.Zero(t, reloaded.RunExpirySweep(ctx, clock.Now(), 0))
	clock.Advance(19 * time.Hour)
	assert.Equal(t, 1, reloaded.RunExpirySweep(ctx, clock.Now(), 0))
}

func TestStore_ReadOnlyNeverWrites(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)
	s.Archive(ctx, n.ID)
	clock.Advance(25 * time.Hour)
	writes := blobs.Writes()

	ro := notification.New(blobs, notification.WithClock(clock.Now), notification.WithReadOnly())
	ro.Initialize(ctx)
	assert.Empty(t, ro.All())

	ro.Add(ctx, newNote(clock, "b", "2"))
	assert.Equal(t, 1, ro.Len())
	assert.Equal(t, writes, blobs.Writes())
	assert.NoError(t, ro.LastError())
}

func TestStore_Initialize_MalformedBlob(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "garbage", blob: "not json"},
		{name: "empty", blob: ""},
		{name: "wrong shape", blob: `{"version":1,"notifications":{"id":"x"}}`},
		{name: "future version", blob: `{"version":99,"notifications":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.NewClock()
			_, blobs := testutil.NewNotificationStore(t, clock)
			ctx := context.Background()
			require.NoError(t, blobs.Put(ctx, model.DefaultBlobKey, []byte(tt.blob)))

			s := notification.New(blobs, notification.WithClock(clock.Now))
			s.Initialize(ctx)

			assert.Equal(t, 0, s.Len())
			assert.Equal(t, 0, s.UnreadCount())
		})
	}
}

func TestStore_Initialize_SkipsBadRecords(t *testing.T) {
	clock := testutil.NewClock()
	_, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	blob := `{"version":1,"notifications":[
		{"id":"good","type":"INFO","title":"ok","message":"","created_at":"2025-03-14T09:00:00Z","status":"PENDING","is_grabbed":false,"is_priority_assist":false,"original_message":""},
		{"id":"","type":"INFO","title":"no id","created_at":"2025-03-14T09:00:00Z","status":"PENDING"},
		{"id":"bad-type","type":"MEMO","title":"?","created_at":"2025-03-14T09:00:00Z","status":"PENDING"},
		{"id":"good","type":"INFO","title":"dup id","created_at":"2025-03-14T09:00:00Z","status":"PENDING"},
		42
	]}`
	require.NoError(t, blobs.Put(ctx, model.DefaultBlobKey, []byte(blob)))

	s := notification.New(blobs, notification.WithClock(clock.Now))
	s.Initialize(ctx)

	require.Equal(t, 1, s.Len())
	got, _ := s.Get("good")
	assert.Equal(t, "ok", got.Title)
	assert.True(t, got.ShouldCreateWorkPicture)
}

func TestStore_Initialize_RepairsDuplicates(t *testing.T) {
	clock := testutil.NewClock()
	_, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	// Stored newest first: the email-less record, then t:2, then t:1.
	blob := `[
		{"id":"none","type":"INFO","title":"no email","created_at":"2025-03-14T09:03:00Z","status":"PENDING"},
		{"id":"t2","type":"INFO","title":"t2","email_id":"x","created_at":"2025-03-14T09:02:00Z","status":"PENDING"},
		{"id":"t1","type":"INFO","title":"t1","email_id":"x","created_at":"2025-03-14T09:01:00Z","status":"PENDING"}
	]`
	require.NoError(t, blobs.Put(ctx, model.DefaultBlobKey, []byte(blob)))
	writes := blobs.Writes()

	s := notification.New(blobs, notification.WithClock(clock.Now))
	s.Initialize(ctx)

	assert.Equal(t, []string{"none", "t2"}, ids(s.All()))
	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, writes+1, blobs.Writes(), "repair persists once")

	writes = blobs.Writes()
	assert.Equal(t, 0, s.RepairDuplicates(ctx))
	assert.Equal(t, writes, blobs.Writes())
}

func TestStore_PersistFailureIsSwallowed(t *testing.T) {
	clock := testutil.NewClock()
	s, blobs := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	boom := errors.New("disk full")
	blobs.FailPuts(boom)

	n := newNote(clock, "a", "1")
	s.Add(ctx, n)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.UnreadCount())
	assert.ErrorIs(t, s.LastError(), boom)

	blobs.FailPuts(nil)
	s.Archive(ctx, n.ID)
	assert.NoError(t, s.LastError())

	reloaded := notification.New(blobs, notification.WithClock(clock.Now))
	reloaded.Initialize(ctx)
	assert.Equal(t, 1, reloaded.Len())
	assert.Equal(t, 0, reloaded.UnreadCount())
}

func TestStore_EndToEnd(t *testing.T) {
	clock := testutil.NewClock()
	s, _ := testutil.NewNotificationStore(t, clock)
	ctx := context.Background()

	first := model.NewNotification(model.Params{
		Type:    model.TypeNewDocket,
		Title:   "New docket",
		Message: "New docket received",
		EmailID: model.Ptr("m1"),
	}, clock.Now())
	s.Add(ctx, first)

	second := model.NewNotification(model.Params{
		Type:         model.TypeNewDocket,
		Title:        "New docket",
		Message:      "New docket received",
		EmailID:      model.Ptr("m1"),
		DocketNumber: model.Ptr("D100"),
	}, clock.Now())
	s.Add(ctx, second)
	require.Equal(t, 1, s.Len())

	s.UpdateFields(ctx, second.ID, notification.FieldUpdate{
		DocketNumber: model.Set("D200"),
		JobName:      model.Set("Trailer"),
	})
	got, _ := s.Get(second.ID)
	assert.Equal(t, "Docket D200: Trailer", got.Message)

	s.Archive(ctx, second.ID)
	clock.Advance(25 * time.Hour)

	assert.Equal(t, 1, s.RunExpirySweep(ctx, clock.Now(), 0))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UnreadCount())
}
