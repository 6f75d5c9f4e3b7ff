package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/db"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/history"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/notify"
	"github.com/MatanTal2/sayeret-givati-sub001/internal/store"
)

// recordingNotifier captures dispatched events so tests can assert on
// them. If fail is set, Send returns an error.
type recordingNotifier struct {
	events []notify.Event
	fail   bool
}

func (n *recordingNotifier) Send(_ context.Context, event notify.Event) error {
	if n.fail {
		return errors.New("sink unavailable")
	}
	n.events = append(n.events, event)
	return nil
}

type fixture struct {
	svc      *Service
	notifier *recordingNotifier
	eq       *model.Equipment
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := db.NewTestDB(t)
	notifier := &recordingNotifier{}

	eq, err := store.CreateEquipment(context.Background(), database,
		"SN-1001", "M4 Carbine", "weapons", "Armory A", model.ConditionGood,
		"user-dan", "Dan Levi", "user-admin")
	require.NoError(t, err)

	return fixture{
		svc:      NewService(database, notifier),
		notifier: notifier,
		eq:       eq,
	}
}

func (f fixture) create(t *testing.T) string {
	t.Helper()
	id, err := f.svc.Create(context.Background(), f.eq.ID, "user-noa", "Noa Bar",
		"unit rotation", "user-dan", "Dan Levi", "")
	require.NoError(t, err)
	return id
}

func (f fixture) equipment(t *testing.T) *model.Equipment {
	t.Helper()
	eq, err := store.GetEquipment(context.Background(), f.svc.db, f.eq.ID)
	require.NoError(t, err)
	require.NotNil(t, eq)
	return eq
}

func (f fixture) request(t *testing.T, id string) *model.TransferRequest {
	t.Helper()
	tr, err := f.svc.GetRequest(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, tr)
	return tr
}

func (f fixture) actionTypes(t *testing.T) []string {
	t.Helper()
	entries, err := store.RecentActions(context.Background(), f.svc.db)
	require.NoError(t, err)
	types := make([]string, len(entries))
	for i, e := range entries {
		types[i] = e.ActionType
	}
	return types
}

func TestCreateTransfer(t *testing.T) {
	f := newFixture(t)

	id := f.create(t)

	tr := f.request(t, id)
	assert.Equal(t, model.TransferPending, tr.Status)
	assert.Equal(t, "user-dan", tr.FromUserID)
	assert.Equal(t, "user-noa", tr.ToUserID)
	assert.Equal(t, "SN-1001", tr.EquipmentSerial)
	require.Len(t, tr.StatusHistory, 1)
	assert.Equal(t, model.TransferPending, tr.StatusHistory[0].Status)

	eq := f.equipment(t)
	assert.Equal(t, model.StatusPendingTransfer, eq.Status)
	assert.Equal(t, "user-dan", eq.HolderID, "holder must not change before approval")

	latest := history.Latest(eq.TrackingHistory)
	require.NotNil(t, latest)
	assert.Equal(t, model.ActionTransferRequested, latest.Action)

	pending, err := f.svc.GetPendingForEquipment(context.Background(), f.eq.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, id, pending.ID)

	assert.Contains(t, f.actionTypes(t), model.ActionTransferRequested)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.KindTransferRequested, f.notifier.events[0].Kind)
	assert.Equal(t, []string{"user-noa"}, f.notifier.events[0].RecipientIDs)
}

func TestCreateTransferEquipmentNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), 9999, "user-noa", "Noa Bar",
		"", "user-dan", "Dan Levi", "")
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
}

func TestCreateTransferAlreadyPending(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	_, err := f.svc.Create(context.Background(), f.eq.ID, "user-avi", "Avi Cohen",
		"", "user-dan", "Dan Levi", "")
	assert.ErrorIs(t, err, ErrAlreadyPending)
}

func TestApproveTransfer(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	f.notifier.events = nil

	err := f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", "")
	require.NoError(t, err)

	tr := f.request(t, id)
	assert.Equal(t, model.TransferApproved, tr.Status)
	require.Len(t, tr.StatusHistory, 2)
	assert.Equal(t, model.TransferApproved, tr.StatusHistory[1].Status)
	assert.Equal(t, "user-noa", tr.StatusHistory[1].UpdatedBy)

	eq := f.equipment(t)
	assert.Equal(t, model.StatusAvailable, eq.Status)
	assert.Equal(t, "user-noa", eq.HolderID)
	assert.Equal(t, "Noa Bar", eq.HolderName)

	latest := history.Latest(eq.TrackingHistory)
	require.NotNil(t, latest)
	assert.Equal(t, model.ActionTransferApproved, latest.Action)

	assert.Contains(t, f.actionTypes(t), model.ActionTransferApproved)

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, notify.KindTransferApproved, f.notifier.events[0].Kind)
	assert.Equal(t, []string{"user-dan"}, f.notifier.events[0].RecipientIDs)
	assert.Equal(t, notify.KindTransferCompleted, f.notifier.events[1].Kind)
	assert.ElementsMatch(t, []string{"user-dan", "user-noa"}, f.notifier.events[1].RecipientIDs)
}

func TestRejectTransfer(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	f.notifier.events = nil

	err := f.svc.Reject(context.Background(), id, "user-noa", "Noa Bar", "wrong serial")
	require.NoError(t, err)

	tr := f.request(t, id)
	assert.Equal(t, model.TransferRejected, tr.Status)

	eq := f.equipment(t)
	assert.Equal(t, model.StatusAvailable, eq.Status)
	assert.Equal(t, "user-dan", eq.HolderID, "rejection must not move the equipment")

	latest := history.Latest(eq.TrackingHistory)
	require.NotNil(t, latest)
	assert.Equal(t, model.ActionTransferRejected, latest.Action)
	assert.Equal(t, "wrong serial", latest.Notes)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.KindTransferRejected, f.notifier.events[0].Kind)
	assert.Equal(t, []string{"user-dan"}, f.notifier.events[0].RecipientIDs)
}

func TestTerminalTransferCannotTransitionAgain(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	require.NoError(t, f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", ""))

	before := f.request(t, id)
	beforeEq := f.equipment(t)

	assert.ErrorIs(t, f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", ""), ErrNotPending)
	assert.ErrorIs(t, f.svc.Reject(context.Background(), id, "user-noa", "Noa Bar", ""), ErrNotPending)
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), id, "user-dan", "Dan Levi", ""), ErrNotPending)

	after := f.request(t, id)
	afterEq := f.equipment(t)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, len(before.StatusHistory), len(after.StatusHistory))
	assert.Equal(t, beforeEq.Status, afterEq.Status)
	assert.Equal(t, len(beforeEq.TrackingHistory), len(afterEq.TrackingHistory))
}

func TestCancelTransfer(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	f.notifier.events = nil

	err := f.svc.Cancel(context.Background(), id, "user-dan", "Dan Levi", "changed my mind")
	require.NoError(t, err)

	tr := f.request(t, id)
	assert.Equal(t, model.TransferCancelled, tr.Status)

	eq := f.equipment(t)
	assert.Equal(t, model.StatusAvailable, eq.Status)
	assert.Equal(t, "user-dan", eq.HolderID)

	assert.Contains(t, f.actionTypes(t), model.ActionTransferCancelled)
	assert.Empty(t, f.notifier.events, "cancellation sends no notification")
}

func TestCancelTransferOnlyRequester(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	err := f.svc.Cancel(context.Background(), id, "user-noa", "Noa Bar", "")
	assert.ErrorIs(t, err, ErrNotRequester)

	// The failed attempt must leave no trace.
	tr := f.request(t, id)
	assert.Equal(t, model.TransferPending, tr.Status)
	require.Len(t, tr.StatusHistory, 1)

	eq := f.equipment(t)
	assert.Equal(t, model.StatusPendingTransfer, eq.Status)
}

func TestCancelThenRecreate(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	require.NoError(t, f.svc.Cancel(context.Background(), id, "user-dan", "Dan Levi", ""))

	// A resolved request frees the equipment for a new one.
	f.create(t)
}

func TestDeleteEquipmentRefusedWhileTransferPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	// Deleting the equipment now would orphan the pending request:
	// every transition reads only non-deleted rows, so nothing could
	// ever resolve it.
	err := store.DeleteEquipment(ctx, f.svc.db, f.eq.ID)
	assert.ErrorIs(t, err, store.ErrPendingTransfer)

	// The request is untouched and still resolvable.
	tr := f.request(t, id)
	assert.Equal(t, model.TransferPending, tr.Status)
	require.NoError(t, f.svc.Cancel(ctx, id, "user-dan", "Dan Levi", ""))

	// Once resolved, deletion goes through.
	require.NoError(t, store.DeleteEquipment(ctx, f.svc.db, f.eq.ID))
	eq, err := store.GetEquipment(ctx, f.svc.db, f.eq.ID)
	require.NoError(t, err)
	require.NotNil(t, eq)
	assert.NotNil(t, eq.DeletedAt)
}

func TestTransferNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Approve(context.Background(), "no-such-id", "user-noa", "Noa Bar", "")
	assert.ErrorIs(t, err, ErrTransferNotFound)
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	f.notifier.events = nil

	require.NoError(t, f.svc.SendReminder(context.Background(), id, "user-dan", "Dan Levi"))

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.KindTransferReminder, f.notifier.events[0].Kind)
	assert.Equal(t, []string{"user-noa"}, f.notifier.events[0].RecipientIDs)

	err := f.svc.SendReminder(context.Background(), id, "user-noa", "Noa Bar")
	assert.ErrorIs(t, err, ErrNotRequester)

	require.NoError(t, f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", ""))
	err = f.svc.SendReminder(context.Background(), id, "user-dan", "Dan Levi")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)
	f.notifier.fail = true

	require.NoError(t, f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", ""))

	tr := f.request(t, id)
	assert.Equal(t, model.TransferApproved, tr.Status)
}

func TestConcurrentApprovesOneWins(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	// Both goroutines race the same pending request. The single
	// writer connection serializes the transactions; the loser
	// validates against the committed approved state and fails.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.svc.Approve(context.Background(), id, "user-noa", "Noa Bar", "")
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, notPending int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNotPending):
			notPending++
		default:
			t.Fatalf("unexpected approve error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notPending)

	// The equipment was mutated exactly once.
	tr := f.request(t, id)
	assert.Equal(t, model.TransferApproved, tr.Status)
	require.Len(t, tr.StatusHistory, 2)

	eq := f.equipment(t)
	assert.Equal(t, "user-noa", eq.HolderID)
	assert.Equal(t, model.StatusAvailable, eq.Status)
}

func TestTrackingHistoryStaysBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Each create/cancel cycle appends two tracking entries.
	for i := 0; i < history.Cap; i++ {
		id := f.create(t)
		require.NoError(t, f.svc.Cancel(ctx, id, "user-dan", "Dan Levi", ""))
	}

	eq := f.equipment(t)
	assert.Len(t, eq.TrackingHistory, history.Cap)

	// The equipment_created entry is long evicted; the newest entry wins.
	for _, e := range eq.TrackingHistory {
		assert.NotEqual(t, model.ActionEquipmentCreated, e.Action)
	}
	latest := history.Latest(eq.TrackingHistory)
	require.NotNil(t, latest)
	assert.Equal(t, model.ActionTransferCancelled, latest.Action)
}
