package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasamart/sales-api/internal/domain/order"
)

// --- Mock implementations ---

type mockStatusRepo struct {
	statuses    []Status
	transitions []Transition
}

func (m *mockStatusRepo) List(_ context.Context) ([]Status, error) { return m.statuses, nil }

func (m *mockStatusRepo) GetByID(_ context.Context, id string) (*Status, error) {
	for i := range m.statuses {
		if m.statuses[i].ID == id {
			return &m.statuses[i], nil
		}
	}
	return nil, ErrUnknownStatus
}

func (m *mockStatusRepo) GetByName(_ context.Context, name string) (*Status, error) {
	for i := range m.statuses {
		if m.statuses[i].Name == name {
			return &m.statuses[i], nil
		}
	}
	return nil, ErrUnknownStatus
}

func (m *mockStatusRepo) Transitions(_ context.Context) ([]Transition, error) {
	return m.transitions, nil
}

type mockOrderStore struct {
	orders    map[string]*order.Order
	history   []HistoryEntry
	updateErr error
	updated   bool
}

func (m *mockOrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderStore) UpdateStatus(_ context.Context, orderID, fromID, toID string, version int64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = true
	o := m.orders[orderID]
	o.StatusID = toID
	o.Version = version + 1
	m.history = append(m.history, HistoryEntry{
		OrderID:      orderID,
		FromStatusID: fromID,
		ToStatusID:   toID,
		CreatedAt:    time.Now(),
	})
	return nil
}

func (m *mockOrderStore) History(_ context.Context, orderID string) ([]HistoryEntry, error) {
	out := make([]HistoryEntry, 0, len(m.history))
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func newFixture() (*Service, *mockOrderStore) {
	store := &mockOrderStore{orders: map[string]*order.Order{
		"o1": {ID: "o1", StatusID: "pending", Version: 3},
	}}
	repo := &mockStatusRepo{statuses: testStatuses(), transitions: testTransitions()}
	return NewService(repo, store), store
}

// --- Tests ---

func TestChangeStatus_AllowedTransition(t *testing.T) {
	svc, store := newFixture()

	st, err := svc.ChangeStatus(context.Background(), "o1", "confirmed")
	require.NoError(t, err)

	assert.Equal(t, "confirmed", st.ID)
	assert.Equal(t, "confirmed", store.orders["o1"].StatusID)
	assert.Equal(t, int64(4), store.orders["o1"].Version)

	history, err := svc.History(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "pending", history[0].FromStatusID)
	assert.Equal(t, "confirmed", history[0].ToStatusID)
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	svc, store := newFixture()

	_, err := svc.ChangeStatus(context.Background(), "o1", "nonsense")
	require.ErrorIs(t, err, ErrUnknownStatus)

	// Persisted state must be untouched.
	assert.False(t, store.updated)
	assert.Equal(t, "pending", store.orders["o1"].StatusID)
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.ChangeStatus(context.Background(), "missing", "confirmed")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	svc, store := newFixture()

	_, err := svc.ChangeStatus(context.Background(), "o1", "delivered")

	var invErr *InvalidTransitionError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "Pendiente", invErr.From)
	assert.Equal(t, "Entregado", invErr.To)
	assert.False(t, store.updated)
}

func TestChangeStatus_SameStatusNoOp(t *testing.T) {
	svc, store := newFixture()

	st, err := svc.ChangeStatus(context.Background(), "o1", "pending")
	require.NoError(t, err)

	assert.Equal(t, "pending", st.ID)
	assert.False(t, store.updated, "no-op change must not write")
	assert.Empty(t, store.history)
}

func TestChangeStatus_VersionConflict(t *testing.T) {
	svc, store := newFixture()
	store.updateErr = ErrVersionConflict

	_, err := svc.ChangeStatus(context.Background(), "o1", "confirmed")
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestChangeStatus_EmptyGraphIsPermissive(t *testing.T) {
	store := &mockOrderStore{orders: map[string]*order.Order{
		"o1": {ID: "o1", StatusID: "delivered"},
	}}
	repo := &mockStatusRepo{statuses: testStatuses()}
	svc := NewService(repo, store)

	st, err := svc.ChangeStatus(context.Background(), "o1", "pending")
	require.NoError(t, err)
	assert.Equal(t, "pending", st.ID)
}

func TestHistory_UnknownOrder(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.History(context.Background(), "missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}
