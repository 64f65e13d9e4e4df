package tithe

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/domain/ledger"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/tithe"
)

// =============================================================================
// In-memory fakes with transactional rollback
// =============================================================================

type entryLink struct {
	batchID       uuid.UUID
	transactionID uuid.UUID
}

type titheState struct {
	batches      map[uuid.UUID]tithe.TitheBatch
	transactions map[uuid.UUID]ledger.Transaction
	categories   map[string]ledger.Category
	links        []entryLink
}

func newTitheState() *titheState {
	return &titheState{
		batches:      make(map[uuid.UUID]tithe.TitheBatch),
		transactions: make(map[uuid.UUID]ledger.Transaction),
		categories:   make(map[string]ledger.Category),
	}
}

func (s *titheState) clone() *titheState {
	cp := newTitheState()
	for k, v := range s.batches {
		cp.batches[k] = v
	}
	for k, v := range s.transactions {
		cp.transactions[k] = v
	}
	for k, v := range s.categories {
		cp.categories[k] = v
	}
	cp.links = append([]entryLink(nil), s.links...)
	return cp
}

type titheFixture struct {
	state *titheState
	// addEntryFailAfter injects a failure once the given number of links exist
	addEntryFailAfter int
	addEntryErr       error
}

type fakeBatches struct{ f *titheFixture }

func (r fakeBatches) FindByID(_ context.Context, id uuid.UUID) (*tithe.TitheBatch, error) {
	b, ok := r.f.state.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (r fakeBatches) FindAll(_ context.Context, _ shared.Filter) ([]tithe.TitheBatch, int64, error) {
	out := make([]tithe.TitheBatch, 0, len(r.f.state.batches))
	for _, b := range r.f.state.batches {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r fakeBatches) Save(_ context.Context, batch *tithe.TitheBatch) error {
	r.f.state.batches[batch.ID] = *batch
	return nil
}

func (r fakeBatches) SaveWithLock(_ context.Context, batch *tithe.TitheBatch) error {
	stored, ok := r.f.state.batches[batch.ID]
	if !ok || stored.Version != batch.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.f.state.batches[batch.ID] = *batch
	return nil
}

func (r fakeBatches) AddEntry(_ context.Context, batchID, transactionID uuid.UUID) error {
	if r.f.addEntryErr != nil && len(r.f.state.links) >= r.f.addEntryFailAfter {
		return r.f.addEntryErr
	}
	r.f.state.links = append(r.f.state.links, entryLink{batchID: batchID, transactionID: transactionID})
	return nil
}

func (r fakeBatches) RemoveEntry(_ context.Context, batchID, transactionID uuid.UUID) error {
	for i, l := range r.f.state.links {
		if l.batchID == batchID && l.transactionID == transactionID {
			r.f.state.links = append(r.f.state.links[:i], r.f.state.links[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r fakeBatches) EntryTransactionIDs(_ context.Context, batchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, l := range r.f.state.links {
		if l.batchID == batchID {
			ids = append(ids, l.transactionID)
		}
	}
	return ids, nil
}

func (r fakeBatches) HasEntry(_ context.Context, batchID, transactionID uuid.UUID) (bool, error) {
	for _, l := range r.f.state.links {
		if l.batchID == batchID && l.transactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTransactions struct{ f *titheFixture }

func (r fakeTransactions) FindByID(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	tx, ok := r.f.state.transactions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := tx
	return &cp, nil
}

func (r fakeTransactions) FindByIDs(_ context.Context, ids []uuid.UUID) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0, len(ids))
	for _, id := range ids {
		if tx, ok := r.f.state.transactions[id]; ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r fakeTransactions) Save(_ context.Context, tx *ledger.Transaction) error {
	r.f.state.transactions[tx.ID] = *tx
	return nil
}

func (r fakeTransactions) SaveWithLock(_ context.Context, tx *ledger.Transaction) error {
	stored, ok := r.f.state.transactions[tx.ID]
	if !ok || stored.Version != tx.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.f.state.transactions[tx.ID] = *tx
	return nil
}

func (r fakeTransactions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.f.state.transactions[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.f.state.transactions, id)
	return nil
}

type fakeCategories struct{ f *titheFixture }

func (r fakeCategories) FindByID(_ context.Context, id uuid.UUID) (*ledger.Category, error) {
	for _, c := range r.f.state.categories {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r fakeCategories) FindByCode(_ context.Context, code string) (*ledger.Category, error) {
	c, ok := r.f.state.categories[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r fakeCategories) FindAll(_ context.Context, _ shared.Filter) ([]ledger.Category, int64, error) {
	out := make([]ledger.Category, 0, len(r.f.state.categories))
	for _, c := range r.f.state.categories {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r fakeCategories) Save(_ context.Context, c *ledger.Category) error {
	r.f.state.categories[c.Code] = *c
	return nil
}

type fakeUnitOfWork struct{ f *titheFixture }

func (u fakeUnitOfWork) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := u.f.state.clone()
	if err := fn(ctx); err != nil {
		u.f.state = snapshot
		return err
	}
	return nil
}

// =============================================================================
// Harness
// =============================================================================

func testCalculator(t *testing.T) *tithe.Calculator {
	t.Helper()
	calc, err := tithe.NewCalculator(tithe.PercentageTable{
		TitheOfTithe:       decimal.NewFromInt(10),
		FinanceCommittee:   decimal.NewFromInt(5),
		PastoralTithe:      decimal.NewFromInt(10),
		PastoralSustenance: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	return calc
}

func newTitheFixture(t *testing.T, withCategory bool) (*titheFixture, *TitheService) {
	t.Helper()
	f := &titheFixture{state: newTitheState()}
	if withCategory {
		category, err := ledger.NewCategory(ledger.CategoryCodeTithe, "Diezmos", ledger.CategoryKindIncome)
		require.NoError(t, err)
		f.state.categories[category.Code] = *category
	}
	service := NewTitheService(
		fakeBatches{f},
		fakeTransactions{f},
		fakeCategories{f},
		testCalculator(t),
		fakeUnitOfWork{f},
		authz.NewCapabilityAuthorizer(),
	)
	return f, service
}

func titheActor() authz.Actor {
	return authz.Actor{
		UserID: uuid.New(),
		Capabilities: []string{
			authz.CapTitheRead,
			authz.CapTitheRegister,
			authz.CapTitheDistribute,
			authz.CapTitheEdit,
		},
	}
}

func twoEntryRequest() RegisterBatchRequest {
	memberID := uuid.New()
	return RegisterBatchRequest{
		ReceivedAt: time.Date(2026, 8, 9, 10, 0, 0, 0, time.UTC),
		PeriodType: string(tithe.PeriodFirstFortnight),
		Entries: []TitheEntryInput{
			{MemberID: &memberID, Amount: decimal.NewFromInt(100), PaymentMethod: "CASH"},
			{ExternalName: "Visitante Maria", Amount: decimal.NewFromInt(50), PaymentMethod: "CASH"},
		},
	}
}

// =============================================================================
// RegisterBatch
// =============================================================================

func TestRegisterBatch(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()

	t.Run("registers a two-entry batch totalling 150", func(t *testing.T) {
		f, service := newTitheFixture(t, true)

		resp, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		assert.Equal(t, "2026-08", resp.Period)
		assert.Equal(t, string(tithe.PeriodFirstFortnight), resp.PeriodType)
		assert.True(t, resp.TotalReceived.Equal(decimal.NewFromInt(150)))
		assert.False(t, resp.Distributed)
		require.Len(t, resp.Entries, 2)

		// Breakdown follows the configured percentages of 10/5/10/25
		assert.True(t, resp.Breakdown.TitheOfTithe.Equal(decimal.NewFromInt(15)))
		assert.True(t, resp.Breakdown.FinanceCommittee.Equal(decimal.NewFromFloat(7.5)))
		assert.True(t, resp.Breakdown.PastoralTithe.Equal(decimal.NewFromInt(15)))
		assert.True(t, resp.Breakdown.PastoralSustenance.Equal(decimal.NewFromFloat(37.5)))
		assert.True(t, resp.Breakdown.Total().LessThanOrEqual(resp.TotalReceived))

		assert.Len(t, f.state.batches, 1)
		assert.Len(t, f.state.transactions, 2)
		assert.Len(t, f.state.links, 2)
	})

	t.Run("fails closed when the tithe category is missing", func(t *testing.T) {
		f, service := newTitheFixture(t, false)

		_, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		assert.ErrorIs(t, err, ledger.ErrCategoryNotConfigured)
		assert.Empty(t, f.state.batches)
		assert.Empty(t, f.state.transactions)
		assert.Empty(t, f.state.links)
	})

	t.Run("a failure at the link step leaves zero rows", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		f.addEntryErr = assert.AnError
		f.addEntryFailAfter = 1 // first link lands, second fails

		_, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		assert.Error(t, err)
		assert.Empty(t, f.state.batches, "no partial batch may survive")
		assert.Empty(t, f.state.transactions)
		assert.Empty(t, f.state.links)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, service := newTitheFixture(t, true)

		req := twoEntryRequest()
		req.PeriodType = "WEEKLY"
		_, err := service.RegisterBatch(ctx, actor, req)
		assert.Error(t, err)

		req = twoEntryRequest()
		req.Entries = nil
		_, err = service.RegisterBatch(ctx, actor, req)
		assert.Error(t, err)

		req = twoEntryRequest()
		req.Entries[0].Amount = decimal.Zero
		_, err = service.RegisterBatch(ctx, actor, req)
		assert.Error(t, err)

		req = twoEntryRequest()
		req.Entries[1].ExternalName = ""
		_, err = service.RegisterBatch(ctx, actor, req)
		assert.Error(t, err)
	})

	t.Run("denied actor writes nothing", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		reader := authz.Actor{UserID: uuid.New(), Capabilities: []string{authz.CapTitheRead}}

		_, err := service.RegisterBatch(ctx, reader, twoEntryRequest())
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Empty(t, f.state.batches)
	})
}

// =============================================================================
// ExecuteDistribution
// =============================================================================

func TestExecuteDistribution(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()

	t.Run("stamps the batch once", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		resp, err := service.ExecuteDistribution(ctx, actor, registered.ID)
		require.NoError(t, err)
		assert.True(t, resp.Distributed)
		require.NotNil(t, resp.DistributedBy)
		assert.Equal(t, actor.UserID, *resp.DistributedBy)

		stored := f.state.batches[registered.ID]
		assert.True(t, stored.Distributed)
	})

	t.Run("second attempt fails without altering the stamp", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		first, err := service.ExecuteDistribution(ctx, actor, registered.ID)
		require.NoError(t, err)

		otherActor := titheActor()
		_, err = service.ExecuteDistribution(ctx, otherActor, registered.ID)
		assert.ErrorIs(t, err, tithe.ErrAlreadyDistributed)

		stored := f.state.batches[registered.ID]
		assert.Equal(t, *first.DistributedBy, *stored.DistributedBy)
		assert.Equal(t, first.DistributedAt.Unix(), stored.DistributedAt.Unix())
	})

	t.Run("unknown batch", func(t *testing.T) {
		_, service := newTitheFixture(t, true)
		_, err := service.ExecuteDistribution(ctx, actor, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// =============================================================================
// Entry edit and removal
// =============================================================================

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()

	t.Run("recomputes total and breakdown", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)
		entry := registered.Entries[0] // the 100 entry

		resp, err := service.UpdateEntry(ctx, actor, registered.ID, entry.TransactionID, UpdateEntryRequest{
			Amount: decimal.NewFromInt(80),
		})
		require.NoError(t, err)

		// 150 - 100 + 80 = 130
		assert.True(t, resp.TotalReceived.Equal(decimal.NewFromInt(130)))
		assert.True(t, resp.Breakdown.TitheOfTithe.Equal(decimal.NewFromInt(13)))
		assert.True(t, resp.Breakdown.Total().LessThanOrEqual(resp.TotalReceived))

		stored := f.state.transactions[entry.TransactionID]
		assert.True(t, stored.Amount.Equal(decimal.NewFromInt(80)))
	})

	t.Run("does not touch the distributed flag", func(t *testing.T) {
		_, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)
		_, err = service.ExecuteDistribution(ctx, actor, registered.ID)
		require.NoError(t, err)

		resp, err := service.UpdateEntry(ctx, actor, registered.ID, registered.Entries[0].TransactionID, UpdateEntryRequest{
			Amount: decimal.NewFromInt(120),
		})
		require.NoError(t, err)
		assert.True(t, resp.Distributed)
		assert.NotNil(t, resp.DistributedAt)
	})

	t.Run("rejects a transaction outside the batch", func(t *testing.T) {
		_, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		_, err = service.UpdateEntry(ctx, actor, registered.ID, uuid.New(), UpdateEntryRequest{
			Amount: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects non-positive amount and rolls back", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		_, err = service.UpdateEntry(ctx, actor, registered.ID, registered.Entries[0].TransactionID, UpdateEntryRequest{
			Amount: decimal.NewFromInt(-5),
		})
		assert.Error(t, err)
		stored := f.state.batches[registered.ID]
		assert.True(t, stored.TotalReceived.Equal(decimal.NewFromInt(150)))
	})
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()

	t.Run("removes the entry and recomputes", func(t *testing.T) {
		f, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)
		entry := registered.Entries[1] // the 50 entry

		resp, err := service.DeleteEntry(ctx, actor, registered.ID, entry.TransactionID)
		require.NoError(t, err)

		assert.True(t, resp.TotalReceived.Equal(decimal.NewFromInt(100)))
		assert.Len(t, f.state.transactions, 1)
		assert.Len(t, f.state.links, 1)
	})

	t.Run("rejects a transaction outside the batch", func(t *testing.T) {
		_, service := newTitheFixture(t, true)
		registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
		require.NoError(t, err)

		_, err = service.DeleteEntry(ctx, actor, registered.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// =============================================================================
// Queries
// =============================================================================

func TestGetBatch(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()
	_, service := newTitheFixture(t, true)

	registered, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
	require.NoError(t, err)

	resp, err := service.GetBatch(ctx, actor, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, resp.ID)
	assert.Len(t, resp.Entries, 2)
}

func TestListBatches(t *testing.T) {
	ctx := context.Background()
	actor := titheActor()
	_, service := newTitheFixture(t, true)

	_, err := service.RegisterBatch(ctx, actor, twoEntryRequest())
	require.NoError(t, err)

	page, err := service.ListBatches(ctx, actor, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Items, 1)
}
