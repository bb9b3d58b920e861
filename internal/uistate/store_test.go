package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const testKey = "sf:cart_state:user-1"

type failingStorage struct {
	*MemoryStorage
	saveErr error
	loadErr error
	saves   int
}

func (s *failingStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	return s.MemoryStorage.Load(ctx, key)
}

func (s *failingStorage) Save(ctx context.Context, key string, payload []byte) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStorage.Save(ctx, key, payload)
}

func planItem(id string) ServiceCartItem {
	cycle := enums.BillingCycleMonthly
	return ServiceCartItem{
		ID:           id,
		Type:         enums.ServiceItemTypePlan,
		ServiceID:    "svc-care",
		ReferenceID:  "plan-basic",
		Name:         "Basic care",
		Price:        29000,
		Quantity:     1,
		BillingCycle: &cycle,
	}
}

func packageItem(id string, qty int) ServiceCartItem {
	return ServiceCartItem{
		ID:          id,
		Type:        enums.ServiceItemTypePackage,
		ServiceID:   "svc-web",
		ReferenceID: "pkg-landing",
		Name:        "Landing page",
		Price:       50000,
		Quantity:    qty,
	}
}

func newTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	store, err := Load(context.Background(), storage, testKey, nil)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return out
}

func TestAddServiceItemDuplicatePlanIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
	store := newTestStore(t, storage)

	if err := store.AddServiceItem(ctx, planItem("plan-1")); err != nil {
		t.Fatalf("add plan: %v", err)
	}
	if err := store.AddServiceItem(ctx, packageItem("pkg-1", 1)); err != nil {
		t.Fatalf("add package: %v", err)
	}
	before := mustJSON(t, store.ServiceItems())
	savesBefore := storage.saves

	again := planItem("plan-1")
	again.Name = "Renamed"
	again.Price = 1
	if err := store.AddServiceItem(ctx, again); err != nil {
		t.Fatalf("re-add plan: %v", err)
	}

	if after := mustJSON(t, store.ServiceItems()); string(after) != string(before) {
		t.Fatalf("expected list unchanged\nbefore: %s\nafter:  %s", before, after)
	}
	if storage.saves != savesBefore {
		t.Fatalf("expected no write for a no-op add")
	}
}

func TestAddServiceItemMergesPackageQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	original := packageItem("pkg-1", 2)
	if err := store.AddServiceItem(ctx, original); err != nil {
		t.Fatalf("add package: %v", err)
	}

	incoming := packageItem("pkg-1", 3)
	incoming.Name = "Stale name"
	incoming.Price = 1
	incoming.ReferenceID = "pkg-other"
	if err := store.AddServiceItem(ctx, incoming); err != nil {
		t.Fatalf("re-add package: %v", err)
	}

	items := store.ServiceItems()
	if len(items) != 1 {
		t.Fatalf("expected a single entry, got %d", len(items))
	}
	want := original
	want.Quantity = 5
	if !reflect.DeepEqual(items[0], want) {
		t.Fatalf("unexpected merged entry: %+v", items[0])
	}
}

func TestAddServiceItemPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	for _, item := range []ServiceCartItem{packageItem("c", 1), planItem("a"), packageItem("b", 1)} {
		if err := store.AddServiceItem(ctx, item); err != nil {
			t.Fatalf("add %s: %v", item.ID, err)
		}
	}
	if err := store.AddServiceItem(ctx, packageItem("c", 2)); err != nil {
		t.Fatalf("merge: %v", err)
	}

	var ids []string
	for _, item := range store.ServiceItems() {
		ids = append(ids, item.ID)
	}
	if !reflect.DeepEqual(ids, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestAddServiceItemValidation(t *testing.T) {
	t.Parallel()

	noCycle := planItem("plan-1")
	noCycle.BillingCycle = nil

	cycle := enums.BillingCycleYearly
	pkgWithCycle := packageItem("pkg-1", 1)
	pkgWithCycle.BillingCycle = &cycle

	stackedPlan := planItem("plan-2")
	stackedPlan.Quantity = 2

	cases := map[string]ServiceCartItem{
		"missing id":         packageItem("", 1),
		"zero quantity":      packageItem("pkg-1", 0),
		"negative price":     func() ServiceCartItem { i := packageItem("pkg-1", 1); i.Price = -1; return i }(),
		"unknown type":       func() ServiceCartItem { i := packageItem("pkg-1", 1); i.Type = "bundle"; return i }(),
		"plan without cycle": noCycle,
		"package with cycle": pkgWithCycle,
		"plan quantity":      stackedPlan,
	}

	for name, item := range cases {
		item := item
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
			store := newTestStore(t, storage)

			err := store.AddServiceItem(context.Background(), item)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(store.ServiceItems()) != 0 || storage.saves != 0 {
				t.Fatalf("expected no mutation on invalid input")
			}
		})
	}
}

func TestRemoveServiceItemUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
	store := newTestStore(t, storage)
	if err := store.AddServiceItem(ctx, packageItem("pkg-1", 1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := store.ServiceItems()
	saves := storage.saves

	if err := store.RemoveServiceItem(ctx, "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(store.ServiceItems(), before) {
		t.Fatalf("expected list unchanged")
	}
	if storage.saves != saves {
		t.Fatalf("expected no write")
	}

	if err := store.RemoveServiceItem(ctx, "pkg-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.ServiceItems()) != 0 {
		t.Fatalf("expected item removed")
	}
}

func TestReloadKeepsServiceItemsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newTestStore(t, storage)

	store.OpenCart()
	if err := store.SetItemCount(4); err != nil {
		t.Fatalf("set count: %v", err)
	}
	if err := store.AddServiceItem(ctx, planItem("plan-1")); err != nil {
		t.Fatalf("add plan: %v", err)
	}
	if err := store.AddServiceItem(ctx, packageItem("pkg-1", 2)); err != nil {
		t.Fatalf("add package: %v", err)
	}

	reloaded := newTestStore(t, storage)
	snap := reloaded.Snapshot()
	if snap.IsOpen {
		t.Fatalf("expected drawer closed after reload")
	}
	if snap.ItemCount != 0 {
		t.Fatalf("expected item count reset, got %d", snap.ItemCount)
	}
	if !reflect.DeepEqual(snap.ServiceItems, store.ServiceItems()) {
		t.Fatalf("expected service items to survive reload: %+v", snap.ServiceItems)
	}

	raw, _, _ := storage.Load(ctx, testKey)
	var persisted map[string]any
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(persisted) != 2 || persisted["version"] != float64(1) {
		t.Fatalf("unexpected persisted shape: %s", raw)
	}
}

func TestDrawerFlagOperations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, NewMemoryStorage())
	store.OpenCart()
	store.OpenCart()
	if !store.IsOpen() {
		t.Fatalf("expected open")
	}
	if store.ToggleCart() {
		t.Fatalf("expected toggle to close")
	}
	store.CloseCart()
	store.CloseCart()
	if store.IsOpen() {
		t.Fatalf("expected closed")
	}
	if !store.ToggleCart() {
		t.Fatalf("expected toggle to open")
	}
}

func TestSetItemCountRejectsNegative(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, NewMemoryStorage())
	if err := store.SetItemCount(3); err != nil {
		t.Fatalf("set count: %v", err)
	}
	if err := store.SetItemCount(-1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.ItemCount() != 3 {
		t.Fatalf("expected count unchanged, got %d", store.ItemCount())
	}
}

func TestClearServiceItemsAndSubtotal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	_ = store.AddServiceItem(ctx, planItem("plan-1"))
	_ = store.AddServiceItem(ctx, packageItem("pkg-1", 3))

	if got := store.ServiceSubtotal(); got != 29000+150000 {
		t.Fatalf("unexpected subtotal %d", got)
	}
	if err := store.ClearServiceItems(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.ClearServiceItems(ctx); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if len(store.ServiceItems()) != 0 || store.ServiceSubtotal() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	t.Parallel()

	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), saveErr: errors.New("quota exceeded")}
	store := newTestStore(t, storage)

	err := store.AddServiceItem(context.Background(), packageItem("pkg-1", 1))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(store.ServiceItems()) != 1 {
		t.Fatalf("expected in-memory mutation to stand")
	}
}

func TestServiceItemsReturnsCopies(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, NewMemoryStorage())
	_ = store.AddServiceItem(context.Background(), planItem("plan-1"))

	items := store.ServiceItems()
	items[0].Name = "mutated"
	*items[0].BillingCycle = enums.BillingCycleYearly

	fresh := store.ServiceItems()[0]
	if fresh.Name != "Basic care" || *fresh.BillingCycle != enums.BillingCycleMonthly {
		t.Fatalf("store leaked internal state: %+v", fresh)
	}
}

func TestLoadPropagatesStorageError(t *testing.T) {
	t.Parallel()

	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), loadErr: errors.New("dial tcp")}
	_, err := Load(context.Background(), storage, testKey, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
