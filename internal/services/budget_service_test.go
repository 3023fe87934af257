package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/realtime"
	"gastos/internal/testutil"
)

func newBudgetService(db *gorm.DB) (BudgetServicer, *realtime.Hub) {
	hub := realtime.NewHub(realtime.NewStoreLoader(db))
	return NewBudgetService(db, hub), hub
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, "Feb Income", decimal.RequireFromString("5000"), models.BudgetTypeIncome)
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected non-empty budget ID")
		}
		if budget.Title != "Feb Income" {
			t.Errorf("expected title Feb Income, got %s", budget.Title)
		}
		testutil.AssertDecimalEqual(t, budget.Amount, "5000")
		if budget.Type != models.BudgetTypeIncome {
			t.Errorf("expected type income, got %s", budget.Type)
		}
	})

	t.Run("publishes_collection_snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, hub := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		var snapshots [][]models.Budget
		dispose, err := realtime.SubscribeBudgets(hub, user.ID, func(budgets []models.Budget) {
			snapshots = append(snapshots, budgets)
		})
		testutil.AssertNoError(t, err)
		defer dispose()

		if len(snapshots) != 1 || len(snapshots[0]) != 0 {
			t.Fatalf("expected an initial empty snapshot, got %v", snapshots)
		}

		_, err = svc.CreateBudget(user.ID, "Feb Income", decimal.RequireFromString("5000"), models.BudgetTypeIncome)
		testutil.AssertNoError(t, err)

		if len(snapshots) != 2 || len(snapshots[1]) != 1 {
			t.Fatalf("expected a one-budget snapshot after create, got %v", snapshots)
		}
		if snapshots[1][0].Title != "Feb Income" {
			t.Errorf("expected snapshot to carry the new budget, got %s", snapshots[1][0].Title)
		}
	})
}

func TestListBudgets(t *testing.T) {
	t.Run("most_recent_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		older := testutil.CreateTestBudget(t, db, user.ID)
		db.Model(older).Update("created_at", time.Now().Add(-time.Hour))
		newer := testutil.CreateTestBudget(t, db, user.ID)

		result, err := svc.ListBudgets(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 budgets, got %d", result.TotalItems)
		}
		if result.Data[0].ID != newer.ID || result.Data[1].ID != older.ID {
			t.Error("expected most recent budget first")
		}
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		testutil.CreateTestBudget(t, db, user1.ID)
		testutil.CreateTestBudget(t, db, user2.ID)

		result, err := svc.ListBudgets(user1.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected only the owner's budget, got %d", result.TotalItems)
		}
	})

	t.Run("empty_collection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		result, err := svc.ListBudgets(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 0 || len(result.Data) != 0 {
			t.Errorf("expected empty page, got %+v", result)
		}
	})
}

func TestRenameBudget(t *testing.T) {
	t.Run("updates_title_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		fixture := testutil.CreateTestBudgetWithAmount(t, db, user.ID, "1234.56")

		_, err := svc.RenameBudget(user.ID, fixture.ID, "Renamed")
		testutil.AssertNoError(t, err)

		stored, err := svc.GetBudgetByID(user.ID, fixture.ID)
		testutil.AssertNoError(t, err)
		if stored.Title != "Renamed" {
			t.Errorf("expected title Renamed, got %s", stored.Title)
		}
		testutil.AssertDecimalEqual(t, stored.Amount, "1234.56")
		if stored.Type != fixture.Type {
			t.Errorf("expected type untouched, got %s", stored.Type)
		}
	})

	t.Run("wrong_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		fixture := testutil.CreateTestBudget(t, db, owner.ID)

		_, err := svc.RenameBudget(other.ID, fixture.ID, "Not Mine")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("removed_from_listing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		fixture := testutil.CreateTestBudget(t, db, user.ID)

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, fixture.ID))

		result, err := svc.ListBudgets(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected deleted budget gone from listing, got %d items", result.TotalItems)
		}

		_, err = svc.GetBudgetByID(user.ID, fixture.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("expenses_left_orphaned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		fixture := testutil.CreateTestBudget(t, db, user.ID)
		testutil.CreateTestExpense(t, db, fixture.ID, "-120.50", time.Now())

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, fixture.ID))

		// The expense subtree is not cascaded; it stays in the store.
		var count int64
		if err := db.Model(&models.Expense{}).Where("budget_id = ?", fixture.ID).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected orphaned expense to survive, got %d rows", count)
		}

		orphans, err := svc.OrphanedExpenses(user.ID)
		testutil.AssertNoError(t, err)
		if len(orphans) != 1 {
			t.Errorf("expected 1 orphaned expense reported, got %d", len(orphans))
		}
	})

	t.Run("budget_snapshot_becomes_absent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, hub := newBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		fixture := testutil.CreateTestBudget(t, db, user.ID)

		var snapshots []*models.Budget
		dispose, err := realtime.SubscribeBudget(hub, user.ID, fixture.ID, func(b *models.Budget) {
			snapshots = append(snapshots, b)
		})
		testutil.AssertNoError(t, err)
		defer dispose()

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, fixture.ID))

		if len(snapshots) != 2 {
			t.Fatalf("expected 2 deliveries, got %d", len(snapshots))
		}
		if snapshots[0] == nil || snapshots[0].ID != fixture.ID {
			t.Error("expected initial snapshot to carry the budget")
		}
		if snapshots[1] != nil {
			t.Error("expected nil snapshot after deletion")
		}
	})
}
