package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"presale/internal/database/dbtest"
	"presale/internal/domain"
	"presale/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, db *gorm.DB, users ...models.User) {
	t.Helper()
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func TestListUsers_SearchAndPaging(t *testing.T) {
	db := dbtest.New(t)
	var users []models.User
	for i := 0; i < 25; i++ {
		users = append(users, models.User{Wallet: fmt.Sprintf("W1user%02d", i), Balance: decimal.NewFromInt(int64(i))})
	}
	users = append(users, models.User{Wallet: "other", Balance: decimal.NewFromInt(1000)})
	seedUsers(t, db, users...)
	repo := NewAdminRepository(db)

	tests := []struct {
		name      string
		search    string
		page      int
		limit     int
		wantLen   int
		wantTotal int64
		wantFirst string
	}{
		{name: "First page", search: "w1", page: 1, limit: 10, wantLen: 10, wantTotal: 25, wantFirst: "W1user24"},
		{name: "Last page", search: "w1", page: 3, limit: 10, wantLen: 5, wantTotal: 25, wantFirst: "W1user04"},
		{name: "Past the end", search: "w1", page: 4, limit: 10, wantLen: 0, wantTotal: 25},
		{name: "No search", search: "", page: 1, limit: 5, wantLen: 5, wantTotal: 26, wantFirst: "other"},
		{name: "Upper case search", search: "USER1", page: 1, limit: 50, wantLen: 10, wantTotal: 10, wantFirst: "W1user19"},
		{name: "Wildcards are literal", search: "%", page: 1, limit: 10, wantLen: 0, wantTotal: 0},
		{name: "Underscore is literal", search: "w_", page: 1, limit: 10, wantLen: 0, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.ListUsers(context.Background(), tt.search, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("ListUsers() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if tt.wantFirst != "" && len(got) > 0 && got[0].Wallet != tt.wantFirst {
				t.Errorf("first = %q, want %q", got[0].Wallet, tt.wantFirst)
			}
		})
	}
}

func TestStageTotals(t *testing.T) {
	db := dbtest.New(t)
	ledger := NewLedgerRepository(db)
	repo := NewAdminRepository(db)

	stage := func(name string) *string { return &name }
	records := []struct {
		id     string
		amount int64
		status string
		stage  *string
	}{
		{"a", 100, domain.StatusCompleted, stage("Stage 1")},
		{"b", 50, domain.StatusCompleted, stage("Stage 1")},
		{"c", 70, domain.StatusCompleted, stage("Stage 2")},
		{"d", 900, domain.StatusFailed, stage("Stage 2")},
		{"e", 900, domain.StatusPending, stage("Stage 3")},
		{"f", 5, domain.StatusCompleted, nil},
	}
	for _, r := range records {
		p := purchase(r.id, r.amount, r.status)
		p.StageName = r.stage
		mustRecord(t, ledger, "W1", p)
	}

	got, err := repo.StageTotals(context.Background())
	if err != nil {
		t.Fatalf("StageTotals() error = %v", err)
	}
	want := map[string]int64{"": 5, "Stage 1": 150, "Stage 2": 70}
	if len(got) != len(want) {
		t.Fatalf("StageTotals() = %+v, want %d stages", got, len(want))
	}
	for _, st := range got {
		if !st.TotalSold.Equal(decimal.NewFromInt(want[st.Stage])) {
			t.Errorf("stage %q total = %s, want %d", st.Stage, st.TotalSold, want[st.Stage])
		}
	}
}

func TestSetBalance(t *testing.T) {
	db := dbtest.New(t)
	seedUsers(t, db, models.User{Wallet: "W1", Balance: decimal.NewFromInt(10)})
	repo := NewAdminRepository(db)

	u, err := repo.SetBalance(context.Background(), "W1", decimal.RequireFromString("42.5"))
	if err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}
	if !u.Balance.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Balance = %s, want 42.5", u.Balance)
	}

	total, err := repo.TotalSold(context.Background())
	if err != nil {
		t.Fatalf("TotalSold() error = %v", err)
	}
	if !total.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("TotalSold = %s, want 42.5", total)
	}

	if _, err := repo.SetBalance(context.Background(), "nobody", decimal.NewFromInt(1)); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("SetBalance(unknown) error = %v, want ErrRecordNotFound", err)
	}
}

func TestEachUser(t *testing.T) {
	db := dbtest.New(t)
	for i := 0; i < 7; i++ {
		seedUsers(t, db, models.User{Wallet: fmt.Sprintf("W%d", i)})
	}
	repo := NewAdminRepository(db)

	var batches, seen int
	err := repo.EachUser(context.Background(), 3, func(users []models.User) error {
		batches++
		seen += len(users)
		return nil
	})
	if err != nil {
		t.Fatalf("EachUser() error = %v", err)
	}
	if batches != 3 || seen != 7 {
		t.Errorf("batches = %d, seen = %d, want 3 and 7", batches, seen)
	}
}

func TestTotalSold_Empty(t *testing.T) {
	repo := NewAdminRepository(dbtest.New(t))
	total, err := repo.TotalSold(context.Background())
	if err != nil {
		t.Fatalf("TotalSold() error = %v", err)
	}
	if !total.IsZero() {
		t.Errorf("TotalSold = %s, want 0", total)
	}
}
