package repository

import (
	"context"
	"testing"
	"time"

	"presale/internal/database/dbtest"
	"presale/internal/models"

	"gorm.io/gorm"
)

func TestGetValue_SeedsMissingKey(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(dbtest.New(t))

	got, err := GetValue(ctx, repo, "season", "Stage 1")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != "Stage 1" {
		t.Errorf("GetValue() = %q, want %q", got, "Stage 1")
	}

	got, err = GetValue(ctx, repo, "season", "Stage 9")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != "Stage 1" {
		t.Errorf("second GetValue() = %q, want seeded %q", got, "Stage 1")
	}
}

func TestGetValue_StructuredValue(t *testing.T) {
	type info struct {
		Season string  `json:"season"`
		Price  float64 `json:"price"`
	}
	ctx := context.Background()
	repo := NewSettingRepository(dbtest.New(t))

	want := info{Season: "Stage 2", Price: 0.25}
	if err := repo.Set(ctx, "info", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := GetValue(ctx, repo, "info", info{})
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != want {
		t.Errorf("GetValue() = %+v, want %+v", got, want)
	}
}

func TestGetValue_CorruptValueFallsBackWithoutRepair(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewSettingRepository(db)

	if err := db.Create(&models.Setting{Key: "active", Value: "{not json"}).Error; err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	got, err := GetValue(ctx, repo, "active", true)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if !got {
		t.Error("GetValue() = false, want default true")
	}

	raw, err := repo.GetRaw(ctx, "active", "true")
	if err != nil {
		t.Fatalf("GetRaw() error = %v", err)
	}
	if raw != "{not json" {
		t.Errorf("stored value = %q, want corrupt value left untouched", raw)
	}
}

func TestSet_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(dbtest.New(t))

	for _, v := range []bool{true, false, true, false} {
		if err := repo.Set(ctx, "presale_active", v); err != nil {
			t.Fatalf("Set(%v) error = %v", v, err)
		}
	}
	got, err := GetValue(ctx, repo, "presale_active", true)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got {
		t.Error("GetValue() = true, want last written false")
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("GetAll() returned %d entries, want 1", len(all))
	}
}

func TestGetValue_TimeValue(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(dbtest.New(t))

	end := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)
	if err := repo.Set(ctx, "end", end); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := GetValue(ctx, repo, "end", time.Time{})
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if !got.Equal(end) {
		t.Errorf("GetValue() = %v, want %v", got, end)
	}
}

func TestIncrementCounter(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewSettingRepository(db)

	for want := int64(1); want <= 3; want++ {
		var got int64
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			got, err = repo.WithTx(tx).IncrementCounter(ctx, "slots_sold")
			return err
		})
		if err != nil {
			t.Fatalf("IncrementCounter() error = %v", err)
		}
		if got != want {
			t.Errorf("IncrementCounter() = %d, want %d", got, want)
		}
	}

	stored, err := GetValue[int64](ctx, repo, "slots_sold", 0)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if stored != 3 {
		t.Errorf("stored counter = %d, want 3", stored)
	}
}
