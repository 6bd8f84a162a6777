package models

import (
	"testing"
	"time"

	"presale/internal/domain"
)

func TestTransaction_ForDisplay(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	timeout := 5 * time.Minute

	tests := []struct {
		name       string
		status     string
		age        time.Duration
		wantStatus string
		wantReason bool
	}{
		{name: "Fresh pending", status: domain.StatusPending, age: time.Minute, wantStatus: domain.StatusPending},
		{name: "Pending at the limit", status: domain.StatusPending, age: timeout, wantStatus: domain.StatusPending},
		{name: "Stale pending", status: domain.StatusPending, age: 6 * time.Minute, wantStatus: domain.StatusFailed, wantReason: true},
		{name: "Old completed", status: domain.StatusCompleted, age: time.Hour, wantStatus: domain.StatusCompleted},
		{name: "Old failed", status: domain.StatusFailed, age: time.Hour, wantStatus: domain.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{ID: "tx", Status: tt.status, Date: now.Add(-tt.age)}
			got := tx.ForDisplay(now, timeout)

			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if tt.wantReason && (got.FailureReason == nil || *got.FailureReason != domain.PendingTimeoutReason) {
				t.Errorf("FailureReason = %v, want %q", got.FailureReason, domain.PendingTimeoutReason)
			}
			if tx.Status != tt.status {
				t.Errorf("original Status changed to %q", tx.Status)
			}
		})
	}
}

func TestTableNames(t *testing.T) {
	if got := (User{}).TableName(); got != "users" {
		t.Errorf("User.TableName() = %q, want %q", got, "users")
	}
	if got := (Transaction{}).TableName(); got != "transactions" {
		t.Errorf("Transaction.TableName() = %q, want %q", got, "transactions")
	}
	if got := (Setting{}).TableName(); got != "settings" {
		t.Errorf("Setting.TableName() = %q, want %q", got, "settings")
	}
}
