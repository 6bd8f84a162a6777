package domain

import "time"

// Purchase statuses. Completed and Failed are terminal.
const (
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
	StatusFailed    = "Failed"
)

// ValidStatus reports whether s is one of the known purchase statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusFailed
}

// Config store keys.
const (
	SettingPresaleInfo       = "presale_info"
	SettingPresaleActive     = "presale_active"
	SettingPresaleEndDate    = "presale_end_date"
	SettingPresaleLogoURL    = "presale_logo_url"
	SettingSlotsSold         = "slots_sold"
	SettingAdminPasscodeHash = "admin_passcode_hash"
)

const (
	AddressFormatAny = "any"
	AddressFormatTON = "ton"
)

// DefaultPendingTimeout is used when no timeout is configured.
const DefaultPendingTimeout = 5 * time.Minute

// PendingTimeoutReason is shown for Pending purchases past the timeout.
const PendingTimeoutReason = "confirmation timeout"

const RoleAdmin = "ADMIN"

// MaxWalletLength bounds wallet identifiers accepted from clients.
const MaxWalletLength = 128
