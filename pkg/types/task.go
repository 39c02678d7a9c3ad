package types

import "fmt"

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
)

const (
	TaskCascadeOrganization = "cascade.organization"
	TaskCascadeCampaign     = "cascade.campaign"
	TaskReceiptGenerate     = "receipt.generate"
	TaskPopularityRecompute = "popularity.recompute"
)

// CascadeArgs is the payload of both cascade tasks.
type CascadeArgs struct {
	DonationID string `json:"donation_id"`
}

type ReceiptArgs struct {
	DonationID string `json:"donation_id"`
	UserID     string `json:"user_id"`
}

type PopularityArgs struct {
	Kind     EntityKind `json:"kind"`
	EntityID string     `json:"entity_id"`
}

// Dedup keys. A key identifies one logical unit of work: enqueuing the same
// key twice while the first is still stored is a no-op.

func CascadeDedupKey(target CascadeTarget, donationID string) string {
	return fmt.Sprintf("cascade:%s:%s", target, donationID)
}

func ReceiptDedupKey(donationID string) string {
	return "receipt:" + donationID
}

// PopularityDedupKey is keyed by trigger as well as entity: a recompute that
// already ran must not swallow one requested by a later change.
func PopularityDedupKey(kind EntityKind, entityID, trigger string) string {
	return fmt.Sprintf("popularity:%s:%s:%s", kind, entityID, trigger)
}
