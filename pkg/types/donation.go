package types

// TargetKind is what a payment session gives to.
type TargetKind string

const (
	TargetKindOrganization TargetKind = "organization"
	TargetKindCampaign     TargetKind = "campaign"
)

type OrganizationKind string

const (
	OrganizationKindHospital OrganizationKind = "hospital"
	OrganizationKindNGO      OrganizationKind = "ngo"
)

// EntityKind identifies a ratable and scorable entity.
type EntityKind string

const (
	EntityKindHospital EntityKind = "hospital"
	EntityKindNGO      EntityKind = "ngo"
	EntityKindCampaign EntityKind = "campaign"
)

// EntityKindOf maps an organization kind to the entity kind it is rated and
// scored as.
func EntityKindOf(kind OrganizationKind) EntityKind {
	if kind == OrganizationKindHospital {
		return EntityKindHospital
	}
	return EntityKindNGO
}

type PaymentType string

const (
	PaymentTypeOneTime   PaymentType = "one_time"
	PaymentTypeRecurring PaymentType = "recurring"
)

type PaymentSessionStatus string

const (
	PaymentSessionStatusPending   PaymentSessionStatus = "pending"
	PaymentSessionStatusCompleted PaymentSessionStatus = "completed"
	PaymentSessionStatusFailed    PaymentSessionStatus = "failed"
)

// DonationKind is money or one of the physical item kinds.
type DonationKind string

const (
	DonationKindMoney           DonationKind = "money"
	DonationKindFood            DonationKind = "food"
	DonationKindClothing        DonationKind = "clothing"
	DonationKindMedicalSupplies DonationKind = "medical_supplies"
	DonationKindBooks           DonationKind = "books"
	DonationKindOther           DonationKind = "other"
)

// IsMonetary reports whether k carries an amount. The empty kind defaults to money.
func (k DonationKind) IsMonetary() bool {
	return k == "" || k == DonationKindMoney
}

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusScheduled DonationStatus = "scheduled"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusCancelled DonationStatus = "cancelled"
)

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// CascadeTarget names the aggregate a donation's delta was applied to.
type CascadeTarget string

const (
	CascadeTargetOrganization CascadeTarget = "organization"
	CascadeTargetCampaign     CascadeTarget = "campaign"
)
