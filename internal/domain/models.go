package domain

import "time"

// ContractorStatus is the approval state of a registered contractor.
type ContractorStatus string

const (
	ContractorPending  ContractorStatus = "PendingApproval"
	ContractorApproved ContractorStatus = "Approved"
	ContractorRejected ContractorStatus = "Rejected"
	ContractorRevoked  ContractorStatus = "Revoked"
)

// ContractStatus is the lifecycle state of a published contract.
type ContractStatus string

const (
	ContractOpen           ContractStatus = "Open"
	ContractClosed         ContractStatus = "Closed"
	ContractAwarded        ContractStatus = "Awarded"
	ContractCanceled       ContractStatus = "Canceled"
	ContractWorkInProgress ContractStatus = "WorkInProgress"
	ContractWorkCompleted  ContractStatus = "WorkCompleted"
)

// BidStatus is the lifecycle state of a submitted bid.
type BidStatus string

const (
	BidSubmitted BidStatus = "Submitted"
	BidAwarded   BidStatus = "Awarded"
	BidWithdrawn BidStatus = "Withdrawn"
)

// Contractor is one registered identity and its approval state.
type Contractor struct {
	Identity    string           `json:"identity"`
	DisplayName string           `json:"display_name"`
	Status      ContractorStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Contract is a published procurement contract. All monetary amounts are
// int64 minor units. AwardedBid is 0 while no bid has been awarded; ids are
// allocated from a counter shared with bids and never equal 0.
type Contract struct {
	ID                       int64          `json:"id"`
	Description              string         `json:"description"`
	BidDeadline              time.Time      `json:"bid_deadline"`
	AgreedAmount             int64          `json:"agreed_amount"`
	DailyPenaltyRatePerMille int64          `json:"daily_penalty_rate_per_thousand"`
	MaxPenaltyPercent        int64          `json:"max_penalty_percent"`
	AwardedBid               int64          `json:"awarded_bid"`
	Status                   ContractStatus `json:"status"`
	SubmittedBidIDs          []int64        `json:"submitted_bid_ids"`
	IsPaid                   bool           `json:"is_paid"`
	PlannedDurationDays      int64          `json:"planned_duration_days"`
	WorkStartedAt            time.Time      `json:"work_started_at"`
	WorkCompletedAt          time.Time      `json:"work_completed_at"`
	EscrowBalance            int64          `json:"escrow_balance"`
}

// Bid is one contractor's offer against an open contract. A contractor gets
// at most one bid per contract, in any status; withdrawal does not free the
// slot.
type Bid struct {
	ID                 int64     `json:"id"`
	ContractorIdentity string    `json:"contractor_identity"`
	ContractID         int64     `json:"contract_id"`
	Amount             int64     `json:"amount"`
	DurationDays       int64     `json:"duration_days"`
	Status             BidStatus `json:"status"`
}

// Account is a contractor's payout balance.
type Account struct {
	Identity string `json:"identity"`
	Balance  int64  `json:"balance"`
}

// Event is the audit record emitted by every successful mutating operation:
// which entity changed and the status or field it ended up with.
type Event struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	EntityID string    `json:"entity_id"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
}
