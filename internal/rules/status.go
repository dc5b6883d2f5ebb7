package rules

type IdentityStatus string

const (
	IdentityPending    IdentityStatus = "PENDING"
	IdentityProcessing IdentityStatus = "PROCESSING"
	IdentityVerified   IdentityStatus = "VERIFIED"
	IdentityRejected   IdentityStatus = "REJECTED"
	IdentitySuspended  IdentityStatus = "SUSPENDED"
)

// IdentityMachine governs identities.status. Owner deletion may suspend from any state.
var IdentityMachine = NewMachine("status", map[IdentityStatus][]IdentityStatus{
	IdentityPending:    {IdentityProcessing},
	IdentityProcessing: {IdentityVerified, IdentityRejected},
	IdentityVerified:   {IdentitySuspended},
	IdentityRejected:   {IdentityPending},
	IdentitySuspended:  {IdentityVerified},
}).WithForced(IdentitySuspended, IdentityPending, IdentityProcessing, IdentityVerified, IdentityRejected)

type TrainingStatus string

const (
	TrainingPending    TrainingStatus = "PENDING"
	TrainingQueued     TrainingStatus = "QUEUED"
	TrainingProcessing TrainingStatus = "PROCESSING"
	TrainingCompleted  TrainingStatus = "COMPLETED"
	TrainingFailed     TrainingStatus = "FAILED"
)

// TrainingMachine governs actor_packs.training_status. Identity deletion fails any in-flight run.
var TrainingMachine = NewMachine("training_status", map[TrainingStatus][]TrainingStatus{
	TrainingPending:    {TrainingQueued},
	TrainingQueued:     {TrainingProcessing},
	TrainingProcessing: {TrainingCompleted, TrainingFailed},
	TrainingFailed:     {TrainingQueued},
	TrainingCompleted:  nil,
}).WithForced(TrainingFailed, TrainingPending, TrainingQueued, TrainingProcessing)

// InFlight reports whether a training run has not reached an outcome yet.
func (s TrainingStatus) InFlight() bool {
	return s == TrainingPending || s == TrainingQueued || s == TrainingProcessing
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
	PaymentDisputed   PaymentStatus = "DISPUTED"
)

var PaymentMachine = NewMachine("payment_status", map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentFailed},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
	PaymentCompleted:  {PaymentRefunded, PaymentDisputed},
	PaymentFailed:     {PaymentPending},
	PaymentRefunded:   nil,
	PaymentDisputed:   {PaymentRefunded, PaymentCompleted},
})

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "PENDING"
	PayoutProcessing PayoutStatus = "PROCESSING"
	PayoutCompleted  PayoutStatus = "COMPLETED"
	PayoutFailed     PayoutStatus = "FAILED"
	PayoutCanceled   PayoutStatus = "CANCELED"
)

var PayoutMachine = NewMachine("payout_status", map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutProcessing, PayoutCanceled},
	PayoutProcessing: {PayoutCompleted, PayoutFailed},
	PayoutCompleted:  nil,
	PayoutFailed:     {PayoutPending},
	PayoutCanceled:   nil,
})
