package domain

const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// Transaction statuses. Transitions only move forward:
// PENDING -> COMPLETED | FAILED, COMPLETED -> REFUNDED.
const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
	TxStatusRefunded  = "REFUNDED"
)

const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentRefunded  = "REFUNDED"
)

// Reconcile sources, recorded in transaction metadata.
const (
	SourceVerify  = "verify"
	SourceWebhook = "webhook"
	SourceSweep   = "sweep"
)

// Provider webhook event names.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventRefundProcessed = "refund.processed"
)

// Domain events published after a committed state change.
const (
	TopicEnrollmentCreated  = "enrollment.created"
	TopicEnrollmentRefunded = "enrollment.refunded"
	TopicPaymentFailed      = "payment.failed"
)

const DefaultCurrency = "NGN"

const (
	AuditPaymentInitialized = "payment_initialized"
	AuditPaymentCompleted   = "payment_completed"
	AuditPaymentFailed      = "payment_failed"
	AuditPaymentRefunded    = "payment_refunded"
)
