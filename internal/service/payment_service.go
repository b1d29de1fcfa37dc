package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"coursemart/internal/cache"
	"coursemart/internal/domain"
	"coursemart/internal/models"
	"coursemart/internal/repository"
	"coursemart/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	referenceAttempts = 5
	sweepBatch        = 500
	sweepWorkers      = 4
)

type InitializeResult struct {
	Reference   string          `json:"reference"`
	RedirectURL string          `json:"redirect_url"`
	AccessCode  string          `json:"access_code"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type ReconcileResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Enrolled    bool                `json:"enrolled"`
}

type SweepResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// PaymentService owns the transaction state machine. Exactly-once enrollment rests on the
// database: the transaction row lock, the unique (user, course) enrollment index and a counter
// bump gated on the insert having written a row. The in-process singleflight only saves
// duplicate gateway calls.
type PaymentService struct {
	db           *gorm.DB
	gateway      payment.Gateway
	txRepo       *repository.TransactionRepository
	enrollRepo   *repository.EnrollmentRepository
	courseRepo   *repository.CourseRepository
	wishlistRepo *repository.WishlistRepository
	userRepo     *repository.UserRepository
	auditRepo    *repository.AuditLogRepository
	refs         *ReferenceGenerator
	notifier     *NotificationService
	courseCache  *cache.CourseCache
	callbackURL  string
	inflight     singleflight.Group
}

func NewPaymentService(
	db *gorm.DB,
	gateway payment.Gateway,
	refs *ReferenceGenerator,
	notifier *NotificationService,
	courseCache *cache.CourseCache,
	callbackURL string,
) *PaymentService {
	return &PaymentService{
		db:           db,
		gateway:      gateway,
		txRepo:       repository.NewTransactionRepository(db),
		enrollRepo:   repository.NewEnrollmentRepository(db),
		courseRepo:   repository.NewCourseRepository(db),
		wishlistRepo: repository.NewWishlistRepository(db),
		userRepo:     repository.NewUserRepository(db),
		auditRepo:    repository.NewAuditLogRepository(db),
		refs:         refs,
		notifier:     notifier,
		courseCache:  courseCache,
		callbackURL:  callbackURL,
	}
}

// InitializePayment records a PENDING transaction at the current price and asks the gateway
// for a checkout URL. The row is written first so a crash after the gateway call still leaves
// something to reconcile.
func (s *PaymentService) InitializePayment(ctx context.Context, userID, courseID uint) (*InitializeResult, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, domain.ErrCourseUnpublished
	}
	enrolled, err := s.enrollRepo.Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, domain.ErrAlreadyEnrolled
	}

	currency := course.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	tx := &models.Transaction{
		ID:       uuid.NewString(),
		Provider: s.gateway.Name(),
		UserID:   userID,
		CourseID: courseID,
		Amount:   course.ChargeAmount(),
		Currency: currency,
		Status:   domain.TxStatusPending,
	}
	if err := s.createWithReference(tx); err != nil {
		return nil, err
	}
	s.audit(domain.AuditPaymentInitialized, tx, map[string]interface{}{"amount": tx.Amount.StringFixed(2), "currency": tx.Currency})

	resp, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       user.Email,
		AmountMinor: payment.ToMinor(tx.Amount),
		Currency:    tx.Currency,
		Reference:   tx.ProviderReference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]interface{}{
			"transaction_id": tx.ID,
			"user_id":        userID,
			"course_id":      courseID,
		},
	})
	if err != nil {
		gerr := gatewayError("initialize", err)
		log.Printf("[payment] initialize %s failed: %v", tx.ProviderReference, err)
		tx.AppendMetadata("initialize_error", gerr.Message)
		if serr := s.txRepo.SaveMetadata(tx); serr != nil {
			log.Printf("[payment] save metadata %s: %v", tx.ProviderReference, serr)
		}
		return nil, gerr
	}
	tx.AppendMetadata("initialize", resp.Raw)
	if err := s.txRepo.SaveMetadata(tx); err != nil {
		log.Printf("[payment] save metadata %s: %v", tx.ProviderReference, err)
	}
	log.Printf("[payment] initialized %s user=%d course=%d amount=%s %s", tx.ProviderReference, userID, courseID, tx.Amount.StringFixed(2), tx.Currency)
	return &InitializeResult{
		Reference:   tx.ProviderReference,
		RedirectURL: resp.AuthorizationURL,
		AccessCode:  resp.AccessCode,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
	}, nil
}

func (s *PaymentService) createWithReference(tx *models.Transaction) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref := s.refs.Next()
		taken, err := s.txRepo.ReferenceExists(ref)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		tx.ProviderReference = ref
		err = s.txRepo.Create(tx)
		if errors.Is(err, domain.ErrDuplicateReference) {
			continue
		}
		return err
	}
	return fmt.Errorf("no free reference after %d attempts: %w", referenceAttempts, domain.ErrDuplicateReference)
}

// Reconcile settles the transaction behind reference. The user's verify call, provider webhooks
// and the sweep all come through here; calls after the first success return the stored result.
func (s *PaymentService) Reconcile(ctx context.Context, reference, source string, payload map[string]interface{}) (*ReconcileResult, error) {
	v, err, _ := s.inflight.Do(reference, func() (interface{}, error) {
		return s.reconcile(ctx, reference, source, payload)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReconcileResult), nil
}

func (s *PaymentService) reconcile(ctx context.Context, reference, source string, payload map[string]interface{}) (*ReconcileResult, error) {
	tx, err := s.txRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TxStatusPending {
		return s.settled(tx)
	}
	verify, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		log.Printf("[payment] verify %s via %s: %v", reference, source, err)
		return nil, gatewayError("verify", err)
	}
	return s.apply(ctx, tx, source, verify, payload)
}

// settled answers for a transaction that already left PENDING, without calling the provider.
func (s *PaymentService) settled(tx *models.Transaction) (*ReconcileResult, error) {
	if tx.Status == domain.TxStatusCompleted {
		return &ReconcileResult{Transaction: tx, Enrolled: true}, nil
	}
	enrolled, err := s.hasAccess(tx.UserID, tx.CourseID)
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Transaction: tx, Enrolled: enrolled}, nil
}

func (s *PaymentService) apply(ctx context.Context, tx *models.Transaction, source string, verify *payment.VerifyResult, payload map[string]interface{}) (*ReconcileResult, error) {
	entry := map[string]interface{}{"status": verify.Status, "gateway": verify.Raw}
	if payload != nil {
		entry["payload"] = payload
	}
	switch verify.Status {
	case payment.StatusSuccess:
		if reason := chargeMismatch(tx, verify); reason != "" {
			log.Printf("[payment] %s success rejected: %s", tx.ProviderReference, reason)
			entry["rejected"] = reason
			return s.fail(ctx, tx.ProviderReference, source, entry)
		}
		return s.complete(ctx, tx.ProviderReference, source, entry)
	case payment.StatusFailed:
		return s.fail(ctx, tx.ProviderReference, source, entry)
	default:
		log.Printf("[payment] %s still pending at provider (%s)", tx.ProviderReference, source)
		return &ReconcileResult{Transaction: tx, Enrolled: false}, nil
	}
}

// chargeMismatch guards against a success for a different amount or currency than was snapshotted.
func chargeMismatch(tx *models.Transaction, v *payment.VerifyResult) string {
	if want := payment.ToMinor(tx.Amount); v.AmountMinor != want {
		return fmt.Sprintf("charged %d minor units, expected %d", v.AmountMinor, want)
	}
	if v.Currency != "" && !strings.EqualFold(v.Currency, tx.Currency) {
		return fmt.Sprintf("charged in %s, expected %s", v.Currency, tx.Currency)
	}
	return ""
}

func (s *PaymentService) complete(ctx context.Context, reference, source string, entry map[string]interface{}) (*ReconcileResult, error) {
	var (
		current *models.Transaction
		created bool
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(dbtx)
		enrollRepo := s.enrollRepo.WithTx(dbtx)
		locked, err := txRepo.GetByReferenceForUpdate(reference)
		if err != nil {
			return err
		}
		current = locked
		if locked.Status != domain.TxStatusPending {
			return nil
		}

		created, err = enrollRepo.CreateIfAbsent(&models.Enrollment{
			UserID:        locked.UserID,
			CourseID:      locked.CourseID,
			TransactionID: locked.ID,
			PricePaid:     locked.Amount,
			Currency:      locked.Currency,
			Status:        domain.EnrollmentActive,
		})
		if err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		if created {
			if err := s.courseRepo.WithTx(dbtx).IncrementEnrollmentCount(locked.CourseID); err != nil {
				return fmt.Errorf("increment enrollment count: %w", err)
			}
		} else if existing, err := enrollRepo.Get(locked.UserID, locked.CourseID); err == nil && existing.TransactionID != locked.ID {
			log.Printf("[payment] %s paid for a course user %d already holds via transaction %s", reference, locked.UserID, existing.TransactionID)
			entry["enrollment_transaction_id"] = existing.TransactionID
		}

		locked.AppendMetadata(source, entry)
		ok, err := txRepo.Transition(locked, domain.TxStatusPending, domain.TxStatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transaction %s left PENDING under lock", reference)
		}
		s.removeWishlistEntry(dbtx, locked.UserID, locked.CourseID)
		if err := s.auditRepo.WithTx(dbtx).Create(auditEntry(domain.AuditPaymentCompleted, locked, map[string]interface{}{"source": source, "enrollment_created": created})); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		log.Printf("[payment] complete %s via %s rolled back: %v", reference, source, err)
		return nil, err
	}
	if !changed {
		return s.settled(current)
	}
	log.Printf("[payment] %s completed via %s enrollment_created=%v", reference, source, created)
	if created {
		s.courseCache.Invalidate(ctx, current.CourseID)
	}
	s.notifier.PaymentCompleted(ctx, current, source, created)
	return &ReconcileResult{Transaction: current, Enrolled: true}, nil
}

// removeWishlistEntry runs under a savepoint so a failed delete is logged without aborting
// the enrollment.
func (s *PaymentService) removeWishlistEntry(dbtx *gorm.DB, userID, courseID uint) {
	savepoint := dbtx.SavePoint("wishlist_cleanup").Error == nil
	if err := s.wishlistRepo.WithTx(dbtx).RemoveEntry(userID, courseID); err != nil {
		log.Printf("[payment] wishlist cleanup user=%d course=%d: %v", userID, courseID, err)
		if savepoint {
			dbtx.RollbackTo("wishlist_cleanup")
		}
	}
}

func (s *PaymentService) fail(ctx context.Context, reference, source string, entry map[string]interface{}) (*ReconcileResult, error) {
	var (
		current *models.Transaction
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(dbtx)
		locked, err := txRepo.GetByReferenceForUpdate(reference)
		if err != nil {
			return err
		}
		current = locked
		if locked.Status != domain.TxStatusPending {
			return nil
		}
		locked.AppendMetadata(source, entry)
		ok, err := txRepo.Transition(locked, domain.TxStatusPending, domain.TxStatusFailed)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transaction %s left PENDING under lock", reference)
		}
		changed = true
		return s.auditRepo.WithTx(dbtx).Create(auditEntry(domain.AuditPaymentFailed, locked, map[string]interface{}{"source": source}))
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.settled(current)
	}
	log.Printf("[payment] %s failed via %s", reference, source)
	s.notifier.PaymentFailed(ctx, current, source)
	return s.settled(current)
}

// Refund applies a provider refund to a COMPLETED transaction: the transaction and the
// enrollment it bought become REFUNDED and the course counter drops by one. Refunds for
// transactions in any other state are logged and dropped; a repeated refund is a no-op.
func (s *PaymentService) Refund(ctx context.Context, reference string, payload map[string]interface{}) (*models.Transaction, error) {
	var (
		current           *models.Transaction
		changed           bool
		enrollmentChanged bool
	)
	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		txRepo := s.txRepo.WithTx(dbtx)
		locked, err := txRepo.GetByReferenceForUpdate(reference)
		if err != nil {
			return err
		}
		current = locked
		if locked.Status != domain.TxStatusCompleted {
			return nil
		}
		locked.AppendMetadata("refund", payload)
		ok, err := txRepo.Transition(locked, domain.TxStatusCompleted, domain.TxStatusRefunded)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transaction %s left COMPLETED under lock", reference)
		}
		enrollmentChanged, err = s.enrollRepo.WithTx(dbtx).MarkRefunded(locked.UserID, locked.CourseID, locked.ID)
		if err != nil {
			return err
		}
		if enrollmentChanged {
			if err := s.courseRepo.WithTx(dbtx).DecrementEnrollmentCount(locked.CourseID); err != nil {
				return fmt.Errorf("decrement enrollment count: %w", err)
			}
		}
		changed = true
		return s.auditRepo.WithTx(dbtx).Create(auditEntry(domain.AuditPaymentRefunded, locked, map[string]interface{}{"enrollment_refunded": enrollmentChanged}))
	})
	if err != nil {
		if errors.Is(err, domain.ErrTxNotFound) {
			log.Printf("[payment] refund for unknown reference %s dropped", reference)
		}
		return nil, err
	}
	if !changed {
		if current.Status == domain.TxStatusRefunded {
			log.Printf("[payment] %s already refunded", reference)
		} else {
			log.Printf("[payment] refund for %s in status %s dropped", reference, current.Status)
		}
		return current, nil
	}
	log.Printf("[payment] %s refunded enrollment_refunded=%v", reference, enrollmentChanged)
	if enrollmentChanged {
		s.courseCache.Invalidate(ctx, current.CourseID)
	}
	s.notifier.PaymentRefunded(ctx, current, domain.SourceWebhook)
	return current, nil
}

// Sweep gives every PENDING transaction older than olderThan a final verify. Successes are
// reconciled; references the provider reports as failed, still pending or not found become
// FAILED. Any other gateway error leaves the row PENDING for the next run.
func (s *PaymentService) Sweep(ctx context.Context, olderThan time.Duration) (*SweepResult, error) {
	stale, err := s.txRepo.ListStalePending(time.Now().Add(-olderThan), sweepBatch)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Checked: len(stale)}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepWorkers)
	for i := range stale {
		tx := &stale[i]
		g.Go(func() error {
			status, err := s.sweepOne(gctx, tx, olderThan)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Errors++
				log.Printf("[sweep] %s: %v", tx.ProviderReference, err)
			case status == domain.TxStatusCompleted:
				res.Completed++
			case status == domain.TxStatusFailed:
				res.Failed++
			default:
				res.Skipped++
			}
			return nil
		})
	}
	g.Wait()
	log.Printf("[sweep] checked=%d completed=%d failed=%d skipped=%d errors=%d",
		res.Checked, res.Completed, res.Failed, res.Skipped, res.Errors)
	return res, nil
}

func (s *PaymentService) sweepOne(ctx context.Context, tx *models.Transaction, olderThan time.Duration) (string, error) {
	expired := map[string]interface{}{"expired": true, "pending_ttl": olderThan.String()}
	verify, err := s.gateway.Verify(ctx, tx.ProviderReference)
	if err != nil {
		var apiErr *payment.APIError
		if !errors.As(err, &apiErr) || !apiErr.UnknownReference() {
			return "", gatewayError("verify", err)
		}
		// The provider has no usable record of this reference, so it can never be paid.
		expired["gateway_error"] = apiErr.Message
		res, err := s.fail(ctx, tx.ProviderReference, domain.SourceSweep, expired)
		if err != nil {
			return "", err
		}
		return res.Transaction.Status, nil
	}
	if verify.Status == payment.StatusPending {
		expired["status"] = verify.Status
		expired["gateway"] = verify.Raw
		res, err := s.fail(ctx, tx.ProviderReference, domain.SourceSweep, expired)
		if err != nil {
			return "", err
		}
		return res.Transaction.Status, nil
	}
	res, err := s.apply(ctx, tx, domain.SourceSweep, verify, nil)
	if err != nil {
		return "", err
	}
	return res.Transaction.Status, nil
}

func (s *PaymentService) hasAccess(userID, courseID uint) (bool, error) {
	e, err := s.enrollRepo.Get(userID, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Status == domain.EnrollmentActive || e.Status == domain.EnrollmentCompleted, nil
}

func (s *PaymentService) audit(action string, tx *models.Transaction, meta map[string]interface{}) {
	if err := s.auditRepo.Create(auditEntry(action, tx, meta)); err != nil {
		log.Printf("[payment] audit %s %s: %v", action, tx.ProviderReference, err)
	}
}

// auditFrom is the status each audited action leaves.
var auditFrom = map[string]string{
	domain.AuditPaymentCompleted: domain.TxStatusPending,
	domain.AuditPaymentFailed:    domain.TxStatusPending,
	domain.AuditPaymentRefunded:  domain.TxStatusCompleted,
}

func auditEntry(action string, tx *models.Transaction, meta map[string]interface{}) *models.AuditLog {
	uid := tx.UserID
	return &models.AuditLog{
		UserID:     &uid,
		Action:     action,
		Resource:   "transaction",
		ResourceID: tx.ProviderReference,
		FromStatus: auditFrom[action],
		ToStatus:   tx.Status,
		Metadata:   datatypes.JSONMap(meta),
	}
}

func gatewayError(op string, err error) *domain.GatewayError {
	msg := err.Error()
	var apiErr *payment.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	return &domain.GatewayError{Op: op, Message: msg, Err: err}
}
