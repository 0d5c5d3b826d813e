package application

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	maxReferenceAttempts = 5

	displayDateLayout = "02/01/2006"
	displayTimeLayout = "15:04:05"
)

var exportHeader = []string{
	"tx_id", "asset", "amount", "payer", "fee", "slot", "date", "time", "status", "label",
}

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type Config struct {
	StableMint        string
	DefaultWallet     string
	DefaultFeePercent decimal.Decimal
	MatchTolerance    decimal.Decimal
	LedgerTimeout     time.Duration
	PendingTTL        time.Duration
	SweepInterval     time.Duration
	Location          *time.Location
	Network           string
}

type Service struct {
	BuildInfo BuildInfo

	cfg          Config
	repoManager  ports.RepoManager
	ledger       ports.LedgerClient
	encoder      ports.RequestEncoder
	refGenerator ports.ReferenceGenerator
	pending      domain.PendingRequestStore
	schedulerSvc ports.SchedulerService
	notifier     ports.Notifier
	clock        clock.Clock

	polls singleflight.Group
}

// NewService wires the payment request lifecycle. The notifier is optional.
func NewService(
	buildInfo BuildInfo,
	cfg Config,
	repoManager ports.RepoManager,
	ledger ports.LedgerClient,
	encoder ports.RequestEncoder,
	refGenerator ports.ReferenceGenerator,
	pending domain.PendingRequestStore,
	schedulerSvc ports.SchedulerService,
	notifier ports.Notifier,
	clk clock.Clock,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if ledger == nil {
		return nil, fmt.Errorf("missing ledger client")
	}
	if encoder == nil {
		return nil, fmt.Errorf("missing request encoder")
	}
	if refGenerator == nil {
		return nil, fmt.Errorf("missing reference generator")
	}
	if pending == nil {
		return nil, fmt.Errorf("missing pending request store")
	}
	if schedulerSvc == nil {
		return nil, fmt.Errorf("missing scheduler")
	}
	if cfg.StableMint == "" {
		return nil, fmt.Errorf("missing stable mint")
	}
	if cfg.MatchTolerance.IsNegative() {
		return nil, fmt.Errorf("match tolerance must not be negative")
	}
	if cfg.LedgerTimeout <= 0 {
		return nil, fmt.Errorf("ledger timeout must be positive")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Service{
		BuildInfo:    buildInfo,
		cfg:          cfg,
		repoManager:  repoManager,
		ledger:       ledger,
		encoder:      encoder,
		refGenerator: refGenerator,
		pending:      pending,
		schedulerSvc: schedulerSvc,
		notifier:     notifier,
		clock:        clk,
	}, nil
}

func (s *Service) Start() error {
	if s.cfg.PendingTTL > 0 && s.cfg.SweepInterval > 0 {
		if err := s.schedulerSvc.ScheduleEvery(s.cfg.SweepInterval, s.sweepPending); err != nil {
			return fmt.Errorf("failed to schedule pending sweep: %w", err)
		}
	}
	s.schedulerSvc.Start()
	log.Info("scheduler started")
	return nil
}

func (s *Service) Stop() {
	s.schedulerSvc.Stop()
	log.Info("scheduler stopped")
	if s.notifier != nil {
		s.notifier.Close()
	}
}

func (s *Service) LedgerHealth(ctx context.Context) error {
	return s.ledger.Health(ctx)
}

func (s *Service) CreatePaymentRequest(
	ctx context.Context, in CreatePaymentRequestInput,
) (*ports.Descriptor, error) {
	if !in.Asset.IsValid() {
		return nil, ErrInvalidAsset
	}

	amount, err := domain.NormalizeAmount(in.RawAmount, in.Asset)
	if err != nil {
		return nil, err
	}

	recipient := strings.TrimSpace(in.RecipientWallet)
	if recipient == "" {
		recipient = in.Merchant.WalletAddress
	}
	if recipient == "" {
		recipient = s.cfg.DefaultWallet
	}
	if recipient == "" {
		return nil, ErrInvalidWallet
	}
	if err := s.encoder.ValidateWallet(recipient); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWallet, err)
	}

	contact := strings.TrimSpace(in.Contact)
	if contact != "" && s.notifier != nil {
		normalized, err := s.notifier.NormalizeContact(contact)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidContact, err)
		}
		contact = normalized
	}

	label := in.Label
	if label == "" {
		label = in.Merchant.Label
	}
	feePercent := in.Merchant.EffectiveFeePercent(s.cfg.DefaultFeePercent)

	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		reference, err := s.refGenerator.Generate()
		if err != nil {
			return nil, err
		}

		descriptor, err := s.encoder.Encode(
			recipient, amount, in.Asset, reference, label, in.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payment request: %w", err)
		}

		req := domain.PendingPaymentRequest{
			Reference:       reference,
			Asset:           in.Asset,
			ExpectedAmount:  amount,
			RecipientWallet: recipient,
			MerchantID:      in.Merchant.ID,
			MerchantLabel:   label,
			Message:         in.Message,
			CustomerContact: contact,
			FeePercent:      feePercent,
			Descriptor:      descriptor.URL,
			CreatedAt:       s.clock.Now(),
		}
		if err := s.pending.Put(req); err != nil {
			if errors.Is(err, domain.ErrReferenceExists) {
				log.WithField("attempt", attempt).Warn("reference collision, regenerating")
				continue
			}
			return nil, err
		}

		log.WithFields(log.Fields{
			"reference": reference,
			"asset":     in.Asset,
			"amount":    amount,
			"merchant":  in.Merchant.ID,
		}).Debug("created payment request")
		return descriptor, nil
	}

	return nil, fmt.Errorf(
		"failed to allocate a unique reference after %d attempts", maxReferenceAttempts,
	)
}

// GetPendingRequest returns the pending request for a reference, if any.
func (s *Service) GetPendingRequest(reference string) (*domain.PendingPaymentRequest, bool) {
	return s.pending.Get(reference)
}

// ConfirmPaymentRequest polls the ledger for a payment tagged with the
// reference. Not found yet, not final yet and ledger timeouts all report
// StatePending with a nil error. Other ledger failures also report
// StatePending along with a *ReconciliationError.
//
// Concurrent polls for the same reference share one reconciliation, which
// does not inherit the cancellation of whichever caller started it. A caller
// whose context ends first gets StatePending with the context error.
func (s *Service) ConfirmPaymentRequest(
	ctx context.Context, reference string,
) (*PaymentStatus, error) {
	ch := s.polls.DoChan(reference, func() (any, error) {
		return s.confirm(context.WithoutCancel(ctx), reference)
	})

	select {
	case res := <-ch:
		status, _ := res.Val.(*PaymentStatus)
		if status == nil {
			status = &PaymentStatus{State: StatePending}
		}
		copied := *status
		return &copied, res.Err
	case <-ctx.Done():
		return &PaymentStatus{State: StatePending}, ctx.Err()
	}
}

func (s *Service) confirm(ctx context.Context, reference string) (*PaymentStatus, error) {
	stored, err := s.storedPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return confirmedStatus(stored), nil
	}

	req, ok := s.pending.Get(reference)
	if !ok {
		// A concurrent poll may have just settled and evicted it.
		stored, err := s.storedPayment(ctx, reference)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return confirmedStatus(stored), nil
		}
		return &PaymentStatus{State: StateNotFound}, ErrReferenceNotFound
	}

	pending := &PaymentStatus{State: StatePending, Asset: req.Asset}
	logger := log.WithField("reference", reference)

	ledgerCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerTimeout)
	defer cancel()

	candidates, err := s.ledger.FindTaggedTransactions(ledgerCtx, reference)
	if err != nil {
		if errors.Is(err, ports.ErrTransactionNotFound) {
			return pending, nil
		}
		if isLedgerTimeout(ctx, ledgerCtx, err) {
			logger.Debug("ledger lookup timed out")
			return pending, nil
		}
		return pending, &ReconciliationError{reference, err}
	}

	for _, tagged := range candidates {
		payment, result, err := s.settle(ctx, ledgerCtx, req, tagged.Signature)
		if err != nil {
			if isLedgerTimeout(ctx, ledgerCtx, err) {
				logger.Debug("ledger fetch timed out")
				return pending, nil
			}
			return pending, &ReconciliationError{reference, err}
		}
		if payment == nil {
			continue
		}

		if result == domain.WriteInserted {
			logger.WithFields(log.Fields{
				"tx_id":    payment.TxID,
				"asset":    payment.Asset,
				"received": payment.ReceivedAmount,
			}).Info("payment confirmed")
		} else {
			logger.WithField("tx_id", payment.TxID).Debug("payment already stored")
		}

		s.pending.Remove(reference)

		if result == domain.WriteInserted && req.CustomerContact != "" && s.notifier != nil {
			go s.notify(req.CustomerContact, *payment)
		}
		return confirmedStatus(payment), nil
	}

	return pending, nil
}

// settle reconciles one tagged transaction against the request. It returns a
// nil payment when the transaction cannot settle this request, so the caller
// moves on to the next candidate.
func (s *Service) settle(
	ctx, ledgerCtx context.Context, req *domain.PendingPaymentRequest, signature string,
) (*domain.ConfirmedPayment, domain.WriteResult, error) {
	logger := log.WithFields(log.Fields{"reference": req.Reference, "signature": signature})

	tx, err := s.ledger.GetParsedTransaction(ledgerCtx, signature)
	if err != nil {
		if errors.Is(err, ports.ErrTransactionNotAvailable) ||
			errors.Is(err, ports.ErrTransactionNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	received, err := receivedAmount(tx, req.Asset, req.RecipientWallet, s.cfg.StableMint)
	if err != nil {
		return nil, 0, err
	}

	if !isMatch(received, req.ExpectedAmount, s.cfg.MatchTolerance) {
		logger.WithFields(log.Fields{
			"expected": req.ExpectedAmount,
			"received": received,
		}).Info("tagged transaction does not cover the expected amount")
		return nil, 0, nil
	}

	payments := s.repoManager.Payments()
	payment := s.newConfirmedPayment(req, tx, received)

	result, err := payments.AddIfAbsent(ctx, payment)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to store payment: %w", err)
	}
	if result == domain.WriteInserted {
		return &payment, result, nil
	}

	existing, err := payments.GetByTxID(ctx, payment.TxID)
	if err != nil {
		return nil, 0, err
	}
	if existing.Reference != req.Reference {
		logger.WithField("settled_reference", existing.Reference).
			Warn("transaction already settled another payment request")
		return nil, 0, nil
	}
	return existing, result, nil
}

func (s *Service) storedPayment(
	ctx context.Context, reference string,
) (*domain.ConfirmedPayment, error) {
	payment, err := s.repoManager.Payments().GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	return payment, nil
}

func (s *Service) newConfirmedPayment(
	req *domain.PendingPaymentRequest, tx *ports.ParsedTransaction, received decimal.Decimal,
) domain.ConfirmedPayment {
	now := s.clock.Now()
	blockTime := now
	if tx.BlockTime != nil {
		blockTime = *tx.BlockTime
	}
	local := blockTime.In(s.cfg.Location)

	return domain.ConfirmedPayment{
		TxID:            tx.Signature,
		Reference:       req.Reference,
		Asset:           req.Asset,
		ReceivedAmount:  received,
		ExpectedAmount:  req.ExpectedAmount,
		RecipientWallet: req.RecipientWallet,
		PayerAddress:    payerAddress(tx),
		NetworkFee:      lamports(tx.Fee),
		BlockSlot:       tx.Slot,
		BlockTime:       blockTime.UTC(),
		DisplayDate:     local.Format(displayDateLayout),
		DisplayTime:     local.Format(displayTimeLayout),
		Status:          domain.PaymentSuccess,
		MerchantLabel:   req.MerchantLabel,
		Network:         s.cfg.Network,
		FeePercent:      req.FeePercent,
		InsertedAt:      now.UTC(),
	}
}

func (s *Service) ListHistory(
	ctx context.Context, merchant domain.Merchant, asset *domain.Asset, page domain.Pagination,
) (*History, error) {
	if merchant.WalletAddress == "" {
		return nil, ErrInvalidWallet
	}
	page = page.Normalize()

	filter := domain.HistoryFilter{RecipientWallet: merchant.WalletAddress, Asset: asset}
	result, err := s.repoManager.Payments().History(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	claimed, err := s.repoManager.Claims().TotalsByMerchant(ctx, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}

	return &History{
		Rows:            result.Rows,
		Total:           result.Total,
		Page:            page.Page,
		PageSize:        page.PageSize,
		GrossTotals:     result.Totals,
		AvailableTotals: domain.AvailableBalance(result.Totals, claimed),
		FeeTotals:       result.FeeTotals,
	}, nil
}

// ExportHistory writes every confirmed payment of the merchant as CSV.
func (s *Service) ExportHistory(
	ctx context.Context, merchant domain.Merchant, asset *domain.Asset, w io.Writer,
) error {
	if merchant.WalletAddress == "" {
		return ErrInvalidWallet
	}

	filter := domain.HistoryFilter{RecipientWallet: merchant.WalletAddress, Asset: asset}
	rows, err := s.repoManager.Payments().All(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, p := range rows {
		if err := cw.Write([]string{
			p.TxID,
			p.Asset.String(),
			p.ReceivedAmount.String(),
			p.PayerAddress,
			p.NetworkFee.String(),
			strconv.FormatUint(p.BlockSlot, 10),
			p.DisplayDate,
			p.DisplayTime,
			p.Status.String(),
			p.MerchantLabel,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecordClaim books a withdrawal against the merchant available balance.
func (s *Service) RecordClaim(
	ctx context.Context, merchant domain.Merchant, asset domain.Asset, rawAmount string,
) (*domain.Claim, error) {
	if merchant.ID == "" {
		return nil, fmt.Errorf("missing merchant id")
	}
	if !asset.IsValid() {
		return nil, ErrInvalidAsset
	}
	amount, err := domain.NormalizeAmount(rawAmount, asset)
	if err != nil {
		return nil, err
	}

	claim := domain.Claim{
		ID:         uuid.NewString(),
		MerchantID: merchant.ID,
		Asset:      asset,
		Amount:     amount,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repoManager.Claims().Add(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to add claim: %w", err)
	}
	return &claim, nil
}

func (s *Service) sweepPending() {
	cutoff := s.clock.Now().Add(-s.cfg.PendingTTL)
	if count := s.pending.Sweep(cutoff); count > 0 {
		log.Infof("evicted %d expired payment requests", count)
	}
}

func (s *Service) notify(contact string, payment domain.ConfirmedPayment) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LedgerTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, contact, notificationText(payment)); err != nil {
		log.WithError(err).WithField("tx_id", payment.TxID).Warn("failed to notify customer")
	}
}

func confirmedStatus(p *domain.ConfirmedPayment) *PaymentStatus {
	return &PaymentStatus{
		State:  StateConfirmed,
		TxID:   p.TxID,
		Amount: p.ReceivedAmount,
		Asset:  p.Asset,
	}
}

// isLedgerTimeout tells a ledger timeout apart from the caller giving up.
func isLedgerTimeout(parent, ledgerCtx context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || ledgerCtx.Err() != nil
}
