package binding

//go:generate moq -out notifier_mock.go . Notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pollwatch/devicebind/internal/fingerprint"
	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/storage"
	"github.com/pollwatch/devicebind/internal/verify"
)

// Notifier delivers the out-of-band "reset requested" notification.
// Доставка best-effort: ошибка логируется и не откатывает запись.
type Notifier interface {
	NotifyResetRequested(ctx context.Context, email string, req *models.ResetRequest) error
}

// LoginOutcome - результат верификации устройства при логине
type LoginOutcome int

const (
	// OutcomeVerified - отпечаток совпал с привязкой
	OutcomeVerified LoginOutcome = iota
	// OutcomeFirstBind - аккаунт был непривязан, создана новая привязка
	OutcomeFirstBind
	// OutcomeMismatch - отпечаток не совпал; вход блокируется
	OutcomeMismatch
)

// Service owns the device-binding workflow. It is the only writer of
// binding replacements and reset resolutions; the verification engine
// itself stays a pure predicate.
type Service struct {
	logger   *slog.Logger
	bindings storage.BindingStorage
	resets   storage.ResetStorage
	engine   *verify.Engine
	notifier Notifier
	now      func() time.Time
}

// NewService creates the workflow service.
func NewService(logger *slog.Logger, bindings storage.BindingStorage, resets storage.ResetStorage, engine *verify.Engine, notifier Notifier) *Service {
	return &Service{
		logger:   logger,
		bindings: bindings,
		resets:   resets,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
	}
}

// EvaluateLogin verifies a candidate fingerprint against the account's
// stored binding. Вызывается после успешной проверки credentials.
//
// An unbound account is bound to the candidate on the spot (first use),
// unless the candidate is a low-confidence fallback digest - binding a
// random identifier would lock the owner out on the next login, so the
// first-use grace period admits the login and leaves the account unbound.
func (s *Service) EvaluateLogin(ctx context.Context, accountID string, candidate fingerprint.Digest) (LoginOutcome, error) {
	if candidate.Empty() {
		// Нет кандидата - верифицировать нечего
		return OutcomeMismatch, nil
	}

	bound, err := s.bindings.GetBinding(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrBindingNotFound) {
			return s.firstBind(ctx, accountID, candidate)
		}
		return OutcomeMismatch, fmt.Errorf("failed to load binding: %w", err)
	}

	if !s.engine.Verify(candidate, fingerprint.Digest(bound.BoundDigest)) {
		s.logger.WarnContext(ctx, "device fingerprint mismatch",
			slog.String("account_id", accountID),
			slog.Bool("fallback_candidate", candidate.IsFallback()),
		)
		return OutcomeMismatch, nil
	}

	if err := s.bindings.TouchBinding(ctx, accountID, s.now()); err != nil {
		// Не критично: верификация уже прошла
		s.logger.WarnContext(ctx, "failed to touch binding", slog.Any("error", err))
	}

	return OutcomeVerified, nil
}

func (s *Service) firstBind(ctx context.Context, accountID string, candidate fingerprint.Digest) (LoginOutcome, error) {
	if candidate.IsFallback() {
		s.logger.WarnContext(ctx, "skipping first bind for fallback digest",
			slog.String("account_id", accountID))
		return OutcomeVerified, nil
	}

	err := s.bindings.CreateBinding(ctx, &models.FingerprintBinding{
		AccountID:   accountID,
		BoundDigest: candidate.String(),
		BoundAt:     s.now(),
	})
	if err != nil {
		return OutcomeMismatch, fmt.Errorf("failed to create binding: %w", err)
	}

	s.logger.InfoContext(ctx, "device bound to account",
		slog.String("account_id", accountID))

	return OutcomeFirstBind, nil
}

// RequestReset creates a pending reset request for the account carrying
// the candidate digest of the new device. Returns
// storage.ErrResetAlreadyPending if a request is already outstanding.
func (s *Service) RequestReset(ctx context.Context, user *models.User, candidate fingerprint.Digest, contactEmail string) (*models.ResetRequest, error) {
	if candidate.Empty() {
		return nil, fmt.Errorf("candidate digest is required")
	}
	if contactEmail == "" {
		contactEmail = user.Email
	}

	// Явная проверка легальности перехода Mismatched -> ResetRequested
	if _, err := Transition(StateMismatched, EventResetSubmitted); err != nil {
		return nil, err
	}

	req := &models.ResetRequest{
		ID:              uuid.New().String(),
		AccountID:       user.ID,
		CandidateDigest: candidate.String(),
		ContactEmail:    contactEmail,
		RequestedAt:     s.now(),
		Status:          models.ResetPending,
	}

	if err := s.resets.CreateResetRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "device reset requested",
		slog.String("account_id", user.ID),
		slog.String("request_id", req.ID),
	)

	// Уведомление - best-effort побочный канал: запись в журнале уже
	// является источником истины
	if err := s.notifier.NotifyResetRequested(ctx, contactEmail, req); err != nil {
		s.logger.WarnContext(ctx, "failed to deliver reset notification",
			slog.String("request_id", req.ID),
			slog.Any("error", err),
		)
	}

	return req, nil
}

// ResolveReset applies an administrative decision to a pending request.
// Approval atomically replaces the account's binding with the request's
// candidate digest; denial leaves the account blocked. Either way the
// request is closed and kept for audit.
func (s *Service) ResolveReset(ctx context.Context, requestID string, approve bool, resolvedBy string) (*models.ResetRequest, error) {
	if resolvedBy == "" {
		return nil, fmt.Errorf("resolved_by is required")
	}

	event := EventResetDenied
	if approve {
		event = EventResetApproved
	}
	if _, err := Transition(StateResetRequested, event); err != nil {
		return nil, err
	}

	resolvedAt := s.now()
	var err error
	if approve {
		err = s.resets.ApproveReset(ctx, requestID, resolvedBy, resolvedAt)
	} else {
		err = s.resets.DenyReset(ctx, requestID, resolvedBy, resolvedAt)
	}
	if err != nil {
		return nil, err
	}

	req, err := s.resets.GetResetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload resolved request: %w", err)
	}

	s.logger.InfoContext(ctx, "device reset resolved",
		slog.String("request_id", requestID),
		slog.String("status", string(req.Status)),
		slog.String("resolved_by", resolvedBy),
	)

	return req, nil
}

// PendingReset returns the outstanding reset request for an account, or
// storage.ErrResetNotFound if there is none.
func (s *Service) PendingReset(ctx context.Context, accountID string) (*models.ResetRequest, error) {
	return s.resets.GetPendingResetRequest(ctx, accountID)
}
