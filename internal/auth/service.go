package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kichiro01/ToPick-api/internal/model"
)

// Reasons attached to rejected redemptions in logs, audit events and metrics.
const (
	RejectNotFound    = "not_found"
	RejectWrongCode   = "wrong_code"
	RejectExpired     = "expired"
	RejectAlreadyUsed = "already_used"
	RejectRateLimited = "rate_limited"
)

// Recorder receives workflow counters.
type Recorder interface {
	CodeIssued()
	CodeRedeemed()
	CodeRejected(reason string)
}

// RedeemLimiter throttles failed redemptions per client address.
type RedeemLimiter interface {
	RedeemBlocked(ctx context.Context, ip string) (bool, time.Duration, error)
	RegisterRedeemFailure(ctx context.Context, ip string) (bool, error)
	ResetRedeem(ctx context.Context, ip string)
}

// Service issues and redeems one-time auth codes used to move an account to
// another device.
type Service struct {
	store    model.AuthStore
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
	generate CodeGenerator
	auditor  Auditor
	recorder Recorder
	limiter  RedeemLimiter
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.generate = gen }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithRedeemLimiter(l RedeemLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

func NewService(store model.AuthStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		ttl:    model.AuthCodeTTL,
		now:    time.Now,
		generate: func() string {
			return RandomCode(model.AuthCodeLength)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a pending code for userID. It fails with a not-found error for
// unknown users and with a conflict while another code is still pending.
func (s *Service) Issue(ctx context.Context, userID int64) (model.AuthCode, error) {
	s.logger.DebugContext(ctx, "AuthService: issuing auth code", "user_id", userID)

	var issued model.AuthCode
	err := s.store.WithTx(ctx, func(tx model.AuthTx) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.UserNotFound(userID)
			}
			return err
		}

		pending, err := tx.HasPending(ctx, userID)
		if err != nil {
			return err
		}
		if pending {
			return model.NewConflict("Valid auth code for User with id %d already exists", userID)
		}

		now := s.timestamp()
		issued, err = tx.Insert(ctx, model.AuthCode{
			UserID:    userID,
			Code:      s.generate(),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		if model.KindOf(err) == 0 {
			s.logger.ErrorContext(ctx, "AuthService: failed to issue auth code", "user_id", userID, "error", err)
			return model.AuthCode{}, fmt.Errorf("issue auth code: %w", err)
		}
		s.logger.InfoContext(ctx, "AuthService: auth code refused", "user_id", userID, "reason", model.KindOf(err).String())
		return model.AuthCode{}, err
	}

	s.logger.InfoContext(ctx, "AuthService: auth code issued", "user_id", userID, "auth_id", issued.ID)
	if s.recorder != nil {
		s.recorder.CodeIssued()
	}
	s.audit(ctx, AuditEvent{EventType: EventCodeIssued, UserID: userID, AuthID: issued.ID})
	return issued, nil
}

// Redeem checks authID/code and marks the code used. Checks run in order
// (exists, code matches, not expired, not used) and the first failure wins;
// nothing is written unless all pass. It returns the owning user id.
func (s *Service) Redeem(ctx context.Context, authID int64, code string) (int64, error) {
	ip := ClientIP(ctx)
	if s.limiter != nil {
		blocked, ttl, err := s.limiter.RedeemBlocked(ctx, ip)
		if err != nil {
			return 0, fmt.Errorf("check redeem limit: %w", err)
		}
		if blocked {
			s.reject(ctx, authID, 0, RejectRateLimited)
			return 0, model.NewTooManyRequests("Too many failed attempts, retry in %d seconds", int(math.Ceil(ttl.Seconds())))
		}
	}

	var (
		userID int64
		reason string
	)
	err := s.store.WithTx(ctx, func(tx model.AuthTx) error {
		row, err := tx.GetForUpdate(ctx, authID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				reason = RejectNotFound
				return model.NewNotFound("Auth with id %d not found", authID)
			}
			return err
		}
		userID = row.UserID

		now := s.timestamp()
		switch {
		case !equalCode(row.Code, code):
			reason = RejectWrongCode
			return model.NewUnauthorized("Wrong auth_code for Auth with id %d", authID)
		case row.Expired(now, s.ttl):
			reason = RejectExpired
			return model.NewUnauthorized("Auth with id %d has expired", authID)
		case !row.Pending():
			reason = RejectAlreadyUsed
			return model.NewUnauthorized("Auth with id %d has already been used", authID)
		}

		if err := tx.MarkAuthenticated(ctx, authID, now); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				reason = RejectAlreadyUsed
				return model.NewUnauthorized("Auth with id %d has already been used", authID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if reason == "" {
			s.logger.ErrorContext(ctx, "AuthService: failed to redeem auth code", "auth_id", authID, "error", err)
			return 0, fmt.Errorf("redeem auth code: %w", err)
		}
		s.reject(ctx, authID, userID, reason)
		if s.limiter != nil {
			if _, lerr := s.limiter.RegisterRedeemFailure(ctx, ip); lerr != nil {
				s.logger.WarnContext(ctx, "AuthService: failed to count redeem failure", "ip", ip, "error", lerr)
			}
		}
		return 0, err
	}

	if s.limiter != nil {
		s.limiter.ResetRedeem(ctx, ip)
	}
	s.logger.InfoContext(ctx, "AuthService: auth code redeemed", "auth_id", authID, "user_id", userID)
	if s.recorder != nil {
		s.recorder.CodeRedeemed()
	}
	s.audit(ctx, AuditEvent{EventType: EventCodeRedeemed, UserID: userID, AuthID: authID})
	return userID, nil
}

func (s *Service) reject(ctx context.Context, authID, userID int64, reason string) {
	s.logger.InfoContext(ctx, "AuthService: auth code rejected", "auth_id", authID, "reason", reason)
	if s.recorder != nil {
		s.recorder.CodeRejected(reason)
	}
	s.audit(ctx, AuditEvent{
		EventType: EventCodeRejected,
		UserID:    userID,
		AuthID:    authID,
		Meta:      map[string]any{"reason": reason},
	})
}

func (s *Service) audit(ctx context.Context, e AuditEvent) {
	if s.auditor == nil {
		return
	}
	e.IP = ClientIP(ctx)
	e.Timestamp = s.now().UTC()
	if err := s.auditor.Log(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "AuthService: failed to write audit event", "event", e.EventType, "error", err)
	}
}

// timestamp matches the precision postgres keeps so created_at == updated_at
// survives a round trip.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func equalCode(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
