package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/parser"
	"github.com/mmynk/warikan/internal/reconcile"
	"github.com/mmynk/warikan/internal/storage"
)

// PaymentParser extracts a payment from free text.
type PaymentParser interface {
	Parse(ctx context.Context, text string, participants []*models.Participant) (*parser.Candidate, error)
}

// PaymentService implements the warikan.v1.PaymentService. Every payment
// change is followed by a reconcile of the payment's group.
type PaymentService struct {
	store      storage.Store
	reconciler *reconcile.Reconciler
	parser     PaymentParser
}

// NewPaymentService creates a new PaymentService. p may be nil, in which
// case ParsePayment returns CodeUnimplemented.
func NewPaymentService(store storage.Store, reconciler *reconcile.Reconciler, p PaymentParser) *PaymentService {
	return &PaymentService{store: store, reconciler: reconciler, parser: p}
}

// CreatePayment records a payment and reconciles the group's settlements.
func (s *PaymentService) CreatePayment(ctx context.Context, req *connect.Request[CreatePaymentRequest]) (*connect.Response[CreatePaymentResponse], error) {
	slog.Info("CreatePayment request received",
		"group_id", req.Msg.GroupID,
		"title", req.Msg.Title,
		"amount", req.Msg.Amount,
		"beneficiaries_count", len(req.Msg.BeneficiaryIDs),
	)

	payment := &models.Payment{
		GroupID:        req.Msg.GroupID,
		Title:          strings.TrimSpace(req.Msg.Title),
		Amount:         req.Msg.Amount,
		PayerID:        req.Msg.PayerID,
		BeneficiaryIDs: req.Msg.BeneficiaryIDs,
	}
	if err := s.validate(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("CreatePayment failed", "error", err)
		return nil, connectError(err)
	}
	slog.Info("Payment created", "payment_id", payment.ID, "group_id", payment.GroupID)

	settlements, err := s.reconcile(ctx, payment.GroupID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&CreatePaymentResponse{
		Payment:     toPayment(payment),
		Settlements: settlements,
	}), nil
}

// UpdatePayment replaces a payment's fields and reconciles its group.
func (s *PaymentService) UpdatePayment(ctx context.Context, req *connect.Request[UpdatePaymentRequest]) (*connect.Response[UpdatePaymentResponse], error) {
	slog.Info("UpdatePayment request received",
		"payment_id", req.Msg.PaymentID,
		"amount", req.Msg.Amount,
	)

	existing, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		slog.Error("UpdatePayment failed", "payment_id", req.Msg.PaymentID, "error", err)
		return nil, connectError(err)
	}

	payment := &models.Payment{
		ID:             existing.ID,
		GroupID:        existing.GroupID,
		Title:          strings.TrimSpace(req.Msg.Title),
		Amount:         req.Msg.Amount,
		PayerID:        req.Msg.PayerID,
		BeneficiaryIDs: req.Msg.BeneficiaryIDs,
		CreatedAt:      existing.CreatedAt,
	}
	if err := s.validate(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		slog.Error("UpdatePayment failed", "payment_id", payment.ID, "error", err)
		return nil, connectError(err)
	}
	slog.Info("Payment updated", "payment_id", payment.ID)

	settlements, err := s.reconcile(ctx, payment.GroupID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&UpdatePaymentResponse{
		Payment:     toPayment(payment),
		Settlements: settlements,
	}), nil
}

// DeletePayment removes a payment and reconciles its group.
func (s *PaymentService) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		slog.Error("DeletePayment failed", "payment_id", req.Msg.PaymentID, "error", err)
		return nil, connectError(err)
	}
	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		slog.Error("DeletePayment failed", "payment_id", payment.ID, "error", err)
		return nil, connectError(err)
	}
	slog.Info("Payment deleted", "payment_id", payment.ID)

	settlements, err := s.reconcile(ctx, payment.GroupID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&DeletePaymentResponse{Settlements: settlements}), nil
}

// ListPayments returns a group's payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	slog.Info("ListPayments request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	payments, err := s.store.ListPayments(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListPayments failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	resp := &ListPaymentsResponse{Payments: make([]*Payment, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = toPayment(p)
	}
	return connect.NewResponse(resp), nil
}

// ParsePayment extracts a payment candidate from free text. Nothing is stored.
func (s *PaymentService) ParsePayment(ctx context.Context, req *connect.Request[ParsePaymentRequest]) (*connect.Response[ParsePaymentResponse], error) {
	slog.Info("ParsePayment request received", "group_id", req.Msg.GroupID)

	if s.parser == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("payment parsing is not configured"))
	}
	if strings.TrimSpace(req.Msg.Text) == "" {
		return nil, invalidArgument("text is required")
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	participants, err := s.store.ListParticipants(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}

	candidate, err := s.parser.Parse(ctx, req.Msg.Text, participants)
	if err != nil {
		slog.Warn("ParsePayment failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&ParsePaymentResponse{
		PayerID:        candidate.PayerID,
		Amount:         candidate.Amount,
		BeneficiaryIDs: candidate.BeneficiaryIDs,
		Note:           candidate.Note,
	}), nil
}

// validate checks the payment fields and that every referenced participant
// belongs to the payment's group.
func (s *PaymentService) validate(ctx context.Context, payment *models.Payment) error {
	if err := payment.Validate(); err != nil {
		return connectError(err)
	}
	if _, err := s.store.GetGroup(ctx, payment.GroupID); err != nil {
		return connectError(err)
	}
	participants, err := s.store.ListParticipants(ctx, payment.GroupID)
	if err != nil {
		return connectError(err)
	}

	members := make(map[string]bool, len(participants))
	for _, p := range participants {
		members[p.ID] = true
	}
	for _, id := range payment.Targets() {
		if !members[id] {
			return connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("%w: participant %s is not in group %s", models.ErrInvalidPayment, id, payment.GroupID))
		}
	}
	return nil
}

// reconcile runs after a committed payment change. A failure leaves the
// payment in place and asks the caller to retry.
func (s *PaymentService) reconcile(ctx context.Context, groupID string) ([]*Settlement, error) {
	result, err := s.reconciler.Reconcile(ctx, groupID)
	if err != nil {
		slog.Error("Reconcile after payment change failed", "group_id", groupID, "error", err)
		return nil, connectError(err)
	}
	return toSettlements(result.Settlements), nil
}
