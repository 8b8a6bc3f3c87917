package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/reconcile"
	"github.com/mmynk/warikan/internal/storage"
)

// GroupService implements the warikan.v1.GroupService.
type GroupService struct {
	store      storage.Store
	reconciler *reconcile.Reconciler
}

// NewGroupService creates a new GroupService with the given storage backend
// and reconciler.
func NewGroupService(store storage.Store, reconciler *reconcile.Reconciler) *GroupService {
	return &GroupService{store: store, reconciler: reconciler}
}

// CreateGroup creates a new group with optional initial participants.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"participants_count", len(req.Msg.Participants),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}
	// Reject the whole request before anything is stored.
	seen := make(map[string]bool, len(req.Msg.Participants))
	for _, p := range req.Msg.Participants {
		if strings.TrimSpace(p) == "" {
			return nil, invalidArgument("participant name is required")
		}
		key := models.NormalizeName(p)
		if seen[key] {
			return nil, connectError(fmt.Errorf("%q: %w", p, storage.ErrDuplicateName))
		}
		seen[key] = true
	}

	group := &models.Group{Name: name}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	participants := make([]*models.Participant, 0, len(req.Msg.Participants))
	for _, p := range req.Msg.Participants {
		participant := &models.Participant{GroupID: group.ID, Name: strings.TrimSpace(p)}
		if err := s.store.AddParticipant(ctx, participant); err != nil {
			slog.Error("CreateGroup failed to add participant", "group_id", group.ID, "name", p, "error", err)
			return nil, connectError(err)
		}
		participants = append(participants, participant)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&CreateGroupResponse{
		Group:        toGroup(group),
		Participants: toParticipants(participants),
	}), nil
}

// GetGroup retrieves a group and its participants.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	participants, err := s.store.ListParticipants(ctx, group.ID)
	if err != nil {
		slog.Error("GetGroup failed to list participants", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&GetGroupResponse{
		Group:        toGroup(group),
		Participants: toParticipants(participants),
	}), nil
}

// AddParticipant adds a participant to a group. A new participant has a zero
// balance, so settlements are unchanged.
func (s *GroupService) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	slog.Info("AddParticipant request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("participant name is required")
	}

	participant := &models.Participant{GroupID: req.Msg.GroupID, Name: name}
	if err := s.store.AddParticipant(ctx, participant); err != nil {
		slog.Error("AddParticipant failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Participant added", "group_id", participant.GroupID, "participant_id", participant.ID)

	return connect.NewResponse(&AddParticipantResponse{
		Participant: toParticipants([]*models.Participant{participant})[0],
	}), nil
}

// ListParticipants returns a group's participants in creation order.
func (s *GroupService) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	slog.Info("ListParticipants request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	participants, err := s.store.ListParticipants(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListParticipants failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&ListParticipantsResponse{
		Participants: toParticipants(participants),
	}), nil
}

// GetBalances computes every participant's net balance from the group's payments.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	participants, err := s.store.ListParticipants(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed to list participants", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	payments, err := s.store.ListPayments(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed to list payments", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	values := make([]models.Payment, len(payments))
	for i, p := range payments {
		values[i] = *p
	}
	balances := calculator.ComputeBalances(models.ParticipantIDs(participants), values)

	resp := &GetBalancesResponse{Balances: make([]*Balance, len(balances))}
	for i, b := range balances {
		resp.Balances[i] = &Balance{ParticipantID: b.ParticipantID, Amount: b.Amount}
	}
	return connect.NewResponse(resp), nil
}

// ListSettlements returns the group's persisted settlements, computing them
// on first load.
func (s *GroupService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	slog.Info("ListSettlements request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	settlements, computed, err := s.reconciler.Ensure(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	if computed {
		slog.Info("Initial settlements computed", "group_id", req.Msg.GroupID, "count", len(settlements))
	}

	return connect.NewResponse(&ListSettlementsResponse{
		Settlements: toSettlements(settlements),
		Recomputing: s.reconciler.InFlight(req.Msg.GroupID),
	}), nil
}

// UpdateSettlementStatus marks a settlement pending or completed.
func (s *GroupService) UpdateSettlementStatus(ctx context.Context, req *connect.Request[UpdateSettlementStatusRequest]) (*connect.Response[UpdateSettlementStatusResponse], error) {
	slog.Info("UpdateSettlementStatus request received",
		"settlement_id", req.Msg.SettlementID,
		"status", req.Msg.Status,
	)

	status, err := models.ParseSettlementStatus(req.Msg.Status)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	settlement, err := s.store.SetSettlementStatus(ctx, req.Msg.SettlementID, status)
	if err != nil {
		slog.Error("UpdateSettlementStatus failed", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&UpdateSettlementStatusResponse{
		Settlement: toSettlement(settlement),
	}), nil
}

// Reconcile recomputes the group's settlements now. External systems that
// change payments call this after their writes.
func (s *GroupService) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	slog.Info("Reconcile request received", "group_id", req.Msg.GroupID)

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, connectError(err)
	}
	result, err := s.reconciler.Reconcile(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&ReconcileResponse{
		Settlements: toSettlements(result.Settlements),
		Kept:        result.Kept,
		Inserted:    result.Inserted,
		Deleted:     result.Deleted,
	}), nil
}
