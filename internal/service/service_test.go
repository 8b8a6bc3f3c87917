package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/middleware"
	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/parser"
	"github.com/mmynk/warikan/internal/reconcile"
	"github.com/mmynk/warikan/internal/storage"
	"github.com/mmynk/warikan/internal/storage/sqlite"
)

type testClients struct {
	groups   *GroupServiceClient
	payments *PaymentServiceClient
	store    storage.Store
}

type serverOptions struct {
	wrap   func(storage.Store) storage.Store
	parser PaymentParser
}

// setupTestServer starts both services over a temp SQLite database.
func setupTestServer(t *testing.T, opts serverOptions) *testClients {
	t.Helper()

	base, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	var store storage.Store = base
	if opts.wrap != nil {
		store = opts.wrap(base)
	}

	reconciler := reconcile.New(store, reconcile.WithRetries(2), reconcile.WithBackoff(0))
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(NewGroupServiceHandler(NewGroupService(store, reconciler), interceptors))
	mux.Handle(NewPaymentServiceHandler(NewPaymentService(store, reconciler, opts.parser), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		base.Close()
	})

	return &testClients{
		groups:   NewGroupServiceClient(http.DefaultClient, server.URL),
		payments: NewPaymentServiceClient(http.DefaultClient, server.URL),
		store:    store,
	}
}

// createGroup creates a group with the given participants and returns the
// group ID and participant IDs keyed by name.
func createGroup(t *testing.T, c *testClients, names ...string) (string, map[string]string) {
	t.Helper()

	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{
		Name:         "Trip",
		Participants: names,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	ids := make(map[string]string, len(names))
	for _, p := range resp.Msg.Participants {
		ids[p.Name] = p.ID
	}
	return resp.Msg.Group.ID, ids
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

type transfer struct {
	from, to string
	amount   int64
}

func transfers(settlements []*Settlement) []transfer {
	out := make([]transfer, len(settlements))
	for i, s := range settlements {
		out[i] = transfer{s.FromID, s.ToID, s.Amount}
	}
	return out
}

func assertTransfers(t *testing.T, got []*Settlement, want []transfer) {
	t.Helper()
	have := transfers(got)
	if len(have) != len(want) {
		t.Fatalf("expected %d transfers, got %d: %+v", len(want), len(have), have)
	}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("transfer %d: expected %+v, got %+v", i, want[i], have[i])
		}
	}
}

// countingStore counts groups written through it.
type countingStore struct {
	storage.Store
	groups atomic.Int32
}

func (s *countingStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.groups.Add(1)
	return s.Store.CreateGroup(ctx, group)
}

func TestCreateGroup(t *testing.T) {
	counter := &countingStore{}
	c := setupTestServer(t, serverOptions{wrap: func(s storage.Store) storage.Store {
		counter.Store = s
		return counter
	}})

	tests := []struct {
		name         string
		req          *CreateGroupRequest
		wantCode     connect.Code
		validateFunc func(t *testing.T, resp *CreateGroupResponse)
	}{
		{
			name: "with participants",
			req:  &CreateGroupRequest{Name: "Hakone", Participants: []string{"Alice", "Bob", "Charlie"}},
			validateFunc: func(t *testing.T, resp *CreateGroupResponse) {
				if resp.Group.ID == "" {
					t.Error("expected group ID to be set")
				}
				if len(resp.Participants) != 3 {
					t.Fatalf("expected 3 participants, got %d", len(resp.Participants))
				}
				for i, name := range []string{"Alice", "Bob", "Charlie"} {
					if resp.Participants[i].Name != name {
						t.Errorf("participant %d: expected %s, got %s", i, name, resp.Participants[i].Name)
					}
				}
			},
		},
		{
			name: "empty group",
			req:  &CreateGroupRequest{Name: "Solo"},
			validateFunc: func(t *testing.T, resp *CreateGroupResponse) {
				if len(resp.Participants) != 0 {
					t.Errorf("expected no participants, got %d", len(resp.Participants))
				}
			},
		},
		{
			name:     "missing name",
			req:      &CreateGroupRequest{Name: "  "},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "duplicate participant",
			req:      &CreateGroupRequest{Name: "Dup", Participants: []string{"Alice", "alice"}},
			wantCode: connect.CodeAlreadyExists,
		},
		{
			name:     "duplicate after normalisation",
			req:      &CreateGroupRequest{Name: "Dup", Participants: []string{"Bob", "Ｂｏｂ "}},
			wantCode: connect.CodeAlreadyExists,
		},
		{
			name:     "blank participant",
			req:      &CreateGroupRequest{Name: "Blank", Participants: []string{"Alice", " "}},
			wantCode: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counter.groups.Load()
			resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(tt.req))
			if tt.wantCode != 0 {
				assertCode(t, err, tt.wantCode)
				if n := counter.groups.Load() - before; n != 0 {
					t.Errorf("expected no group to be stored on error, got %d", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateGroup failed: %v", err)
			}
			tt.validateFunc(t, resp.Msg)
		})
	}
}

func TestGetGroup(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	groupID, _ := createGroup(t, c, "Alice", "Bob")

	resp, err := c.groups.GetGroup(context.Background(), connect.NewRequest(&GetGroupRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Trip" {
		t.Errorf("expected name Trip, got %s", resp.Msg.Group.Name)
	}
	if len(resp.Msg.Participants) != 2 {
		t.Errorf("expected 2 participants, got %d", len(resp.Msg.Participants))
	}

	_, err = c.groups.GetGroup(context.Background(), connect.NewRequest(&GetGroupRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestAddParticipant(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	groupID, _ := createGroup(t, c, "Alice")

	resp, err := c.groups.AddParticipant(context.Background(), connect.NewRequest(&AddParticipantRequest{
		GroupID: groupID,
		Name:    "Bob",
	}))
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	if resp.Msg.Participant.ID == "" || resp.Msg.Participant.GroupID != groupID {
		t.Errorf("unexpected participant: %+v", resp.Msg.Participant)
	}

	_, err = c.groups.AddParticipant(context.Background(), connect.NewRequest(&AddParticipantRequest{GroupID: groupID, Name: "ＢＯＢ"}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = c.groups.AddParticipant(context.Background(), connect.NewRequest(&AddParticipantRequest{GroupID: groupID, Name: ""}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.groups.AddParticipant(context.Background(), connect.NewRequest(&AddParticipantRequest{GroupID: "missing", Name: "Carol"}))
	assertCode(t, err, connect.CodeNotFound)

	list, err := c.groups.ListParticipants(context.Background(), connect.NewRequest(&ListParticipantsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(list.Msg.Participants) != 2 || list.Msg.Participants[1].Name != "Bob" {
		t.Errorf("unexpected participants: %+v", list.Msg.Participants)
	}
}

func TestCreatePaymentReconciles(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	groupID, ids := createGroup(t, c, "A", "B", "C")

	resp, err := c.payments.CreatePayment(context.Background(), connect.NewRequest(&CreatePaymentRequest{
		GroupID:        groupID,
		Title:          "Dinner",
		Amount:         3000,
		PayerID:        ids["A"],
		BeneficiaryIDs: []string{ids["A"], ids["B"], ids["C"]},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if resp.Msg.Payment.ID == "" {
		t.Error("expected payment ID to be set")
	}
	assertTransfers(t, resp.Msg.Settlements, []transfer{
		{ids["B"], ids["A"], 1000},
		{ids["C"], ids["A"], 1000},
	})
	for _, s := range resp.Msg.Settlements {
		if s.ID == "" || s.Status != string(models.StatusPending) {
			t.Errorf("expected persisted pending settlement, got %+v", s)
		}
	}

	balances, err := c.groups.GetBalances(context.Background(), connect.NewRequest(&GetBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	want := map[string]float64{ids["A"]: 2000, ids["B"]: -1000, ids["C"]: -1000}
	for _, b := range balances.Msg.Balances {
		if b.Amount != want[b.ParticipantID] {
			t.Errorf("balance of %s: expected %v, got %v", b.ParticipantID, want[b.ParticipantID], b.Amount)
		}
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	groupID, ids := createGroup(t, c, "A", "B")
	_, otherIDs := createGroup(t, c, "X")

	tests := []struct {
		name     string
		req      *CreatePaymentRequest
		wantCode connect.Code
	}{
		{"missing title", &CreatePaymentRequest{GroupID: groupID, Amount: 100, PayerID: ids["A"]}, connect.CodeInvalidArgument},
		{"zero amount", &CreatePaymentRequest{GroupID: groupID, Title: "t", PayerID: ids["A"]}, connect.CodeInvalidArgument},
		{"negative amount", &CreatePaymentRequest{GroupID: groupID, Title: "t", Amount: -5, PayerID: ids["A"]}, connect.CodeInvalidArgument},
		{"missing payer", &CreatePaymentRequest{GroupID: groupID, Title: "t", Amount: 100}, connect.CodeInvalidArgument},
		{"payer from another group", &CreatePaymentRequest{GroupID: groupID, Title: "t", Amount: 100, PayerID: otherIDs["X"]}, connect.CodeInvalidArgument},
		{"unknown beneficiary", &CreatePaymentRequest{GroupID: groupID, Title: "t", Amount: 100, PayerID: ids["A"], BeneficiaryIDs: []string{"ghost"}}, connect.CodeInvalidArgument},
		{"unknown group", &CreatePaymentRequest{GroupID: "missing", Title: "t", Amount: 100, PayerID: ids["A"]}, connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.payments.CreatePayment(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.wantCode)
		})
	}

	list, err := c.payments.ListPayments(context.Background(), connect.NewRequest(&ListPaymentsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(list.Msg.Payments) != 0 {
		t.Errorf("expected no payments stored, got %d", len(list.Msg.Payments))
	}
}

// Editing an amount replaces the transfers and does not carry a completed
// marking over to the new amount.
func TestUpdatePaymentReplacesCompletedSettlement(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B", "C")

	created, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
		GroupID:        groupID,
		Title:          "Hotel",
		Amount:         3000,
		PayerID:        ids["A"],
		BeneficiaryIDs: []string{ids["A"], ids["B"], ids["C"]},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	paid := created.Msg.Settlements[0]
	status, err := c.groups.UpdateSettlementStatus(ctx, connect.NewRequest(&UpdateSettlementStatusRequest{
		SettlementID: paid.ID,
		Status:       string(models.StatusCompleted),
	}))
	if err != nil {
		t.Fatalf("UpdateSettlementStatus failed: %v", err)
	}
	if status.Msg.Settlement.Status != string(models.StatusCompleted) {
		t.Fatalf("expected completed, got %s", status.Msg.Settlement.Status)
	}

	updated, err := c.payments.UpdatePayment(ctx, connect.NewRequest(&UpdatePaymentRequest{
		PaymentID:      created.Msg.Payment.ID,
		Title:          "Hotel",
		Amount:         6000,
		PayerID:        ids["A"],
		BeneficiaryIDs: []string{ids["A"], ids["B"], ids["C"]},
	}))
	if err != nil {
		t.Fatalf("UpdatePayment failed: %v", err)
	}
	assertTransfers(t, updated.Msg.Settlements, []transfer{
		{ids["B"], ids["A"], 2000},
		{ids["C"], ids["A"], 2000},
	})
	for _, s := range updated.Msg.Settlements {
		if s.Status != string(models.StatusPending) {
			t.Errorf("expected pending after amount change, got %+v", s)
		}
		if s.ID == paid.ID {
			t.Errorf("completed settlement %s survived an amount change", paid.ID)
		}
	}

	list, err := c.groups.ListSettlements(ctx, connect.NewRequest(&ListSettlementsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	assertTransfers(t, list.Msg.Settlements, []transfer{
		{ids["B"], ids["A"], 2000},
		{ids["C"], ids["A"], 2000},
	})
}

func TestCompletedSettlementSurvivesUnrelatedPayment(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B", "C", "D")

	first, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
		GroupID: groupID, Title: "Taxi", Amount: 2000, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	paid := first.Msg.Settlements[0]
	if _, err := c.groups.UpdateSettlementStatus(ctx, connect.NewRequest(&UpdateSettlementStatusRequest{
		SettlementID: paid.ID, Status: "completed",
	})); err != nil {
		t.Fatalf("UpdateSettlementStatus failed: %v", err)
	}

	second, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
		GroupID: groupID, Title: "Lunch", Amount: 2000, PayerID: ids["C"], BeneficiaryIDs: []string{ids["D"]},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	var found bool
	for _, s := range second.Msg.Settlements {
		if s.ID == paid.ID {
			found = true
			if s.Status != "completed" {
				t.Errorf("expected completed marking to survive, got %s", s.Status)
			}
		}
	}
	if !found {
		t.Errorf("settlement %s was replaced by an unrelated payment", paid.ID)
	}
}

func TestDeletePayment(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B")

	created, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
		GroupID: groupID, Title: "Snacks", Amount: 800, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
	}))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	resp, err := c.payments.DeletePayment(ctx, connect.NewRequest(&DeletePaymentRequest{PaymentID: created.Msg.Payment.ID}))
	if err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	if len(resp.Msg.Settlements) != 0 {
		t.Errorf("expected no settlements after delete, got %+v", resp.Msg.Settlements)
	}

	_, err = c.payments.DeletePayment(ctx, connect.NewRequest(&DeletePaymentRequest{PaymentID: created.Msg.Payment.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestListPaymentsNewestFirst(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
			GroupID: groupID, Title: title, Amount: 100, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
		})); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
	}

	resp, err := c.payments.ListPayments(ctx, connect.NewRequest(&ListPaymentsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	var titles []string
	for _, p := range resp.Msg.Payments {
		titles = append(titles, p.Title)
	}
	want := []string{"third", "second", "first"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("expected %v, got %v", want, titles)
			break
		}
	}
}

func TestListSettlementsComputesLazily(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B")

	// Payments written directly to the store, as an external writer would.
	if err := c.store.CreatePayment(ctx, &models.Payment{
		GroupID: groupID, Title: "Fuel", Amount: 1000, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
	}); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	resp, err := c.groups.ListSettlements(ctx, connect.NewRequest(&ListSettlementsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	assertTransfers(t, resp.Msg.Settlements, []transfer{{ids["B"], ids["A"], 500}})
	if resp.Msg.Recomputing {
		t.Error("expected recomputing to be false once the computation finished")
	}

	stored, err := c.store.ListSettlements(ctx, groupID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected the computed settlement to be persisted, got %d", len(stored))
	}
}

func TestReconcileRPC(t *testing.T) {
	c := setupTestServer(t, serverOptions{})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B")

	if err := c.store.CreatePayment(ctx, &models.Payment{
		GroupID: groupID, Title: "Fuel", Amount: 1000, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
	}); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	resp, err := c.groups.Reconcile(ctx, connect.NewRequest(&ReconcileRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if resp.Msg.Inserted != 1 || resp.Msg.Kept != 0 || resp.Msg.Deleted != 0 {
		t.Errorf("unexpected counts: %+v", resp.Msg)
	}

	again, err := c.groups.Reconcile(ctx, connect.NewRequest(&ReconcileRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if again.Msg.Kept != 1 || again.Msg.Inserted != 0 || again.Msg.Deleted != 0 {
		t.Errorf("expected an idempotent second reconcile, got %+v", again.Msg)
	}
	if again.Msg.Settlements[0].ID != resp.Msg.Settlements[0].ID {
		t.Error("expected settlement ID to be stable across reconciles")
	}

	_, err = c.groups.Reconcile(ctx, connect.NewRequest(&ReconcileRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestUpdateSettlementStatusValidation(t *testing.T) {
	c := setupTestServer(t, serverOptions{})

	_, err := c.groups.UpdateSettlementStatus(context.Background(), connect.NewRequest(&UpdateSettlementStatusRequest{
		SettlementID: "whatever", Status: "paid",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.groups.UpdateSettlementStatus(context.Background(), connect.NewRequest(&UpdateSettlementStatusRequest{
		SettlementID: "missing", Status: "completed",
	}))
	assertCode(t, err, connect.CodeNotFound)
}

type failingApplyStore struct {
	storage.Store
}

func (failingApplyStore) ApplySettlementPlan(context.Context, string, storage.SettlementPlan) error {
	return errors.New("database is locked")
}

func TestReconcileFailureKeepsPayment(t *testing.T) {
	c := setupTestServer(t, serverOptions{
		wrap: func(s storage.Store) storage.Store { return failingApplyStore{s} },
	})
	ctx := context.Background()
	groupID, ids := createGroup(t, c, "A", "B")

	_, err := c.payments.CreatePayment(ctx, connect.NewRequest(&CreatePaymentRequest{
		GroupID: groupID, Title: "Tickets", Amount: 1000, PayerID: ids["A"], BeneficiaryIDs: []string{ids["B"]},
	}))
	assertCode(t, err, connect.CodeUnavailable)
	var connectErr *connect.Error
	if errors.As(err, &connectErr) && connectErr.Message() != reconcile.ErrReconcileFailed.Error() {
		t.Errorf("unexpected message: %q", connectErr.Message())
	}

	list, err := c.payments.ListPayments(ctx, connect.NewRequest(&ListPaymentsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(list.Msg.Payments) != 1 {
		t.Errorf("expected the payment to stay committed, got %d payments", len(list.Msg.Payments))
	}
}

type stubParser struct {
	candidate *parser.Candidate
	err       error
}

func (p stubParser) Parse(context.Context, string, []*models.Participant) (*parser.Candidate, error) {
	return p.candidate, p.err
}

func TestParsePayment(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := setupTestServer(t, serverOptions{})
		groupID, _ := createGroup(t, c, "A")
		_, err := c.payments.ParsePayment(context.Background(), connect.NewRequest(&ParsePaymentRequest{GroupID: groupID, Text: "A paid"}))
		assertCode(t, err, connect.CodeUnimplemented)
	})

	t.Run("candidate", func(t *testing.T) {
		c := setupTestServer(t, serverOptions{parser: stubParser{candidate: &parser.Candidate{
			PayerID: "p1", Amount: 2000, BeneficiaryIDs: []string{"p2"}, Note: "dinner",
		}}})
		groupID, _ := createGroup(t, c, "A")
		resp, err := c.payments.ParsePayment(context.Background(), connect.NewRequest(&ParsePaymentRequest{GroupID: groupID, Text: "A paid 2000 for B"}))
		if err != nil {
			t.Fatalf("ParsePayment failed: %v", err)
		}
		if resp.Msg.PayerID != "p1" || resp.Msg.Amount != 2000 || resp.Msg.Note != "dinner" {
			t.Errorf("unexpected candidate: %+v", resp.Msg)
		}
	})

	t.Run("unknown participant", func(t *testing.T) {
		c := setupTestServer(t, serverOptions{parser: stubParser{err: parser.ErrUnknownParticipant}})
		groupID, _ := createGroup(t, c, "A")
		_, err := c.payments.ParsePayment(context.Background(), connect.NewRequest(&ParsePaymentRequest{GroupID: groupID, Text: "Z paid"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})
}
