package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// GroupServiceName is the fully-qualified name of the GroupService.
	GroupServiceName = "warikan.v1.GroupService"
	// PaymentServiceName is the fully-qualified name of the PaymentService.
	PaymentServiceName = "warikan.v1.PaymentService"
)

// Procedure paths, as used by Connect clients and in interceptor logs.
const (
	GroupServiceCreateGroupProcedure            = "/warikan.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure               = "/warikan.v1.GroupService/GetGroup"
	GroupServiceAddParticipantProcedure         = "/warikan.v1.GroupService/AddParticipant"
	GroupServiceListParticipantsProcedure       = "/warikan.v1.GroupService/ListParticipants"
	GroupServiceGetBalancesProcedure            = "/warikan.v1.GroupService/GetBalances"
	GroupServiceListSettlementsProcedure        = "/warikan.v1.GroupService/ListSettlements"
	GroupServiceUpdateSettlementStatusProcedure = "/warikan.v1.GroupService/UpdateSettlementStatus"
	GroupServiceReconcileProcedure              = "/warikan.v1.GroupService/Reconcile"

	PaymentServiceCreatePaymentProcedure = "/warikan.v1.PaymentService/CreatePayment"
	PaymentServiceUpdatePaymentProcedure = "/warikan.v1.PaymentService/UpdatePayment"
	PaymentServiceDeletePaymentProcedure = "/warikan.v1.PaymentService/DeletePayment"
	PaymentServiceListPaymentsProcedure  = "/warikan.v1.PaymentService/ListPayments"
	PaymentServiceParsePaymentProcedure  = "/warikan.v1.PaymentService/ParsePayment"
)

// NewGroupServiceHandler builds an HTTP handler for svc. It returns the path
// prefix to mount the handler on.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceAddParticipantProcedure, connect.NewUnaryHandler(GroupServiceAddParticipantProcedure, svc.AddParticipant, opts...))
	mux.Handle(GroupServiceListParticipantsProcedure, connect.NewUnaryHandler(GroupServiceListParticipantsProcedure, svc.ListParticipants, opts...))
	mux.Handle(GroupServiceGetBalancesProcedure, connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(GroupServiceListSettlementsProcedure, connect.NewUnaryHandler(GroupServiceListSettlementsProcedure, svc.ListSettlements, opts...))
	mux.Handle(GroupServiceUpdateSettlementStatusProcedure, connect.NewUnaryHandler(GroupServiceUpdateSettlementStatusProcedure, svc.UpdateSettlementStatus, opts...))
	mux.Handle(GroupServiceReconcileProcedure, connect.NewUnaryHandler(GroupServiceReconcileProcedure, svc.Reconcile, opts...))
	return "/" + GroupServiceName + "/", mux
}

// NewPaymentServiceHandler builds an HTTP handler for svc. It returns the path
// prefix to mount the handler on.
func NewPaymentServiceHandler(svc *PaymentService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PaymentServiceCreatePaymentProcedure, connect.NewUnaryHandler(PaymentServiceCreatePaymentProcedure, svc.CreatePayment, opts...))
	mux.Handle(PaymentServiceUpdatePaymentProcedure, connect.NewUnaryHandler(PaymentServiceUpdatePaymentProcedure, svc.UpdatePayment, opts...))
	mux.Handle(PaymentServiceDeletePaymentProcedure, connect.NewUnaryHandler(PaymentServiceDeletePaymentProcedure, svc.DeletePayment, opts...))
	mux.Handle(PaymentServiceListPaymentsProcedure, connect.NewUnaryHandler(PaymentServiceListPaymentsProcedure, svc.ListPayments, opts...))
	mux.Handle(PaymentServiceParsePaymentProcedure, connect.NewUnaryHandler(PaymentServiceParsePaymentProcedure, svc.ParsePayment, opts...))
	return "/" + PaymentServiceName + "/", mux
}

// GroupServiceClient is a client for the warikan.v1.GroupService.
type GroupServiceClient struct {
	createGroup            *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup               *connect.Client[GetGroupRequest, GetGroupResponse]
	addParticipant         *connect.Client[AddParticipantRequest, AddParticipantResponse]
	listParticipants       *connect.Client[ListParticipantsRequest, ListParticipantsResponse]
	getBalances            *connect.Client[GetBalancesRequest, GetBalancesResponse]
	listSettlements        *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
	updateSettlementStatus *connect.Client[UpdateSettlementStatusRequest, UpdateSettlementStatusResponse]
	reconcile              *connect.Client[ReconcileRequest, ReconcileResponse]
}

// NewGroupServiceClient constructs a client for the warikan.v1.GroupService
// served at baseURL (e.g. http://localhost:8080).
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &GroupServiceClient{
		createGroup:            connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:               connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		addParticipant:         connect.NewClient[AddParticipantRequest, AddParticipantResponse](httpClient, baseURL+GroupServiceAddParticipantProcedure, opts...),
		listParticipants:       connect.NewClient[ListParticipantsRequest, ListParticipantsResponse](httpClient, baseURL+GroupServiceListParticipantsProcedure, opts...),
		getBalances:            connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
		listSettlements:        connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+GroupServiceListSettlementsProcedure, opts...),
		updateSettlementStatus: connect.NewClient[UpdateSettlementStatusRequest, UpdateSettlementStatusResponse](httpClient, baseURL+GroupServiceUpdateSettlementStatusProcedure, opts...),
		reconcile:              connect.NewClient[ReconcileRequest, ReconcileResponse](httpClient, baseURL+GroupServiceReconcileProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateSettlementStatus(ctx context.Context, req *connect.Request[UpdateSettlementStatusRequest]) (*connect.Response[UpdateSettlementStatusResponse], error) {
	return c.updateSettlementStatus.CallUnary(ctx, req)
}

func (c *GroupServiceClient) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	return c.reconcile.CallUnary(ctx, req)
}

// PaymentServiceClient is a client for the warikan.v1.PaymentService.
type PaymentServiceClient struct {
	createPayment *connect.Client[CreatePaymentRequest, CreatePaymentResponse]
	updatePayment *connect.Client[UpdatePaymentRequest, UpdatePaymentResponse]
	deletePayment *connect.Client[DeletePaymentRequest, DeletePaymentResponse]
	listPayments  *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
	parsePayment  *connect.Client[ParsePaymentRequest, ParsePaymentResponse]
}

// NewPaymentServiceClient constructs a client for the warikan.v1.PaymentService
// served at baseURL.
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &PaymentServiceClient{
		createPayment: connect.NewClient[CreatePaymentRequest, CreatePaymentResponse](httpClient, baseURL+PaymentServiceCreatePaymentProcedure, opts...),
		updatePayment: connect.NewClient[UpdatePaymentRequest, UpdatePaymentResponse](httpClient, baseURL+PaymentServiceUpdatePaymentProcedure, opts...),
		deletePayment: connect.NewClient[DeletePaymentRequest, DeletePaymentResponse](httpClient, baseURL+PaymentServiceDeletePaymentProcedure, opts...),
		listPayments:  connect.NewClient[ListPaymentsRequest, ListPaymentsResponse](httpClient, baseURL+PaymentServiceListPaymentsProcedure, opts...),
		parsePayment:  connect.NewClient[ParsePaymentRequest, ParsePaymentResponse](httpClient, baseURL+PaymentServiceParsePaymentProcedure, opts...),
	}
}

func (c *PaymentServiceClient) CreatePayment(ctx context.Context, req *connect.Request[CreatePaymentRequest]) (*connect.Response[CreatePaymentResponse], error) {
	return c.createPayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) UpdatePayment(ctx context.Context, req *connect.Request[UpdatePaymentRequest]) (*connect.Response[UpdatePaymentResponse], error) {
	return c.updatePayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	return c.deletePayment.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *PaymentServiceClient) ParsePayment(ctx context.Context, req *connect.Request[ParsePaymentRequest]) (*connect.Response[ParsePaymentResponse], error) {
	return c.parsePayment.CallUnary(ctx, req)
}
