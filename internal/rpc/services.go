package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// BillServiceName is the fully-qualified name of the BillService service.
	BillServiceName = "billsplit.v1.BillService"
	// GroupServiceName is the fully-qualified name of the GroupService service.
	GroupServiceName = "billsplit.v1.GroupService"
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "billsplit.v1.AuthService"
)

// Procedure names, as they appear in URL paths and in Spec().Procedure.
const (
	BillServiceAllocateProcedure   = "/billsplit.v1.BillService/Allocate"
	BillServiceReconcileProcedure  = "/billsplit.v1.BillService/Reconcile"
	BillServiceSubmitBillProcedure = "/billsplit.v1.BillService/SubmitBill"

	GroupServiceCreateGroupProcedure  = "/billsplit.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = "/billsplit.v1.GroupService/GetGroup"
	GroupServiceAddMembersProcedure   = "/billsplit.v1.GroupService/AddMembers"
	GroupServiceListExpensesProcedure = "/billsplit.v1.GroupService/ListExpenses"
	GroupServiceGetBalancesProcedure  = "/billsplit.v1.GroupService/GetBalances"

	AuthServiceRegisterProcedure      = "/billsplit.v1.AuthService/Register"
	AuthServiceLoginProcedure         = "/billsplit.v1.AuthService/Login"
	AuthServiceCurrentMemberProcedure = "/billsplit.v1.AuthService/CurrentMember"
)

// route dispatches a service's requests by procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithJSON()}, opts...)
}

// BillServiceHandler is implemented by the bill service.
type BillServiceHandler interface {
	Allocate(context.Context, *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error)
	Reconcile(context.Context, *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error)
	SubmitBill(context.Context, *connect.Request[SubmitBillRequest]) (*connect.Response[SubmitBillResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + BillServiceName + "/", route(map[string]http.Handler{
		BillServiceAllocateProcedure:   connect.NewUnaryHandler(BillServiceAllocateProcedure, svc.Allocate, opts...),
		BillServiceReconcileProcedure:  connect.NewUnaryHandler(BillServiceReconcileProcedure, svc.Reconcile, opts...),
		BillServiceSubmitBillProcedure: connect.NewUnaryHandler(BillServiceSubmitBillProcedure, svc.SubmitBill, opts...),
	})
}

// BillServiceClient is a client for the billsplit.v1.BillService service.
type BillServiceClient struct {
	allocate   *connect.Client[AllocateRequest, AllocateResponse]
	reconcile  *connect.Client[ReconcileRequest, ReconcileResponse]
	submitBill *connect.Client[SubmitBillRequest, SubmitBillResponse]
}

// NewBillServiceClient constructs a client for the billsplit.v1.BillService
// service. The URL should be the server's base URL, e.g.
// http://localhost:8080, with no trailing slash.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BillServiceClient{
		allocate:   connect.NewClient[AllocateRequest, AllocateResponse](httpClient, baseURL+BillServiceAllocateProcedure, opts...),
		reconcile:  connect.NewClient[ReconcileRequest, ReconcileResponse](httpClient, baseURL+BillServiceReconcileProcedure, opts...),
		submitBill: connect.NewClient[SubmitBillRequest, SubmitBillResponse](httpClient, baseURL+BillServiceSubmitBillProcedure, opts...),
	}
}

func (c *BillServiceClient) Allocate(ctx context.Context, req *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error) {
	return c.allocate.CallUnary(ctx, req)
}

func (c *BillServiceClient) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	return c.reconcile.CallUnary(ctx, req)
}

func (c *BillServiceClient) SubmitBill(ctx context.Context, req *connect.Request[SubmitBillRequest]) (*connect.Response[SubmitBillResponse], error) {
	return c.submitBill.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the group service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	AddMembers(context.Context, *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service
// implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + GroupServiceName + "/", route(map[string]http.Handler{
		GroupServiceCreateGroupProcedure:  connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:     connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceAddMembersProcedure:   connect.NewUnaryHandler(GroupServiceAddMembersProcedure, svc.AddMembers, opts...),
		GroupServiceListExpensesProcedure: connect.NewUnaryHandler(GroupServiceListExpensesProcedure, svc.ListExpenses, opts...),
		GroupServiceGetBalancesProcedure:  connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...),
	})
}

// GroupServiceClient is a client for the billsplit.v1.GroupService service.
type GroupServiceClient struct {
	createGroup  *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup     *connect.Client[GetGroupRequest, GetGroupResponse]
	addMembers   *connect.Client[AddMembersRequest, AddMembersResponse]
	listExpenses *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getBalances  *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

// NewGroupServiceClient constructs a client for the billsplit.v1.GroupService
// service.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:  connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:     connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		addMembers:   connect.NewClient[AddMembersRequest, AddMembersResponse](httpClient, baseURL+GroupServiceAddMembersProcedure, opts...),
		listExpenses: connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+GroupServiceListExpensesProcedure, opts...),
		getBalances:  connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

// AuthServiceHandler is implemented by the auth service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	CurrentMember(context.Context, *connect.Request[CurrentMemberRequest]) (*connect.Response[CurrentMemberResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AuthServiceName + "/", route(map[string]http.Handler{
		AuthServiceRegisterProcedure:      connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:         connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceCurrentMemberProcedure: connect.NewUnaryHandler(AuthServiceCurrentMemberProcedure, svc.CurrentMember, opts...),
	})
}

// AuthServiceClient is a client for the billsplit.v1.AuthService service.
type AuthServiceClient struct {
	register      *connect.Client[RegisterRequest, RegisterResponse]
	login         *connect.Client[LoginRequest, LoginResponse]
	currentMember *connect.Client[CurrentMemberRequest, CurrentMemberResponse]
}

// NewAuthServiceClient constructs a client for the billsplit.v1.AuthService
// service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:      connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:         connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		currentMember: connect.NewClient[CurrentMemberRequest, CurrentMemberResponse](httpClient, baseURL+AuthServiceCurrentMemberProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) CurrentMember(ctx context.Context, req *connect.Request[CurrentMemberRequest]) (*connect.Response[CurrentMemberResponse], error) {
	return c.currentMember.CallUnary(ctx, req)
}
