package grpc

// proto.go defines the gRPC server interface derived from
// loanengine/v1/loanengine.proto. This file serves as a stand-in for
// buf-generated code; messages ride the JSON codec and reuse the application
// DTOs as their wire shape. Once `buf generate` is run, replace this file
// with the import from github.com/corebank/loanengine/api/gen/go/loanengine/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"

	"github.com/corebank/loanengine/internal/application/dto"
)

const serviceName = "loanengine.v1.LoanService"

// ListClientLoansRequest identifies a client whose loans are listed.
type ListClientLoansRequest struct {
	TenantID string `json:"tenant_id"`
	ClientID string `json:"client_id"`
}

// ListClientLoansResponse carries the client's loans.
type ListClientLoansResponse struct {
	Loans []dto.LoanResponse `json:"loans"`
}

// LoanServiceServer is the server API for LoanService.
type LoanServiceServer interface {
	SubmitLoan(context.Context, *dto.SubmitLoanRequest) (*dto.LoanResponse, error)
	ApproveLoan(context.Context, *dto.LoanCommandRequest) (*dto.LoanResponse, error)
	UndoApproval(context.Context, *dto.LoanCommandRequest) (*dto.LoanResponse, error)
	DisburseLoan(context.Context, *dto.DisburseLoanRequest) (*dto.TransactionResult, error)
	UndoDisbursal(context.Context, *dto.LoanCommandRequest) (*dto.LoanResponse, error)
	MakeRepayment(context.Context, *dto.RepaymentRequest) (*dto.TransactionResult, error)
	WaiveInterest(context.Context, *dto.WaiveInterestRequest) (*dto.TransactionResult, error)
	AddCharge(context.Context, *dto.AddChargeRequest) (*dto.LoanResponse, error)
	UpdateCharge(context.Context, *dto.UpdateChargeRequest) (*dto.LoanResponse, error)
	DeleteCharge(context.Context, *dto.ChargeCommandRequest) (*dto.LoanResponse, error)
	WaiveCharge(context.Context, *dto.ChargeCommandRequest) (*dto.TransactionResult, error)
	PayChargeFromSavings(context.Context, *dto.ChargeCommandRequest) (*dto.TransactionResult, error)
	Refund(context.Context, *dto.RefundRequest) (*dto.TransactionResult, error)
	ForecloseLoan(context.Context, *dto.ForecloseRequest) (*dto.TransactionResult, error)
	WriteOffLoan(context.Context, *dto.LoanCommandRequest) (*dto.TransactionResult, error)
	GetLoan(context.Context, *dto.LoanCommandRequest) (*dto.LoanResponse, error)
	ListClientLoans(context.Context, *ListClientLoansRequest) (*ListClientLoansResponse, error)
	RunAccrual(context.Context, *dto.BatchRunRequest) (*dto.BatchRunResponse, error)
	RunOverdueCharges(context.Context, *dto.BatchRunRequest) (*dto.BatchRunResponse, error)
}

// RegisterLoanServiceServer registers the LoanServiceServer with the gRPC server.
func RegisterLoanServiceServer(s *grpclib.Server, srv LoanServiceServer) {
	s.RegisterService(&loanServiceDesc, srv)
}

var loanServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LoanServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "SubmitLoan", Handler: unaryHandler("SubmitLoan", LoanServiceServer.SubmitLoan)},
		{MethodName: "ApproveLoan", Handler: unaryHandler("ApproveLoan", LoanServiceServer.ApproveLoan)},
		{MethodName: "UndoApproval", Handler: unaryHandler("UndoApproval", LoanServiceServer.UndoApproval)},
		{MethodName: "DisburseLoan", Handler: unaryHandler("DisburseLoan", LoanServiceServer.DisburseLoan)},
		{MethodName: "UndoDisbursal", Handler: unaryHandler("UndoDisbursal", LoanServiceServer.UndoDisbursal)},
		{MethodName: "MakeRepayment", Handler: unaryHandler("MakeRepayment", LoanServiceServer.MakeRepayment)},
		{MethodName: "WaiveInterest", Handler: unaryHandler("WaiveInterest", LoanServiceServer.WaiveInterest)},
		{MethodName: "AddCharge", Handler: unaryHandler("AddCharge", LoanServiceServer.AddCharge)},
		{MethodName: "UpdateCharge", Handler: unaryHandler("UpdateCharge", LoanServiceServer.UpdateCharge)},
		{MethodName: "DeleteCharge", Handler: unaryHandler("DeleteCharge", LoanServiceServer.DeleteCharge)},
		{MethodName: "WaiveCharge", Handler: unaryHandler("WaiveCharge", LoanServiceServer.WaiveCharge)},
		{MethodName: "PayChargeFromSavings", Handler: unaryHandler("PayChargeFromSavings", LoanServiceServer.PayChargeFromSavings)},
		{MethodName: "Refund", Handler: unaryHandler("Refund", LoanServiceServer.Refund)},
		{MethodName: "ForecloseLoan", Handler: unaryHandler("ForecloseLoan", LoanServiceServer.ForecloseLoan)},
		{MethodName: "WriteOffLoan", Handler: unaryHandler("WriteOffLoan", LoanServiceServer.WriteOffLoan)},
		{MethodName: "GetLoan", Handler: unaryHandler("GetLoan", LoanServiceServer.GetLoan)},
		{MethodName: "ListClientLoans", Handler: unaryHandler("ListClientLoans", LoanServiceServer.ListClientLoans)},
		{MethodName: "RunAccrual", Handler: unaryHandler("RunAccrual", LoanServiceServer.RunAccrual)},
		{MethodName: "RunOverdueCharges", Handler: unaryHandler("RunOverdueCharges", LoanServiceServer.RunOverdueCharges)},
	},
	Streams: []grpclib.StreamDesc{},
}

// unaryHandler adapts one typed service method to the grpc.MethodDesc handler
// shape, threading the server interceptor the same way generated code does.
func unaryHandler[Req, Resp any](
	method string,
	invoke func(LoanServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return invoke(srv.(LoanServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return invoke(srv.(LoanServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
