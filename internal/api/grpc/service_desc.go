package grpc

import (
	"context"

	"google.golang.org/grpc"

	"book-rental-backend/internal/api/dto"
)

// The service descriptors below are written by hand; messages are the plain
// structs in package dto carried by the JSON codec.

type ReturnServiceServer interface {
	ListReturnableOrders(context.Context, *dto.ListReturnableOrdersRequest) (*dto.ListReturnableOrdersResponse, error)
	ListMyReturnRequests(context.Context, *dto.ListMyReturnRequestsRequest) (*dto.ListReturnRequestsResponse, error)
	ListReturnRequests(context.Context, *dto.ListReturnRequestsRequest) (*dto.ListReturnRequestsResponse, error)
	GetReturnRequest(context.Context, *dto.GetReturnRequestRequest) (*dto.ReturnRequestResponse, error)
	CreateReturnRequest(context.Context, *dto.CreateReturnRequestRequest) (*dto.ReturnRequestResponse, error)
	UpdateReturnStatus(context.Context, *dto.UpdateReturnStatusRequest) (*dto.ReturnRequestResponse, error)
	CancelReturnRequest(context.Context, *dto.CancelReturnRequestRequest) (*dto.ReturnRequestResponse, error)
	ConfirmReturnShipment(context.Context, *dto.ConfirmReturnShipmentRequest) (*dto.ReturnRequestResponse, error)
	ListReturnStatuses(context.Context, *dto.ListReturnStatusesRequest) (*dto.ListReturnStatusesResponse, error)
}

type LedgerServiceServer interface {
	GetTransactions(context.Context, *dto.GetTransactionsRequest) (*dto.GetTransactionsResponse, error)
}

type NotificationServiceServer interface {
	GetNotifications(context.Context, *dto.GetNotificationsRequest) (*dto.GetNotificationsResponse, error)
	MarkNotificationRead(context.Context, *dto.MarkNotificationReadRequest) (*dto.MarkNotificationReadResponse, error)
}

// unary adapts a typed server method to a grpc.MethodDesc handler.
func unary[S any, Req any, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

const (
	returnServiceName       = "bookrental.v1.ReturnService"
	ledgerServiceName       = "bookrental.v1.LedgerService"
	notificationServiceName = "bookrental.v1.NotificationService"
)

func method(service, name string) string {
	return "/" + service + "/" + name
}

var ReturnService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: returnServiceName,
	HandlerType: (*ReturnServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListReturnableOrders",
			Handler:    unary(method(returnServiceName, "ListReturnableOrders"), ReturnServiceServer.ListReturnableOrders),
		},
		{
			MethodName: "ListMyReturnRequests",
			Handler:    unary(method(returnServiceName, "ListMyReturnRequests"), ReturnServiceServer.ListMyReturnRequests),
		},
		{
			MethodName: "ListReturnRequests",
			Handler:    unary(method(returnServiceName, "ListReturnRequests"), ReturnServiceServer.ListReturnRequests),
		},
		{
			MethodName: "GetReturnRequest",
			Handler:    unary(method(returnServiceName, "GetReturnRequest"), ReturnServiceServer.GetReturnRequest),
		},
		{
			MethodName: "CreateReturnRequest",
			Handler:    unary(method(returnServiceName, "CreateReturnRequest"), ReturnServiceServer.CreateReturnRequest),
		},
		{
			MethodName: "UpdateReturnStatus",
			Handler:    unary(method(returnServiceName, "UpdateReturnStatus"), ReturnServiceServer.UpdateReturnStatus),
		},
		{
			MethodName: "CancelReturnRequest",
			Handler:    unary(method(returnServiceName, "CancelReturnRequest"), ReturnServiceServer.CancelReturnRequest),
		},
		{
			MethodName: "ConfirmReturnShipment",
			Handler:    unary(method(returnServiceName, "ConfirmReturnShipment"), ReturnServiceServer.ConfirmReturnShipment),
		},
		{
			MethodName: "ListReturnStatuses",
			Handler:    unary(method(returnServiceName, "ListReturnStatuses"), ReturnServiceServer.ListReturnStatuses),
		},
	},
	Streams: []grpc.StreamDesc{},
}

var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ledgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetTransactions",
			Handler:    unary(method(ledgerServiceName, "GetTransactions"), LedgerServiceServer.GetTransactions),
		},
	},
	Streams: []grpc.StreamDesc{},
}

var NotificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: notificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetNotifications",
			Handler:    unary(method(notificationServiceName, "GetNotifications"), NotificationServiceServer.GetNotifications),
		},
		{
			MethodName: "MarkNotificationRead",
			Handler:    unary(method(notificationServiceName, "MarkNotificationRead"), NotificationServiceServer.MarkNotificationRead),
		},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterReturnServiceServer(s grpc.ServiceRegistrar, srv ReturnServiceServer) {
	s.RegisterService(&ReturnService_ServiceDesc, srv)
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationService_ServiceDesc, srv)
}
