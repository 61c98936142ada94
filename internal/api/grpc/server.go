package grpc

import (
	"google.golang.org/grpc"

	"book-rental-backend/internal/api/grpc/interceptor"
	"book-rental-backend/internal/security"
	"book-rental-backend/internal/service"
)

// Handlers groups the services exposed over gRPC.
type Handlers struct {
	Orders        service.RentalOrderService
	Returns       service.ReturnRequestService
	Ledger        service.LedgerService
	Notifications service.NotificationService
}

// NewServer builds a server that speaks the JSON codec only. Reflection is
// not registered: its protobuf descriptors cannot travel over this codec.
func NewServer(h Handlers, tm security.TokenManager, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(Codec()),
		grpc.ChainUnaryInterceptor(interceptor.Logging(), interceptor.NewAuthInterceptor(tm).Unary()),
	}, opts...)
	s := grpc.NewServer(opts...)

	RegisterReturnServiceServer(s, NewReturnHandler(h.Orders, h.Returns))
	if h.Ledger != nil {
		RegisterLedgerServiceServer(s, NewLedgerHandler(h.Ledger))
	}
	if h.Notifications != nil {
		RegisterNotificationServiceServer(s, NewNotificationHandler(h.Notifications))
	}
	return s
}
