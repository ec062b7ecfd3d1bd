package sensor

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/repository/snapshot"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	UpdateAlarms(ctx context.Context, payload *domain.Payload) (*domain.State, error)
	State() *domain.State
}

// Server implements the SensorService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetNextAlarm returns the current state object.
func (s *Server) GetNextAlarm(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toProtoState(s.service.State())
}

// ReplaceAlarms replaces the alarm list, same as a webhook delivery.
func (s *Server) ReplaceAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	payload, err := snapshot.FromStruct(req)
	if err != nil {
		if errors.Is(err, domain.ErrMissingAlarms) {
			return nil, status.Error(codes.InvalidArgument, "missing alarms data")
		}

		return nil, status.Error(codes.InvalidArgument, "invalid payload")
	}

	state, err := s.service.UpdateAlarms(ctx, payload)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to persist alarms")
	}

	return toProtoState(state)
}

// toProtoState converts a domain.State into its Struct form.
func toProtoState(state *domain.State) (*structpb.Struct, error) {
	message, err := structpb.NewStruct(state.Map())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return message, nil
}
