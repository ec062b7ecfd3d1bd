package sensor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nextalarm.v1.SensorService"

// Full method names.
const (
	GetNextAlarmMethod  = "/" + ServiceName + "/GetNextAlarm"
	ReplaceAlarmsMethod = "/" + ServiceName + "/ReplaceAlarms"
)

// SensorServer is the server API of the sensor service.
//
//nolint:revive // SensorServer mirrors the naming of generated gRPC interfaces.
type SensorServer interface {
	GetNextAlarm(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ReplaceAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSensorServer registers the implementation on a gRPC server.
func RegisterSensorServer(registrar grpc.ServiceRegistrar, srv SensorServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

// serviceDesc describes the service for grpc.Server.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SensorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetNextAlarm",
			Handler:    getNextAlarmHandler,
		},
		{
			MethodName: "ReplaceAlarms",
			Handler:    replaceAlarmsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nextalarm/v1/sensor.proto",
}

func getNextAlarmHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(SensorServer).GetNextAlarm(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetNextAlarmMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SensorServer).GetNextAlarm(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func replaceAlarmsHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(SensorServer).ReplaceAlarms(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ReplaceAlarmsMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SensorServer).ReplaceAlarms(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}
