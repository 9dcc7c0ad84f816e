package server

import (
	qurpc "quantusur/pkg/api/qurpc/v1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// New 组装 gRPC Server：注册编解码服务和健康检查，挂上拦截器链
// Logging 在外层、Recovery 在内层，panic 转成的 Internal 也会被记录
func New(svc qurpc.CodecServiceServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		UnaryLoggingInterceptor,
		UnaryRecoveryInterceptor,
	))
	s := grpc.NewServer(opts...)

	qurpc.RegisterCodecServiceServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus(qurpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s, hs
}
