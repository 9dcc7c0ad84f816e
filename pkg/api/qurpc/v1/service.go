package qurpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "qurpc.v1.CodecService"

	EncodeMethod = "/" + ServiceName + "/Encode"
	DecodeMethod = "/" + ServiceName + "/Decode"
	ScanMethod   = "/" + ServiceName + "/Scan"
	ResetMethod  = "/" + ServiceName + "/Reset"
)

// CodecServiceServer 是服务端需要实现的接口
type CodecServiceServer interface {
	Encode(context.Context, *EncodeRequest) (*EncodeResponse, error)
	Decode(context.Context, *DecodeRequest) (*DecodeResponse, error)
	Scan(context.Context, *ScanRequest) (*ScanResponse, error)
	Reset(context.Context, *ResetRequest) (*ResetResponse, error)
}

// UnimplementedCodecServiceServer 嵌入后，未实现的方法返回 Unimplemented
type UnimplementedCodecServiceServer struct{}

func (UnimplementedCodecServiceServer) Encode(context.Context, *EncodeRequest) (*EncodeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Encode not implemented")
}
func (UnimplementedCodecServiceServer) Decode(context.Context, *DecodeRequest) (*DecodeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Decode not implemented")
}
func (UnimplementedCodecServiceServer) Scan(context.Context, *ScanRequest) (*ScanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Scan not implemented")
}
func (UnimplementedCodecServiceServer) Reset(context.Context, *ResetRequest) (*ResetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Reset not implemented")
}

func RegisterCodecServiceServer(s grpc.ServiceRegistrar, srv CodecServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler 把一个强类型方法适配成 grpc.MethodDesc 需要的形状
func unaryHandler[Req, Resp any](method string, call func(CodecServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CodecServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CodecServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CodecServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Encode", Handler: unaryHandler(EncodeMethod, CodecServiceServer.Encode)},
		{MethodName: "Decode", Handler: unaryHandler(DecodeMethod, CodecServiceServer.Decode)},
		{MethodName: "Scan", Handler: unaryHandler(ScanMethod, CodecServiceServer.Scan)},
		{MethodName: "Reset", Handler: unaryHandler(ResetMethod, CodecServiceServer.Reset)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "qurpc/v1/codec",
}

// CodecServiceClient 是客户端桩
type CodecServiceClient interface {
	Encode(ctx context.Context, in *EncodeRequest, opts ...grpc.CallOption) (*EncodeResponse, error)
	Decode(ctx context.Context, in *DecodeRequest, opts ...grpc.CallOption) (*DecodeResponse, error)
	Scan(ctx context.Context, in *ScanRequest, opts ...grpc.CallOption) (*ScanResponse, error)
	Reset(ctx context.Context, in *ResetRequest, opts ...grpc.CallOption) (*ResetResponse, error)
}

type codecServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCodecServiceClient(cc grpc.ClientConnInterface) CodecServiceClient {
	return &codecServiceClient{cc: cc}
}

// invoke 固定使用 CBOR 编解码器
func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *codecServiceClient) Encode(ctx context.Context, in *EncodeRequest, opts ...grpc.CallOption) (*EncodeResponse, error) {
	return invoke[EncodeResponse](ctx, c.cc, EncodeMethod, in, opts)
}

func (c *codecServiceClient) Decode(ctx context.Context, in *DecodeRequest, opts ...grpc.CallOption) (*DecodeResponse, error) {
	return invoke[DecodeResponse](ctx, c.cc, DecodeMethod, in, opts)
}

func (c *codecServiceClient) Scan(ctx context.Context, in *ScanRequest, opts ...grpc.CallOption) (*ScanResponse, error) {
	return invoke[ScanResponse](ctx, c.cc, ScanMethod, in, opts)
}

func (c *codecServiceClient) Reset(ctx context.Context, in *ResetRequest, opts ...grpc.CallOption) (*ResetResponse, error) {
	return invoke[ResetResponse](ctx, c.cc, ResetMethod, in, opts)
}
