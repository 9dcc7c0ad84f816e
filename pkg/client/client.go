package client

import (
	"fmt"
	"time"

	qurpc "quantusur/pkg/api/qurpc/v1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Client 封装了与 qur 服务端的连接
type Client struct {
	conn *grpc.ClientConn

	Codec qurpc.CodecServiceClient
}

// New 创建客户端；连接在后台建立，网络不通不会在这里报错
func New(addr string, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(qurpc.CodecName),
			grpc.MaxCallRecvMsgSize(64*1024*1024),
			grpc.MaxCallSendMsgSize(64*1024*1024),
		),
		// 保持连接活跃
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}

	return &Client{
		conn:  conn,
		Codec: qurpc.NewCodecServiceClient(conn),
	}, nil
}

// Conn 暴露底层连接 (健康检查等)
func (c *Client) Conn() *grpc.ClientConn { return c.conn }

// Close 关闭底层连接
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
