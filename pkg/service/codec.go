package service

import (
	"context"
	"errors"
	"fmt"

	qurpc "quantusur/pkg/api/qurpc/v1"
	"quantusur/pkg/app"
	"quantusur/pkg/signreq"
	"quantusur/pkg/storage"
	"quantusur/pkg/types"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type CodecService struct {
	qurpc.UnimplementedCodecServiceServer
	app *app.App
}

func NewCodecService(application *app.App) *CodecService {
	return &CodecService{app: application}
}

// Encode 请求里的非零字段覆盖服务端配置
func (s *CodecService) Encode(ctx context.Context, req *qurpc.EncodeRequest) (*qurpc.EncodeResponse, error) {
	codec := s.app.Codec
	if req.Type != "" || req.MaxFragmentLength != 0 || req.ExtraParts != 0 || req.Lowercase {
		opts := codec.Options()
		if req.Type != "" {
			opts.Type = req.Type
		}
		if req.MaxFragmentLength != 0 {
			opts.MaxFragmentLength = req.MaxFragmentLength
		}
		if req.ExtraParts != 0 {
			opts.ExtraParts = req.ExtraParts
		}
		if req.Lowercase {
			opts.Uppercase = false
		}
		var err error
		if codec, err = signreq.New(opts); err != nil {
			return nil, toStatus(err)
		}
	}

	parts, err := codec.Encode(ctx, req.Payload)
	if err != nil {
		return nil, toStatus(err)
	}

	count := len(parts) - codec.Options().ExtraParts
	if len(parts) == 1 {
		count = 1
	}
	return &qurpc.EncodeResponse{Parts: parts, FragmentCount: count}, nil
}

func (s *CodecService) Decode(ctx context.Context, req *qurpc.DecodeRequest) (*qurpc.DecodeResponse, error) {
	payload, err := s.app.Codec.Decode(req.Parts)
	if err != nil {
		return nil, toStatus(err)
	}
	return &qurpc.DecodeResponse{Payload: payload}, nil
}

func (s *CodecService) Scan(ctx context.Context, req *qurpc.ScanRequest) (*qurpc.ScanResponse, error) {
	st, err := s.app.Sessions.Scan(ctx, types.SessionID(req.Session), req.Parts...)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &qurpc.ScanResponse{
		Complete: st.Complete,
		Progress: st.Progress,
		Added:    st.Added,
		Stored:   st.Stored,
		Known:    st.Known,
		Expected: st.Expected,
		Type:     st.Type,
		Payload:  st.Payload,
	}
	for _, r := range st.Rejected {
		resp.Rejected = append(resp.Rejected, fmt.Sprintf("part %d: %v", r.Index+1, r.Err))
	}
	return resp, nil
}

func (s *CodecService) Reset(ctx context.Context, req *qurpc.ResetRequest) (*qurpc.ResetResponse, error) {
	if err := s.app.Sessions.Reset(ctx, types.SessionID(req.Session)); err != nil {
		return nil, toStatus(err)
	}
	return &qurpc.ResetResponse{}, nil
}

// toStatus 把领域错误映射为 gRPC 状态码
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, signreq.ErrInput),
		errors.Is(err, signreq.ErrMalformedPart),
		errors.Is(err, signreq.ErrMalformedContainer),
		errors.Is(err, storage.ErrInvalidSession):
		code = codes.InvalidArgument
	case errors.Is(err, signreq.ErrDescriptorMismatch):
		code = codes.FailedPrecondition
	case errors.Is(err, signreq.ErrIncomplete):
		code = codes.OutOfRange
	case errors.Is(err, signreq.ErrIntegrity):
		code = codes.DataLoss
	case errors.Is(err, storage.ErrNotFound):
		code = codes.NotFound
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
