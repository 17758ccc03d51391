package rpctest

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	// Registers the shared JSON codec used on both ends of the wire.
	_ "github.com/kvdb-io/kvdb-go/rpc/transport/grpc"
)

// startGRPC serves the kvdb.KVDBService contract on a loopback listener
func (s *Server) startGRPC() error {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	s.grpcAddr = lis.Addr().String()
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(s.serviceDesc(), s.store)

	go func() {
		_ = s.grpcServer.Serve(lis)
	}()
	return nil
}

// serviceDesc hand-builds the kvdb.KVDBService descriptor. The handlers
// close over the store, so the registered service value is never consulted.
func (s *Server) serviceDesc() *grpc.ServiceDesc {
	st := s.store
	return &grpc.ServiceDesc{
		ServiceName: "kvdb.KVDBService",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Put", Handler: unary(func(_ context.Context, req *common.PutRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.PutResponse{ErrorMessage: msg}, nil
				}
				st.put(req.Key, req.Value)
				return &common.PutResponse{Success: true}, nil
			})},
			{MethodName: "Get", Handler: unary(func(_ context.Context, req *common.GetRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.GetResponse{ErrorMessage: msg}, nil
				}
				value, found := st.get(req.Key)
				return &common.GetResponse{Found: found, Value: value}, nil
			})},
			{MethodName: "Delete", Handler: unary(func(_ context.Context, req *common.DeleteRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.DeleteResponse{ErrorMessage: msg}, nil
				}
				st.delete(req.Key)
				return &common.DeleteResponse{Success: true}, nil
			})},
			{MethodName: "BatchPut", Handler: unary(func(_ context.Context, req *common.BatchPutRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.BatchPutResponse{ErrorMessage: msg}, nil
				}
				st.batchPut(req.Pairs)
				return &common.BatchPutResponse{Success: true}, nil
			})},
			{MethodName: "BatchGet", Handler: unary(func(_ context.Context, req *common.BatchGetRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.BatchGetResponse{ErrorMessage: msg}, nil
				}
				return &common.BatchGetResponse{Pairs: st.batchGet(req.Keys)}, nil
			})},
			{MethodName: "CreateSnapshot", Handler: unary(func(_ context.Context, _ *common.CreateSnapshotRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.CreateSnapshotResponse{ErrorMessage: msg}, nil
				}
				return &common.CreateSnapshotResponse{SnapshotID: st.createSnapshot()}, nil
			})},
			{MethodName: "ReleaseSnapshot", Handler: unary(func(_ context.Context, req *common.ReleaseSnapshotRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.ReleaseSnapshotResponse{ErrorMessage: msg}, nil
				}
				if err := st.releaseSnapshot(req.SnapshotID); err != nil {
					return nil, status.Error(codes.NotFound, err.Error())
				}
				return &common.ReleaseSnapshotResponse{Success: true}, nil
			})},
			{MethodName: "GetAtSnapshot", Handler: unary(func(_ context.Context, req *common.GetAtSnapshotRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.GetAtSnapshotResponse{ErrorMessage: msg}, nil
				}
				value, found, err := st.getAtSnapshot(req.Key, req.SnapshotID)
				if err != nil {
					return nil, status.Error(codes.NotFound, err.Error())
				}
				return &common.GetAtSnapshotResponse{Found: found, Value: value}, nil
			})},
			{MethodName: "Flush", Handler: unary(func(_ context.Context, _ *common.FlushRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.FlushResponse{ErrorMessage: msg}, nil
				}
				st.flush()
				return &common.FlushResponse{Success: true}, nil
			})},
			{MethodName: "Compact", Handler: unary(func(_ context.Context, _ *common.CompactRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.CompactResponse{ErrorMessage: msg}, nil
				}
				st.compact()
				return &common.CompactResponse{Success: true}, nil
			})},
			{MethodName: "GetStats", Handler: unary(func(_ context.Context, _ *common.GetStatsRequest) (interface{}, error) {
				if msg := st.begin(); msg != "" {
					return &common.GetStatsResponse{ErrorMessage: msg}, nil
				}
				stats := st.stats()
				return &common.GetStatsResponse{
					MemtableSize:    stats.MemtableSize,
					WALSize:         stats.WALSize,
					CacheHitRate:    stats.CacheHitRate,
					ActiveSnapshots: stats.ActiveSnapshots,
				}, nil
			})},
		},
		Streams: []grpc.StreamDesc{
			{StreamName: "Scan", ServerStreams: true, Handler: func(_ interface{}, stream grpc.ServerStream) error {
				req := &common.ScanRequest{}
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				st.begin()
				return sendPairs(stream, st.scan(req.StartKey, req.EndKey, req.Limit))
			}},
			{StreamName: "PrefixScan", ServerStreams: true, Handler: func(_ interface{}, stream grpc.ServerStream) error {
				req := &common.PrefixScanRequest{}
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				st.begin()
				return sendPairs(stream, st.prefixScan(req.Prefix, req.Limit))
			}},
			{StreamName: "Subscribe", ServerStreams: true, Handler: func(_ interface{}, stream grpc.ServerStream) error {
				req := &common.SubscribeRequest{}
				if err := stream.RecvMsg(req); err != nil {
					return err
				}

				id, events := st.subscribe(req.KeyPattern, req.IncludeDeletes)
				defer st.unsubscribe(id)

				for {
					select {
					case ev := <-events:
						if err := stream.SendMsg(&ev); err != nil {
							return err
						}
					case <-stream.Context().Done():
						return nil
					}
				}
			}},
		},
	}
}

// unary adapts a typed handler to the grpc.MethodDesc handler signature
func unary[Req any](handle func(context.Context, *Req) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(_ interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return handle(ctx, req)
	}
}

func sendPairs(stream grpc.ServerStream, pairs []common.KeyValue) error {
	for _, pair := range pairs {
		if err := stream.SendMsg(&pair); err != nil {
			return err
		}
	}
	return nil
}
