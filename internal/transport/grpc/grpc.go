// Package grpc implements the gRPC transport for voxmate.
//
// The server exposes the unary voxmate.v1.Assistant/Process method, taking
// a message.Message and returning a message.DispatchResult encoded with the
// JSON codec, plus the standard grpc.health.v1 service. It is the preferred
// transport for low-latency calls from edge devices.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/metrics"
	"github.com/nadzzz/voxmate/internal/transport"
)

const (
	// ServiceName is the fully-qualified gRPC service served by voxmate.
	ServiceName = "voxmate.v1.Assistant"
	// ProcessMethod is the full method name clients invoke.
	ProcessMethod = "/" + ServiceName + "/Process"
	// DeliverMethod is the method Send invokes on downstream targets.
	DeliverMethod = "/voxmate.v1.Target/Deliver"
)

// assistantServer is the handler type checked by RegisterService.
type assistantServer interface {
	process(ctx context.Context, msg *message.Message) (*message.DispatchResult, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*assistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Process", Handler: processHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voxmate/v1/assistant",
}

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(assistantServer).process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProcessMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(assistantServer).process(ctx, req.(*message.Message))
	}
	return interceptor(ctx, in, info, handler)
}

type server struct {
	handler transport.Handler
}

func (s *server) process(ctx context.Context, msg *message.Message) (*message.DispatchResult, error) {
	result, err := s.handler(ctx, msg)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("grpc", "error").Inc()
		return nil, status.Errorf(codes.Internal, "dispatch: %v", err)
	}
	metrics.RequestsTotal.WithLabelValues("grpc", "ok").Inc()
	return result, nil
}

// Option configures a Transport.
type Option func(*Transport)

// WithDialOptions adds client options used by Send when dialing targets.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(t *Transport) { t.dialOpts = append(t.dialOpts, opts...) }
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port     int
	dialOpts []grpc.DialOption

	mu     sync.Mutex
	server *grpc.Server
	conns  map[string]*grpc.ClientConn
}

// New creates a new gRPC transport on the given port.
func New(port int, opts ...Option) *Transport {
	t := &Transport{
		port:     port,
		dialOpts: []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		conns:    make(map[string]*grpc.ClientConn),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the gRPC server on an existing listener until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	srv := grpc.NewServer()
	srv.RegisterService(&serviceDesc, &server{handler: handler})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	return srv.Serve(lis)
}

// Send delivers a payload to a gRPC target by invoking its Deliver method.
func (t *Transport) Send(ctx context.Context, target message.Target, payload []byte) error {
	conn, err := t.dial(target.Endpoint)
	if err != nil {
		return fmt.Errorf("grpc send: %w", err)
	}

	var ack json.RawMessage
	if err := conn.Invoke(ctx, DeliverMethod, json.RawMessage(payload), &ack, grpc.CallContentSubtype(CodecName)); err != nil {
		return fmt.Errorf("grpc send: %w", err)
	}

	slog.Debug("grpc send success", "target", target.Endpoint, "bytes", len(payload))
	return nil
}

func (t *Transport) dial(endpoint string) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[endpoint]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(endpoint, t.dialOpts...)
	if err != nil {
		return nil, err
	}
	t.conns[endpoint] = conn
	return conn, nil
}

// Close gracefully stops the gRPC server and drops client connections.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		t.server.GracefulStop()
	}
	for endpoint, conn := range t.conns {
		_ = conn.Close()
		delete(t.conns, endpoint)
	}
	return nil
}
