package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/transport"
)

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func startTransport(t *testing.T, handler transport.Handler) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	tr := New(0)

	done := make(chan error, 1)
	go func() { done <- tr.Serve(ctx, lis, handler) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		bufDialer(lis),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestProcess(t *testing.T) {
	t.Parallel()

	conn := startTransport(t, func(_ context.Context, msg *message.Message) (*message.DispatchResult, error) {
		return &message.DispatchResult{
			MessageID:    msg.ID,
			Source:       msg.Source,
			Transcript:   msg.Text,
			Intent:       "add",
			ResponseText: "El resultado es 4.",
		}, nil
	})

	var res message.DispatchResult
	err := conn.Invoke(context.Background(), ProcessMethod,
		&message.Message{ID: "m1", Source: "robot", Text: "suma 2 y 2"}, &res,
		grpc.CallContentSubtype(CodecName))
	require.NoError(t, err)
	require.Equal(t, "m1", res.MessageID)
	require.Equal(t, "robot", res.Source)
	require.Equal(t, "add", res.Intent)
	require.Equal(t, "El resultado es 4.", res.ResponseText)
}

func TestProcessHandlerError(t *testing.T) {
	t.Parallel()

	conn := startTransport(t, func(context.Context, *message.Message) (*message.DispatchResult, error) {
		return nil, errors.New("boom")
	})

	var res message.DispatchResult
	err := conn.Invoke(context.Background(), ProcessMethod, &message.Message{Text: "hola"}, &res,
		grpc.CallContentSubtype(CodecName))
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestHealthService(t *testing.T) {
	t.Parallel()

	conn := startTransport(t, func(context.Context, *message.Message) (*message.DispatchResult, error) {
		return &message.DispatchResult{}, nil
	})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

// recorder is a downstream target implementing voxmate.v1.Target/Deliver.
type recorder struct {
	mu  sync.Mutex
	got []json.RawMessage
}

func (r *recorder) payloads() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]json.RawMessage(nil), r.got...)
}

var targetDesc = grpc.ServiceDesc{
	ServiceName: "voxmate.v1.Target",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Deliver",
		Handler: func(srv any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			var in json.RawMessage
			if err := dec(&in); err != nil {
				return nil, err
			}
			rec := srv.(*recorder)
			rec.mu.Lock()
			rec.got = append(rec.got, in)
			rec.mu.Unlock()
			return json.RawMessage(`{}`), nil
		},
	}},
}

func TestSendDelivers(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	rec := &recorder{}
	srv := grpc.NewServer()
	srv.RegisterService(&targetDesc, rec)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	tr := New(0, WithDialOptions(bufDialer(lis)))
	t.Cleanup(func() { _ = tr.Close() })

	target := message.Target{ServiceName: "robot", Endpoint: "passthrough:///robot", Protocol: "grpc"}
	require.NoError(t, tr.Send(context.Background(), target, []byte(`{"intent":"joke"}`)))
	require.NoError(t, tr.Send(context.Background(), target, []byte(`{"intent":"farewell"}`)))

	got := rec.payloads()
	require.Len(t, got, 2)
	require.JSONEq(t, `{"intent":"joke"}`, string(got[0]))
	require.JSONEq(t, `{"intent":"farewell"}`, string(got[1]))
}

func TestSendUnknownMethod(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	tr := New(0, WithDialOptions(bufDialer(lis)))
	t.Cleanup(func() { _ = tr.Close() })

	err := tr.Send(context.Background(), message.Target{Endpoint: "passthrough:///empty"}, []byte(`{}`))
	require.Error(t, err)
	require.Equal(t, codes.Unimplemented, status.Code(err))
}
