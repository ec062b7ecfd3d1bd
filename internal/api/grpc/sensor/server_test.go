package sensor

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
)

var errTestPersist = errors.New("disk full")

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	// now is the reference instant for computed states.
	now time.Time
	// state holds the current alarm state managed by the fake service.
	state *domain.State
	// err is returned by UpdateAlarms when set.
	err error
}

// UpdateAlarms recomputes the state from the payload.
func (f *fakeService) UpdateAlarms(_ context.Context, payload *domain.Payload) (*domain.State, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.state = domain.NewState(payload.Alarms, f.now)

	return f.state, nil
}

// State returns the current alarm state stored in the fake service.
func (f *fakeService) State() *domain.State { return f.state }

// newFakeService returns a service with an empty state on Monday 08:00 UTC.
func newFakeService() *fakeService {
	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)

	return &fakeService{
		now:   now,
		state: domain.NewState(nil, now),
	}
}

// startBufconn serves the service over an in-memory listener and returns a client.
func startBufconn(t *testing.T, service Service) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterSensorServer(server, NewServer(service))

	go func() {
		_ = server.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return NewClient(conn, WithCallTimeout(5*time.Second))
}

// TestServer_ReplaceAlarms_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_ReplaceAlarms_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService())

	_, err := s.ReplaceAlarms(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	missing, err := structpb.NewStruct(map[string]any{"timezone": "UTC"})
	require.NoError(t, err)

	_, err = s.ReplaceAlarms(context.Background(), missing)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_ReplaceAlarms_PersistError maps service failures to Internal.
func TestServer_ReplaceAlarms_PersistError(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	service.err = errTestPersist

	req, err := structpb.NewStruct(map[string]any{"alarms": []any{}})
	require.NoError(t, err)

	_, err = NewServer(service).ReplaceAlarms(context.Background(), req)
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_GetNextAlarm_Empty returns nulls when nothing is scheduled.
func TestServer_GetNextAlarm_Empty(t *testing.T) {
	t.Parallel()

	response, err := NewServer(newFakeService()).GetNextAlarm(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	fields := response.AsMap()
	require.Nil(t, fields["next_alarm"])
	require.Nil(t, fields["next_alarm_name"])
	require.InDelta(t, 0, fields["total_alarms"], 0)
}

// TestClient_Roundtrip exercises ReplaceAlarms and GetNextAlarm over a real gRPC connection.
func TestClient_Roundtrip(t *testing.T) {
	t.Parallel()

	client := startBufconn(t, newFakeService())
	ctx := context.Background()

	replaced, err := client.ReplaceAlarms(ctx, &domain.Payload{
		Alarms: []domain.Alarm{
			{Name: "Work", Time: "09:30", Days: []domain.Day{domain.Monday}, IsEnabled: true},
			{Name: "Off", Time: "08:30", IsEnabled: false},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Work", replaced.GetFields()["next_alarm_name"].GetStringValue())

	response, err := client.GetNextAlarm(ctx)
	require.NoError(t, err)
	require.Equal(t, "2025-01-06T09:30:00Z", response.GetFields()["next_alarm"].GetStringValue())
	require.InDelta(t, 2, response.GetFields()["total_alarms"].GetNumberValue(), 0)
	require.Len(t, response.GetFields()["all_alarms"].GetListValue().GetValues(), 2)
}

// TestClient_InvalidArgumentOverWire ensures status codes survive the transport.
func TestClient_InvalidArgumentOverWire(t *testing.T) {
	t.Parallel()

	client := startBufconn(t, newFakeService())

	callCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, err := structpb.NewStruct(map[string]any{"alarms": "none"})
	require.NoError(t, err)

	err = client.conn.Invoke(callCtx, ReplaceAlarmsMethod, in, new(structpb.Struct))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}
