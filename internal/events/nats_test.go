package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startNATS(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { tc.CleanupContainer(t, container) })

	endpoint, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)
	return endpoint
}

func TestNATSBus(t *testing.T) {
	t.Parallel()

	url := startNATS(t)

	publisher, err := Connect(url, "agentdir.test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	subscriber, err := Connect(url, "agentdir.test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = subscriber.Close() })

	received := make(chan Change, 4)
	unsubscribe, err := subscriber.Subscribe(func(_ context.Context, change Change) {
		received <- change
	})
	require.NoError(t, err)
	require.NoError(t, subscriber.Flush())

	id := uuid.New()
	require.NoError(t, publisher.Publish(context.Background(), NewChange(id, ReasonConformance)))
	require.NoError(t, publisher.Flush())

	select {
	case change := <-received:
		assert.Equal(t, id, change.EntryID)
		assert.Equal(t, ReasonConformance, change.Reason)
		assert.False(t, change.OccurredAt.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("change was not delivered")
	}

	require.NoError(t, unsubscribe())
	require.NoError(t, subscriber.Flush())

	require.NoError(t, publisher.Publish(context.Background(), NewChange(id, ReasonDeleted)))
	require.NoError(t, publisher.Flush())

	select {
	case change := <-received:
		t.Fatalf("unexpected change after unsubscribe: %+v", change)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConnectFailure(t *testing.T) {
	t.Parallel()

	_, err := Connect("nats://127.0.0.1:1", "agentdir.test")
	require.Error(t, err)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var bus Bus = Noop{}
	require.NoError(t, bus.Publish(context.Background(), NewChange(uuid.New(), ReasonFlagged)))

	unsubscribe, err := bus.Subscribe(func(context.Context, Change) {
		t.Fatal("noop bus must not deliver")
	})
	require.NoError(t, err)
	require.NoError(t, unsubscribe())
	require.NoError(t, bus.Close())
}
