package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	testURL   = "amqp://u:p@host:5672/vh"
	testHost  = "host"
	testQueue = "test-queue"
)

func newTestClient(dialer Dialer, opts ...clientOption) *Client {
	opts = append([]clientOption{WithQueue(testQueue), WithDialer(dialer)}, opts...)

	return NewClient(NewConfig(testURL), opts...)
}

func expectDial(dialer *MockDialer, conn Connection) *mock.Call {
	return dialer.On("Dial", mock.Anything, testURL, DialOptions{ServerName: testHost}).Return(conn, nil)
}

func newAssertedChannel() *MockChannel {
	ch := &MockChannel{}
	ch.On("AssertQueue", mock.Anything, testQueue, QueueOptions{}).Return(QueueInfo{Name: testQueue}, nil)

	return ch
}

// readyClient returns a client whose channel is cached and asserted.
func readyClient(t *testing.T) (*Client, *MockConnection, *MockChannel) {
	t.Helper()

	ch := newAssertedChannel()
	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(ch, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)

	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)

	return client, conn, ch
}

func TestClient_EndToEndInsert(t *testing.T) {
	t.Parallel()

	client, _, ch := readyClient(t)
	ch.On("SendToQueue", mock.Anything, testQueue, []byte(`{"test":"data"}`), SendOptions{}).Return(true, nil).Once()

	ok, err := client.Insert(context.Background(), map[string]any{"test": "data"})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateChannelReady, client.State())
	ch.AssertExpectations(t)
}

func TestClient_Connect_ConcurrentCallersShareOneDial(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	conn := &MockConnection{}
	dialer := &MockDialer{}
	expectDial(dialer, conn).Run(func(mock.Arguments) { <-release }).Once()

	client := newTestClient(dialer)

	g, ctx := errgroup.WithContext(context.Background())
	results := make([]Connection, 10)

	for i := range results {
		g.Go(func() error {
			c, err := client.Connect(ctx)
			results[i] = c

			return err
		})
	}

	require.Eventually(t, func() bool {
		return client.State() == StateConnectionPending
	}, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, g.Wait())

	for _, c := range results {
		assert.Same(t, conn, c)
	}

	dialer.AssertNumberOfCalls(t, "Dial", 1)
	assert.Equal(t, StateConnected, client.State())
}

func TestClient_Connect_ReusesEstablishedConnection(t *testing.T) {
	t.Parallel()

	conn := &MockConnection{}
	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)

	first, err := client.Connect(context.Background())
	require.NoError(t, err)

	second, err := client.Connect(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	dialer.AssertNumberOfCalls(t, "Dial", 1)
}

func TestClient_Connect_FailedDialIsEvicted(t *testing.T) {
	t.Parallel()

	conn := &MockConnection{}
	dialer := &MockDialer{}
	dialer.On("Dial", mock.Anything, testURL, DialOptions{ServerName: testHost}).
		Return(nil, errors.New("connection refused")).Once()
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)

	_, err := client.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBrokerConnect)

	var connectErr *BrokerConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, DefaultProfile, connectErr.Profile)
	assert.Equal(t, testHost, connectErr.Host)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, StateUnconnected, client.State())

	got, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, conn, got)
	dialer.AssertNumberOfCalls(t, "Dial", 2)
}

func TestClient_Connect_ConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  Config
		opts    []clientOption
		message string
	}{
		{
			name:    "unknown profile",
			config:  NewConfig(testURL),
			opts:    []clientOption{WithProfile("reporting")},
			message: `No RabbitMQ profile "reporting"`,
		},
		{
			name:    "empty config",
			config:  Config{},
			message: `No RabbitMQ profile "default"`,
		},
		{
			name:    "invalid url",
			config:  NewConfig("http://host:5672/"),
			message: "invalid RabbitMQ URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dialer := &MockDialer{}
			client := NewClient(tt.config, append(tt.opts, WithDialer(dialer))...)

			_, err := client.Connect(context.Background())

			require.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, StateUnconnected, client.State())
			dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestClient_Connect_SelectsProfile(t *testing.T) {
	t.Parallel()

	const reportingURL = "amqps://r:r@reporting.example.com:5671/"

	conn := &MockConnection{}
	dialer := &MockDialer{}
	dialer.On("Dial", mock.Anything, reportingURL, DialOptions{ServerName: "reporting.example.com"}).Return(conn, nil).Once()

	cfg := NewConfig(testURL).WithProfile("reporting", reportingURL)
	client := NewClient(cfg, WithDialer(dialer), WithProfile("reporting"))

	got, err := client.Connect(context.Background())

	require.NoError(t, err)
	assert.Same(t, conn, got)
	dialer.AssertExpectations(t)
}

func TestClient_CreateChannel_Preconditions(t *testing.T) {
	t.Parallel()

	t.Run("without connection", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(&MockDialer{})

		_, err := client.CreateChannel(context.Background())

		require.ErrorIs(t, err, ErrConfig)
		assert.EqualError(t, err, "No RabbitMQ connection")
	})

	t.Run("without queue", func(t *testing.T) {
		t.Parallel()

		conn := &MockConnection{}
		dialer := &MockDialer{}
		expectDial(dialer, conn).Once()

		client := NewClient(NewConfig(testURL), WithDialer(dialer))

		_, err := client.Connect(context.Background())
		require.NoError(t, err)

		_, err = client.CreateChannel(context.Background())

		require.ErrorIs(t, err, ErrConfig)
		assert.EqualError(t, err, "No RabbitMQ queue")
		conn.AssertNotCalled(t, "Channel", mock.Anything)

		_, ok := client.GetChannel()
		assert.False(t, ok)
	})
}

func TestClient_CreateChannel_AssertsQueueOnce(t *testing.T) {
	t.Parallel()

	client, conn, ch := readyClient(t)

	again, err := client.CreateChannel(context.Background())
	require.NoError(t, err)

	assert.Same(t, ch, again)
	conn.AssertNumberOfCalls(t, "Channel", 1)
	ch.AssertNumberOfCalls(t, "AssertQueue", 1)

	cached, ok := client.GetChannel()
	require.True(t, ok)
	assert.Same(t, ch, cached)
}

func TestClient_CreateChannel_ConcurrentCallersShareOneChannel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ch := newAssertedChannel()
	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Run(func(mock.Arguments) { <-release }).Return(ch, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	results := make([]Channel, 8)

	for i := range results {
		g.Go(func() error {
			c, err := client.CreateChannel(ctx)
			results[i] = c

			return err
		})
	}

	require.Eventually(t, func() bool {
		return client.State() == StateChannelPending
	}, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, g.Wait())

	for _, c := range results {
		assert.Same(t, ch, c)
	}

	conn.AssertNumberOfCalls(t, "Channel", 1)
	ch.AssertNumberOfCalls(t, "AssertQueue", 1)
	assert.Equal(t, StateChannelReady, client.State())
}

func TestClient_CreateChannel_FailedChannelIsEvicted(t *testing.T) {
	t.Parallel()

	ch := newAssertedChannel()
	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(nil, errors.New("channel max reached")).Once()
	conn.On("Channel", mock.Anything).Return(ch, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	_, err = client.CreateChannel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel max reached")

	_, ok := client.GetChannel()
	assert.False(t, ok)

	got, err := client.CreateChannel(context.Background())
	require.NoError(t, err)
	assert.Same(t, ch, got)
	conn.AssertNumberOfCalls(t, "Channel", 2)
}

func TestClient_CreateChannel_FailedAssertionIsRetried(t *testing.T) {
	t.Parallel()

	ch := &MockChannel{}
	ch.On("AssertQueue", mock.Anything, testQueue, QueueOptions{}).Return(QueueInfo{}, errors.New("access refused")).Once()
	ch.On("AssertQueue", mock.Anything, testQueue, QueueOptions{}).Return(QueueInfo{Name: testQueue}, nil).Once()

	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(ch, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	_, err = client.CreateChannel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access refused")
	assert.Equal(t, StateChannelPending, client.State())

	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)

	conn.AssertNumberOfCalls(t, "Channel", 1)
	ch.AssertNumberOfCalls(t, "AssertQueue", 2)
	assert.Equal(t, StateChannelReady, client.State())
}

func TestClient_TerminationEvictsChannel(t *testing.T) {
	t.Parallel()

	first := newAssertedChannel()
	second := newAssertedChannel()

	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(first, nil).Once()
	conn.On("Channel", mock.Anything).Return(second, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateChannelReady, client.State())

	first.Terminate()

	_, ok := client.GetChannel()
	assert.False(t, ok)
	assert.Equal(t, StateChannelPending, client.State())

	_, err = client.Insert(context.Background(), "payload")
	require.ErrorIs(t, err, ErrConfig)

	got, err := client.CreateChannel(context.Background())
	require.NoError(t, err)

	assert.Same(t, second, got)
	second.AssertNumberOfCalls(t, "AssertQueue", 1)
	dialer.AssertNumberOfCalls(t, "Dial", 1)
	assert.Equal(t, StateChannelReady, client.State())
}

func TestClient_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    any
		body    []byte
		sendOK  bool
		sendErr error
		wantErr string
	}{
		{
			name:   "map payload",
			data:   map[string]any{"test": "data"},
			body:   []byte(`{"test":"data"}`),
			sendOK: true,
		},
		{
			name: "struct payload",
			data: struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}{Name: "test", Age: 25},
			body:   []byte(`{"name":"test","age":25}`),
			sendOK: true,
		},
		{
			name:   "string payload",
			data:   "test message",
			body:   []byte(`"test message"`),
			sendOK: true,
		},
		{
			name:   "nil payload",
			data:   nil,
			body:   []byte(`null`),
			sendOK: true,
		},
		{
			name:    "broker error",
			data:    map[string]any{"test": "data"},
			body:    []byte(`{"test":"data"}`),
			sendErr: errors.New("channel closed"),
			wantErr: "channel closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _, ch := readyClient(t)
			ch.On("SendToQueue", mock.Anything, testQueue, tt.body, SendOptions{}).Return(tt.sendOK, tt.sendErr).Once()

			ok, err := client.Insert(context.Background(), tt.data)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.False(t, ok)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.sendOK, ok)
			}

			ch.AssertExpectations(t)
		})
	}
}

func TestClient_Insert_UnencodablePayload(t *testing.T) {
	t.Parallel()

	client, _, ch := readyClient(t)

	ok, err := client.Insert(context.Background(), make(chan int))

	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "could not marshal message")
	ch.AssertNotCalled(t, "SendToQueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClient_InsertWithGroupBy(t *testing.T) {
	t.Parallel()

	client, _, ch := readyClient(t)
	ch.On("SendToQueue", mock.Anything, testQueue, []byte(`{"test":"data"}`), SendOptions{
		Headers: amqp.Table{GroupByHeader: "tenant-42"},
	}).Return(true, nil).Once()

	ok, err := client.InsertWithGroupBy(context.Background(), "tenant-42", map[string]any{"test": "data"})

	require.NoError(t, err)
	assert.True(t, ok)
	ch.AssertExpectations(t)
}

func TestClient_DataOperationsRequireChannel(t *testing.T) {
	t.Parallel()

	conn := &MockConnection{}
	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	ops := map[string]func() error{
		"insert": func() error {
			_, err := client.Insert(context.Background(), "x")
			return err
		},
		"insert with group by": func() error {
			_, err := client.InsertWithGroupBy(context.Background(), "k", "x")
			return err
		},
		"purge": func() error {
			_, err := client.Purge(context.Background())
			return err
		},
		"destroy": func() error {
			_, err := client.Destroy(context.Background())
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()

			require.ErrorIs(t, err, ErrConfig)
			assert.EqualError(t, err, "No RabbitMQ channel")
		})
	}
}

func TestClient_Purge(t *testing.T) {
	t.Parallel()

	client, _, ch := readyClient(t)
	ch.On("PurgeQueue", mock.Anything, testQueue).Return(3, nil).Once()

	n, err := client.Purge(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, StateChannelReady, client.State())
	ch.AssertExpectations(t)
}

func TestClient_Destroy_KeepsConnection(t *testing.T) {
	t.Parallel()

	client, conn, ch := readyClient(t)
	ch.On("DeleteQueue", mock.Anything, testQueue).Return(5, nil).Once()

	n, err := client.Destroy(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, StateQueueDestroyed, client.State())
	conn.AssertNotCalled(t, "Close")

	cached, ok := client.GetChannel()
	require.True(t, ok)
	assert.Same(t, ch, cached)
}

func TestClient_CloseConnection(t *testing.T) {
	t.Parallel()

	client, conn, ch := readyClient(t)
	conn.On("Close").Return(nil).Once()

	require.NoError(t, client.CloseConnection(context.Background()))

	assert.Equal(t, StateConnectionClosed, client.State())
	assert.Zero(t, ch.Subscribers())

	_, ok := client.GetChannel()
	assert.False(t, ok)

	require.NoError(t, client.CloseConnection(context.Background()))
	conn.AssertNumberOfCalls(t, "Close", 1)
}

func TestClient_CloseConnection_WithoutConnection(t *testing.T) {
	t.Parallel()

	dialer := &MockDialer{}
	client := newTestClient(dialer)

	require.NoError(t, client.CloseConnection(context.Background()))

	assert.Equal(t, StateUnconnected, client.State())
	dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything, mock.Anything)
}

func TestClient_CloseConnection_WaitsForPendingDial(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	conn := &MockConnection{}
	conn.On("Close").Return(nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Run(func(mock.Arguments) { <-release }).Once()

	client := newTestClient(dialer)

	connected := make(chan error, 1)
	go func() {
		_, err := client.Connect(context.Background())
		connected <- err
	}()

	require.Eventually(t, func() bool {
		return client.State() == StateConnectionPending
	}, time.Second, time.Millisecond)

	closed := make(chan error, 1)
	go func() {
		closed <- client.CloseConnection(context.Background())
	}()

	close(release)

	require.NoError(t, <-connected)
	require.NoError(t, <-closed)

	dialer.AssertNumberOfCalls(t, "Dial", 1)
	conn.AssertNumberOfCalls(t, "Close", 1)
}

func TestClient_ConnectAfterClose(t *testing.T) {
	t.Parallel()

	first := &MockConnection{}
	first.On("Close").Return(nil).Once()
	second := &MockConnection{}

	dialer := &MockDialer{}
	expectDial(dialer, first).Once()
	expectDial(dialer, second).Once()

	client := newTestClient(dialer)

	_, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, client.CloseConnection(context.Background()))

	got, err := client.Connect(context.Background())
	require.NoError(t, err)

	assert.Same(t, second, got)
	assert.Equal(t, StateConnected, client.State())
}

func TestClient_SharedCaches(t *testing.T) {
	t.Parallel()

	chA := &MockChannel{}
	chA.On("AssertQueue", mock.Anything, "a", QueueOptions{}).Return(QueueInfo{Name: "a"}, nil).Once()
	chB := &MockChannel{}
	chB.On("AssertQueue", mock.Anything, "b", QueueOptions{}).Return(QueueInfo{Name: "b"}, nil).Once()

	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(chA, nil).Once()
	conn.On("Channel", mock.Anything).Return(chB, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	cfg := NewConfig(testURL)
	connections := NewConnectionCache(cfg, dialer, nil, nil)
	channels := NewChannelCache(nil, nil)

	a := NewClient(cfg, WithQueue("a"), WithConnectionCache(connections), WithChannelCache(channels))
	b := NewClient(cfg, WithQueue("b"), WithConnectionCache(connections), WithChannelCache(channels))

	for _, client := range []*Client{a, b} {
		_, err := client.Connect(context.Background())
		require.NoError(t, err)

		_, err = client.CreateChannel(context.Background())
		require.NoError(t, err)
	}

	dialer.AssertNumberOfCalls(t, "Dial", 1)
	conn.AssertNumberOfCalls(t, "Channel", 2)

	gotA, _ := a.GetChannel()
	gotB, _ := b.GetChannel()
	assert.Same(t, chA, gotA)
	assert.Same(t, chB, gotB)
}

func TestClient_StateProgression(t *testing.T) {
	t.Parallel()

	ch := newAssertedChannel()
	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(ch, nil).Once()
	conn.On("Close").Return(nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer)
	assert.Equal(t, StateUnconnected, client.State())

	_, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConnected, client.State())

	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateChannelReady, client.State())

	require.NoError(t, client.CloseConnection(context.Background()))
	assert.Equal(t, StateConnectionClosed, client.State())
}

func TestClient_RecordsMetrics(t *testing.T) {
	t.Parallel()

	metrics := &MockMetrics{}
	metrics.On("RecordConnection", mock.Anything, DefaultProfile, true).Once()
	metrics.On("RecordChannel", mock.Anything, testQueue, true).Once()
	metrics.On("RecordQueueAssertion", mock.Anything, testQueue, true).Once()
	metrics.On("RecordPublish", mock.Anything, testQueue, true, true).Once()

	ch := newAssertedChannel()
	ch.On("SendToQueue", mock.Anything, testQueue, mock.Anything, mock.Anything).Return(true, nil).Once()

	conn := &MockConnection{}
	conn.On("Channel", mock.Anything).Return(ch, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, conn).Once()

	client := newTestClient(dialer, WithMetrics(metrics))

	_, err := client.Connect(context.Background())
	require.NoError(t, err)

	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)

	_, err = client.InsertWithGroupBy(context.Background(), 7, "x")
	require.NoError(t, err)

	metrics.AssertExpectations(t)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateUnconnected:       "unconnected",
		StateConnectionPending: "connection_pending",
		StateConnected:         "connected",
		StateChannelPending:    "channel_pending",
		StateChannelReady:      "channel_ready",
		StateConnectionClosed:  "connection_closed",
		StateQueueDestroyed:    "queue_destroyed",
		State(42):              "unknown",
	}

	for state, expected := range tests {
		assert.Equal(t, expected, state.String())
	}
}

func TestClient_ConnectionTerminationRedials(t *testing.T) {
	t.Parallel()

	first := &MockConnection{}
	deadChannel := newAssertedChannel()
	first.On("Channel", mock.Anything).Return(deadChannel, nil).Once()

	second := &MockConnection{}
	freshChannel := newAssertedChannel()
	second.On("Channel", mock.Anything).Return(freshChannel, nil).Once()

	dialer := &MockDialer{}
	expectDial(dialer, first).Once()
	expectDial(dialer, second).Once()

	client := newTestClient(dialer)

	_, err := client.Connect(context.Background())
	require.NoError(t, err)
	_, err = client.CreateChannel(context.Background())
	require.NoError(t, err)

	// A broker restart kills the connection and with it every channel.
	deadChannel.Terminate()
	first.Terminate()

	assert.Equal(t, StateUnconnected, client.State())

	conn, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, conn)

	got, err := client.CreateChannel(context.Background())
	require.NoError(t, err)
	assert.Same(t, freshChannel, got)

	dialer.AssertNumberOfCalls(t, "Dial", 2)
	first.AssertNumberOfCalls(t, "Channel", 1)
	assert.Equal(t, StateChannelReady, client.State())
}

func TestClient_ConnectionTerminationAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	first := &MockConnection{}
	first.On("Close").Return(nil).Once()
	second := &MockConnection{}

	dialer := &MockDialer{}
	expectDial(dialer, first).Once()
	expectDial(dialer, second).Once()

	client := newTestClient(dialer)

	_, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, client.CloseConnection(context.Background()))

	conn, err := client.Connect(context.Background())
	require.NoError(t, err)
	require.Same(t, second, conn)

	// A late termination of the old connection must not evict the new one.
	first.Terminate()

	got, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, got)
	dialer.AssertNumberOfCalls(t, "Dial", 2)
}

func TestClient_SharedChannelCacheKeepsProfilesApart(t *testing.T) {
	t.Parallel()

	defaultChannel := newAssertedChannel()
	defaultConn := &MockConnection{}
	defaultConn.On("Channel", mock.Anything).Return(defaultChannel, nil).Once()

	reportingChannel := newAssertedChannel()
	reportingConn := &MockConnection{}
	reportingConn.On("Channel", mock.Anything).Return(reportingChannel, nil).Once()

	cfg := NewConfig(testURL).WithProfile("reporting", "amqp://r:r@reporting.example.com:5672/reports")

	dialer := &MockDialer{}
	dialer.On("Dial", mock.Anything, testURL, mock.Anything).Return(defaultConn, nil).Once()
	dialer.On("Dial", mock.Anything, "amqp://r:r@reporting.example.com:5672/reports", mock.Anything).Return(reportingConn, nil).Once()

	connections := NewConnectionCache(cfg, dialer, nil, nil)
	channels := NewChannelCache(nil, nil)

	primary := NewClient(cfg, WithQueue(testQueue), WithConnectionCache(connections), WithChannelCache(channels))
	reporting := NewClient(cfg, WithQueue(testQueue), WithProfile("reporting"), WithConnectionCache(connections), WithChannelCache(channels))

	for _, client := range []*Client{primary, reporting} {
		_, err := client.Connect(context.Background())
		require.NoError(t, err)

		_, err = client.CreateChannel(context.Background())
		require.NoError(t, err)
	}

	gotPrimary, _ := primary.GetChannel()
	gotReporting, _ := reporting.GetChannel()
	assert.Same(t, defaultChannel, gotPrimary)
	assert.Same(t, reportingChannel, gotReporting)
	defaultConn.AssertNumberOfCalls(t, "Channel", 1)
	reportingConn.AssertNumberOfCalls(t, "Channel", 1)
}
