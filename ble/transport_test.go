package ble

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/robertof/go-keetronics-client/link"
)

const (
	waitTimeout  = time.Second
	quietTimeout = 50 * time.Millisecond
)

var testAddr = net.HardwareAddr{0x08, 0xb6, 0x1f, 0x28, 0xb4, 0x6e}

// fakeClient only implements what the transport touches while connecting.
type fakeClient struct {
	Client
	disconnected chan struct{}
	cancels      chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		disconnected: make(chan struct{}),
		cancels:      make(chan struct{}, 8),
	}
}

func (c *fakeClient) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *fakeClient) CancelConnection() error {
	c.cancels <- struct{}{}
	return nil
}

type recordingCallbacks struct {
	events chan string
}

func newRecordingCallbacks() *recordingCallbacks {
	return &recordingCallbacks{events: make(chan string, 16)}
}

func (r *recordingCallbacks) Connected() { r.events <- "connected" }
func (r *recordingCallbacks) ConnectFailed(error) { r.events <- "connect-failed" }
func (r *recordingCallbacks) ServicesDiscovered(link.Profile, error) { r.events <- "services" }
func (r *recordingCallbacks) NotificationsEnabled(error) { r.events <- "notifications" }
func (r *recordingCallbacks) Disconnected() { r.events <- "disconnected" }
func (r *recordingCallbacks) Notification([]byte) { r.events <- "notification" }

type fakeDialer struct {
	dials   chan struct{}
	clients chan Client
}

func newFakeDialer(clients ...Client) *fakeDialer {
	d := &fakeDialer{
		dials:   make(chan struct{}, len(clients)),
		clients: make(chan Client, len(clients)),
	}

	for _, c := range clients {
		d.clients <- c
	}

	return d
}

func (d *fakeDialer) dial(ctx context.Context, addr net.HardwareAddr) (Client, error) {
	d.dials <- struct{}{}
	return <-d.clients, nil
}

func expectEvent(t *testing.T, cb *recordingCallbacks, want string) {
	t.Helper()

	select {
	case got := <-cb.events:
		if got != want {
			t.Fatalf("callback: got %q, wanted %q", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("callback: timed out waiting for %q", want)
	}
}

func expectSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func expectNoSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(quietTimeout):
	}
}

func connectFirst(t *testing.T, tr *Transport, d *fakeDialer) *recordingCallbacks {
	t.Helper()

	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), testAddr, cb)

	expectSignal(t, d.dials, "first dial")
	expectEvent(t, cb, "connected")

	return cb
}

func TestTransport_DialWaitsForDisconnectedClient(t *testing.T) {
	old, fresh := newFakeClient(), newFakeClient()
	d := newFakeDialer(old, fresh)
	tr := &Transport{dial: d.dial}

	first := connectFirst(t, tr, d)

	tr.Disconnect()
	expectSignal(t, old.cancels, "release of the old client")

	second := newRecordingCallbacks()
	tr.Connect(context.Background(), testAddr, second)

	expectNoSignal(t, d.dials, "dial while the old link is still up")

	close(old.disconnected)
	expectEvent(t, first, "disconnected")

	expectSignal(t, d.dials, "second dial")
	expectEvent(t, second, "connected")
}

func TestTransport_ConnectReleasesCurrentClient(t *testing.T) {
	old, fresh := newFakeClient(), newFakeClient()
	d := newFakeDialer(old, fresh)
	tr := &Transport{dial: d.dial}

	connectFirst(t, tr, d)

	second := newRecordingCallbacks()
	tr.Connect(context.Background(), testAddr, second)

	expectSignal(t, old.cancels, "release of the old client")
	expectNoSignal(t, d.dials, "dial while the old link is still up")

	close(old.disconnected)

	expectSignal(t, d.dials, "second dial")
	expectEvent(t, second, "connected")
}

func TestTransport_GivesUpWaitingWhenAttemptEnds(t *testing.T) {
	old, fresh := newFakeClient(), newFakeClient()
	d := newFakeDialer(old, fresh)
	tr := &Transport{dial: d.dial}

	connectFirst(t, tr, d)
	tr.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	abandoned := newRecordingCallbacks()
	tr.Connect(ctx, testAddr, abandoned)

	expectEvent(t, abandoned, "connect-failed")
	expectNoSignal(t, d.dials, "dial after the attempt was cancelled")

	// the old client is still pending, the next attempt waits for it too.
	next := newRecordingCallbacks()
	tr.Connect(context.Background(), testAddr, next)

	expectNoSignal(t, d.dials, "dial while the old link is still up")

	close(old.disconnected)

	expectSignal(t, d.dials, "second dial")
	expectEvent(t, next, "connected")
}
