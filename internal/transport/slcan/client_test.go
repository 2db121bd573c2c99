package slcan

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// mockSLCANServer simulates a network-attached SLCAN interface, following
// the teacher's MockKNXDServer pattern in internal/bridges/knx/knxd_test.go.
type mockSLCANServer struct {
	listener net.Listener
	mu       sync.Mutex
	conn     net.Conn
	received []string
	done     chan struct{}
}

func newMockSLCANServer(t *testing.T) *mockSLCANServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &mockSLCANServer{listener: listener, done: make(chan struct{})}
	go s.acceptLoop()
	return s
}

func (s *mockSLCANServer) acceptLoop() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	buf := make([]byte, 256)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return
		}
		s.mu.Lock()
		s.received = append(s.received, string(buf[:n]))
		s.mu.Unlock()
	}
}

func (s *mockSLCANServer) Address() string { return s.listener.Addr().String() }

func (s *mockSLCANServer) SendLine(line string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Write([]byte(line))
	}
}

func (s *mockSLCANServer) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.received...)
}

func (s *mockSLCANServer) Close() {
	close(s.done)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	s.listener.Close()
}

func dialClient(t *testing.T, addr string) *Client {
	c, err := Connect(context.Background(), Config{
		Address:           addr,
		ConnectTimeout:    time.Second,
		ReadTimeout:       time.Second,
		ReconnectInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

func TestConnectAndClose(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConnectRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close() // free the port, nothing listens on it now

	_, err = Connect(context.Background(), Config{Address: addr, ConnectTimeout: 200 * time.Millisecond})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() err = %v, want ErrConnectionFailed", err)
	}
}

func TestReadFrameReceivesDecodedLine(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	defer client.Close()

	time.Sleep(50 * time.Millisecond) // let the server accept

	server.SendLine("T1FEFF00480102030405060708\r")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := client.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if raw.ArbID != 0x1FEFF004 {
		t.Errorf("ArbID = %#x, want %#x", raw.ArbID, 0x1FEFF004)
	}
	if raw.Length != 8 {
		t.Errorf("Length = %d, want 8", raw.Length)
	}
}

func TestReadFrameIgnoresNonExtendedLines(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	defer client.Close()

	time.Sleep(50 * time.Millisecond)

	server.SendLine("t1FE8\r")
	server.SendLine("T1FEFF00400\r")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := client.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if raw.Length != 0 {
		t.Errorf("Length = %d, want 0 (expected the second, extended-frame line)", raw.Length)
	}
}

func TestReadFrameCancelledByContext(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.ReadFrame(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadFrame() err = %v, want context.DeadlineExceeded", err)
	}
}

func TestWriteFrameSendsEncodedLine(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	defer client.Close()

	time.Sleep(50 * time.Millisecond)

	err := client.WriteFrame(context.Background(), 0x1FEFF004, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	received := server.Received()
	if len(received) == 0 {
		t.Fatal("server received nothing")
	}

	raw, err := decodeLine(received[0][:len(received[0])-1])
	if err != nil {
		t.Fatalf("server received malformed line %q: %v", received[0], err)
	}
	if raw.ArbID != 0x1FEFF004 || raw.Length != 2 {
		t.Errorf("received frame = %+v, want ArbID=0x1FEFF004 Length=2", raw)
	}
}

func TestWriteFrameNotConnected(t *testing.T) {
	client := &Client{done: newCloseOnce()}
	err := client.WriteFrame(context.Background(), 0x1FEFF004, []byte{0x01})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("WriteFrame() err = %v, want ErrNotConnected", err)
	}
}

func TestStatsTrackActivity(t *testing.T) {
	server := newMockSLCANServer(t)
	defer server.Close()

	client := dialClient(t, server.Address())
	defer client.Close()

	time.Sleep(50 * time.Millisecond)
	client.WriteFrame(context.Background(), 0x1FEFF004, []byte{0x01})
	time.Sleep(50 * time.Millisecond)

	stats := client.Stats()
	if stats.FramesTx != 1 {
		t.Errorf("FramesTx = %d, want 1", stats.FramesTx)
	}
	if !stats.Connected {
		t.Error("Connected = false, want true")
	}
}
