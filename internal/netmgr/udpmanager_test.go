// =============================================================================
// 文件: internal/netmgr/udpmanager_test.go
// =============================================================================
package netmgr

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/relayforge/framesend/internal/sender"
)

func TestSendDataDeliversOverLoopback(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	m, err := Dial(peer.LocalAddr().String(), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer m.Close()

	done := make(chan sender.CompletionStatus, 1)
	if err := m.SendData([]byte("fragment-payload"), func(status sender.CompletionStatus) {
		done <- status
	}); err != nil {
		t.Fatalf("SendData: %v", err)
	}

	buf := make([]byte, 64)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("peer ReadFromUDP: %v", err)
	}
	if string(buf[:n]) != "fragment-payload" {
		t.Fatalf("unexpected payload: %q", buf[:n])
	}

	select {
	case status := <-done:
		if status != sender.StatusSent {
			t.Fatalf("expected StatusSent, got %v", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onComplete never fired")
	}
}

func TestFlushDataCancelsQueuedSends(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	m, err := Dial(peer.LocalAddr().String(), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer m.Close()

	// Hold the worker inside the first task's completion so the second
	// task is still sitting in the send queue when FlushData runs.
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	defer unblock()

	first := make(chan sender.CompletionStatus, 1)
	if err := m.SendData([]byte("first"), func(status sender.CompletionStatus) {
		first <- status
		<-release
	}); err != nil {
		t.Fatalf("SendData(first): %v", err)
	}
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first onComplete never fired")
	}

	done := make(chan sender.CompletionStatus, 1)
	if err := m.SendData([]byte("stale"), func(status sender.CompletionStatus) {
		done <- status
	}); err != nil {
		t.Fatalf("SendData: %v", err)
	}
	m.FlushData()
	unblock()

	select {
	case status := <-done:
		if status != sender.StatusCancel {
			t.Fatalf("expected StatusCancel, got %v", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onComplete never fired")
	}
}

func TestReadWithTimeoutReportsTimeout(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	m, err := Dial(peer.LocalAddr().String(), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer m.Close()

	buf := make([]byte, 64)
	_, err = m.ReadWithTimeout(buf, 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	nerr, ok := err.(net.Error)
	if !ok || !nerr.Timeout() {
		t.Fatalf("expected a net.Error with Timeout()==true, got %v", err)
	}
}
