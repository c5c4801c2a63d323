// Package singleinstance guarantees at most one live capture session per
// user session. Ownership is a bound loopback TCP port; the owner answers
// PING so other processes can tell who holds it.
package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	host         = "127.0.0.1"
	pingRequest  = "PING\n"
	pongPrefix   = "PONG "
	probeTimeout = 300 * time.Millisecond
)

var ErrHeld = errors.New("another instance holds the lock")

// Lock is a held ownership token.
type Lock struct {
	lis   net.Listener
	owner string

	once sync.Once
	done chan struct{}
}

// Acquire binds the lock port. When it is taken, the returned error wraps
// ErrHeld and names the current owner if it answers.
func Acquire(owner string) (*Lock, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(lockPort()))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		if holder, ok := Holder(ctx); ok {
			return nil, fmt.Errorf("%w: %s", ErrHeld, holder)
		}
		return nil, fmt.Errorf("singleinstance: failed to bind %s: %w", addr, err)
	}
	l := &Lock{lis: lis, owner: owner, done: make(chan struct{})}
	log.Printf("singleinstance: %s holds %s", owner, addr)
	go l.acceptLoop()
	return l, nil
}

func (l *Lock) Port() int { return l.lis.Addr().(*net.TCPAddr).Port }

// Release gives up ownership. Safe to call more than once.
func (l *Lock) Release() {
	l.once.Do(func() {
		l.lis.Close()
		<-l.done
	})
}

func (l *Lock) acceptLoop() {
	defer close(l.done)
	for {
		c, err := l.lis.Accept()
		if err != nil {
			return
		}
		go l.answer(c)
	}
}

func (l *Lock) answer(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	line, _ := bufio.NewReader(c).ReadString('\n')
	if line != pingRequest {
		log.Printf("singleinstance: unexpected request from %s: %q", c.RemoteAddr(), line)
		return
	}
	bw := bufio.NewWriter(c)
	_, _ = bw.WriteString(pongPrefix + l.owner + "\n")
	_ = bw.Flush()
}

// Holder reports the owner of the lock, if any process holds it and answers.
func Holder(ctx context.Context) (string, bool) {
	timeout := probeTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}
	addr := net.JoinHostPort(host, strconv.Itoa(lockPort()))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	bw := bufio.NewWriter(conn)
	if _, err := bw.WriteString(pingRequest); err != nil {
		return "", false
	}
	if err := bw.Flush(); err != nil {
		return "", false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || !strings.HasPrefix(resp, pongPrefix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(resp, pongPrefix), "\n"), true
}
