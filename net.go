package main

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Conn is a connection to a client. It wraps net.Conn the way the
// teacher's net.go does: a buffered read/write handle plus a per-operation
// I/O deadline, with every line traced through the server's logger.
type Conn struct {
	conn net.Conn
	rw   *bufio.ReadWriter

	ioWait time.Duration

	IP  net.IP
	TLS bool

	log *logger
}

type tlsConnectionStater interface {
	ConnectionState() interface{}
}

// NewConn initializes a Conn, grounded on the teacher's NewConn.
func NewConn(conn net.Conn, ioWait time.Duration, log *logger) (*Conn, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, errors.Wrap(err, "unable to determine remote host")
	}

	_, isTLS := conn.(tlsConnectionStater)

	return &Conn{
		conn:   conn,
		rw:     bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		ioWait: ioWait,
		IP:     net.ParseIP(host),
		TLS:    isTLS,
		log:    log,
	}, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ReadLine reads a single newline-terminated line from the connection.
func (c *Conn) ReadLine() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.ioWait)); err != nil {
		return "", errors.Wrap(err, "unable to set read deadline")
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		return "", err
	}

	c.log.debugf("read [%s]: %s", c.RemoteAddr(), strings.TrimRight(line, "\r\n"))

	return line, nil
}

// WriteLine writes a raw line (without CRLF) to the connection.
func (c *Conn) WriteLine(s string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioWait)); err != nil {
		return errors.Wrap(err, "unable to set write deadline")
	}

	if _, err := c.rw.WriteString(s); err != nil {
		return err
	}
	if _, err := c.rw.WriteString("\r\n"); err != nil {
		return err
	}

	if err := c.rw.Flush(); err != nil {
		return errors.Wrap(err, "flush error")
	}

	c.log.debugf("sent [%s]: %s", c.RemoteAddr(), s)

	return nil
}

// WriteMessage encodes and writes a Message.
func (c *Conn) WriteMessage(m Message) error {
	line, err := m.encode()
	if err != nil {
		return errors.Wrap(err, "unable to encode message")
	}
	return c.WriteLine(line)
}
