package main

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"os"

	proxyproto "github.com/pires/go-proxyproto"
)

// main is the process entry point, generalized from the teacher's
// ircd.go main(): load config, build a Server, listen, run. The
// daemonization/pidfile/TS6-sid handling ircd.go's mature generation
// never finished is out of scope; --nofork governs whether this process
// stays attached to its controlling terminal, which on this platform
// just means "do nothing special" since Go has no native fork().
func main() {
	args := getArgs()
	if args == nil {
		os.Exit(1)
	}

	if args.ListHashes {
		fmt.Println("bcrypt")
		return
	}

	if args.MkPasswd {
		if err := runMkPasswd(); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(args.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	logOut := os.Stderr
	if cfg.Logs.File != "" {
		f, err := os.OpenFile(cfg.Logs.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open log file: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := newLogger(logOut, args.Debug || cfg.Logs.Debug)

	accounts, err := newJSONAccountStore(cfg.Data.Directory)
	if err != nil {
		log.Fatalf("unable to open account store: %s", err)
	}

	s := NewServer(cfg, log, accounts, newBcryptHasher(), newPrometheusMetrics())

	for _, lc := range cfg.Listeners {
		if err := startListener(s, lc); err != nil {
			log.Fatalf("unable to start listener %s: %s", lc.Address, err)
		}
	}

	log.Printf("%s listening, starting event loop", s.name())
	s.Run()
	log.Printf("Server shutdown cleanly.")
}

// startListener opens one configured listener and spawns the goroutine
// that feeds accepted connections into the server's inbound channel as
// newConnEvents, grounded on the teacher's acceptConnections but split
// per-listener since this module supports more than one bind address/TLS
// combination.
func startListener(s *Server, lc ListenerConfig) error {
	ln, err := net.Listen("tcp", lc.Address)
	if err != nil {
		return err
	}

	if lc.ProxyProtocol {
		ln = &proxyproto.Listener{Listener: ln}
	}

	var tlsConfig *tls.Config
	if lc.TLS {
		cert, err := tls.LoadX509KeyPair(lc.CertFile, lc.KeyFile)
		if err != nil {
			return err
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	go acceptLoop(s, ln, tlsConfig)
	return nil
}

func acceptLoop(s *Server, ln net.Listener, tlsConfig *tls.Config) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.log.debugf("accept error on %s: %v", ln.Addr(), err)
			continue
		}

		isTLS := tlsConfig != nil
		if isTLS {
			conn = tls.Server(conn, tlsConfig)
		}

		s.inbound <- newConnEvent{conn: conn, tls: isTLS}
	}
}

// runMkPasswd implements --mkpasswd: read one line from stdin, bcrypt
// it, print the hash. Kept separate from the server lifecycle entirely,
// matching the operator-workflow shape the component design's §6
// describes (a one-shot invocation, not a server subcommand).
func runMkPasswd() error {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return fmt.Errorf("no passphrase given")
	}
	hash, err := newBcryptHasher().Hash(scanner.Text())
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
