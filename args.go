package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Args are command line arguments, generalized from the teacher's own
// Args (ConfigFile/ListenFD/ServerName/SID, fields that only made sense
// for a TS6 hub taking over an inherited listening socket) down to the
// flag set the component design's §6 calls for.
type Args struct {
	ConfigFile string
	Debug      bool
	NoFork     bool
	ListHashes bool
	MkPasswd   bool
}

func getArgs() *Args {
	configFile := flag.String("config", "", "Configuration file.")
	debug := flag.Bool("debug", false, "Enable debug logging.")
	nofork := flag.Bool("nofork", false, "Do not daemonize; run in the foreground.")
	listHashes := flag.Bool("list-hashes", false, "List supported password hash schemes and exit.")
	mkpasswd := flag.Bool("mkpasswd", false, "Read a passphrase from stdin, print its hash, and exit.")
	help := flag.Bool("help", false, "Show usage and exit.")

	flag.Parse()

	if *help {
		printUsage(nil)
		os.Exit(0)
	}

	if *listHashes || *mkpasswd {
		return &Args{Debug: *debug, ListHashes: *listHashes, MkPasswd: *mkpasswd}
	}

	if len(*configFile) == 0 {
		printUsage(fmt.Errorf("you must provide a configuration file"))
		return nil
	}

	configPath, err := filepath.Abs(*configFile)
	if err != nil {
		printUsage(fmt.Errorf(
			"unable to determine path to the configuration file: %s", err))
		return nil
	}

	return &Args{
		ConfigFile: configPath,
		Debug:      *debug,
		NoFork:     *nofork,
	}
}

func printUsage(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", err) // nolint: gas
	}
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <arguments>\n", os.Args[0]) // nolint: gas
	flag.PrintDefaults()
}
