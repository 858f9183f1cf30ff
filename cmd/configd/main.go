// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// configd is the NETCONF configuration datastore daemon: it loads the
// compiled YANG schema, opens the on-disk datastore, reconciles
// running/candidate against the configured boot mode, then serves
// client sessions over a Unix socket until terminated.
//
// Usage mirrors spec.md §6's flag table: -h -D -f -l -d -b -F -z -a -u
// -P -1 -s -c -g -y -x. Run `configd -h` for the full list.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/activation"

	"github.com/klement/clixon"
	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/errkind"
	"github.com/klement/clixon/internal/clog"
	"github.com/klement/clixon/monitor"
	"github.com/klement/clixon/server"
	"github.com/klement/clixon/session"
	"github.com/klement/clixon/startup"
	"github.com/klement/clixon/txn"
	"github.com/klement/clixon/yangspec"
)

const (
	defaultPidfile   = "/run/configd/configd.pid"
	defaultSocket    = "/run/configd/configd.sock"
	defaultYangdir   = "/usr/share/configd/yang"
	defaultPluginDir = "/usr/lib/configd/plugins"
	defaultDatastore = "/var/lib/configd"
	defaultGroup     = "configd"
	defaultUser      = "configd"

	// metricsAddr is where /metrics is served; spec.md §6's flag table
	// has no metrics-address option, so this is a fixed loopback
	// address rather than a new flag invented outside the spec.
	metricsAddr = "127.0.0.1:9197"
)

var (
	help       = flag.Bool("h", false, "print usage and exit")
	debugLevel = flag.Int("D", 0, "debug verbosity")
	configFile = flag.String("f", "", "path to configuration file")
	logDest    = flag.String("l", "e", "log destination: s(yslog)|e(stderr)|o(stdout)|f<file>")
	pluginDir  = flag.String("d", "", "plugin directory override")
	storeDir   = flag.String("b", "", "datastore directory override")
	foreground = flag.Bool("F", false, "run in foreground")
	zapFlag    = flag.Bool("z", false, "kill existing daemon, remove its socket, exit 0")
	sockFamily = flag.String("a", "UNIX", "internal socket family: UNIX|IPv4|IPv6")
	sockAddr   = flag.String("u", "", "socket path (UNIX) or address (IP)")
	pidFile    = flag.String("P", "", "pid file path")
	runOnce    = flag.Bool("1", false, "run once: perform startup reconcile then exit")
	startMode  = flag.String("s", "none", "startup mode: none|startup|running|init")
	overlay    = flag.String("c", "", "overlay XML file merged post-commit during startup")
	group      = flag.String("g", "", "UNIX group required for socket access")
	yangModule = flag.String("y", "", "YANG main module override (stored in the configuration; module loading still compiles every module in the YANG directory)")
	dsPlugin   = flag.String("x", "", "datastore plugin name")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
	flag.PrintDefaults()
}

func fatal(elog *clog.Logger, err error) {
	if err == nil {
		return
	}
	if elog != nil {
		elog.Err(err, "fatal")
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if *help {
		usage()
		os.Exit(1)
	}

	resolvedPidfile := firstNonEmpty(*pidFile, defaultPidfile)
	resolvedSocket := firstNonEmpty(*sockAddr, defaultSocket)

	if *zapFlag {
		if err := zap(resolvedPidfile, resolvedSocket); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	dlog, elog, wlog := initLogging(*logDest, *debugLevel)
	if *foreground {
		dlog.Printf("configd: starting in foreground")
	}

	cfg, err := buildConfig(*pidFile, *sockAddr)
	if err != nil {
		fatal(elog, errkind.Config(err.Error()))
	}

	mode, err := parseStartMode(*startMode)
	if err != nil {
		fatal(elog, errkind.Config(err.Error()))
	}

	uid, gid, err := lookupUserGroup(cfg.User, cfg.Group)
	if err != nil {
		fatal(elog, errkind.Config(err.Error()))
	}

	extraXML, err := readOverlay(*overlay)
	if err != nil {
		fatal(elog, err)
	}

	store := datastore.Open(cfg.DatastoreDir, dlog)
	defer store.Close()
	if !store.Exists(datastore.Running) {
		fatal(elog, store.Create(datastore.Running))
	}

	spec, err := yangspec.LoadModules(cfg.Yangdir, "")
	if err != nil {
		fatal(elog, errkind.Schema(nil, err.Error()))
	}

	registry, err := buildRegistry(*dsPlugin, cfg.PluginDir)
	if err != nil {
		fatal(elog, err)
	}
	if err := registry.Init(); err != nil {
		abortScratch(store)
		fatal(elog, err)
	}

	commits := txn.NewManager(store, spec, registry)
	reconciler := startup.New(store, registry, commits)

	if err := reconciler.Reconcile(mode, extraXML); err != nil {
		abortScratch(store)
		fatal(elog, err)
	}

	if *runOnce {
		os.Exit(0)
	}

	if err := registry.Start(os.Args); err != nil {
		fatal(elog, err)
	}

	go serveMetrics(wlog)

	ln, err := listen(cfg, uid, gid)
	if err != nil {
		fatal(elog, errkind.Socket(err.Error()))
	}

	writePidfile(cfg.Pidfile)

	srv := server.New(ln, dlog)
	srv.Store = store
	srv.Sessions = session.NewManager()
	srv.Commits = commits
	srv.Registry = registry
	srv.Spec = spec
	srv.MonitorDir = cfg.MonitorDir
	srv.StartupEnabled = mode == startup.Startup
	srv.Capabilities = monitor.Capabilities(monitor.Features{
		Candidate:       true,
		Startup:         srv.StartupEnabled,
		ConfirmedCommit: false,
		RollbackOnError: true,
		Validate:        true,
	})

	elog.Printf("configd: serving on %s", cfg.Socket)
	fatal(elog, srv.Serve())
}

// abortScratch unlinks the tmp/backup scratch databases before a
// fatal exit, per spec.md §7: "Startup errors abort the boot sequence
// and unlink scratch databases (tmp, backup) before exit."
func abortScratch(store *datastore.Store) {
	store.Delete(datastore.Tmp)
	store.Delete(datastore.Backup)
}

func parseStartMode(s string) (startup.Mode, error) {
	switch startup.Mode(s) {
	case startup.None, startup.Init, startup.Running, startup.Startup:
		return startup.Mode(s), nil
	}
	return "", fmt.Errorf("unknown startup mode %q", s)
}

func readOverlay(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errkind.Config(fmt.Sprintf("overlay file %s: %s", path, err))
	}
	return string(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func lookupUserGroup(username, groupname string) (uid, gid int, err error) {
	u, err := user.Lookup(username)
	if err != nil {
		return 0, 0, fmt.Errorf("configd: user %q: %w", username, err)
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	if groupname == "" {
		return uid, 0, nil
	}
	gid, err = lookupGroupID(groupname)
	if err != nil {
		return 0, 0, fmt.Errorf("configd: group %q: %w", groupname, err)
	}
	return uid, gid, nil
}

// listen binds the server socket per -a/-u. IPv4/IPv6 families are
// named by spec.md §6's flag table, but §6's own "Persisted state
// layout" paragraph describes only a UNIX socket with group ownership
// and mode 0660; server.Srv is built around *net.UnixListener and
// SO_PEERCRED credential attribution accordingly, so non-UNIX families
// are rejected here rather than half-supported.
func listen(cfg *configd.Config, uid, gid int) (*net.UnixListener, error) {
	if !strings.EqualFold(*sockFamily, "UNIX") {
		return nil, fmt.Errorf("socket family %q not supported; core serves NETCONF sessions over a UNIX socket only", *sockFamily)
	}

	listeners, err := activation.Listeners()
	if err != nil {
		return nil, err
	}
	if len(listeners) > 0 {
		ul, ok := listeners[0].(*net.UnixListener)
		if !ok {
			return nil, fmt.Errorf("systemd-activated listener is not a UNIX socket")
		}
		return ul, nil
	}

	os.Remove(cfg.Socket)
	addr, err := net.ResolveUnixAddr("unix", cfg.Socket)
	if err != nil {
		return nil, err
	}
	ul, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(cfg.Socket, 0660); err != nil {
		return nil, err
	}
	if err := os.Chown(cfg.Socket, uid, gid); err != nil {
		return nil, err
	}
	return ul, nil
}

func writePidfile(path string) {
	if path == "" {
		return
	}
	os.MkdirAll(filepath.Dir(path), 0755)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%d\n", os.Getpid())
}

func serveMetrics(wlog *clog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitor.Handler())
	if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
		wlog.Err(err, "metrics listener exited")
	}
}
