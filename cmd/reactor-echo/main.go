// Command reactor-echo runs a TCP and UDP echo service on top of a Reactor,
// for manual exercise of the multiplex loop and as a template for wiring a
// Reactor into a standalone binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	reactor "github.com/behrlich/go-reactor"
	"github.com/behrlich/go-reactor/internal/logging"
)

var opts struct {
	tcpPort uint16
	udpPort uint16
	bufSize string
	backlog int
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "reactor-echo",
	Short: "Run a TCP/UDP echo service on a single-worker socket reactor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().Uint16Var(&opts.tcpPort, "tcp-port", 7000, "TCP listen port (0 to disable)")
	rootCmd.Flags().Uint16Var(&opts.udpPort, "udp-port", 7001, "UDP listen port (0 to disable)")
	rootCmd.Flags().StringVar(&opts.bufSize, "buf-size", "2MiB", "ring buffer size per endpoint, e.g. 2MiB, 512KiB")
	rootCmd.Flags().IntVar(&opts.backlog, "backlog", 128, "TCP listen backlog")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := logging.LevelInfo
	if opts.verbose {
		logLevel = logging.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{Level: logLevel, Output: os.Stderr})
	defer logger.Sync()
	logging.SetDefault(logger)

	var ringSize datasize.ByteSize
	if err := ringSize.UnmarshalText([]byte(opts.bufSize)); err != nil {
		return fmt.Errorf("invalid --buf-size %q: %w", opts.bufSize, err)
	}

	r, err := reactor.New(reactor.Options{
		Logger:         logger,
		RingBufferSize: ringSize,
		ListenBacklog:  opts.backlog,
		ErrorHandler: func(err error) {
			logger.Error("reactor error", "error", err)
		},
	})
	if err != nil {
		return fmt.Errorf("creating reactor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	if opts.tcpPort != 0 {
		listener, err := r.Listen("0.0.0.0", opts.tcpPort, 0, func(peer *reactor.Address) *reactor.TcpTalker {
			logger.Info("tcp connection accepted", "peer", peer.String())
			return r.NewTalker(echoTalkerHandler{logger: logger}, ringSize)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("listening on tcp port %d: %w", opts.tcpPort, err)
		}
		logger.Info("tcp echo listening", "addr", listener.LocalAddr().String())
	}

	if opts.udpPort != 0 {
		udp, err := r.NewUDP("", opts.udpPort, echoUDPHandler{logger: logger}, ringSize)
		if err != nil {
			cancel()
			return fmt.Errorf("binding udp port %d: %w", opts.udpPort, err)
		}
		logger.Info("udp echo listening", "addr", udp.LocalAddr().String())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		if err := r.Post(reactor.Quit); err != nil {
			logger.Warn("posting quit message failed, falling back to context cancel", "error", err)
			cancel()
		}
	case err := <-runDone:
		if err != nil {
			logger.Error("reactor exited with error", "error", err)
		}
		return err
	}

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		logger.Warn("reactor did not shut down within the grace period")
		cancel()
	}

	snap := r.Metrics().Snapshot()
	logger.Info("final metrics",
		"read_ops", snap.ReadOps,
		"write_ops", snap.WriteOps,
		"read_bytes", humanize.Bytes(snap.ReadBytes),
		"write_bytes", humanize.Bytes(snap.WriteBytes),
		"accepts_admitted", snap.AcceptsAdmitted,
		"accepts_refused", snap.AcceptsRefused,
	)
	return nil
}

// echoTalkerHandler writes back every chunk of bytes it receives on the
// talker's read ring.
type echoTalkerHandler struct {
	logger *logging.Logger
}

func (h echoTalkerHandler) OnConnect(t *reactor.TcpTalker) {}

func (h echoTalkerHandler) OnReceive(t *reactor.TcpTalker) {
	buf := make([]byte, 4096)
	for {
		n, err := t.ReadRing().Consume(buf, 0, len(buf))
		if err != nil || n == 0 {
			return
		}
		if err := t.Write(buf[:n]); err != nil {
			h.logger.Warn("echo write failed", "error", err)
			return
		}
	}
}

func (h echoTalkerHandler) OnClose(t *reactor.TcpTalker) {}

func (h echoTalkerHandler) OnError(t *reactor.TcpTalker, err error) {
	h.logger.Warn("talker error", "error", err)
}

// echoUDPHandler sends each received datagram straight back to its sender.
type echoUDPHandler struct {
	logger *logging.Logger
}

func (h echoUDPHandler) OnReceive(u *reactor.UdpEndpoint, peer *reactor.Address, payload []byte) {
	if err := u.Write(peer, payload); err != nil {
		h.logger.Warn("udp echo write failed", "error", err, "peer", peer.String())
	}
}

func (h echoUDPHandler) OnError(u *reactor.UdpEndpoint, err error) {
	h.logger.Warn("udp endpoint error", "error", err)
}
