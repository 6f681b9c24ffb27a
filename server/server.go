package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quicfec/internal"
	"quicfec/internal/fec"
	"quicfec/internal/packetbuilder"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	quic "github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// peerCIDLen is the connection ID length both sides frame repair and
// data packets against; it must match what the client's packet builder
// uses so ParsePacket can locate the nss/repair_key bytes.
const peerCIDLen = 8

// serverMetrics хранит метрики сервера, including the FEC recovery
// counters the receive-side manager accumulates per connection.
type serverMetrics struct {
	mu          sync.Mutex
	Connections int
	Streams     int
	Bytes       int64
	Errors      int
	Start       time.Time

	FECSourcesReceived int64
	FECRepairsReceived int64
	FECRecovered       int64
	FECFailed          int64
}

// Run запускает сервер с параметрами из TestConfig
func Run(cfg internal.TestConfig) {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	metrics := &serverMetrics{Start: time.Now()}
	reg := prometheus.NewRegistry()

	if cfg.Prometheus {
		go startPrometheusExporter(metrics, reg)
	}

	tlsConf := makeTLSConfig(cfg)
	quicConf := &quic.Config{EnableDatagrams: true}
	listener, err := quic.ListenAddr(cfg.Addr, tlsConf, quicConf)
	if err != nil {
		log.Fatalf("Ошибка запуска QUIC сервера: %v", err)
	}
	log.Printf("QUIC сервер слушает %s", cfg.Addr)

	done := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Println("Остановка сервера...")
		listener.Close()
		close(done)
	}()

	go func() {
		for {
			conn, err := listener.Accept(context.Background())
			if err != nil {
				metrics.mu.Lock()
				metrics.Errors++
				metrics.mu.Unlock()
				break
			}
			metrics.mu.Lock()
			metrics.Connections++
			metrics.mu.Unlock()
			go handleConn(conn, cfg, metrics, logger, reg)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-time.After(2 * time.Second):
			printServerMetrics(metrics)
		}
	}
}

func handleConn(conn quic.Connection, cfg internal.TestConfig, metrics *serverMetrics, logger *zap.Logger, reg *prometheus.Registry) {
	defer conn.CloseWithError(0, "bye")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		handleDatagrams(conn, cfg, metrics, logger, reg)
	}()
	go func() {
		defer wg.Done()
		handleStreams(conn, metrics)
	}()
	wg.Wait()
}

// handleDatagrams is the FEC receive loop: every inbound datagram is
// either a source or a repair packet per §6.1, fed to the connection's
// Recoverer, with every offer followed by a recovery attempt so
// reconstructed payloads surface as soon as enough repair symbols
// arrive to cover the current gap.
func handleDatagrams(conn quic.Connection, cfg internal.TestConfig, metrics *serverMetrics, logger *zap.Logger, reg *prometheus.Registry) {
	connReg := prometheus.WrapRegistererWith(prometheus.Labels{"remote_addr": conn.RemoteAddr().String()}, reg)
	mgr := fec.NewManager(logger, fecConfigFromTestConfig(cfg), connReg)
	crypto, err := packetbuilder.NewChaChaCryptoPair(demoKey(), 0)
	if err != nil {
		logger.Error("fec: failed to build crypto pair", zap.Error(err))
		return
	}

	for {
		data, err := conn.ReceiveDatagram(context.Background())
		if err != nil {
			return
		}

		parsed, err := packetbuilder.ParsePacket(data, peerCIDLen, crypto)
		if err != nil {
			logger.Warn("fec: dropped undecodable datagram", zap.Error(err))
			continue
		}

		if parsed.Repair {
			metrics.mu.Lock()
			metrics.FECRepairsReceived++
			metrics.mu.Unlock()
			mgr.OnRepairSymbol(fec.RepairSymbol{
				FSSESI: parsed.FSSESI, NSS: parsed.NSS, RepairKey: parsed.RepairKey, Data: parsed.Payload,
			})
		} else {
			metrics.mu.Lock()
			metrics.FECSourcesReceived++
			metrics.Bytes += int64(len(parsed.Payload))
			metrics.mu.Unlock()
			mgr.OnSourceSymbol(fec.SourceSymbol{PacketNumber: parsed.PacketNumber, Data: parsed.Payload})
		}

		recovered := mgr.Recover()
		if len(recovered) == 0 {
			continue
		}
		metrics.mu.Lock()
		metrics.FECRecovered += int64(len(recovered))
		metrics.mu.Unlock()
		for _, s := range recovered {
			logger.Info("fec: recovered source payload", zap.Uint64("packet_number", s.PacketNumber), zap.Int("size", len(s.Data)))
		}
	}
}

func handleStreams(conn quic.Connection, metrics *serverMetrics) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			metrics.mu.Lock()
			metrics.Errors++
			metrics.mu.Unlock()
			return
		}
		metrics.mu.Lock()
		metrics.Streams++
		metrics.mu.Unlock()
		go handleStream(stream, metrics)
	}
}

func handleStream(stream quic.Stream, metrics *serverMetrics) {
	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			metrics.mu.Lock()
			metrics.Bytes += int64(n)
			metrics.mu.Unlock()
		}
		if err != nil {
			if err.Error() != "EOF" {
				metrics.mu.Lock()
				metrics.Errors++
				metrics.mu.Unlock()
			}
			return
		}
	}
}

// fecConfigFromTestConfig maps the run's CLI-level FEC knobs onto
// fec.Config, falling back to the reference constants for any knob the
// caller left at zero.
func fecConfigFromTestConfig(cfg internal.TestConfig) fec.Config {
	return fec.Config{
		WindowSize: cfg.FECWindowSize,
		Pace:       cfg.FECPace,
		NumRepair:  cfg.FECNumRepair,
		MaxDensity: cfg.FECMaxDensity,
	}
}

// demoKey returns a fixed demo AEAD key. A production connection would
// derive this from the TLS 1-RTT secret; this module's scope stops at
// the FEC subsystem and its packet framing, not QUIC key derivation.
func demoKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func makeTLSConfig(cfg internal.TestConfig) *tls.Config {
	if cfg.NoTLS {
		return &tls.Config{InsecureSkipVerify: true, NextProtos: []string{"quicfec"}}
	}
	if cfg.CertPath != "" && cfg.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки сертификата: %v", err)
		}
		return &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{"quicfec"}}
	}
	certPEM, keyPEM := internal.GenerateSelfSignedTLS()
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		log.Fatalf("Ошибка генерации self-signed сертификата: %v", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{"quicfec"}}
}

func printServerMetrics(metrics *serverMetrics) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	fmt.Print("\033[H\033[2J")
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	table := tablewriter.NewWriter(os.Stdout)
	headers := []string{"Connections", "Streams", "Bytes", "Errors", "FEC src", "FEC repair", "FEC recovered", "Uptime (s)"}
	table.Append(headers)
	uptime := time.Since(metrics.Start).Seconds()
	row := []string{
		green(fmt.Sprintf("%d", metrics.Connections)),
		blue(fmt.Sprintf("%d", metrics.Streams)),
		blue(fmt.Sprintf("%.2f KB", float64(metrics.Bytes)/1024)),
		red(fmt.Sprintf("%d", metrics.Errors)),
		cyan(fmt.Sprintf("%d", metrics.FECSourcesReceived)),
		cyan(fmt.Sprintf("%d", metrics.FECRepairsReceived)),
		green(fmt.Sprintf("%d", metrics.FECRecovered)),
		yellow(fmt.Sprintf("%.0f", uptime)),
	}
	table.Append(row)
	table.Render()
}

func startPrometheusExporter(metrics *serverMetrics, reg *prometheus.Registry) {
	connections := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_server_connections_total",
		Help: "Total connections",
	}, func() float64 {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return float64(metrics.Connections)
	})
	streams := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_server_streams_total",
		Help: "Total streams",
	}, func() float64 {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return float64(metrics.Streams)
	})
	bytes := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_server_bytes_total",
		Help: "Total bytes received",
	}, func() float64 {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return float64(metrics.Bytes)
	})
	errors := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_server_errors_total",
		Help: "Total errors",
	}, func() float64 {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return float64(metrics.Errors)
	})
	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_server_uptime_seconds",
		Help: "Server uptime in seconds",
	}, func() float64 {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return time.Since(metrics.Start).Seconds()
	})

	prometheus.MustRegister(connections, streams, bytes, errors, uptime)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/metrics/fec", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	fmt.Println("Prometheus endpoint сервера доступен на :2113/metrics (FEC counters at /metrics/fec)")
	http.ListenAndServe(":2113", mux)
}
