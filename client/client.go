package client

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"quicfec/internal"
	"quicfec/internal/fec"
	"quicfec/internal/metrics"
	"quicfec/internal/packetbuilder"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	quic "github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// peerCIDLen must match the length the server's receive loop expects;
// both sides frame against the same connection-ID length.
const peerCIDLen = 8

type TimePoint struct {
	Time  float64 `json:"Time"`
	Value float64 `json:"Value"`
}

// Metrics хранит метрики теста
type Metrics struct {
	mu         sync.Mutex
	Success    int
	Errors     int
	BytesSent  int
	Latencies  []float64
	Timestamps []time.Time
	Throughput []float64

	TimeSeriesLatency    []TimePoint
	TimeSeriesThroughput []TimePoint

	PacketLoss             float64
	Retransmits            int
	HandshakeTimes         []float64
	TLSVersion             string
	CipherSuite            string
	SessionResumptionCount int
	ZeroRTTCount           int
	OneRTTCount            int
	OutOfOrderCount        int
	FlowControlEvents      int
	KeyUpdateEvents        int
	ErrorTypeCounts        map[string]int
	TimeSeriesPacketLoss    []TimePoint
	TimeSeriesRetransmits   []TimePoint
	TimeSeriesHandshakeTime []TimePoint

	HDRMetrics *metrics.HDRMetrics

	FECSourcesSent int64 `json:"fec_sources_sent"`
	FECRepairsSent int64 `json:"fec_repairs_sent"`
}

// ToMap конвертирует метрики в map для совместимости с SLA проверками
func (m *Metrics) ToMap() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avgLatency float64
	if len(m.Latencies) > 0 {
		sum := 0.0
		for _, l := range m.Latencies {
			sum += l
		}
		avgLatency = sum / float64(len(m.Latencies))
	}

	var rttP50, rttP95, rttP99 float64
	if len(m.Latencies) > 0 {
		rttP50, rttP95, rttP99 = calcPercentiles(m.Latencies)
	}
	jitter := calcJitter(m.Latencies)

	var throughputMbps float64
	if len(m.Timestamps) > 0 {
		duration := time.Since(m.Timestamps[0]).Seconds()
		if duration > 0 {
			throughputMbps = (float64(m.BytesSent) * 8) / (duration * 1_000_000)
		}
	}

	var retransmissionRate float64
	if m.Success > 0 {
		retransmissionRate = float64(m.Retransmits) / float64(m.Success)
	}

	result := map[string]interface{}{
		"Success":                 m.Success,
		"Errors":                  m.Errors,
		"BytesSent":               m.BytesSent,
		"Latencies":               m.Latencies,
		"ThroughputMbps":          throughputMbps,
		"RetransmissionRate":      retransmissionRate,
		"RTTP50Ms":                rttP50,
		"RTTP95Ms":                rttP95,
		"RTTP99Ms":                rttP99,
		"RTTAvgMs":                avgLatency,
		"JitterMs":                jitter,
		"PacketLoss":              m.PacketLoss,
		"Retransmits":             m.Retransmits,
		"TLSVersion":              m.TLSVersion,
		"CipherSuite":             m.CipherSuite,
		"SessionResumptionCount":  m.SessionResumptionCount,
		"ZeroRTTCount":            m.ZeroRTTCount,
		"OneRTTCount":             m.OneRTTCount,
		"KeyUpdateEvents":         m.KeyUpdateEvents,
		"FlowControlEvents":       m.FlowControlEvents,
		"ErrorTypeCounts":         m.ErrorTypeCounts,
		"TimeSeriesLatency":       m.TimeSeriesLatency,
		"TimeSeriesThroughput":    m.TimeSeriesThroughput,
		"TimeSeriesPacketLoss":    m.TimeSeriesPacketLoss,
		"TimeSeriesRetransmits":   m.TimeSeriesRetransmits,
		"TimeSeriesHandshakeTime": m.TimeSeriesHandshakeTime,
		"FECSourcesSent":          m.FECSourcesSent,
		"FECRepairsSent":          m.FECRepairsSent,
	}

	if m.HDRMetrics != nil {
		result["HDRLatencyStats"] = m.HDRMetrics.GetLatencyStats()
		result["HDRJitterStats"] = m.HDRMetrics.GetJitterStats()
		result["HDRHandshakeStats"] = m.HDRMetrics.GetHandshakeStats()
		result["HDRThroughputStats"] = m.HDRMetrics.GetThroughputStats()
		result["HDRNetworkStats"] = m.HDRMetrics.GetNetworkStats()
	}

	return result
}

// Run запускает клиентский тест
func Run(cfg internal.TestConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nПолучен сигнал завершения, формируем отчет...")
		cancel()
	}()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	testMetrics := &Metrics{
		HDRMetrics: metrics.NewHDRMetrics(),
	}
	var wg sync.WaitGroup

	var exporter *AdvancedPrometheusExporter
	if cfg.Prometheus {
		exporter = NewAdvancedPrometheusExporter()
		go startPrometheusExporter(testMetrics, exporter)
	}

	startTime := time.Now()
	go func() {
		var lastCount int
		var lastBytes int
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(1 * time.Second):
				testMetrics.mu.Lock()
				now := time.Since(startTime).Seconds()
				lat := 0.0
				if len(testMetrics.Latencies) > lastCount {
					sum := 0.0
					for _, l := range testMetrics.Latencies[lastCount:] {
						sum += l
					}
					lat = sum / float64(len(testMetrics.Latencies[lastCount:]))
				}
				testMetrics.TimeSeriesLatency = append(testMetrics.TimeSeriesLatency, TimePoint{Time: now, Value: lat})
				bytesNow := testMetrics.BytesSent
				throughput := float64(bytesNow-lastBytes) / 1024.0
				testMetrics.TimeSeriesThroughput = append(testMetrics.TimeSeriesThroughput, TimePoint{Time: now, Value: throughput})
				lastCount = len(testMetrics.Latencies)
				lastBytes = bytesNow
				testMetrics.mu.Unlock()
			}
		}
	}()

	var rate int64 = int64(cfg.Rate)

	for c := 0; c < cfg.Connections; c++ {
		wg.Add(1)
		go func(connID int) {
			defer wg.Done()
			clientConnection(ctx, cfg, testMetrics, connID, &rate, logger, exporter)
		}(c)
	}

	if cfg.Duration > 0 {
		timer := time.NewTimer(cfg.Duration)
		go func() {
			<-timer.C
			fmt.Println("\nТест завершен по таймеру, формируем отчет...")
			cancel()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timeout := cfg.Duration + 10*time.Second
	if cfg.Duration == 0 {
		timeout = 120 * time.Second
	}

	select {
	case <-done:
	case <-time.After(timeout):
		fmt.Printf("\n⚠️  Таймаут ожидания завершения (%v). Завершаем принудительно...\n", timeout)
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			fmt.Println("⚠️  Некоторые горутины не завершились, продолжаем...")
		}
	}

	fmt.Printf("\nТест завершен. Обработка результатов...\n")

	metricsMap := testMetrics.ToMap()

	if err := internal.SaveReport(cfg, metricsMap); err != nil {
		fmt.Printf("Ошибка сохранения отчета: %v\n", err)
	}

	if cfg.ReportPath != "" {
		promFile := cfg.ReportPath
		if len(promFile) > 4 && promFile[len(promFile)-5:] == ".json" {
			promFile = promFile[:len(promFile)-5] + ".prom"
		} else {
			promFile = promFile + ".prom"
		}
		if err := internal.ExportPrometheusMetrics(cfg, metricsMap, promFile); err != nil {
			fmt.Printf("Ошибка экспорта Prometheus метрик: %v\n", err)
		} else {
			fmt.Printf("Prometheus метрики сохранены: %s\n", promFile)
		}
	}

	if cfg.SlaRttP95 > 0 || cfg.SlaLoss > 0 || cfg.SlaThroughput > 0 || cfg.SlaErrors > 0 {
		internal.ExitWithSLA(cfg, metricsMap)
	}
}

func clientConnection(ctx context.Context, cfg internal.TestConfig, m *Metrics, connID int, ratePtr *int64, logger *zap.Logger, exporter *AdvancedPrometheusExporter) {
	var tlsConf *tls.Config
	if cfg.CertPath != "" && cfg.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			m.mu.Lock()
			m.Errors++
			recordError(m, "tls_load_cert")
			m.mu.Unlock()
			fmt.Println("Ошибка загрузки сертификата:", err)
			return
		}
		tlsConf = &tls.Config{
			Certificates:       []tls.Certificate{cert},
			InsecureSkipVerify: true,
			NextProtos:         []string{"quicfec"},
		}
	} else {
		tlsConf = internal.GenerateTLSConfig(cfg.NoTLS)
		tlsConf.NextProtos = []string{"quicfec"}
	}

	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		m.mu.Lock()
		m.Errors++
		recordError(m, "udp_socket")
		m.mu.Unlock()
		fmt.Printf("Ошибка создания UDP socket для connection %d: %v\n", connID, err)
		return
	}
	defer udpConn.Close()

	transport := &quic.Transport{Conn: udpConn}
	defer transport.Close()

	quicConfig := &quic.Config{EnableDatagrams: true}

	handshakeStart := time.Now()
	session, err := transport.Dial(ctx, parseAddr(cfg.Addr), tlsConf, quicConfig)
	handshakeTime := time.Since(handshakeStart).Seconds() * 1000

	m.mu.Lock()
	m.HandshakeTimes = append(m.HandshakeTimes, handshakeTime)
	m.TimeSeriesHandshakeTime = append(m.TimeSeriesHandshakeTime, TimePoint{Time: time.Since(handshakeStart).Seconds(), Value: handshakeTime})
	if m.HDRMetrics != nil {
		m.HDRMetrics.RecordHandshakeTime(time.Duration(handshakeTime) * time.Millisecond)
	}
	if err != nil {
		m.Errors++
		recordError(m, "quic_handshake")
		m.mu.Unlock()
		fmt.Println("Ошибка соединения:", err)
		return
	}
	state := session.ConnectionState()
	m.TLSVersion = tlsVersionString(state.TLS.Version)
	m.CipherSuite = cipherSuiteString(state.TLS.CipherSuite)
	if state.TLS.DidResume {
		m.SessionResumptionCount++
	}
	if state.Used0RTT {
		m.ZeroRTTCount++
	} else {
		m.OneRTTCount++
	}
	m.mu.Unlock()

	if exporter != nil {
		exporter.IncrementConnections()
		defer exporter.DecrementConnections()
		exporter.RecordConnectionInfo(fmt.Sprintf("conn_%d", connID), cfg.Addr, m.TLSVersion, m.CipherSuite)
		exporter.RecordProtocolEvent("handshake", fmt.Sprintf("conn_%d", connID), m.TLSVersion, m.CipherSuite)
	}

	defer func() {
		if err := session.CloseWithError(0, "client done"); err != nil {
			fmt.Printf("Warning: failed to close session: %v\n", err)
		}
	}()

	var wg sync.WaitGroup
	for s := 0; s < cfg.Streams; s++ {
		wg.Add(1)
		go func(streamID int) {
			defer wg.Done()
			clientStream(ctx, session, cfg, m, connID, streamID, ratePtr, logger, exporter)
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	streamTimeout := cfg.Duration + 10*time.Second
	if cfg.Duration == 0 {
		streamTimeout = 70 * time.Second
	}

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			fmt.Printf("[WARNING] Connection %d: Some streams didn't finish after context cancel\n", connID)
		}
	case <-time.After(streamTimeout):
		fmt.Printf("[WARNING] Connection %d streams timeout after %v, canceling context\n", connID, streamTimeout)
		select {
		case <-done:
		case <-time.After(1 * time.Second):
		}
	}
}

// clientStream sends stream payloads (for throughput/latency measurement)
// and, independently, frames every payload through a packetbuilder.Builder
// and an fec.Manager so the same connection also drives a QUIC datagram
// carrying FEC-protected packets, per the sliding-window sender protocol.
func clientStream(ctx context.Context, session quic.Connection, cfg internal.TestConfig, m *Metrics, connID, streamID int, ratePtr *int64, logger *zap.Logger, exporter *AdvancedPrometheusExporter) {
	stream, err := session.OpenStreamSync(ctx)
	if err != nil {
		m.mu.Lock()
		m.Errors++
		recordError(m, "open_stream")
		m.mu.Unlock()
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			fmt.Printf("Warning: failed to close stream: %v\n", err)
		}
	}()

	m.mu.Lock()
	if m.ErrorTypeCounts == nil {
		m.ErrorTypeCounts = map[string]int{}
	}
	m.mu.Unlock()

	var pb *packetbuilder.Builder
	var mgr *fec.Manager
	if cfg.FECEnabled {
		cid := make([]byte, peerCIDLen)
		binary.BigEndian.PutUint32(cid, uint32(connID)<<16|uint32(streamID))
		crypto, err := packetbuilder.NewChaChaCryptoPair(demoKey(), 0)
		if err != nil {
			logger.Error("fec: failed to build crypto pair", zap.Error(err))
		} else {
			pb = packetbuilder.New(cid, crypto, 0)
			mgr = fec.NewManager(logger, fecConfigFromTestConfig(cfg), prometheus.NewRegistry())
		}
	}

	packetSize := cfg.PacketSize
	pattern := cfg.Pattern
	sentPackets := 0
	ackedPackets := 0
	retransmits := 0
	outOfOrder := 0
	var lastSeq int64 = -1
	var seq int64
	start := time.Now()

	sendTimeout := cfg.Duration
	if sendTimeout == 0 {
		sendTimeout = 60 * time.Second
	}
	sendDeadline := time.Now().Add(sendTimeout)

	for {
		if time.Now().After(sendDeadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		if cfg.EmulateLatency > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(cfg.EmulateLatency):
			}
			if time.Now().After(sendDeadline) {
				return
			}
		}

		if cfg.EmulateLoss > 0 && secureFloat64() < cfg.EmulateLoss {
			m.mu.Lock()
			recordError(m, "emulated_loss")
			m.mu.Unlock()
			continue
		}

		buf := makePacket(packetSize, pattern)
		seq++
		if len(buf) >= 8 {
			for i := 0; i < 8; i++ {
				buf[i] = byte(seq >> (8 * i))
			}
		}

		dupCount := 1
		if cfg.EmulateDup > 0 && secureFloat64() < cfg.EmulateDup {
			dupCount = 2
			m.mu.Lock()
			recordError(m, "emulated_dup")
			m.mu.Unlock()
		}

		for d := 0; d < dupCount; d++ {
			if time.Now().After(sendDeadline) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}

			writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
			writeDone := make(chan error, 1)
			var n int
			go func() {
				var werr error
				n, werr = stream.Write(buf)
				writeDone <- werr
			}()

			var writeErr error
			select {
			case <-writeCtx.Done():
				writeCancel()
				m.mu.Lock()
				m.Errors++
				recordError(m, "stream_write_timeout")
				m.mu.Unlock()
				continue
			case writeErr = <-writeDone:
				writeCancel()
			}

			if pb != nil && mgr != nil && writeErr == nil {
				sendFECDatagram(session, pb, mgr, buf, m, logger)
			}

			var realRTT time.Duration
			if cfg.EmulateLatency > 0 {
				realRTT = cfg.EmulateLatency
				jitterNs := time.Duration(float64(cfg.EmulateLatency) * 0.05 * secureFloat64())
				realRTT += jitterNs
			} else {
				realRTT = 10 * time.Millisecond
			}
			latencyForMetrics := float64(realRTT.Nanoseconds()) / 1e6

			m.mu.Lock()
			m.BytesSent += n
			m.Success++
			m.Latencies = append(m.Latencies, latencyForMetrics)
			m.Timestamps = append(m.Timestamps, time.Now())
			if m.HDRMetrics != nil {
				m.HDRMetrics.RecordLatency(realRTT)
				m.HDRMetrics.AddBytesSent(int64(n))
				m.HDRMetrics.IncrementPacketsSent()
			}
			m.mu.Unlock()
			sentPackets++
			ackedPackets++

			if exporter != nil {
				exporter.RecordLatency(realRTT)
				exporter.AddBytesSent(int64(n))
			}

			if writeErr != nil {
				m.mu.Lock()
				m.Errors++
				recordError(m, "stream_write")
				retransmits++
				m.Retransmits++
				var se *quic.StreamError
				var te *quic.TransportError
				if errors.As(writeErr, &se) {
					if uint64(se.ErrorCode) == flowControlErrorCode {
						m.FlowControlEvents++
						recordError(m, "flow_control")
					}
				}
				if errors.As(writeErr, &te) {
					if uint64(te.ErrorCode) == keyUpdateErrorCode {
						m.KeyUpdateEvents++
						recordError(m, "key_update")
					}
				}
				m.mu.Unlock()
				continue
			}
			if lastSeq != -1 && seq != lastSeq+1 {
				outOfOrder++
				m.mu.Lock()
				m.OutOfOrderCount++
				m.mu.Unlock()
			}
			lastSeq = seq
			m.mu.Lock()
			m.TimeSeriesRetransmits = append(m.TimeSeriesRetransmits, TimePoint{Time: time.Since(start).Seconds(), Value: float64(retransmits)})
			m.TimeSeriesPacketLoss = append(m.TimeSeriesPacketLoss, TimePoint{Time: time.Since(start).Seconds(), Value: 100 * float64(sentPackets-ackedPackets) / (float64(sentPackets) + 1e-9)})
			m.mu.Unlock()
		}

		if time.Now().After(sendDeadline) {
			return
		}
		rate := atomic.LoadInt64(ratePtr)
		if rate > 0 {
			sleepDuration := time.Second / time.Duration(rate)
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleepDuration):
				if time.Now().After(sendDeadline) {
					return
				}
			}
		}
	}
}

// sendFECDatagram frames payload as the connection's next short-header
// data packet, offers it to the manager's encoder, and transmits every
// resulting datagram (the data packet itself, plus any repair packets
// the encoder emits once its window closes) as an unreliable QUIC
// datagram.
func sendFECDatagram(session quic.Connection, pb *packetbuilder.Builder, mgr *fec.Manager, payload []byte, m *Metrics, logger *zap.Logger) {
	if _, err := pb.BuildDataPacket(payload); err != nil {
		logger.Warn("fec: failed to build data packet", zap.Error(err))
		return
	}
	mgr.OnSourcePacket(pb)

	for _, dg := range pb.Datagrams() {
		if err := session.SendDatagram(dg); err != nil {
			logger.Warn("fec: failed to send datagram", zap.Error(err))
			continue
		}
		m.mu.Lock()
		if packetbuilder.IsRepairHeader(dg[0]) {
			m.FECRepairsSent++
		} else {
			m.FECSourcesSent++
		}
		m.mu.Unlock()
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

// demoKey returns a fixed demo AEAD key, matching the server's.
func demoKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func recordError(m *Metrics, kind string) {
	if m.ErrorTypeCounts == nil {
		m.ErrorTypeCounts = map[string]int{}
	}
	m.ErrorTypeCounts[kind]++
}

func makePacket(size int, pattern string) []byte {
	buf := make([]byte, size)
	switch pattern {
	case "zeroes":
	case "increment":
		for i := range buf {
			buf[i] = byte(i % 256)
		}
	default:
		_, _ = rand.Read(buf)
	}
	return buf
}

func calcPercentiles(latencies []float64) (p50, p95, p99 float64) {
	if len(latencies) == 0 {
		return 0, 0, 0
	}
	copyLat := make([]float64, len(latencies))
	copy(copyLat, latencies)
	sort.Float64s(copyLat)
	idx := func(p float64) int {
		return int(p*float64(len(copyLat)-1) + 0.5)
	}
	p50 = copyLat[idx(0.50)]
	p95 = copyLat[idx(0.95)]
	p99 = copyLat[idx(0.99)]
	return
}

func calcJitter(latencies []float64) float64 {
	if len(latencies) == 0 {
		return 0
	}
	mean := 0.0
	for _, l := range latencies {
		mean += l
	}
	mean /= float64(len(latencies))
	var sum float64
	for _, l := range latencies {
		d := l - mean
		sum += d * d
	}
	variance := sum / float64(len(latencies))
	return math.Sqrt(variance)
}

func startPrometheusExporter(m *Metrics, exporter *AdvancedPrometheusExporter) {
	bytesSent := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_client_bytes_sent",
		Help: "Total bytes sent",
	}, func() float64 {
		m.mu.Lock()
		defer m.mu.Unlock()
		return float64(m.BytesSent)
	})
	fecSources := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "quic_client_fec_sources_sent_total",
		Help: "Total FEC source datagrams sent",
	}, func() float64 {
		m.mu.Lock()
		defer m.mu.Unlock()
		return float64(m.FECSourcesSent)
	})
	prometheus.MustRegister(bytesSent, fecSources)
	http.Handle("/metrics", promhttp.Handler())
	fmt.Println("Prometheus endpoint доступен на :2112/metrics")
	if err := http.ListenAndServe(":2112", nil); err != nil {
		log.Printf("Failed to start Prometheus server: %v", err)
	}
}

func tlsVersionString(v uint16) string {
	switch v {
	case tls.VersionTLS13:
		return "TLS 1.3"
	case tls.VersionTLS12:
		return "TLS 1.2"
	default:
		return fmt.Sprintf("0x%x", v)
	}
}

func cipherSuiteString(cs uint16) string {
	switch cs {
	case tls.TLS_AES_128_GCM_SHA256:
		return "TLS_AES_128_GCM_SHA256"
	case tls.TLS_AES_256_GCM_SHA384:
		return "TLS_AES_256_GCM_SHA384"
	case tls.TLS_CHACHA20_POLY1305_SHA256:
		return "TLS_CHACHA20_POLY1305_SHA256"
	default:
		return fmt.Sprintf("0x%x", cs)
	}
}

func secureFloat64() float64 {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return float64(time.Now().UnixNano()%1000) / 1000.0
	}
	return float64(binary.BigEndian.Uint64(b)) / float64(^uint64(0))
}

const (
	flowControlErrorCode = 0x3
	keyUpdateErrorCode   = 0xE
)

func parseAddr(addr string) *net.UDPAddr {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		host, port := "127.0.0.1", "9000"
		if len(addr) > 0 {
			parts := splitHostPort(addr)
			if len(parts) == 2 {
				host, port = parts[0], parts[1]
				if host == "" {
					host = "127.0.0.1"
				}
			} else if len(parts) == 1 {
				if parts[0] != "" {
					port = parts[0]
				}
			}
		}
		udpAddr = &net.UDPAddr{IP: net.ParseIP(host), Port: parseInt(port)}
	} else {
		if udpAddr.IP == nil || udpAddr.IP.IsUnspecified() {
			udpAddr.IP = net.ParseIP("127.0.0.1")
		}
	}
	return udpAddr
}

func splitHostPort(addr string) []string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return []string{addr[:i], addr[i+1:]}
		}
	}
	return []string{addr}
}

func parseInt(s string) int {
	val := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			val = val*10 + int(s[i]-'0')
		}
	}
	return val
}
