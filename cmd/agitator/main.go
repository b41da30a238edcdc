// Package main - agitator
// Load generator: many concurrent WebSocket clients spamming night commands
// at one server to measure throughput, latency and rate-limit behaviour.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/VeilleElectrique/internal/domain/zone"
	"github.com/MRamiBalles/VeilleElectrique/internal/network"
	"github.com/MRamiBalles/VeilleElectrique/internal/session"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Snapshots        int64
	Events           int64
	Rejections       int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

// Commands the clients pick from. Campaign-level commands are left out so
// the night keeps running under load.
var commandTypes = []session.CommandType{
	session.CmdToggleDoor,
	session.CmdToggleLight,
	session.CmdToggleCamera,
	session.CmdSelectCamera,
	session.CmdSetAccessibility,
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	output := flag.String("out", "stress_test_results.json", "Where to write the JSON results")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - WebSocket load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.TestDuration)
	defer cancel()

	stats, err := runStressTest(ctx, config)
	if err != nil {
		log.Printf("agitator: %v", err)
	}
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) (*Stats, error) {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	// The night has to be running for toggles to do anything.
	if err := startNight(ctx, config.ServerURL); err != nil {
		return stats, fmt.Errorf("start night: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	fmt.Println("\nStarting clients...")
	for i := 0; i < config.NumClients; i++ {
		clientID := i
		g.Go(func() error {
			runClient(gctx, clientID, config, stats)
			return nil
		})

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%d Recv=%d Errors=%d\n", sent, recv, errs)
			}
		}
	})

	return stats, g.Wait()
}

func startNight(ctx context.Context, serverURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.WriteJSON(session.Command{Type: session.CmdStartNight}); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Start receiver goroutine
	go func() {
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, line := range bytes.Split(frame, []byte{'\n'}) {
				countMessage(line, stats)
			}
		}
	}()

	rng := rand.New(rand.NewSource(int64(clientID) + time.Now().UnixNano()))
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd := generateRandomCommand(rng)
			start := time.Now()

			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}

			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func countMessage(line []byte, stats *Stats) {
	var msg struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(line, &msg); err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	atomic.AddInt64(&stats.MessagesReceived, 1)
	switch msg.Kind {
	case network.KindSnapshot:
		atomic.AddInt64(&stats.Snapshots, 1)
	case network.KindEvent:
		atomic.AddInt64(&stats.Events, 1)
	case network.KindError:
		atomic.AddInt64(&stats.Rejections, 1)
	}
}

func generateRandomCommand(rng *rand.Rand) session.Command {
	cmd := session.Command{Type: commandTypes[rng.Intn(len(commandTypes))]}
	side := zone.SideLeft
	if rng.Intn(2) == 1 {
		side = zone.SideRight
	}

	switch cmd.Type {
	case session.CmdToggleDoor, session.CmdToggleLight:
		cmd.Side = side
	case session.CmdSelectCamera:
		cmd.Zone = rng.Intn(len(zone.DefaultCatalog()))
	case session.CmdSetAccessibility:
		cmd.Enabled = rng.Intn(2) == 1
	}
	return cmd
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("  Snapshots:       %d\n", atomic.LoadInt64(&stats.Snapshots))
	fmt.Printf("  Events:          %d\n", atomic.LoadInt64(&stats.Events))
	fmt.Printf("  Rejections:      %d\n", atomic.LoadInt64(&stats.Rejections))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	// Calculate throughput
	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	// Latency stats
	stats.mu.Lock()
	latencies := stats.Latencies
	stats.mu.Unlock()
	if len(latencies) > 0 {
		var total time.Duration
		lo, hi := latencies[0], latencies[0]

		for _, l := range latencies {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}

		avg := total / time.Duration(len(latencies))

		fmt.Printf("\nLatency:\n")
		fmt.Printf("  Min: %v\n", lo)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", hi)
	}

	fmt.Println("\n-----------------------------------------")
	if errs == 0 && sent > 0 {
		fmt.Println("TEST PASSED: System handled the load")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("TEST WARNING: Some errors detected")
	} else {
		fmt.Println("TEST FAILED: High error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"snapshots":          atomic.LoadInt64(&stats.Snapshots),
		"events":             atomic.LoadInt64(&stats.Events),
		"rejections":         atomic.LoadInt64(&stats.Rejections),
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("agitator: writing results: %v", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
