package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config holds the benchmark settings
var (
	targetURL     string
	concurrency   int
	duration      time.Duration
	adminIdentity string
	contractID    int64
)

// Metrics
var (
	totalRequests uint64
	success201    uint64 // Bids accepted
	fail409       uint64 // AlreadyBid conflicts
	fail422       uint64 // Contract no longer open
	failOther     uint64
	setupFailures uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&adminIdentity, "admin", "admin", "Administrator identity")
	flag.Int64Var(&contractID, "contract", 0, "Open contract id to bid on (0 = create one)")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark | Workers: %d | Duration: %s", concurrency, duration)

	client := &http.Client{Timeout: 5 * time.Second}
	if contractID == 0 {
		id, err := createContract(client)
		if err != nil {
			log.Fatalf("Unable to create benchmark contract: %v", err)
		}
		contractID = id
		log.Printf("Created benchmark contract %d", contractID)
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func createContract(client *http.Client) (int64, error) {
	payload := map[string]interface{}{
		"description":                     "benchmark load contract",
		"bid_deadline":                    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"daily_penalty_rate_per_thousand": 10,
		"max_penalty_percent":             20,
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", targetURL+"/api/v1/contracts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Identity", adminIdentity)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 201 {
		return 0, fmt.Errorf("contract creation returned %d", resp.StatusCode)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// worker registers its own contractor identity, has the admin approve it,
// then submits bids against fresh identities for the whole run. Each bid
// needs a new identity because one identity gets one bid per contract.
func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		identity := uuid.NewString()
		if err := setupContractor(client, identity); err != nil {
			atomic.AddUint64(&setupFailures, 1)
			continue
		}

		payload := map[string]interface{}{
			"contract_id":   contractID,
			"amount":        int64(rand.Intn(9000) + 1000),
			"duration_days": int64(rand.Intn(30) + 1),
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/bids", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Identity", identity)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&success201, 1)
		case 409:
			atomic.AddUint64(&fail409, 1)
		case 422:
			atomic.AddUint64(&fail422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func setupContractor(client *http.Client, identity string) error {
	regBody, _ := json.Marshal(map[string]string{"display_name": "bench " + identity[:8]})
	req, _ := http.NewRequest("POST", targetURL+"/api/v1/contractors", bytes.NewBuffer(regBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Identity", identity)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != 201 {
		return fmt.Errorf("registration returned %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("POST", targetURL+"/api/v1/contractors/"+identity+"/approve", nil)
	req.Header.Set("X-Identity", adminIdentity)

	resp, err = client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("approval returned %d", resp.StatusCode)
	}
	return nil
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	f409 := atomic.LoadUint64(&fail409)
	f422 := atomic.LoadUint64(&fail422)
	fErr := atomic.LoadUint64(&failOther)
	setup := atomic.LoadUint64(&setupFailures)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": tps,
		"bids_accepted":  s201,
		"conflicts":      f409,
		"invalid_state":  f422,
		"setup_failures": setup,
		"errors":         fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	file, _ := os.Create("results_bids.json")
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
