// Command bench drives the public HTTP submission API (internal/httpapi)
// with a configurable burst of jobs and reports how long the engine and
// worker pool took to drain them. It never touches the Store or
// Transport directly — it is a thin client of the same surface any
// other submitter would use, an HTTP client rather than a direct Redis
// client.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

type benchConfig struct {
	baseURL     string
	jobType     string
	count       int
	concurrency int
	pollEvery   time.Duration
}

func main() {
	cfg := parseFlags()
	client := &http.Client{Timeout: 10 * time.Second}

	log.Printf("bench: submitting %d jobs of type %q against %s with %d concurrent submitters",
		cfg.count, cfg.jobType, cfg.baseURL, cfg.concurrency)

	ids := submitJobs(client, cfg)

	start := time.Now()
	waitForDrain(client, cfg, ids)
	log.Printf("bench: drained %d jobs in %s", len(ids), time.Since(start))
}

func parseFlags() benchConfig {
	cfg := benchConfig{}
	flag.StringVar(&cfg.baseURL, "addr", envOr("BENCH_ADDR", "http://localhost:8080"), "httpapi base URL")
	flag.StringVar(&cfg.jobType, "job-type", envOr("BENCH_JOB_TYPE", "sleep"), "job_type to submit")
	flag.IntVar(&cfg.count, "jobs", envInt("BENCH_JOBS", 100), "number of jobs to submit")
	flag.IntVar(&cfg.concurrency, "concurrency", envInt("BENCH_CONCURRENCY", 10), "concurrent submitters")
	pollMs := flag.Int("poll-ms", envInt("BENCH_POLL_MS", 500), "drain poll interval in milliseconds")
	flag.Parse()
	cfg.pollEvery = time.Duration(*pollMs) * time.Millisecond
	return cfg
}

type submitRequest struct {
	Name    string                 `json:"name"`
	JobType string                 `json:"job_type"`
	Payload map[string]interface{} `json:"payload"`
}

type submitResponse struct {
	ID string `json:"id"`
}

func submitJobs(client *http.Client, cfg benchConfig) []string {
	ids := make([]string, cfg.count)
	work := make(chan int)
	var wg sync.WaitGroup
	wg.Add(cfg.concurrency)

	for i := 0; i < cfg.concurrency; i++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				id, err := submitOne(client, cfg, idx)
				if err != nil {
					log.Printf("bench: submit %d failed: %v", idx, err)
					continue
				}
				ids[idx] = id
			}
		}()
	}

	for i := 0; i < cfg.count; i++ {
		work <- i
	}
	close(work)
	wg.Wait()
	return ids
}

func submitOne(client *http.Client, cfg benchConfig, seq int) (string, error) {
	body, err := json.Marshal(submitRequest{
		Name:    fmt.Sprintf("bench-%d", seq),
		JobType: cfg.jobType,
		Payload: map[string]interface{}{"duration_seconds": 0.01, "seq": seq},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func waitForDrain(client *http.Client, cfg benchConfig, ids []string) {
	remaining := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			remaining[id] = true
		}
	}

	ticker := time.NewTicker(cfg.pollEvery)
	defer ticker.Stop()

	for range ticker.C {
		for id := range remaining {
			terminal, err := isTerminal(client, cfg, id)
			if err != nil {
				continue
			}
			if terminal {
				delete(remaining, id)
			}
		}
		log.Printf("bench: %d/%d jobs still in flight", len(remaining), len(ids))
		if len(remaining) == 0 {
			return
		}
	}
}

func isTerminal(client *http.Client, cfg benchConfig, id string) (bool, error) {
	resp, err := client.Get(cfg.baseURL + "/jobs/" + id)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var j struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return false, err
	}
	return j.Status == "COMPLETED" || j.Status == "FAILED", nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
