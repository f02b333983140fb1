// Package main provides a standalone health probe for container health
// checks and monitoring scripts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL        string
	Timeout    time.Duration
	Verbose    bool
	RetryCount int
	RetryDelay time.Duration
}

func main() {
	os.Exit(run(parseFlags()))
}

// parseFlags parses command-line flags
func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.URL, "url", "http://localhost:8080/health/ready", "Health check endpoint URL")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&config.Verbose, "verbose", false, "Print the response body")
	flag.IntVar(&config.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&config.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	flag.Parse()
	return config
}

func run(config Config) int {
	var code int
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(config.RetryDelay)
		}
		code = probe(config)
		if code == exitCodeSuccess {
			return code
		}
	}
	return code
}

func probe(config Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.URL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid url: %v\n", err)
		return exitCodeError
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return exitCodeError
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Fprintf(os.Stderr, "invalid response: %v\n", err)
		return exitCodeError
	}

	if config.Verbose {
		out, _ := json.MarshalIndent(body, "", "  ")
		fmt.Println(string(out))
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("unhealthy: %s (%d)\n", body["status"], resp.StatusCode)
		return exitCodeFailure
	}
	fmt.Printf("%s\n", body["status"])
	return exitCodeSuccess
}
