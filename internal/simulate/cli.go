package simulate

import (
	"os"
)

// ShowHelp prints usage information for the competition simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Salto Competition Simulator
===========================

A concurrent tool for exercising the Salto scoring service end to end:
registration, judge panel submission, leaderboard verification, and
publication of apparatus leaders.

Usage:
  go run cmd/simulate/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -athletes int
        Number of athletes to register (default 25)
  -d-judges int
        Number of difficulty judges per panel (default 2)
  -e-judges int
        Number of execution judges per panel (default 5)
  -workers int
        Number of concurrent submission workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -publish-top int
        Number of leaders per apparatus to publish (default 3)
  -settle duration
        Delay before leaderboard verification (default 2s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/simulate/main.go

  # Larger field with more submission workers
  go run cmd/simulate/main.go -athletes 200 -workers 16

  # Point at a remote deployment
  go run cmd/simulate/main.go -url http://scoring.example.com:9080 -verbose
`)
}
