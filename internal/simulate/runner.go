// Package simulate drives a full competition against a running service:
// registration, concurrent judge submissions, leaderboard verification, and
// publication.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/okian/salto/pkg/logger"
)

// Run executes the complete competition simulation.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	client := newHTTPClient(cfg.Timeout)

	logger.Get().Info(ctx, "starting competition simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkServiceHealth(ctx, cfg, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	eventID, apparatusIDs, athleteIDs, err := registerCompetition(ctx, cfg, client, rng, stats)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	performanceIDs, err := registerPerformances(ctx, cfg, client, eventID, apparatusIDs, athleteIDs, stats)
	if err != nil {
		return fmt.Errorf("performance registration failed: %w", err)
	}

	var scores []scoreRequest
	for _, perfID := range performanceIDs {
		scores = append(scores, generatePanel(perfID, cfg, rng)...)
	}
	submitScores(ctx, cfg, client, scores, stats)

	logger.Get().Info(ctx, "waiting for recalculation to settle")
	time.Sleep(cfg.SettleDelay)

	for _, apparatusID := range apparatusIDs {
		if err := verifyLeaderboard(ctx, cfg, client, eventID, apparatusID, stats); err != nil {
			return fmt.Errorf("leaderboard verification failed: %w", err)
		}
	}

	if err := publishLeaders(ctx, cfg, client, eventID, apparatusIDs, stats); err != nil {
		return fmt.Errorf("publication failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.OrderingViolations > 0 {
		return fmt.Errorf("leaderboard ordering violated %d times", stats.OrderingViolations)
	}
	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config, client *HTTPClient) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics).
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// registerCompetition creates the event, apparatus set, and athletes.
func registerCompetition(ctx context.Context, cfg *Config, client *HTTPClient, rng *rand.Rand, stats *Stats) (int64, []int64, []int64, error) {
	var ev idResponse
	code, err := client.PostJSON(ctx, cfg.BaseURL+"/events", eventRequest{
		Name:      fmt.Sprintf("Simulated Championships %s", time.Now().Format("2006-01-02 15:04:05")),
		EventDate: time.Now().Format(time.RFC3339),
		Status:    "in_progress",
	}, &ev)
	if err != nil || code != http.StatusCreated {
		return 0, nil, nil, fmt.Errorf("event registration returned status %d: %w", code, err)
	}

	apparatusIDs := make([]int64, 0, len(apparatusSet))
	for _, a := range apparatusSet {
		var resp idResponse
		code, err := client.PostJSON(ctx, cfg.BaseURL+"/apparatus", a, &resp)
		if err != nil || code != http.StatusCreated {
			return 0, nil, nil, fmt.Errorf("apparatus registration returned status %d: %w", code, err)
		}
		apparatusIDs = append(apparatusIDs, resp.ID)
	}

	athleteIDs := make([]int64, 0, cfg.Athletes)
	for _, a := range generateAthletes(cfg.Athletes, rng) {
		var resp idResponse
		code, err := client.PostJSON(ctx, cfg.BaseURL+"/athletes", a, &resp)
		if err != nil || code != http.StatusCreated {
			return 0, nil, nil, fmt.Errorf("athlete registration returned status %d: %w", code, err)
		}
		athleteIDs = append(athleteIDs, resp.ID)
		stats.AthletesRegistered++
	}

	return ev.ID, apparatusIDs, athleteIDs, nil
}

// registerPerformances creates one performance per athlete per apparatus.
func registerPerformances(ctx context.Context, cfg *Config, client *HTTPClient, eventID int64, apparatusIDs, athleteIDs []int64, stats *Stats) ([]int64, error) {
	var performanceIDs []int64
	for _, athleteID := range athleteIDs {
		for order, apparatusID := range apparatusIDs {
			var resp idResponse
			code, err := client.PostJSON(ctx, cfg.BaseURL+"/performances", performanceRequest{
				EventID:     eventID,
				AthleteID:   athleteID,
				ApparatusID: apparatusID,
				OrderNumber: order + 1,
			}, &resp)
			if err != nil || code != http.StatusCreated {
				return nil, fmt.Errorf("performance registration returned status %d: %w", code, err)
			}
			performanceIDs = append(performanceIDs, resp.ID)
			stats.PerformancesRegistered++
		}
	}
	return performanceIDs, nil
}

// verifyLeaderboard checks rank sequencing and final score ordering for one
// apparatus.
func verifyLeaderboard(ctx context.Context, cfg *Config, client *HTTPClient, eventID, apparatusID int64, stats *Stats) error {
	url := fmt.Sprintf("%s/leaderboard?event_id=%d&apparatus_id=%d", cfg.BaseURL, eventID, apparatusID)

	var entries []leaderboardEntry
	code, err := client.GetJSON(ctx, url, &entries)
	if err != nil || code != http.StatusOK {
		return fmt.Errorf("leaderboard returned status %d: %w", code, err)
	}
	stats.LeaderboardEntries += len(entries)

	for i, e := range entries {
		if e.Rank != i+1 {
			stats.OrderingViolations++
			logger.Get().Warn(ctx, "rank out of sequence",
				logger.Int64("apparatus_id", apparatusID),
				logger.Int("position", i),
				logger.Int("rank", e.Rank),
			)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		switch {
		case prev.FinalScore == nil && e.FinalScore != nil:
			stats.OrderingViolations++
			logger.Get().Warn(ctx, "scored entry ranked below unscored entry",
				logger.Int64("apparatus_id", apparatusID),
				logger.Int64("performance_id", e.PerformanceID),
			)
		case prev.FinalScore != nil && e.FinalScore != nil && *prev.FinalScore < *e.FinalScore:
			stats.OrderingViolations++
			logger.Get().Warn(ctx, "final scores out of order",
				logger.Int64("apparatus_id", apparatusID),
				logger.Float64("above", *prev.FinalScore),
				logger.Float64("below", *e.FinalScore),
			)
		}
	}
	return nil
}

// publishLeaders publishes the top performances per apparatus and verifies
// the official flag appears on the next leaderboard read.
func publishLeaders(ctx context.Context, cfg *Config, client *HTTPClient, eventID int64, apparatusIDs []int64, stats *Stats) error {
	for _, apparatusID := range apparatusIDs {
		url := fmt.Sprintf("%s/leaderboard?event_id=%d&apparatus_id=%d&limit=%d", cfg.BaseURL, eventID, apparatusID, cfg.PublishTop)

		var entries []leaderboardEntry
		code, err := client.GetJSON(ctx, url, &entries)
		if err != nil || code != http.StatusOK {
			return fmt.Errorf("leaderboard returned status %d: %w", code, err)
		}

		var ids []int64
		for _, e := range entries {
			if e.FinalScore != nil {
				ids = append(ids, e.PerformanceID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		var resp struct {
			Updated int64 `json:"updated"`
		}
		code, err = client.PostJSON(ctx, cfg.BaseURL+"/scores/publish", publishRequest{PerformanceIDs: ids}, &resp)
		if err != nil || code != http.StatusOK {
			return fmt.Errorf("publish returned status %d: %w", code, err)
		}
		stats.Published += int(resp.Updated)

		code, err = client.GetJSON(ctx, url, &entries)
		if err != nil || code != http.StatusOK {
			return fmt.Errorf("leaderboard re-read returned status %d: %w", code, err)
		}
		for _, e := range entries {
			if e.FinalScore != nil && !e.IsOfficial {
				stats.OrderingViolations++
				logger.Get().Warn(ctx, "published entry not marked official",
					logger.Int64("performance_id", e.PerformanceID),
				)
			}
		}
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("athletesRegistered", stats.AthletesRegistered),
		logger.Int("performancesRegistered", stats.PerformancesRegistered),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresSuccessful", stats.ScoresSuccessful),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("published", stats.Published),
		logger.Int("orderingViolations", stats.OrderingViolations),
		logger.String("duration", stats.Duration.String()),
	)
}
