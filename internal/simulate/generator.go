package simulate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// Apparatus set registered by every simulation run.
var apparatusSet = []apparatusRequest{
	{Name: "Floor Exercise", Code: "FX"},
	{Name: "Vault", Code: "VT"},
	{Name: "Uneven Bars", Code: "UB"},
	{Name: "Balance Beam", Code: "BB"},
}

var firstNames = []string{
	"Rebeca", "Simone", "Sunisa", "Jade", "Jordan",
	"Kohei", "Daiki", "Oksana", "Nina", "Angelina",
}

var lastNames = []string{
	"Andrade", "Biles", "Lee", "Carey", "Chiles",
	"Uchimura", "Hashimoto", "Chusovitina", "Derwael", "Melnikova",
}

// generateAthletes produces n athletes with unique registration numbers.
func generateAthletes(n int, rng *rand.Rand) []athleteRequest {
	athletes := make([]athleteRequest, n)
	for i := range athletes {
		athletes[i] = athleteRequest{
			FirstName:          firstNames[rng.Intn(len(firstNames))],
			LastName:           fmt.Sprintf("%s-%03d", lastNames[rng.Intn(len(lastNames))], i),
			Country:            []string{"BRA", "USA", "JPN", "UZB", "BEL"}[rng.Intn(5)],
			RegistrationNumber: uuid.NewString(),
		}
	}
	return athletes
}

// round3 snaps a float to the thousandths grid the engine stores.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// generatePanel produces one performance's judge submissions: difficulty
// values around 5.0-6.5 and execution deductions around 0.5-2.5, with an
// occasional neutral penalty.
func generatePanel(performanceID int64, cfg *Config, rng *rand.Rand) []scoreRequest {
	scores := make([]scoreRequest, 0, cfg.DJudges+cfg.EJudges)

	for j := 0; j < cfg.DJudges; j++ {
		scores = append(scores, scoreRequest{
			PerformanceID: performanceID,
			JudgeID:       int64(100 + j),
			ScoreType:     "d_score",
			Value:         round3(5.0 + rng.Float64()*1.5),
		})
	}

	for j := 0; j < cfg.EJudges; j++ {
		sc := scoreRequest{
			PerformanceID: performanceID,
			JudgeID:       int64(200 + j),
			ScoreType:     "e_score",
			Value:         round3(0.5 + rng.Float64()*2.0),
		}
		if j == 0 && rng.Intn(10) == 0 {
			sc.Penalties = []penaltyPayload{{Name: "line", Value: 0.1}}
		}
		scores = append(scores, sc)
	}

	return scores
}
