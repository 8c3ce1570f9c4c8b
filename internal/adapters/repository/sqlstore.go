package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/points"
	"github.com/okian/salto/pkg/metrics"
)

// timeFormat is how timestamps are persisted. UTC keeps comparisons stable.
const timeFormat = time.RFC3339Nano

// schema bootstraps the database. Score and final-score values are stored as
// integer thousandths so the 3-decimal contract survives storage exactly.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	event_date TEXT NOT NULL,
	location TEXT,
	status TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS apparatus (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	discipline TEXT
);
CREATE TABLE IF NOT EXISTS athletes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	country TEXT,
	club TEXT,
	registration_number TEXT
);
CREATE TABLE IF NOT EXISTS performances (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id INTEGER NOT NULL REFERENCES events(id),
	athlete_id INTEGER NOT NULL REFERENCES athletes(id),
	apparatus_id INTEGER NOT NULL REFERENCES apparatus(id),
	order_number INTEGER,
	UNIQUE(event_id, athlete_id, apparatus_id)
);
CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	performance_id INTEGER NOT NULL REFERENCES performances(id),
	judge_id INTEGER NOT NULL,
	score_type TEXT NOT NULL,
	score_value INTEGER NOT NULL,
	penalties TEXT NOT NULL DEFAULT '[]',
	comments TEXT,
	submitted_at TEXT NOT NULL,
	UNIQUE(performance_id, judge_id, score_type)
);
CREATE TABLE IF NOT EXISTS final_scores (
	performance_id INTEGER PRIMARY KEY REFERENCES performances(id),
	d_score INTEGER NOT NULL,
	e_score INTEGER NOT NULL,
	neutral_deductions INTEGER NOT NULL,
	final_score INTEGER NOT NULL,
	e_scores_detail TEXT NOT NULL,
	calculation_method TEXT NOT NULL,
	is_official INTEGER NOT NULL DEFAULT 0,
	published_at TEXT,
	calculated_at TEXT NOT NULL
);
`

// SQLStore is the durable Store backed by SQLite via database/sql.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens (creating if needed) a SQLite database at path and
// bootstraps the schema. The pool is limited to a single connection to avoid
// "database is locked" errors; every statement therefore sees a serialized,
// consistent view.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database at %q: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// PutEvent inserts or replaces an event.
func (s *SQLStore) PutEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if e.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO events (name, event_date, location, status) VALUES (?, ?, ?, ?)`,
			e.Name, e.EventDate.UTC().Format(timeFormat), e.Location, string(e.Status))
		if err != nil {
			return model.Event{}, fmt.Errorf("insert event: %w", err)
		}
		e.ID, err = res.LastInsertId()
		if err != nil {
			return model.Event{}, fmt.Errorf("insert event id: %w", err)
		}
		return e, nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, event_date, location, status) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, event_date=excluded.event_date,
		 location=excluded.location, status=excluded.status`,
		e.ID, e.Name, e.EventDate.UTC().Format(timeFormat), e.Location, string(e.Status))
	if err != nil {
		return model.Event{}, fmt.Errorf("upsert event: %w", err)
	}
	return e, nil
}

// PutApparatus inserts or replaces an apparatus.
func (s *SQLStore) PutApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error) {
	if a.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO apparatus (name, code, discipline) VALUES (?, ?, ?)`,
			a.Name, a.Code, a.Discipline)
		if err != nil {
			return model.Apparatus{}, fmt.Errorf("insert apparatus: %w", err)
		}
		a.ID, err = res.LastInsertId()
		if err != nil {
			return model.Apparatus{}, fmt.Errorf("insert apparatus id: %w", err)
		}
		return a, nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO apparatus (id, name, code, discipline) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, code=excluded.code,
		 discipline=excluded.discipline`,
		a.ID, a.Name, a.Code, a.Discipline)
	if err != nil {
		return model.Apparatus{}, fmt.Errorf("upsert apparatus: %w", err)
	}
	return a, nil
}

// PutAthlete inserts or replaces an athlete.
func (s *SQLStore) PutAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	if a.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO athletes (first_name, last_name, country, club, registration_number)
			 VALUES (?, ?, ?, ?, ?)`,
			a.FirstName, a.LastName, a.Country, a.Club, a.RegistrationNumber)
		if err != nil {
			return model.Athlete{}, fmt.Errorf("insert athlete: %w", err)
		}
		a.ID, err = res.LastInsertId()
		if err != nil {
			return model.Athlete{}, fmt.Errorf("insert athlete id: %w", err)
		}
		return a, nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO athletes (id, first_name, last_name, country, club, registration_number)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET first_name=excluded.first_name,
		 last_name=excluded.last_name, country=excluded.country, club=excluded.club,
		 registration_number=excluded.registration_number`,
		a.ID, a.FirstName, a.LastName, a.Country, a.Club, a.RegistrationNumber)
	if err != nil {
		return model.Athlete{}, fmt.Errorf("upsert athlete: %w", err)
	}
	return a, nil
}

// PutPerformance upserts by the (event, athlete, apparatus) natural key.
func (s *SQLStore) PutPerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO performances (event_id, athlete_id, apparatus_id, order_number)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(event_id, athlete_id, apparatus_id)
		 DO UPDATE SET order_number=excluded.order_number`,
		p.EventID, p.AthleteID, p.ApparatusID, p.OrderNumber)
	if err != nil {
		if isForeignKeyError(err) {
			return model.Performance{}, fmt.Errorf("performance references: %w", ErrMissingReference)
		}
		return model.Performance{}, fmt.Errorf("upsert performance: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM performances WHERE event_id = ? AND athlete_id = ? AND apparatus_id = ?`,
		p.EventID, p.AthleteID, p.ApparatusID).Scan(&p.ID)
	if err != nil {
		return model.Performance{}, fmt.Errorf("read back performance: %w", err)
	}
	return p, nil
}

// PerformanceFor returns a performance by id.
func (s *SQLStore) PerformanceFor(ctx context.Context, id int64) (model.Performance, error) {
	var p model.Performance
	var order sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_id, athlete_id, apparatus_id, order_number FROM performances WHERE id = ?`,
		id).Scan(&p.ID, &p.EventID, &p.AthleteID, &p.ApparatusID, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Performance{}, fmt.Errorf("performance %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Performance{}, fmt.Errorf("query performance: %w", err)
	}
	p.OrderNumber = int(order.Int64)
	return p, nil
}

// ApparatusFor returns an apparatus by id.
func (s *SQLStore) ApparatusFor(ctx context.Context, id int64) (model.Apparatus, error) {
	var a model.Apparatus
	var discipline sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, discipline FROM apparatus WHERE id = ?`,
		id).Scan(&a.ID, &a.Name, &a.Code, &discipline)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Apparatus{}, fmt.Errorf("apparatus %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Apparatus{}, fmt.Errorf("query apparatus: %w", err)
	}
	a.Discipline = discipline.String
	return a, nil
}

// UpsertScore writes a judge submission, last write winning.
func (s *SQLStore) UpsertScore(ctx context.Context, sc model.Score) (model.Score, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	penalties, err := json.Marshal(sc.Penalties)
	if err != nil {
		return model.Score{}, false, fmt.Errorf("marshal penalties: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Score{}, false, fmt.Errorf("begin score upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID int64
	overwrote := true
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM scores WHERE performance_id = ? AND judge_id = ? AND score_type = ?`,
		sc.PerformanceID, sc.JudgeID, string(sc.ScoreType)).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		overwrote = false
	case err != nil:
		return model.Score{}, false, fmt.Errorf("probe existing score: %w", err)
	}

	if overwrote {
		_, err = tx.ExecContext(ctx,
			`UPDATE scores SET score_value = ?, penalties = ?, comments = ?, submitted_at = ?
			 WHERE id = ?`,
			sc.Value.Thousandths(), string(penalties), sc.Comments,
			sc.SubmittedAt.UTC().Format(timeFormat), existingID)
		if err != nil {
			return model.Score{}, false, fmt.Errorf("update score: %w", err)
		}
		sc.ID = existingID
	} else {
		res, execErr := tx.ExecContext(ctx,
			`INSERT INTO scores (performance_id, judge_id, score_type, score_value, penalties, comments, submitted_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sc.PerformanceID, sc.JudgeID, string(sc.ScoreType), sc.Value.Thousandths(),
			string(penalties), sc.Comments, sc.SubmittedAt.UTC().Format(timeFormat))
		if execErr != nil {
			if isForeignKeyError(execErr) {
				return model.Score{}, false, fmt.Errorf("performance %d: %w", sc.PerformanceID, ErrMissingReference)
			}
			return model.Score{}, false, fmt.Errorf("insert score: %w", execErr)
		}
		sc.ID, err = res.LastInsertId()
		if err != nil {
			return model.Score{}, false, fmt.Errorf("insert score id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Score{}, false, fmt.Errorf("commit score upsert: %w", err)
	}
	return sc, overwrote, nil
}

// ScoresForPerformance returns the ordered snapshot of live submissions.
func (s *SQLStore) ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, performance_id, judge_id, score_type, score_value, penalties, comments, submitted_at
		 FROM scores WHERE performance_id = ?
		 ORDER BY score_type, submitted_at, judge_id`,
		performanceID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Score
	for rows.Next() {
		var sc model.Score
		var scoreType, penalties, submittedAt string
		var comments sql.NullString
		var value int64
		if err := rows.Scan(&sc.ID, &sc.PerformanceID, &sc.JudgeID, &scoreType, &value,
			&penalties, &comments, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		sc.ScoreType = model.ScoreType(scoreType)
		sc.Value = points.FromThousandths(value)
		sc.Comments = comments.String
		if err := json.Unmarshal([]byte(penalties), &sc.Penalties); err != nil {
			return nil, fmt.Errorf("unmarshal penalties: %w", err)
		}
		sc.SubmittedAt, err = time.Parse(timeFormat, submittedAt)
		if err != nil {
			return nil, fmt.Errorf("parse submitted_at: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

// UpsertFinalScore performs the single conditional insert-or-replace that
// backs the publication gate. The update arm refuses to touch official rows
// unless forced; a zero-row outcome on an existing row means the gate held.
func (s *SQLStore) UpsertFinalScore(ctx context.Context, fs model.FinalScore, force bool) (model.FinalScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	detail, err := json.Marshal(fs.EScoresDetail)
	if err != nil {
		return model.FinalScore{}, fmt.Errorf("marshal e_scores_detail: %w", err)
	}

	guard := "WHERE final_scores.is_official = 0"
	if force {
		guard = ""
	}
	//nolint:gosec // guard is one of two compile-time constants, not user input
	query := fmt.Sprintf(
		`INSERT INTO final_scores
		 (performance_id, d_score, e_score, neutral_deductions, final_score, e_scores_detail, calculation_method, calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(performance_id) DO UPDATE SET
		   d_score = excluded.d_score,
		   e_score = excluded.e_score,
		   neutral_deductions = excluded.neutral_deductions,
		   final_score = excluded.final_score,
		   e_scores_detail = excluded.e_scores_detail,
		   calculated_at = excluded.calculated_at
		 %s`, guard)

	res, err := s.db.ExecContext(ctx, query,
		fs.PerformanceID, fs.DScore.Thousandths(), fs.EScore.Thousandths(),
		fs.NeutralDeductions.Thousandths(), fs.FinalValue.Thousandths(),
		string(detail), fs.CalculationMethod, fs.CalculatedAt.UTC().Format(timeFormat))
	if err != nil {
		return model.FinalScore{}, fmt.Errorf("upsert final score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.FinalScore{}, fmt.Errorf("final score rows affected: %w", err)
	}
	if affected == 0 {
		return model.FinalScore{}, fmt.Errorf("performance %d: %w", fs.PerformanceID, ErrAlreadyPublished)
	}

	return s.FinalScoreFor(ctx, fs.PerformanceID)
}

// FinalScoreFor returns the final score for a performance.
func (s *SQLStore) FinalScoreFor(ctx context.Context, performanceID int64) (model.FinalScore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT performance_id, d_score, e_score, neutral_deductions, final_score,
		        e_scores_detail, calculation_method, is_official, published_at, calculated_at
		 FROM final_scores WHERE performance_id = ?`, performanceID)

	fs, err := scanFinalScore(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FinalScore{}, fmt.Errorf("final score for performance %d: %w", performanceID, ErrNotFound)
	}
	if err != nil {
		return model.FinalScore{}, err
	}
	return fs, nil
}

// scanFinalScore decodes one final_scores row from any Scan-shaped source.
func scanFinalScore(scan func(dest ...any) error) (model.FinalScore, error) {
	var fs model.FinalScore
	var d, e, nd, final int64
	var detail, calculatedAt string
	var official int
	var publishedAt sql.NullString

	if err := scan(&fs.PerformanceID, &d, &e, &nd, &final, &detail,
		&fs.CalculationMethod, &official, &publishedAt, &calculatedAt); err != nil {
		return model.FinalScore{}, err
	}

	fs.DScore = points.FromThousandths(d)
	fs.EScore = points.FromThousandths(e)
	fs.NeutralDeductions = points.FromThousandths(nd)
	fs.FinalValue = points.FromThousandths(final)
	fs.IsOfficial = official != 0
	if err := json.Unmarshal([]byte(detail), &fs.EScoresDetail); err != nil {
		return model.FinalScore{}, fmt.Errorf("unmarshal e_scores_detail: %w", err)
	}
	var err error
	fs.CalculatedAt, err = time.Parse(timeFormat, calculatedAt)
	if err != nil {
		return model.FinalScore{}, fmt.Errorf("parse calculated_at: %w", err)
	}
	if publishedAt.Valid {
		t, err := time.Parse(timeFormat, publishedAt.String)
		if err != nil {
			return model.FinalScore{}, fmt.Errorf("parse published_at: %w", err)
		}
		fs.PublishedAt = &t
	}
	return fs, nil
}

// Publish marks existing final scores official, skipping unknown ids.
func (s *SQLStore) Publish(ctx context.Context, performanceIDs []int64, at time.Time) (int64, error) {
	if len(performanceIDs) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(
		`UPDATE final_scores SET is_official = 1, published_at = ? WHERE performance_id IN (%s)`,
		placeholders(len(performanceIDs)))
	args := make([]any, 0, len(performanceIDs)+1)
	args = append(args, at.UTC().Format(timeFormat))
	for _, id := range performanceIDs {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("publish final scores: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish rows affected: %w", err)
	}
	return affected, nil
}

// Unpublish reopens published final scores.
func (s *SQLStore) Unpublish(ctx context.Context, performanceIDs []int64) (int64, error) {
	if len(performanceIDs) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(
		`UPDATE final_scores SET is_official = 0, published_at = NULL
		 WHERE is_official = 1 AND performance_id IN (%s)`,
		placeholders(len(performanceIDs)))
	args := make([]any, 0, len(performanceIDs))
	for _, id := range performanceIDs {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("unpublish final scores: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unpublish rows affected: %w", err)
	}
	return affected, nil
}

// LeaderboardRows returns unordered join rows for an event.
func (s *SQLStore) LeaderboardRows(ctx context.Context, eventID int64, apparatusID *int64) ([]Row, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM events WHERE id = ?`, eventID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("probe event: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	query := `
		SELECT p.id, p.event_id, p.athlete_id, p.apparatus_id, p.order_number,
		       ath.first_name, ath.last_name, ath.country, ath.club, ath.registration_number,
		       app.name, app.code, app.discipline,
		       fs.performance_id, fs.d_score, fs.e_score, fs.neutral_deductions, fs.final_score,
		       fs.e_scores_detail, fs.calculation_method, fs.is_official, fs.published_at, fs.calculated_at
		FROM performances p
		INNER JOIN athletes ath ON p.athlete_id = ath.id
		INNER JOIN apparatus app ON p.apparatus_id = app.id
		LEFT JOIN final_scores fs ON p.id = fs.performance_id
		WHERE p.event_id = ?`
	args := []any{eventID}
	if apparatusID != nil {
		query += ` AND p.apparatus_id = ?`
		args = append(args, *apparatusID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var r Row
		var order sql.NullInt64
		var country, club, regNum, discipline sql.NullString
		var fsID, d, e, nd, final sql.NullInt64
		var detail, method, publishedAt, calculatedAt sql.NullString
		var official sql.NullInt64

		if err := rows.Scan(
			&r.Performance.ID, &r.Performance.EventID, &r.Performance.AthleteID,
			&r.Performance.ApparatusID, &order,
			&r.Athlete.FirstName, &r.Athlete.LastName, &country, &club, &regNum,
			&r.Apparatus.Name, &r.Apparatus.Code, &discipline,
			&fsID, &d, &e, &nd, &final, &detail, &method, &official, &publishedAt, &calculatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}

		r.Performance.OrderNumber = int(order.Int64)
		r.Athlete.ID = r.Performance.AthleteID
		r.Athlete.Country = country.String
		r.Athlete.Club = club.String
		r.Athlete.RegistrationNumber = regNum.String
		r.Apparatus.ID = r.Performance.ApparatusID
		r.Apparatus.Discipline = discipline.String

		if fsID.Valid {
			fs := model.FinalScore{
				PerformanceID:     fsID.Int64,
				DScore:            points.FromThousandths(d.Int64),
				EScore:            points.FromThousandths(e.Int64),
				NeutralDeductions: points.FromThousandths(nd.Int64),
				FinalValue:        points.FromThousandths(final.Int64),
				CalculationMethod: method.String,
				IsOfficial:        official.Int64 != 0,
			}
			if err := json.Unmarshal([]byte(detail.String), &fs.EScoresDetail); err != nil {
				return nil, fmt.Errorf("unmarshal e_scores_detail: %w", err)
			}
			fs.CalculatedAt, err = time.Parse(timeFormat, calculatedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse calculated_at: %w", err)
			}
			if publishedAt.Valid {
				t, err := time.Parse(timeFormat, publishedAt.String)
				if err != nil {
					return nil, fmt.Errorf("parse published_at: %w", err)
				}
				fs.PublishedAt = &t
			}
			r.Final = &fs
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return out, nil
}

// CountPerformances returns the number of tracked performances.
func (s *SQLStore) CountPerformances(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM performances`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// placeholders builds "?, ?, ..." for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// isForeignKeyError reports whether err is a SQLite foreign key violation.
func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY")
}
