package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store persists measurements and description jobs in PostgreSQL, with
// pgvector for description similarity search.
type Store struct {
	conn pgxIConn
}

// New creates a Store on top of an existing connection or pool.
func New(conn pgxIConn) *Store {
	return &Store{conn: conn}
}

// Measurement is one recorded result from the measurement API.
type Measurement struct {
	ID                int64     `json:"id"`
	PredictionID      string    `json:"prediction_id"`
	MeasurementCm     float64   `json:"measurement_cm"`
	Age               string    `json:"age,omitempty"`
	SocialConnections string    `json:"social_connections,omitempty"`
	WalletAddress     string    `json:"wallet_address,omitempty"`
	ImageURL          string    `json:"image_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// InsertMeasurementParams contains the fields for recording a measurement.
type InsertMeasurementParams struct {
	PredictionID      string
	MeasurementCm     float64
	Age               string
	SocialConnections string
	WalletAddress     string
	ImageURL          string
}

func (s *Store) InsertMeasurement(ctx context.Context, params InsertMeasurementParams) (Measurement, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO measurements (prediction_id, measurement_cm, age, social_connections, wallet_address, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, prediction_id, measurement_cm, age, social_connections, wallet_address, image_url, created_at`,
		params.PredictionID,
		params.MeasurementCm,
		params.Age,
		params.SocialConnections,
		params.WalletAddress,
		params.ImageURL,
	)

	var m Measurement
	err := row.Scan(
		&m.ID,
		&m.PredictionID,
		&m.MeasurementCm,
		&m.Age,
		&m.SocialConnections,
		&m.WalletAddress,
		&m.ImageURL,
		&m.CreatedAt,
	)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to insert measurement: %w", err)
	}
	return m, nil
}

// Leaderboard returns the largest recorded measurements, newest first among
// equals.
func (s *Store) Leaderboard(ctx context.Context, limit int32) ([]Measurement, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, prediction_id, measurement_cm, age, social_connections, wallet_address, image_url, created_at
		FROM measurements
		ORDER BY measurement_cm DESC, created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	results := make([]Measurement, 0, limit)
	for rows.Next() {
		var m Measurement
		err := rows.Scan(
			&m.ID,
			&m.PredictionID,
			&m.MeasurementCm,
			&m.Age,
			&m.SocialConnections,
			&m.WalletAddress,
			&m.ImageURL,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Description job states.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// EmbeddingDim is the fixed dimension of the description_jobs embedding
// column. Providers whose embedding models produce a different dimension
// store NULL and are excluded from similarity search.
const EmbeddingDim = 1536

// embeddingValue converts an embedding into a nullable column value,
// dropping vectors that do not match the column dimension so the update
// cannot fail on a dimension mismatch.
func embeddingValue(embedding []float32) *pgvector.Vector {
	if len(embedding) != EmbeddingDim {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

// DescriptionJob is an asynchronous describe request and its result.
type DescriptionJob struct {
	ID           string    `json:"id"`
	ImageURL     string    `json:"image_url"`
	Status       string    `json:"status"`
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Store) CreateDescriptionJob(ctx context.Context, id string, imageURL string) (DescriptionJob, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO description_jobs (id, image_url, status)
		VALUES ($1, $2, $3)
		RETURNING id, image_url, status, created_at`,
		id, imageURL, JobPending,
	)

	var job DescriptionJob
	if err := row.Scan(&job.ID, &job.ImageURL, &job.Status, &job.CreatedAt); err != nil {
		return DescriptionJob{}, fmt.Errorf("failed to create description job: %w", err)
	}
	return job, nil
}

func (s *Store) GetDescriptionJob(ctx context.Context, id string) (DescriptionJob, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, image_url, status,
		       COALESCE(title, ''), COALESCE(description, ''),
		       COALESCE(provider, ''), COALESCE(error_message, ''),
		       created_at
		FROM description_jobs
		WHERE id = $1`,
		id,
	)

	var job DescriptionJob
	err := row.Scan(
		&job.ID,
		&job.ImageURL,
		&job.Status,
		&job.Title,
		&job.Description,
		&job.Provider,
		&job.ErrorMessage,
		&job.CreatedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return DescriptionJob{}, ErrNotFound
	}
	if err != nil {
		return DescriptionJob{}, err
	}
	return job, nil
}

// CompleteDescriptionJobParams carries the result of a finished describe job.
// Embedding may be nil when the provider has no embedding model configured;
// vectors of any dimension other than EmbeddingDim are stored as NULL.
type CompleteDescriptionJobParams struct {
	ID          string
	Title       string
	Description string
	Provider    string
	Embedding   []float32
}

func (s *Store) CompleteDescriptionJob(ctx context.Context, params CompleteDescriptionJobParams) error {
	embedding := embeddingValue(params.Embedding)

	tag, err := s.conn.Exec(ctx, `
		UPDATE description_jobs
		SET status = $2, title = $3, description = $4, provider = $5, embedding = $6
		WHERE id = $1`,
		params.ID,
		JobCompleted,
		params.Title,
		params.Description,
		params.Provider,
		embedding,
	)
	if err != nil {
		return fmt.Errorf("failed to complete description job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FailDescriptionJob(ctx context.Context, id string, message string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE description_jobs
		SET status = $2, error_message = $3
		WHERE id = $1`,
		id, JobFailed, message,
	)
	if err != nil {
		return fmt.Errorf("failed to mark description job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetDescriptionJob puts a job back into the pending state so a retried
// queue message starts from a clean slate.
func (s *Store) ResetDescriptionJob(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE description_jobs
		SET status = $2, error_message = NULL
		WHERE id = $1`,
		id, JobPending,
	)
	return err
}

// SimilarDescriptions returns completed jobs ordered by cosine distance of
// their description embeddings to the given vector.
func (s *Store) SimilarDescriptions(ctx context.Context, embedding []float32, limit int32) ([]DescriptionJob, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, image_url, status,
		       COALESCE(title, ''), COALESCE(description, ''),
		       COALESCE(provider, ''), COALESCE(error_message, ''),
		       created_at
		FROM description_jobs
		WHERE status = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`,
		JobCompleted,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar descriptions: %w", err)
	}
	defer rows.Close()

	results := make([]DescriptionJob, 0, limit)
	for rows.Next() {
		var job DescriptionJob
		err := rows.Scan(
			&job.ID,
			&job.ImageURL,
			&job.Status,
			&job.Title,
			&job.Description,
			&job.Provider,
			&job.ErrorMessage,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, job)
	}
	return results, rows.Err()
}
