package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/studycast/internal/models"
)

// CreatePodcast inserts the header row of p. Child rows are written by SavePodcast.
func (s *SQLiteStorage) CreatePodcast(ctx context.Context, p *models.IntelligentPodcast) error {
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	docIDs, err := marshalJSON(nonNil(p.DocumentIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal document ids: %w", err)
	}
	graph, err := marshalJSON(p.KnowledgeGraph)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge graph: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO podcasts (id, owner_id, title, description, duration, language, document_ids,
		   knowledge_graph, status, progress, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Duration, p.Language, docIDs,
		graph, string(p.Status), p.Progress, p.Error, p.CreatedAt.UTC(), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create podcast: %w", err)
	}
	return nil
}

// SavePodcast replaces the header row and every chapter, segment and question of p
// in a single transaction. Readers see either the previous record or the new one.
func (s *SQLiteStorage) SavePodcast(ctx context.Context, p *models.IntelligentPodcast) error {
	docIDs, err := marshalJSON(nonNil(p.DocumentIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal document ids: %w", err)
	}
	graph, err := marshalJSON(p.KnowledgeGraph)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge graph: %w", err)
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO podcasts (id, owner_id, title, description, duration, language, document_ids,
		   knowledge_graph, status, progress, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, description = excluded.description, duration = excluded.duration,
		   language = excluded.language, document_ids = excluded.document_ids,
		   knowledge_graph = excluded.knowledge_graph, status = excluded.status,
		   progress = excluded.progress, error = excluded.error, updated_at = excluded.updated_at`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Duration, p.Language, docIDs,
		graph, string(p.Status), p.Progress, p.Error, p.CreatedAt.UTC(), p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save podcast: %w", err)
	}

	for _, table := range []string{"podcast_chapters", "podcast_segments", "predicted_questions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE podcast_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertChapters(ctx, tx, p.ID, p.Chapters); err != nil {
		return err
	}
	if err := insertSegments(ctx, tx, p.ID, p.Segments); err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, p.ID, p.PredictedQuestions); err != nil {
		return err
	}
	return tx.Commit()
}

func insertChapters(ctx context.Context, tx *sql.Tx, podcastID string, chapters []models.PodcastChapter) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO podcast_chapters (podcast_id, position, id, title, start_time, end_time, concepts, difficulty, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range chapters {
		concepts, err := marshalJSON(nonNil(c.Concepts))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, podcastID, i, c.ID, c.Title, c.StartTime, c.EndTime,
			concepts, string(c.Difficulty), c.Summary); err != nil {
			return fmt.Errorf("failed to insert chapter %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertSegments(ctx context.Context, tx *sql.Tx, podcastID string, segments []models.PodcastSegment) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO podcast_segments (podcast_id, position, id, chapter_id, speaker, text, audio_url,
		   duration, timestamp, concepts, is_question_breakpoint, difficulty)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, seg := range segments {
		concepts, err := marshalJSON(nonNil(seg.Concepts))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, podcastID, i, seg.ID, seg.ChapterID, string(seg.Speaker), seg.Text,
			seg.AudioURL, seg.Duration, seg.Timestamp, concepts, seg.IsQuestionBreakpoint, string(seg.Difficulty)); err != nil {
			return fmt.Errorf("failed to insert segment %s: %w", seg.ID, err)
		}
	}
	return nil
}

func insertQuestions(ctx context.Context, tx *sql.Tx, podcastID string, questions []models.PredictedQuestion) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predicted_questions (podcast_id, position, id, question, answer, relevant_concepts,
		   related_segments, audio_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, q := range questions {
		concepts, err := marshalJSON(nonNil(q.RelevantConcepts))
		if err != nil {
			return err
		}
		related, err := marshalJSON(nonNil(q.RelatedSegments))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, podcastID, i, q.ID, q.Question, q.Answer, concepts, related, q.AudioURL); err != nil {
			return fmt.Errorf("failed to insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

const podcastColumns = `id, owner_id, title, description, duration, language, document_ids,
	knowledge_graph, status, progress, error, created_at, updated_at`

func scanPodcast(row interface{ Scan(...any) error }, withGraph bool) (*models.IntelligentPodcast, error) {
	var (
		p      models.IntelligentPodcast
		docIDs string
		graph  string
		status string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Duration, &p.Language, &docIDs,
		&graph, &status, &p.Progress, &p.Error, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	if err := unmarshalJSON(docIDs, &p.DocumentIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document ids: %w", err)
	}
	if withGraph {
		if err := unmarshalJSON(graph, &p.KnowledgeGraph); err != nil {
			return nil, fmt.Errorf("failed to unmarshal knowledge graph: %w", err)
		}
	}
	return &p, nil
}

// GetPodcast loads a podcast with its chapters, segments and questions.
func (s *SQLiteStorage) GetPodcast(ctx context.Context, ownerID, id string) (*models.IntelligentPodcast, error) {
	p, err := scanPodcast(s.db.QueryRowContext(ctx,
		`SELECT `+podcastColumns+` FROM podcasts WHERE id = ?`, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("podcast %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if ownerID != "" && p.OwnerID != ownerID {
		return nil, fmt.Errorf("podcast %s: %w", id, models.ErrNotFound)
	}
	if p.Chapters, err = s.loadChapters(ctx, id); err != nil {
		return nil, err
	}
	if p.Segments, err = s.loadSegments(ctx, id); err != nil {
		return nil, err
	}
	if p.PredictedQuestions, err = s.loadQuestions(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStorage) loadChapters(ctx context.Context, podcastID string) ([]models.PodcastChapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_time, end_time, concepts, difficulty, summary
		 FROM podcast_chapters WHERE podcast_id = ? ORDER BY position`, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chapters := []models.PodcastChapter{}
	for rows.Next() {
		var (
			c          models.PodcastChapter
			concepts   string
			difficulty string
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime, &concepts, &difficulty, &c.Summary); err != nil {
			return nil, err
		}
		c.Difficulty = models.Difficulty(difficulty)
		if err := unmarshalJSON(concepts, &c.Concepts); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (s *SQLiteStorage) loadSegments(ctx context.Context, podcastID string) ([]models.PodcastSegment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chapter_id, speaker, text, audio_url, duration, timestamp, concepts,
		   is_question_breakpoint, difficulty
		 FROM podcast_segments WHERE podcast_id = ? ORDER BY position`, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	segments := []models.PodcastSegment{}
	for rows.Next() {
		var (
			seg        models.PodcastSegment
			speaker    string
			concepts   string
			difficulty string
		)
		if err := rows.Scan(&seg.ID, &seg.ChapterID, &speaker, &seg.Text, &seg.AudioURL, &seg.Duration,
			&seg.Timestamp, &concepts, &seg.IsQuestionBreakpoint, &difficulty); err != nil {
			return nil, err
		}
		seg.Speaker = models.Role(speaker)
		seg.Difficulty = models.Difficulty(difficulty)
		if err := unmarshalJSON(concepts, &seg.Concepts); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (s *SQLiteStorage) loadQuestions(ctx context.Context, podcastID string) ([]models.PredictedQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, relevant_concepts, related_segments, audio_url
		 FROM predicted_questions WHERE podcast_id = ? ORDER BY position`, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := []models.PredictedQuestion{}
	for rows.Next() {
		var (
			q        models.PredictedQuestion
			concepts string
			related  string
		)
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &concepts, &related, &q.AudioURL); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(concepts, &q.RelevantConcepts); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(related, &q.RelatedSegments); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateStatus sets status, progress and error message and bumps updated_at.
func (s *SQLiteStorage) UpdateStatus(ctx context.Context, id string, status models.Status, progress int, message string) error {
	if !status.Valid() {
		return models.InputErrorf("invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE podcasts SET status = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), progress, message, s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update podcast status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("podcast %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// UpdateProgress sets progress and bumps updated_at on a generating record.
// A record already finished or marked error by the watchdog is left as is
// and reported as not found.
func (s *SQLiteStorage) UpdateProgress(ctx context.Context, id string, progress int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE podcasts SET progress = ?, updated_at = ? WHERE id = ? AND status = ?`,
		progress, s.now(), id, string(models.StatusGenerating),
	)
	if err != nil {
		return fmt.Errorf("failed to update podcast progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("generating podcast %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListStale returns ids of records still generating whose last update is before the cutoff.
func (s *SQLiteStorage) ListStale(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM podcasts WHERE status = ? AND updated_at < ? ORDER BY updated_at`,
		string(models.StatusGenerating), before.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPodcasts returns header rows (no graph or children) for an owner, newest first.
func (s *SQLiteStorage) ListPodcasts(ctx context.Context, ownerID string, offset, limit int) ([]*models.IntelligentPodcast, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+podcastColumns+` FROM podcasts WHERE owner_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.IntelligentPodcast
	for rows.Next() {
		p, err := scanPodcast(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPodcasts returns the number of records per status.
func (s *SQLiteStorage) CountPodcasts(ctx context.Context) (map[models.Status]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM podcasts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[models.Status]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
