package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

// questionColumns must match the Scan order in scanQuestion.
const questionColumns = `question_id, message, status, timestamp, answer, answered_by, answered_at`

const listOrder = `ORDER BY priority, timestamp DESC, question_id DESC`

// QuestionRepo implements domain.QuestionRepository.
type QuestionRepo struct {
	pool *pgxpool.Pool
}

var _ domain.QuestionRepository = (*QuestionRepo)(nil)

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func scanQuestion(row pgx.Row) (*domain.Question, error) {
	var q domain.Question
	var status string
	if err := row.Scan(&q.ID, &q.Message, &status, &q.Timestamp, &q.Answer, &q.AnsweredBy, &q.AnsweredAt); err != nil {
		return nil, err
	}
	q.Status = domain.QuestionStatus(status)
	q.Timestamp = q.Timestamp.UTC()
	if q.AnsweredAt != nil {
		at := q.AnsweredAt.UTC()
		q.AnsweredAt = &at
	}
	return &q, nil
}

func (r *QuestionRepo) Create(ctx context.Context, message string) (*domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO questions (message) VALUES ($1) RETURNING `+questionColumns, message)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepo) GetByID(ctx context.Context, questionID int64) (*domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE question_id = $1`, questionID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepo) SetAnswer(ctx context.Context, questionID int64, answer string) (*domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE questions SET answer = $2 WHERE question_id = $1 RETURNING `+questionColumns,
		questionID, answer)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set answer: %w", err)
	}
	return q, nil
}

func (r *QuestionRepo) UpdateStatus(ctx context.Context, questionID int64, change domain.StatusChange) (*domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE questions SET status = $2, answered_by = $3, answered_at = $4
		 WHERE question_id = $1 RETURNING `+questionColumns,
		questionID, string(change.Status), change.AnsweredBy, change.AnsweredAt)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return q, nil
}

func (r *QuestionRepo) Delete(ctx context.Context, questionID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// List returns one page in listing order. The cursor names the last row of
// the previous page; the page holds the rows strictly after it in that
// order, which is what makes cursor chaining reproduce the full listing.
func (r *QuestionRepo) List(ctx context.Context, page domain.PageRequest) (*domain.QuestionPage, error) {
	var questions []domain.Question
	var err error

	if page.Cursor == nil {
		questions, err = r.listFirst(ctx, page.Limit+1)
	} else {
		questions, err = r.listAfter(ctx, *page.Cursor, page.Limit+1)
	}
	if err != nil {
		return nil, err
	}

	result := &domain.QuestionPage{Questions: questions}
	if len(questions) > page.Limit {
		result.Questions = questions[:page.Limit]
		result.HasMore = true
	}
	if result.HasMore {
		last := result.Questions[len(result.Questions)-1].ID
		result.NextCursor = &last
	}
	return result, nil
}

func (r *QuestionRepo) listFirst(ctx context.Context, limit int) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions `+listOrder+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return collectQuestions(rows, limit)
}

// listAfter resolves the cursor and reads the page from one snapshot, so a
// cursor row deleted in between cannot turn into an empty page.
func (r *QuestionRepo) listAfter(ctx context.Context, cursor int64, limit int) ([]domain.Question, error) {
	var questions []domain.Question
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM questions WHERE question_id = $1)`, cursor).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to resolve cursor: %w", err)
		}
		if !exists {
			return domain.ErrInvalidCursor
		}

		rows, err := tx.Query(ctx,
			`WITH c AS (SELECT priority, timestamp, question_id FROM questions WHERE question_id = $1)
			 SELECT `+qualified("q")+` FROM questions q, c
			 WHERE q.priority > c.priority
			    OR (q.priority = c.priority AND (q.timestamp, q.question_id) < (c.timestamp, c.question_id))
			 ORDER BY q.priority, q.timestamp DESC, q.question_id DESC
			 LIMIT $2`, cursor, limit)
		if err != nil {
			return fmt.Errorf("failed to list questions: %w", err)
		}
		questions, err = collectQuestions(rows, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func collectQuestions(rows pgx.Rows, limit int) ([]domain.Question, error) {
	defer rows.Close()

	questions := make([]domain.Question, 0, limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func qualified(alias string) string {
	return alias + ".question_id, " + alias + ".message, " + alias + ".status, " + alias + ".timestamp, " +
		alias + ".answer, " + alias + ".answered_by, " + alias + ".answered_at"
}
