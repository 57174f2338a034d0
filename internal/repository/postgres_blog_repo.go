package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresBlogRepo はPostgreSQLを使用したブログストア。
type PostgresBlogRepo struct {
	db *sql.DB
}

// NewPostgresBlogRepo はPostgresBlogRepoを生成する。
func NewPostgresBlogRepo(db *sql.DB) *PostgresBlogRepo {
	return &PostgresBlogRepo{db: db}
}

// List は全ブログを作成日時の昇順で返す。
func (r *PostgresBlogRepo) List(ctx context.Context) ([]*model.BlogRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, url, likes, user_id, created_at
		 FROM blogs ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []*model.BlogRecord
	for rows.Next() {
		blog := &model.BlogRecord{}
		if err := rows.Scan(
			&blog.ID, &blog.Title, &blog.Author, &blog.URL,
			&blog.Likes, &blog.UserID, &blog.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blogs: %w", err)
	}

	return blogs, nil
}

// FindByID は指定IDのブログを取得する。見つからない場合はnilを返す。
func (r *PostgresBlogRepo) FindByID(ctx context.Context, id string) (*model.BlogRecord, error) {
	blog := &model.BlogRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, url, likes, user_id, created_at
		 FROM blogs WHERE id = $1`,
		id,
	).Scan(&blog.ID, &blog.Title, &blog.Author, &blog.URL, &blog.Likes, &blog.UserID, &blog.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog by ID: %w", err)
	}

	return blog, nil
}

// Create はブログを作成する。
func (r *PostgresBlogRepo) Create(ctx context.Context, blog *model.BlogRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, title, author, url, likes, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		blog.ID, blog.Title, blog.Author, blog.URL, blog.Likes, blog.UserID, blog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert blog: %w", err)
	}
	return nil
}

// Update は既存ブログを上書き更新する。存在しない場合はエラーを返す。
func (r *PostgresBlogRepo) Update(ctx context.Context, blog *model.BlogRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = $2, author = $3, url = $4, likes = $5 WHERE id = $1`,
		blog.ID, blog.Title, blog.Author, blog.URL, blog.Likes,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("blog not found: %s", blog.ID)
	}

	return nil
}

// Delete は指定IDのブログを削除する。存在しない場合もエラーにしない。
func (r *PostgresBlogRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// DeleteAll は全ブログを削除する。
func (r *PostgresBlogRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blogs`); err != nil {
		return fmt.Errorf("failed to delete blogs: %w", err)
	}
	return nil
}
