package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/incident-backend/internal/models"
)

// ErrAttachmentNotFound сигнализирует об отсутствии вложения.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentRepository отвечает за работу с таблицей attachments.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository создаёт экземпляр репозитория.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create сохраняет запись о вложении.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	query := `
		INSERT INTO attachments (report_id, file_path)
		VALUES ($1, $2)
		RETURNING attachment_id
	`

	if err := r.db.QueryRowxContext(ctx, query, attachment.ReportID, attachment.FilePath).
		Scan(&attachment.ID); err != nil {
		return fmt.Errorf("attachment repository: create %w", err)
	}

	return nil
}

// GetByIDWithOwner возвращает вложение вместе с владельцем обращения,
// к которому оно привязано.
func (r *AttachmentRepository) GetByIDWithOwner(ctx context.Context, id int64) (*models.AttachmentWithOwner, error) {
	var attachment models.AttachmentWithOwner
	query := `
		SELECT a.attachment_id, a.report_id, a.file_path, r.user_id
		FROM attachments a
		JOIN reports r ON a.report_id = r.report_id
		WHERE a.attachment_id = $1
	`
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("attachment repository: get by id %w", err)
	}

	return &attachment, nil
}

// GetByFilenameWithOwner находит вложение по сохранённому имени файла.
// Используется при скачивании: маршрут адресует файл по имени.
func (r *AttachmentRepository) GetByFilenameWithOwner(ctx context.Context, filename string) (*models.AttachmentWithOwner, error) {
	var attachment models.AttachmentWithOwner
	query := `
		SELECT a.attachment_id, a.report_id, a.file_path, r.user_id
		FROM attachments a
		JOIN reports r ON a.report_id = r.report_id
		WHERE a.file_path = $1
	`
	if err := r.db.GetContext(ctx, &attachment, query, filename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("attachment repository: get by filename %w", err)
	}

	return &attachment, nil
}

// ListPathsByReport возвращает имена файлов всех вложений обращения.
// Нужен перед удалением обращения: строки удалит каскад, файлы — нет.
func (r *AttachmentRepository) ListPathsByReport(ctx context.Context, reportID int64) ([]string, error) {
	var paths []string
	query := `SELECT file_path FROM attachments WHERE report_id = $1`
	if err := r.db.SelectContext(ctx, &paths, query, reportID); err != nil {
		return nil, fmt.Errorf("attachment repository: list paths %w", err)
	}
	return paths, nil
}

// Delete удаляет запись о вложении.
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE attachment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("attachment repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attachment repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}

	return nil
}
