package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/incident-backend/internal/models"
)

// ErrReportNotFound возвращается, когда обращение отсутствует либо
// не принадлежит вызывающему: для не-администратора эти случаи
// неразличимы намеренно.
var ErrReportNotFound = errors.New("report not found")

// reportColumns — список столбцов обращения. Даты приводятся к тексту,
// чтобы клиент получал YYYY-MM-DD без компонента времени.
const reportColumns = `
	report_id, user_id,
	incident_date::text AS incident_date,
	incident_time::text AS incident_time,
	location,
	submission_date::text AS submission_date,
	incident_type, description, witnesses, status, admin_comment
`

// ReportRepository отвечает за работу с таблицей reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create вставляет новое обращение и заполняет сгенерированные поля.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, incident_date, incident_time, location, submission_date, incident_type, description, witnesses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING report_id, submission_date::text, status
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		report.UserID, report.IncidentDate, report.IncidentTime, report.Location,
		report.SubmissionDate, report.IncidentType, report.Description, report.Witnesses,
	).Scan(&report.ID, &report.SubmissionDate, &report.Status); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// ListByOwner возвращает обращения пользователя с вложениями.
// Порядок — контракт выдачи: по дате подачи по убыванию, при равных
// датах новые идентификаторы первыми. Его обеспечивает сам запрос.
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT ` + reportColumns + `
		FROM reports
		WHERE user_id = $1
		ORDER BY submission_date DESC, report_id DESC
	`
	if err := r.db.SelectContext(ctx, &reports, query, ownerID); err != nil {
		return nil, fmt.Errorf("report repository: list by owner %w", err)
	}

	if err := r.attachAttachments(ctx, reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// ListAllWithOwner возвращает все обращения с данными владельца
// (административная выборка), с вложениями. Порядок тот же, что и в
// ListByOwner: по дате подачи по убыванию, затем по идентификатору.
func (r *ReportRepository) ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error) {
	var reports []models.ReportWithOwner
	query := `
		SELECT r.report_id, r.user_id,
			r.incident_date::text AS incident_date,
			r.incident_time::text AS incident_time,
			r.location,
			r.submission_date::text AS submission_date,
			r.incident_type, r.description, r.witnesses, r.status, r.admin_comment,
			u.first_name AS user_first_name,
			u.last_name AS user_last_name,
			u.email AS user_email
		FROM reports r
		JOIN users u ON r.user_id = u.user_id
		ORDER BY r.submission_date DESC, r.report_id DESC
	`
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("report repository: list all %w", err)
	}

	plain := make([]models.Report, len(reports))
	for i := range reports {
		plain[i] = reports[i].Report
	}
	if err := r.attachAttachments(ctx, plain); err != nil {
		return nil, err
	}
	for i := range reports {
		reports[i].Attachments = plain[i].Attachments
	}

	return reports, nil
}

// GetByID возвращает обращение без проверки владельца (для администратора).
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1`
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	if err := r.loadAttachments(ctx, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// GetByIDForOwner возвращает обращение, только если оно принадлежит
// указанному пользователю. Чужое и отсутствующее неразличимы.
func (r *ReportRepository) GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Report, error) {
	var report models.Report
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &report, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id for owner %w", err)
	}

	if err := r.loadAttachments(ctx, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// GetWithOwner возвращает обращение вместе с данными владельца.
func (r *ReportRepository) GetWithOwner(ctx context.Context, id int64) (*models.ReportWithOwner, error) {
	var report models.ReportWithOwner
	query := `
		SELECT r.report_id, r.user_id,
			r.incident_date::text AS incident_date,
			r.incident_time::text AS incident_time,
			r.location,
			r.submission_date::text AS submission_date,
			r.incident_type, r.description, r.witnesses, r.status, r.admin_comment,
			u.first_name AS user_first_name,
			u.last_name AS user_last_name,
			u.email AS user_email
		FROM reports r
		JOIN users u ON r.user_id = u.user_id
		WHERE r.report_id = $1
	`
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get with owner %w", err)
	}

	if err := r.loadAttachments(ctx, &report.Report); err != nil {
		return nil, err
	}

	return &report, nil
}

// UpdateFields перезаписывает редактируемые владельцем поля обращения.
// Проверка владельца и запись выполняются одним условным UPDATE,
// поэтому гонки между проверкой и изменением нет. ownerID == nil
// означает административный вызов без ограничения по владельцу.
// Пустая дата подачи оставляет хранимое значение без изменений.
// Статус и комментарий администратора через этот путь недостижимы.
func (r *ReportRepository) UpdateFields(ctx context.Context, report *models.Report, ownerID *int64) error {
	query := `
		UPDATE reports
		SET incident_date = $1,
			incident_time = $2,
			location = $3,
			submission_date = COALESCE(NULLIF($4, '')::date, submission_date),
			incident_type = $5,
			description = $6,
			witnesses = $7
		WHERE report_id = $8 AND ($9::bigint IS NULL OR user_id = $9)
		RETURNING ` + reportColumns

	if err := r.db.GetContext(ctx, report, query,
		report.IncidentDate, report.IncidentTime, report.Location,
		report.SubmissionDate, report.IncidentType, report.Description,
		report.Witnesses, report.ID, ownerID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReportNotFound
		}
		return fmt.Errorf("report repository: update fields %w", err)
	}

	return nil
}

// SetStatus обновляет статус обращения.
func (r *ReportRepository) SetStatus(ctx context.Context, id int64, status string) (*models.Report, error) {
	var report models.Report
	query := `
		UPDATE reports SET status = $1 WHERE report_id = $2
		RETURNING ` + reportColumns
	if err := r.db.GetContext(ctx, &report, query, status, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: set status %w", err)
	}

	return &report, nil
}

// SetComment обновляет комментарий администратора.
func (r *ReportRepository) SetComment(ctx context.Context, id int64, comment string) (*models.Report, error) {
	var report models.Report
	query := `
		UPDATE reports SET admin_comment = $1 WHERE report_id = $2
		RETURNING ` + reportColumns
	if err := r.db.GetContext(ctx, &report, query, comment, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: set comment %w", err)
	}

	return &report, nil
}

// Delete удаляет обращение одним условным DELETE. ownerID == nil —
// административное удаление без ограничения по владельцу. Строки
// вложений удаляет каскад по внешнему ключу.
func (r *ReportRepository) Delete(ctx context.Context, id int64, ownerID *int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE report_id = $1 AND ($2::bigint IS NULL OR user_id = $2)`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("report repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrReportNotFound
	}

	return nil
}

// loadAttachments подгружает вложения одного обращения.
func (r *ReportRepository) loadAttachments(ctx context.Context, report *models.Report) error {
	attachments := []models.Attachment{}
	query := `SELECT attachment_id, report_id, file_path FROM attachments WHERE report_id = $1 ORDER BY attachment_id`
	if err := r.db.SelectContext(ctx, &attachments, query, report.ID); err != nil {
		return fmt.Errorf("report repository: load attachments %w", err)
	}
	report.Attachments = attachments
	return nil
}

// attachAttachments подгружает вложения для набора обращений одним запросом.
func (r *ReportRepository) attachAttachments(ctx context.Context, reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	ids := make([]int64, len(reports))
	index := make(map[int64]int, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
		index[reports[i].ID] = i
		reports[i].Attachments = []models.Attachment{}
	}

	var attachments []models.Attachment
	query := `SELECT attachment_id, report_id, file_path FROM attachments WHERE report_id = ANY($1) ORDER BY attachment_id`
	if err := r.db.SelectContext(ctx, &attachments, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("report repository: attach attachments %w", err)
	}

	for _, a := range attachments {
		if i, ok := index[a.ReportID]; ok {
			reports[i].Attachments = append(reports[i].Attachments, a)
		}
	}

	return nil
}
