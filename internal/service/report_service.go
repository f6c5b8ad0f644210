package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/incident-backend/internal/logger"
	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/pkg/apperror"
	"github.com/ignatzorin/incident-backend/internal/repository"
	"github.com/ignatzorin/incident-backend/internal/validation"
)

// ReportStore описывает зависимости ReportService от слоя хранилища.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Report, error)
	ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Report, error)
	GetWithOwner(ctx context.Context, id int64) (*models.ReportWithOwner, error)
	UpdateFields(ctx context.Context, report *models.Report, ownerID *int64) error
	SetStatus(ctx context.Context, id int64, status string) (*models.Report, error)
	SetComment(ctx context.Context, id int64, comment string) (*models.Report, error)
	Delete(ctx context.Context, id int64, ownerID *int64) error
}

// AttachmentPathLister отдаёт имена файлов вложений обращения.
type AttachmentPathLister interface {
	ListPathsByReport(ctx context.Context, reportID int64) ([]string, error)
}

// FileRemover удаляет файл из дискового хранилища.
type FileRemover interface {
	Delete(ctx context.Context, fileName string) error
}

// ReportService реализует жизненный цикл обращения и правила доступа.
type ReportService struct {
	reports     ReportStore
	attachments AttachmentPathLister
	files       FileRemover
}

// ReportInput содержит поля обращения, редактируемые владельцем.
// Статус и комментарий администратора сюда не входят.
type ReportInput struct {
	IncidentDate   string
	IncidentTime   string
	Location       string
	SubmissionDate string
	IncidentType   string
	Description    string
	Witnesses      *string
}

// NewReportService создаёт сервис обращений.
func NewReportService(reports ReportStore, attachments AttachmentPathLister, files FileRemover) *ReportService {
	return &ReportService{reports: reports, attachments: attachments, files: files}
}

// validateInput проверяет обязательные поля обращения.
func validateInput(in ReportInput) error {
	if err := validation.ValidateDate("дата инцидента", in.IncidentDate); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateTime("время инцидента", in.IncidentTime); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateIncidentType(in.IncidentType); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateWitnesses(in.Witnesses); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.SubmissionDate != "" {
		if err := validation.ValidateDate("дата подачи", in.SubmissionDate); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

// Create создаёт обращение от имени владельца. Дата подачи по умолчанию —
// сегодня, статус — pending.
func (s *ReportService) Create(ctx context.Context, ownerID int64, in ReportInput) (*models.Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	submissionDate := in.SubmissionDate
	if submissionDate == "" {
		submissionDate = time.Now().Format("2006-01-02")
	}

	report := &models.Report{
		UserID:         ownerID,
		IncidentDate:   in.IncidentDate,
		IncidentTime:   in.IncidentTime,
		Location:       in.Location,
		SubmissionDate: submissionDate,
		IncidentType:   in.IncidentType,
		Description:    in.Description,
		Witnesses:      in.Witnesses,
		Attachments:    []models.Attachment{},
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// ListForOwner возвращает обращения вызывающего с вложениями,
// отсортированные по дате подачи по убыванию.
func (s *ReportService) ListForOwner(ctx context.Context, ownerID int64) ([]models.Report, error) {
	return s.reports.ListByOwner(ctx, ownerID)
}

// ListAll возвращает все обращения с данными владельцев. Только администратор.
func (s *ReportService) ListAll(ctx context.Context, caller models.Caller) ([]models.ReportWithOwner, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return s.reports.ListAllWithOwner(ctx)
}

// Get возвращает одно обращение. Для не-администратора чужое обращение
// неотличимо от отсутствующего.
func (s *ReportService) Get(ctx context.Context, id int64, caller models.Caller) (*models.Report, error) {
	var (
		report *models.Report
		err    error
	)
	if caller.IsAdmin() {
		report, err = s.reports.GetByID(ctx, id)
	} else {
		report, err = s.reports.GetByIDForOwner(ctx, id, caller.UserID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// GetWithOwner возвращает обращение с данными владельца. Только администратор.
func (s *ReportService) GetWithOwner(ctx context.Context, id int64, caller models.Caller) (*models.ReportWithOwner, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	report, err := s.reports.GetWithOwner(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// Update перезаписывает редактируемые поля обращения. Владелец меняет
// только свои обращения; статус и комментарий администратора через этот
// путь недостижимы.
func (s *ReportService) Update(ctx context.Context, id int64, caller models.Caller, in ReportInput) (*models.Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Пустая дата подачи означает «не менять»: хранимое значение
	// сохраняется, порядок в списках не плывёт от редактирования.
	report := &models.Report{
		ID:             id,
		IncidentDate:   in.IncidentDate,
		IncidentTime:   in.IncidentTime,
		Location:       in.Location,
		SubmissionDate: in.SubmissionDate,
		IncidentType:   in.IncidentType,
		Description:    in.Description,
		Witnesses:      in.Witnesses,
	}

	if err := s.reports.UpdateFields(ctx, report, ownerScope(caller)); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	report.Attachments = []models.Attachment{}
	return report, nil
}

// SetStatus обновляет статус обращения. Только администратор.
func (s *ReportService) SetStatus(ctx context.Context, id int64, caller models.Caller, status string) (*models.Report, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateReportStatus(status); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	report, err := s.reports.SetStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// SetComment задаёт комментарий администратора. Пустой комментарий отклоняется.
func (s *ReportService) SetComment(ctx context.Context, id int64, caller models.Caller, comment string) (*models.Report, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateNonEmpty("комментарий", comment); err != nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, err.Error())
	}
	if err := validation.ValidateLength("комментарий", comment, 0, validation.MaxCommentLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, err.Error())
	}

	report, err := s.reports.SetComment(ctx, id, comment)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// Delete удаляет обращение: администратор — любое, владелец — только своё.
// Строки вложений удаляет каскад; файлы с диска удаляются после, по
// возможности: сбой файловой системы логируется и не откатывает удаление,
// авторитетна запись в базе.
func (s *ReportService) Delete(ctx context.Context, id int64, caller models.Caller) error {
	paths, err := s.attachments.ListPathsByReport(ctx, id)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(ctx, id, ownerScope(caller)); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return apperror.ErrReportNotFound
		}
		return err
	}

	for _, path := range paths {
		if err := s.files.Delete(ctx, path); err != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"report_id": id,
				"file":      path,
				"error":     err.Error(),
			}).Warn("report service: не удалось удалить файл вложения")
		}
	}

	return nil
}

// ownerScope возвращает ограничение по владельцу для условных запросов:
// nil для администратора, id вызывающего для остальных.
func ownerScope(caller models.Caller) *int64 {
	if caller.IsAdmin() {
		return nil
	}
	id := caller.UserID
	return &id
}
