package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/incident-backend/internal/logger"
	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/pkg/apperror"
	"github.com/ignatzorin/incident-backend/internal/repository"
)

// Разрешённые типы вложений: расширение → ожидаемый MIME.
var allowedAttachmentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Размер заголовка для проверки магических байтов. Маркер Word в OLE
// контейнере лежит на смещениях 512–513, а запись word/ внутри docx-архива
// может начинаться за несколько килобайт от начала, поэтому первых 512 байт
// недостаточно.
const magicHeaderBytes = 8192

// Расширения, у которых тип подтверждается магическими байтами.
var magicCheckedExtensions = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpg",
	".png":  "png",
	".pdf":  "pdf",
	".doc":  "doc",
	".docx": "docx",
}

// AttachmentStore описывает зависимости AttachmentService от слоя хранилища.
type AttachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByIDWithOwner(ctx context.Context, id int64) (*models.AttachmentWithOwner, error)
	GetByFilenameWithOwner(ctx context.Context, filename string) (*models.AttachmentWithOwner, error)
	Delete(ctx context.Context, id int64) error
}

// ReportOwnerChecker проверяет существование и владельца обращения.
type ReportOwnerChecker interface {
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Report, error)
}

// FileStore описывает дисковое хранилище вложений.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error)
	AbsolutePath(fileName string) string
	Exists(fileName string) bool
	Delete(ctx context.Context, fileName string) error
	MaxUploadBytes() int64
}

// AttachmentService связывает загруженные файлы с обращениями и
// применяет правила доступа владельца.
type AttachmentService struct {
	attachments AttachmentStore
	reports     ReportOwnerChecker
	files       FileStore
}

// UploadInput описывает загружаемый файл.
type UploadInput struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.ReadSeeker
}

// NewAttachmentService создаёт сервис вложений.
func NewAttachmentService(attachments AttachmentStore, reports ReportOwnerChecker, files FileStore) *AttachmentService {
	return &AttachmentService{attachments: attachments, reports: reports, files: files}
}

// Upload проверяет права на обращение, валидирует файл по типу и размеру
// и сохраняет его. Администратор может приложить файл к любому обращению.
// Нарушение типа или размера отклоняется до какой-либо записи в базу.
func (s *AttachmentService) Upload(ctx context.Context, reportID int64, caller models.Caller, in UploadInput) (*models.Attachment, error) {
	if err := s.validateFile(in); err != nil {
		return nil, err
	}

	// Владелец неотличим от отсутствующего обращения для не-администратора.
	var err error
	if caller.IsAdmin() {
		_, err = s.reports.GetByID(ctx, reportID)
	} else {
		_, err = s.reports.GetByIDForOwner(ctx, reportID, caller.UserID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	if _, err := in.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("attachment service: не удалось сбросить позицию файла: %w", err)
	}

	fileName, _, err := s.files.Save(ctx, in.Filename, in.Reader)
	if err != nil {
		return nil, err
	}

	attachment := &models.Attachment{
		ReportID: reportID,
		FilePath: fileName,
	}

	if err := s.attachments.Create(ctx, attachment); err != nil {
		// Строка не создана — подчищаем уже записанный файл.
		if delErr := s.files.Delete(ctx, fileName); delErr != nil && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"file":  fileName,
				"error": delErr.Error(),
			}).Warn("attachment service: не удалось удалить осиротевший файл")
		}
		return nil, err
	}

	return attachment, nil
}

// Download разрешает скачивание вложения по сохранённому имени файла и
// возвращает абсолютный путь для отдачи клиенту.
func (s *AttachmentService) Download(ctx context.Context, filename string, caller models.Caller) (string, error) {
	if !s.files.Exists(filename) {
		return "", apperror.ErrAttachmentNotFound
	}

	attachment, err := s.attachments.GetByFilenameWithOwner(ctx, filename)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return "", apperror.ErrAttachmentNotFound
		}
		return "", err
	}

	if !caller.IsAdmin() && attachment.OwnerID != caller.UserID {
		return "", apperror.ErrForbidden
	}

	return s.files.AbsolutePath(attachment.FilePath), nil
}

// Delete удаляет вложение: сначала строку в базе, затем файл с диска.
// Сбой удаления файла после удаления строки логируется и не считается
// ошибкой — авторитетна запись в базе.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID int64, caller models.Caller) error {
	attachment, err := s.attachments.GetByIDWithOwner(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return apperror.ErrAttachmentNotFound
		}
		return err
	}

	if !caller.IsAdmin() && attachment.OwnerID != caller.UserID {
		return apperror.ErrForbidden
	}

	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return apperror.ErrAttachmentNotFound
		}
		return err
	}

	if err := s.files.Delete(ctx, attachment.FilePath); err != nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"attachment_id": attachmentID,
			"file":          attachment.FilePath,
			"error":         err.Error(),
		}).Warn("attachment service: файл не удалён после удаления строки")
	}

	return nil
}

// validateFile проверяет размер, расширение, заявленный MIME и магические
// байты файла.
func (s *AttachmentService) validateFile(in UploadInput) error {
	if in.Size == 0 {
		return apperror.New(apperror.ErrCodeBadRequest, "файл не может быть пустым")
	}
	if in.Size > s.files.MaxUploadBytes() {
		return apperror.New(apperror.ErrCodeBadRequest,
			fmt.Sprintf("размер файла превышает лимит %d МБ", s.files.MaxUploadBytes()/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	expectedMime, ok := allowedAttachmentTypes[ext]
	if !ok {
		return apperror.New(apperror.ErrCodeBadRequest,
			fmt.Sprintf("неподдерживаемый формат файла. Разрешены: %s", strings.Join(allowedExtensionList(), ", ")))
	}

	// Заявленный клиентом тип должен совпадать с ожидаемым для расширения.
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0]))
	if declared != "" && declared != expectedMime {
		// image/jpg встречается у клиентов как синоним image/jpeg.
		if !(declared == "image/jpg" && expectedMime == "image/jpeg") {
			return apperror.New(apperror.ErrCodeBadRequest,
				fmt.Sprintf("заявленный тип файла (%s) не соответствует расширению %s", declared, ext))
		}
	}

	// Магические байты: читаем заголовок и сравниваем реальный тип.
	buffer := make([]byte, magicHeaderBytes)
	n, err := io.ReadFull(in.Reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return apperror.New(apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil {
		return apperror.New(apperror.ErrCodeBadRequest, "не удалось определить тип файла")
	}

	if wantKind, checked := magicCheckedExtensions[ext]; checked {
		if kind == filetype.Unknown || kind.Extension != wantKind {
			return apperror.New(apperror.ErrCodeBadRequest,
				fmt.Sprintf("содержимое файла не соответствует расширению %s", ext))
		}
	} else if kind != filetype.Unknown {
		// Текстовый файл не должен содержать бинарную сигнатуру.
		return apperror.New(apperror.ErrCodeBadRequest, "содержимое файла не является текстом")
	}

	return nil
}

// allowedExtensionList возвращает отсортированный список разрешённых расширений.
func allowedExtensionList() []string {
	exts := make([]string, 0, len(allowedAttachmentTypes))
	for ext := range allowedAttachmentTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
