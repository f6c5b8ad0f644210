package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/pkg/apperror"
	"github.com/ignatzorin/incident-backend/internal/repository"
)

// mockReportStore реализует ReportStore для тестов.
type mockReportStore struct {
	nextID  int64
	reports map[int64]*models.Report
	owners  map[int64]*models.User
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{
		nextID:  1,
		reports: make(map[int64]*models.Report),
		owners:  make(map[int64]*models.User),
	}
}

func (m *mockReportStore) Create(ctx context.Context, report *models.Report) error {
	report.ID = m.nextID
	m.nextID++
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}
	clone := *report
	m.reports[report.ID] = &clone
	return nil
}

func (m *mockReportStore) ListByOwner(ctx context.Context, ownerID int64) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.reports {
		if r.UserID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListAllWithOwner(ctx context.Context) ([]models.ReportWithOwner, error) {
	var out []models.ReportWithOwner
	for _, r := range m.reports {
		item := models.ReportWithOwner{Report: *r}
		if owner, ok := m.owners[r.UserID]; ok {
			item.OwnerFirstName = owner.FirstName
			item.OwnerLastName = owner.LastName
			item.OwnerEmail = owner.Email
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	if r, ok := m.reports[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, repository.ErrReportNotFound
}

func (m *mockReportStore) GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Report, error) {
	if r, ok := m.reports[id]; ok && r.UserID == ownerID {
		clone := *r
		return &clone, nil
	}
	return nil, repository.ErrReportNotFound
}

func (m *mockReportStore) GetWithOwner(ctx context.Context, id int64) (*models.ReportWithOwner, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	item := models.ReportWithOwner{Report: *r}
	if owner, ok := m.owners[r.UserID]; ok {
		item.OwnerFirstName = owner.FirstName
		item.OwnerLastName = owner.LastName
		item.OwnerEmail = owner.Email
	}
	return &item, nil
}

func (m *mockReportStore) UpdateFields(ctx context.Context, report *models.Report, ownerID *int64) error {
	existing, ok := m.reports[report.ID]
	if !ok {
		return repository.ErrReportNotFound
	}
	if ownerID != nil && existing.UserID != *ownerID {
		return repository.ErrReportNotFound
	}
	existing.IncidentDate = report.IncidentDate
	existing.IncidentTime = report.IncidentTime
	existing.Location = report.Location
	if report.SubmissionDate != "" {
		existing.SubmissionDate = report.SubmissionDate
	}
	existing.IncidentType = report.IncidentType
	existing.Description = report.Description
	existing.Witnesses = report.Witnesses
	report.UserID = existing.UserID
	report.SubmissionDate = existing.SubmissionDate
	report.Status = existing.Status
	report.AdminComment = existing.AdminComment
	return nil
}

func (m *mockReportStore) SetStatus(ctx context.Context, id int64, status string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	r.Status = status
	clone := *r
	return &clone, nil
}

func (m *mockReportStore) SetComment(ctx context.Context, id int64, comment string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	r.AdminComment = &comment
	clone := *r
	return &clone, nil
}

func (m *mockReportStore) Delete(ctx context.Context, id int64, ownerID *int64) error {
	r, ok := m.reports[id]
	if !ok {
		return repository.ErrReportNotFound
	}
	if ownerID != nil && r.UserID != *ownerID {
		return repository.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

// mockAttachmentPaths отдаёт фиксированные имена файлов по обращению.
type mockAttachmentPaths struct {
	paths map[int64][]string
}

func (m *mockAttachmentPaths) ListPathsByReport(ctx context.Context, reportID int64) ([]string, error) {
	return m.paths[reportID], nil
}

// mockFileRemover запоминает удалённые файлы.
type mockFileRemover struct {
	removed []string
	failOn  string
}

func (m *mockFileRemover) Delete(ctx context.Context, fileName string) error {
	if fileName == m.failOn && m.failOn != "" {
		return errors.New("диск недоступен")
	}
	m.removed = append(m.removed, fileName)
	return nil
}

func validReportInput() ReportInput {
	return ReportInput{
		IncidentDate: "2026-02-10",
		IncidentTime: "14:30",
		Location:     "библиотека, второй этаж",
		IncidentType: models.IncidentTypeVerbal,
		Description:  "подробное описание инцидента для теста",
	}
}

func newTestReportService(store *mockReportStore, paths *mockAttachmentPaths, files *mockFileRemover) *ReportService {
	if paths == nil {
		paths = &mockAttachmentPaths{paths: make(map[int64][]string)}
	}
	if files == nil {
		files = &mockFileRemover{}
	}
	return NewReportService(store, paths, files)
}

func TestReportService_CreateDefaults(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	report, err := service.Create(context.Background(), 5, validReportInput())
	if err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	if report.ID == 0 {
		t.Fatalf("идентификатор должен быть установлен")
	}
	if report.UserID != 5 {
		t.Fatalf("владельцем должен быть вызывающий")
	}
	if report.Status != models.ReportStatusPending {
		t.Fatalf("новое обращение должно иметь статус pending, получили %s", report.Status)
	}
	if report.SubmissionDate != time.Now().Format("2006-01-02") {
		t.Fatalf("дата подачи по умолчанию — сегодня, получили %s", report.SubmissionDate)
	}
	if report.Attachments == nil {
		t.Fatalf("список вложений не должен быть nil")
	}
}

func TestReportService_CreateRejectsInvalidInput(t *testing.T) {
	service := newTestReportService(newMockReportStore(), nil, nil)

	cases := []struct {
		name   string
		mutate func(*ReportInput)
	}{
		{"дата", func(in *ReportInput) { in.IncidentDate = "10.02.2026" }},
		{"время", func(in *ReportInput) { in.IncidentTime = "half past two" }},
		{"место", func(in *ReportInput) { in.Location = "  " }},
		{"тип", func(in *ReportInput) { in.IncidentType = "unknown" }},
		{"описание", func(in *ReportInput) { in.Description = "коротко" }},
	}

	for _, tc := range cases {
		in := validReportInput()
		tc.mutate(&in)
		if _, err := service.Create(context.Background(), 1, in); !apperror.IsValidation(err) {
			t.Fatalf("%s: ожидалась ошибка валидации, получили %v", tc.name, err)
		}
	}
}

func TestReportService_GetOwnershipIndistinguishable(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	report, err := service.Create(ctx, 1, validReportInput())
	if err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	owner := models.Caller{UserID: 1, Role: models.RoleUser}
	stranger := models.Caller{UserID: 2, Role: models.RoleUser}
	admin := models.Caller{UserID: 3, Role: models.RoleAdmin}

	if _, err := service.Get(ctx, report.ID, owner); err != nil {
		t.Fatalf("владелец должен видеть своё обращение: %v", err)
	}
	if _, err := service.Get(ctx, report.ID, admin); err != nil {
		t.Fatalf("администратор должен видеть любое обращение: %v", err)
	}

	// Чужое обращение и отсутствующее дают один и тот же ответ.
	errStranger := func() error { _, err := service.Get(ctx, report.ID, stranger); return err }()
	errMissing := func() error { _, err := service.Get(ctx, 9999, stranger); return err }()
	if !apperror.IsNotFound(errStranger) || !apperror.IsNotFound(errMissing) {
		t.Fatalf("ожидался not found, получили %v и %v", errStranger, errMissing)
	}
	if errStranger.Error() != errMissing.Error() {
		t.Fatalf("чужое и отсутствующее обращения должны быть неразличимы")
	}
}

func TestReportService_UpdateScopedToOwner(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	report, err := service.Create(ctx, 1, validReportInput())
	if err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	in := validReportInput()
	in.Location = "общежитие, корпус B"

	if _, err := service.Update(ctx, report.ID, models.Caller{UserID: 2, Role: models.RoleUser}, in); !apperror.IsNotFound(err) {
		t.Fatalf("чужое обращение нельзя редактировать, получили %v", err)
	}

	updated, err := service.Update(ctx, report.ID, models.Caller{UserID: 1, Role: models.RoleUser}, in)
	if err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}
	if updated.Location != "общежитие, корпус B" {
		t.Fatalf("место не обновилось")
	}
	if updated.Status != models.ReportStatusPending {
		t.Fatalf("владелец не должен менять статус через update")
	}

	if _, err := service.Update(ctx, report.ID, models.Caller{UserID: 9, Role: models.RoleAdmin}, in); err != nil {
		t.Fatalf("администратор может редактировать любое обращение: %v", err)
	}
}

func TestReportService_UpdatePreservesSubmissionDate(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	in := validReportInput()
	in.SubmissionDate = "2026-01-15"
	report, err := service.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	owner := models.Caller{UserID: 1, Role: models.RoleUser}

	// Редактирование без даты подачи не трогает хранимую дату.
	edit := validReportInput()
	edit.Description = "обновлённое описание инцидента для теста"
	updated, err := service.Update(ctx, report.ID, owner, edit)
	if err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}
	if updated.SubmissionDate != "2026-01-15" {
		t.Fatalf("дата подачи должна сохраняться, получили %s", updated.SubmissionDate)
	}

	// Явная дата по-прежнему перезаписывает хранимую.
	edit.SubmissionDate = "2026-02-01"
	updated, err = service.Update(ctx, report.ID, owner, edit)
	if err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}
	if updated.SubmissionDate != "2026-02-01" {
		t.Fatalf("явная дата подачи должна применяться, получили %s", updated.SubmissionDate)
	}
}

func TestReportService_SetStatus(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	report, _ := service.Create(ctx, 1, validReportInput())
	admin := models.Caller{UserID: 9, Role: models.RoleAdmin}

	if _, err := service.SetStatus(ctx, report.ID, models.Caller{UserID: 1, Role: models.RoleUser}, models.ReportStatusResolved); !apperror.IsForbidden(err) {
		t.Fatalf("не-администратору статус недоступен, получили %v", err)
	}

	if _, err := service.SetStatus(ctx, report.ID, admin, "done"); !apperror.IsValidation(err) {
		t.Fatalf("статус вне перечисления должен отклоняться, получили %v", err)
	}

	updated, err := service.SetStatus(ctx, report.ID, admin, models.ReportStatusInProgress)
	if err != nil {
		t.Fatalf("set status вернул ошибку: %v", err)
	}
	if updated.Status != models.ReportStatusInProgress {
		t.Fatalf("статус не обновился")
	}

	if _, err := service.SetStatus(ctx, 9999, admin, models.ReportStatusResolved); !apperror.IsNotFound(err) {
		t.Fatalf("отсутствующее обращение должно давать not found, получили %v", err)
	}
}

func TestReportService_SetComment(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	report, _ := service.Create(ctx, 1, validReportInput())
	admin := models.Caller{UserID: 9, Role: models.RoleAdmin}

	if _, err := service.SetComment(ctx, report.ID, models.Caller{UserID: 1, Role: models.RoleUser}, "комментарий"); !apperror.IsForbidden(err) {
		t.Fatalf("не-администратору комментарий недоступен, получили %v", err)
	}

	if _, err := service.SetComment(ctx, report.ID, admin, "   "); err == nil {
		t.Fatalf("пустой комментарий должен отклоняться")
	}

	updated, err := service.SetComment(ctx, report.ID, admin, "передано в комиссию")
	if err != nil {
		t.Fatalf("set comment вернул ошибку: %v", err)
	}
	if updated.AdminComment == nil || *updated.AdminComment != "передано в комиссию" {
		t.Fatalf("комментарий не сохранился")
	}
}

func TestReportService_DeleteCascadesFiles(t *testing.T) {
	store := newMockReportStore()
	files := &mockFileRemover{}
	service := newTestReportService(store, &mockAttachmentPaths{paths: map[int64][]string{
		1: {"a.pdf", "b.png"},
	}}, files)

	ctx := context.Background()
	report, _ := service.Create(ctx, 1, validReportInput())

	if err := service.Delete(ctx, report.ID, models.Caller{UserID: 2, Role: models.RoleUser}); !apperror.IsNotFound(err) {
		t.Fatalf("чужое обращение нельзя удалить, получили %v", err)
	}

	if err := service.Delete(ctx, report.ID, models.Caller{UserID: 1, Role: models.RoleUser}); err != nil {
		t.Fatalf("delete вернул ошибку: %v", err)
	}
	if len(files.removed) != 2 {
		t.Fatalf("ожидалось удаление двух файлов, удалено %d", len(files.removed))
	}
	if _, ok := store.reports[report.ID]; ok {
		t.Fatalf("строка обращения должна быть удалена")
	}
}

func TestReportService_DeleteToleratesFileFailure(t *testing.T) {
	store := newMockReportStore()
	files := &mockFileRemover{failOn: "a.pdf"}
	service := newTestReportService(store, &mockAttachmentPaths{paths: map[int64][]string{
		1: {"a.pdf", "b.png"},
	}}, files)

	ctx := context.Background()
	report, _ := service.Create(ctx, 1, validReportInput())

	// Сбой файловой системы не откатывает удаление: авторитетна база.
	if err := service.Delete(ctx, report.ID, models.Caller{UserID: 9, Role: models.RoleAdmin}); err != nil {
		t.Fatalf("delete вернул ошибку: %v", err)
	}
	if _, ok := store.reports[report.ID]; ok {
		t.Fatalf("строка обращения должна быть удалена несмотря на сбой файлов")
	}
}

func TestReportService_ListAllAdminOnly(t *testing.T) {
	store := newMockReportStore()
	service := newTestReportService(store, nil, nil)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, validReportInput()); err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}
	if _, err := service.Create(ctx, 2, validReportInput()); err != nil {
		t.Fatalf("create вернул ошибку: %v", err)
	}

	if _, err := service.ListAll(ctx, models.Caller{UserID: 1, Role: models.RoleUser}); !apperror.IsForbidden(err) {
		t.Fatalf("полный список доступен только администратору, получили %v", err)
	}

	all, err := service.ListAll(ctx, models.Caller{UserID: 9, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("list all вернул ошибку: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ожидалось два обращения, получили %d", len(all))
	}
}
