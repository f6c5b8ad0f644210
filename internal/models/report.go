package models

// Статусы обращения. Переходы между статусами не ограничены:
// администратор может выставить любой статус из перечисления.
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in-progress"
	ReportStatusResolved   = "resolved"
)

// Типы инцидентов.
const (
	IncidentTypeVerbal   = "verbal"
	IncidentTypePhysical = "physical"
	IncidentTypeSexual   = "sexual"
	IncidentTypeCyber    = "cyber"
	IncidentTypeBullying = "bullying"
	IncidentTypeStalking = "stalking"
	IncidentTypeOther    = "other"
)

// ValidReportStatuses перечисляет допустимые статусы обращения.
var ValidReportStatuses = map[string]bool{
	ReportStatusPending:    true,
	ReportStatusInProgress: true,
	ReportStatusResolved:   true,
}

// ValidIncidentTypes перечисляет допустимые типы инцидентов.
var ValidIncidentTypes = map[string]bool{
	IncidentTypeVerbal:   true,
	IncidentTypePhysical: true,
	IncidentTypeSexual:   true,
	IncidentTypeCyber:    true,
	IncidentTypeBullying: true,
	IncidentTypeStalking: true,
	IncidentTypeOther:    true,
}

// Report описывает одно обращение об инциденте. Обращение принадлежит
// ровно одному пользователю; status и admin_comment меняет только
// администратор.
type Report struct {
	ID             int64   `db:"report_id" json:"report_id"`
	UserID         int64   `db:"user_id" json:"user_id"`
	IncidentDate   string  `db:"incident_date" json:"incident_date"`
	IncidentTime   string  `db:"incident_time" json:"incident_time"`
	Location       string  `db:"location" json:"location"`
	SubmissionDate string  `db:"submission_date" json:"submission_date"`
	IncidentType   string  `db:"incident_type" json:"incident_type"`
	Description    string  `db:"description" json:"description"`
	Witnesses      *string `db:"witnesses" json:"witnesses,omitempty"`
	Status         string  `db:"status" json:"status"`
	AdminComment   *string `db:"admin_comment" json:"admin_comment,omitempty"`

	Attachments []Attachment `db:"-" json:"attachments"`
}

// ReportWithOwner расширяет обращение данными владельца для
// административных выборок.
type ReportWithOwner struct {
	Report
	OwnerFirstName string `db:"user_first_name" json:"user_first_name"`
	OwnerLastName  string `db:"user_last_name" json:"user_last_name"`
	OwnerEmail     string `db:"user_email" json:"user_email"`
}
