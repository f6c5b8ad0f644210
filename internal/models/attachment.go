package models

// Attachment описывает загруженный файл, привязанный ровно к одному
// обращению. В file_path хранится только сгенерированное имя файла
// внутри каталога загрузок.
type Attachment struct {
	ID       int64  `db:"attachment_id" json:"attachment_id"`
	ReportID int64  `db:"report_id" json:"report_id"`
	FilePath string `db:"file_path" json:"file_path"`
}

// AttachmentWithOwner дополняет вложение владельцем обращения,
// чтобы проверить права на скачивание и удаление одним запросом.
type AttachmentWithOwner struct {
	Attachment
	OwnerID int64 `db:"user_id" json:"-"`
}
