package model

import "time"

// UploadedFile is the metadata row for one stored file.
type UploadedFile struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	Filename         string `json:"filename" gorm:"type:varchar(255);uniqueIndex:ux_files_filename;not null"`
	OriginalFilename string `json:"original_filename" gorm:"type:varchar(255);not null"`
	FilePath         string `json:"-" gorm:"type:varchar(512);not null"`
	FileSize         int64  `json:"file_size" gorm:"not null"`
	ContentType      string `json:"content_type" gorm:"type:varchar(128);not null"`

	FileCategory string `json:"file_category" gorm:"type:varchar(32);index:idx_files_category"`
	Tags         string `json:"tags" gorm:"type:varchar(512)"`
	Description  string `json:"description" gorm:"type:text"`

	IsPublic      bool `json:"is_public" gorm:"not null;default:false;index:idx_files_public"`
	IsAIGenerated bool `json:"is_ai_generated" gorm:"not null;default:false"`

	RelatedCreatorID *uint `json:"related_creator_id" gorm:"index:idx_files_creator"`

	UploadedBy    uint       `json:"uploaded_by" gorm:"index:idx_files_uploader;not null"`
	UploadDate    time.Time  `json:"upload_date" gorm:"autoCreateTime;index:idx_files_date"`
	LastAccessed  *time.Time `json:"last_accessed"`
	DownloadCount int64      `json:"download_count" gorm:"not null;default:0"`
}

func (UploadedFile) TableName() string { return "uploaded_files" }
