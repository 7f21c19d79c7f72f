package model

// Resume stores an uploaded document plus the plain text extracted from it.
// swagger:model
type Resume struct {
	UUIDBase
	UserID   string `gorm:"type:varchar(36);not null;index" json:"userId"`
	Filename string `gorm:"size:255;not null" json:"filename"`
	FileURL  string `gorm:"type:text;not null" json:"fileUrl"`
	Content  string `gorm:"type:longtext" json:"-"`
}
