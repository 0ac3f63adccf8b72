// internal/models/page.go
package models

// Page stores the raw section list of a themed page. The list is decoded into
// typed sections by the sections package before it is served.
type Page struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Slug     string `json:"slug" gorm:"size:100;uniqueIndex"`
	Theme    string `json:"theme" gorm:"size:50"`
	Title    string `json:"title" gorm:"size:255"`
	Sections string `json:"-" gorm:"type:jsonb"`
}
