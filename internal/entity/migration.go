package entity

import "time"

// Migration records the schema versions already applied by the versioned
// migration runner.
type Migration struct {
	Version   string `gorm:"primaryKey"`
	CreatedAt time.Time
}
