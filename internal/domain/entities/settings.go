package entities

import "github.com/goccy/go-json"

// Settings are the admin dashboard preferences
type Settings struct {
	Theme                 string `json:"theme" validate:"oneof=light dark auto"`
	AutoSave              bool   `json:"autoSave"`
	ShowDescriptions      bool   `json:"showDescriptions"`
	ActivityNotifications bool   `json:"activityNotifications"`
	CompactView           bool   `json:"compactView"`
	DebugMode             bool   `json:"debugMode"`
	BackupReminder        bool   `json:"backupReminder"`
	MaxImageSize          int    `json:"maxImageSize" validate:"min=1,max=100"` // MB
	Currency              string `json:"currency" validate:"oneof=ZAR USD EUR GBP"`
	DateFormat            string `json:"dateFormat" validate:"oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
}

// DefaultSettings returns the factory settings
func DefaultSettings() Settings {
	return Settings{
		Theme:                 "light",
		AutoSave:              true,
		ShowDescriptions:      true,
		ActivityNotifications: true,
		CompactView:           false,
		DebugMode:             false,
		BackupReminder:        true,
		MaxImageSize:          25,
		Currency:              "ZAR",
		DateFormat:            "DD/MM/YYYY",
	}
}

// MergeSettings overlays a (possibly partial) JSON settings object on the defaults.
// Keys absent from raw keep their default value.
func MergeSettings(raw []byte) (Settings, error) {
	merged := DefaultSettings()
	if len(raw) == 0 {
		return merged, nil
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return DefaultSettings(), err
	}
	return merged, nil
}
