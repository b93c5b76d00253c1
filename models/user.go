package models

type UserAccount struct {
	JsonModel
	Name        string   `json:"name"`
	Email       string   `json:"email" gorm:"index"`
	Banned      bool     `gorm:"default:false" json:"-"`
	LastIp      string   `json:"-"`
	GoogleID    string   `json:"-" gorm:"index"`
	AppleID     string   `json:"-" gorm:"index"`
	FirebaseUID string   `json:"-" gorm:"index"`
	Platform    Platform `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	AvatarURL   string   `json:"avatar_url"`
	// bumped on sign out, tokens carrying an older version are rejected
	TokenVersion uint `gorm:"default:0" json:"-"`
}

func (u UserAccount) Providers() []string {
	providers := []string{}
	if u.GoogleID != "" {
		providers = append(providers, "google")
	}
	if u.AppleID != "" {
		providers = append(providers, "apple")
	}
	if u.FirebaseUID != "" {
		providers = append(providers, "firebase")
	}
	return providers
}
