package model

import "time"

// DefaultLocale используется для новых пользователей и настроек.
const DefaultLocale = "en"

// User — владелец настроек. Создаётся при первом контакте без валидной сессии
// и никогда не удаляется этим ядром поштучно (только массовой чисткой).
type User struct {
	ID               string `gorm:"primaryKey;type:uuid"`
	Locale           string `gorm:"not null;default:en"`
	LastVisitTime    time.Time
	CurrentSettingID *string   `gorm:"type:uuid"`
	Settings         []Setting `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CurrentSetting возвращает активную настройку из загруженной коллекции.
// Инвариант: указатель всегда ссылается на настройку этого же пользователя.
func (u *User) CurrentSetting() *Setting {
	if u.CurrentSettingID == nil {
		return nil
	}
	for i := range u.Settings {
		if u.Settings[i].ID == *u.CurrentSettingID {
			return &u.Settings[i]
		}
	}
	return nil
}

// SettingForCombination ищет настройку пользователя по id комбинации.
func (u *User) SettingForCombination(combinationID string) *Setting {
	for i := range u.Settings {
		if u.Settings[i].CombinationID == combinationID {
			return &u.Settings[i]
		}
	}
	return nil
}
