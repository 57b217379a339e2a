package model

import "time"

// Режимы рецептов.
const (
	RecipeModeHybrid    = "hybrid"
	RecipeModeNormal    = "normal"
	RecipeModeExpensive = "expensive"
)

// DefaultRecipeMode — режим рецептов по умолчанию для новых настроек.
const DefaultRecipeMode = RecipeModeHybrid

// DefaultSettingName — имя автоматически созданной настройки.
const DefaultSettingName = "Vanilla"

// Setting — именованная конфигурация пользователя, привязанная к одной комбинации.
// Пара (UserID, CombinationID) уникальна: на одну комбинацию у пользователя
// не бывает двух настроек.
type Setting struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	UserID        string `gorm:"not null;type:uuid;uniqueIndex:idx_settings_user_combination"`
	CombinationID string `gorm:"not null;type:uuid;uniqueIndex:idx_settings_user_combination"`

	Combination Combination `gorm:"constraint:OnUpdate:CASCADE"`

	Name       string `gorm:"not null"`
	Locale     string `gorm:"not null;default:en"`
	RecipeMode string `gorm:"not null;default:hybrid"`

	// APIToken — непрозрачный токен авторизации Data API; ротируется,
	// сбрасывается при смене доступности данных.
	APIToken string

	// HasData — локальный кэш «статус комбинации == available» на момент
	// последней сверки.
	HasData bool `gorm:"not null;default:false"`

	// IsTemporary — настройка создана сессией и ещё не сохранена пользователем;
	// подлежит чистке по неактивности.
	IsTemporary   bool `gorm:"not null;default:false"`
	LastUsageTime time.Time

	SidebarEntities []SidebarEntity `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsValidRecipeMode проверяет значение режима рецептов из недоверенного входа.
func IsValidRecipeMode(mode string) bool {
	switch mode {
	case RecipeModeHybrid, RecipeModeNormal, RecipeModeExpensive:
		return true
	}
	return false
}
