package model

import "time"

// Типы сущностей сайдбара.
const (
	SidebarEntityTypeItem   = "item"
	SidebarEntityTypeFluid  = "fluid"
	SidebarEntityTypeRecipe = "recipe"
)

// SidebarEntity — закладка пользователя (предмет/жидкость/рецепт) внутри одной
// настройки. Уникальна по (SettingID, Type, Name); клиент присылает полный
// список, сервер сводит его diff-ом, сохраняя идентичность выживших записей.
type SidebarEntity struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SettingID string `gorm:"not null;type:uuid;uniqueIndex:idx_sidebar_identity"`
	Type      string `gorm:"not null;uniqueIndex:idx_sidebar_identity"`
	Name      string `gorm:"not null;uniqueIndex:idx_sidebar_identity"`

	// Label — закэшированный перевод имени; обновляется при смене локали
	// и при появлении данных комбинации.
	Label string

	// PinnedPosition: 0 — не закреплена, иначе позиция в закреплённом списке.
	PinnedPosition uint `gorm:"not null;default:0"`
	LastViewTime   time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsValidSidebarEntityType проверяет тип сущности из недоверенного входа.
func IsValidSidebarEntityType(t string) bool {
	switch t {
	case SidebarEntityTypeItem, SidebarEntityTypeFluid, SidebarEntityTypeRecipe:
		return true
	}
	return false
}
