package handlers

import (
	"time"

	"PortalAPI/internal/model"
)

// settingMetaDTO — настройка в ответах API.
type settingMetaDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Locale            string `json:"locale"`
	RecipeMode        string `json:"recipeMode"`
	CombinationID     string `json:"combinationId"`
	CombinationStatus string `json:"combinationStatus"`
	HasData           bool   `json:"hasData"`
	IsTemporary       bool   `json:"isTemporary"`
}

// settingDetailsDTO — настройка вместе со списком модов.
type settingDetailsDTO struct {
	settingMetaDTO
	ModNames []string `json:"modNames"`
}

// sidebarEntityDTO — закладка сайдбара на проводе.
type sidebarEntityDTO struct {
	Type           string    `json:"type"`
	Name           string    `json:"name"`
	Label          string    `json:"label"`
	PinnedPosition uint      `json:"pinnedPosition"`
	LastViewTime   time.Time `json:"lastViewTime"`
}

func mapSettingMeta(s *model.Setting) settingMetaDTO {
	return settingMetaDTO{
		ID:                s.ID,
		Name:              s.Name,
		Locale:            s.Locale,
		RecipeMode:        s.RecipeMode,
		CombinationID:     s.CombinationID,
		CombinationStatus: s.Combination.Status,
		HasData:           s.HasData,
		IsTemporary:       s.IsTemporary,
	}
}

func mapSettingDetails(s *model.Setting) settingDetailsDTO {
	return settingDetailsDTO{
		settingMetaDTO: mapSettingMeta(s),
		ModNames:       s.Combination.ModNames,
	}
}

func mapSidebarEntities(entities []model.SidebarEntity) []sidebarEntityDTO {
	out := make([]sidebarEntityDTO, 0, len(entities))
	for _, e := range entities {
		out = append(out, sidebarEntityDTO{
			Type:           e.Type,
			Name:           e.Name,
			Label:          e.Label,
			PinnedPosition: e.PinnedPosition,
			LastViewTime:   e.LastViewTime,
		})
	}
	return out
}
