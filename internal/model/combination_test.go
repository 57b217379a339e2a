package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinationIDForModNames_OrderIndependent(t *testing.T) {
	a := CombinationIDForModNames([]string{"bobores", "angelssmelting", "flib"})
	b := CombinationIDForModNames([]string{"flib", "bobores", "angelssmelting"})
	assert.Equal(t, a, b, "set-equal mod lists must map to one combination id")
}

func TestCombinationIDForModNames_DuplicatesAndSpaces(t *testing.T) {
	a := CombinationIDForModNames([]string{"base", "base", " base "})
	b := CombinationIDForModNames([]string{"base"})
	assert.Equal(t, a, b)

	// разные множества — разные id
	c := CombinationIDForModNames([]string{"base", "flib"})
	assert.NotEqual(t, a, c)
}

func TestNewCombination_Defaults(t *testing.T) {
	c := NewCombination([]string{"krastorio2", "flib"})
	assert.Equal(t, CombinationStatusUnknown, c.Status)
	assert.Equal(t, ModNameList{"flib", "krastorio2"}, c.ModNames)
	assert.Nil(t, c.ExportTime)
	assert.Nil(t, c.LastCheckTime)
	assert.Equal(t, CombinationIDForModNames([]string{"flib", "krastorio2"}), c.ID)
}

func TestNewCombination_EmptyListIsBaseGame(t *testing.T) {
	// пустой список модов — базовая игра; id стабилен между вызовами
	a := NewCombination(nil)
	b := NewCombination([]string{})
	assert.Equal(t, a.ID, b.ID)
	assert.Empty(t, a.ModNames)
}

func TestUser_CurrentSetting(t *testing.T) {
	u := &User{ID: "u1"}
	assert.Nil(t, u.CurrentSetting())

	id := "s2"
	u.Settings = []Setting{{ID: "s1"}, {ID: "s2"}}
	u.CurrentSettingID = &id
	cur := u.CurrentSetting()
	if assert.NotNil(t, cur) {
		assert.Equal(t, "s2", cur.ID)
	}

	// указатель на чужую настройку не резолвится
	other := "missing"
	u.CurrentSettingID = &other
	assert.Nil(t, u.CurrentSetting())
}
