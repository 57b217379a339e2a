package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Статусы выгрузки комбинации модов.
const (
	CombinationStatusUnknown   = "unknown"
	CombinationStatusPending   = "pending"
	CombinationStatusAvailable = "available"
	CombinationStatusErrored   = "errored"
)

// пространство имён для детерминированных id комбинаций (UUIDv5)
var combinationNamespace = uuid.MustParse("c10f48b9-1cf6-4aeb-9b02-ab533e4c7a1c")

// Combination — дедуплицированный набор модов с его статусом выгрузки.
// Одна и та же комбинация разделяется между настройками разных пользователей.
type Combination struct {
	ID            string      `gorm:"primaryKey;type:uuid"`
	ModNames      ModNameList `gorm:"not null"`
	Status        string      `gorm:"not null;default:unknown"`
	ExportTime    *time.Time
	LastCheckTime *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ModNameList хранится в одной колонке как JSON-массив.
type ModNameList []string

// Value сериализует список модов для записи в БД.
func (l ModNameList) Value() (driver.Value, error) {
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan читает список модов из колонки БД.
func (l *ModNameList) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported mod name list source %T", src)
	}
}

// NormalizeModNames приводит список модов к каноническому виду:
// без пустых значений и дублей, отсортирован по имени.
func NormalizeModNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CombinationIDForModNames вычисляет детерминированный id комбинации.
// Id — чистая функция от множества имён модов: два запроса с одним и тем же
// набором (в любом порядке) всегда попадают в одну комбинацию.
func CombinationIDForModNames(names []string) string {
	canonical := NormalizeModNames(names)
	return uuid.NewSHA1(combinationNamespace, []byte(strings.Join(canonical, "\n"))).String()
}

// NewCombination создаёт комбинацию в начальном статусе unknown.
func NewCombination(names []string) *Combination {
	canonical := NormalizeModNames(names)
	return &Combination{
		ID:       CombinationIDForModNames(canonical),
		ModNames: canonical,
		Status:   CombinationStatusUnknown,
	}
}
