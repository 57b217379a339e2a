package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"PortalAPI/internal/model"
	"PortalAPI/internal/upstream"
)

// newTestDB инициализирует in-memory SQLite для тестов сервисов.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := db.AutoMigrate(&model.Combination{}, &model.User{}, &model.Setting{}, &model.SidebarEntity{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// stubCombinationClient — управляемый клиент Combination API для тестов.
type stubCombinationClient struct {
	status      *upstream.CombinationStatus
	statusErr   error
	statusCalls int

	exportErr   error
	exportCalls int
}

func (c *stubCombinationClient) Status(_ context.Context, _ []string) (*upstream.CombinationStatus, error) {
	c.statusCalls++
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	return c.status, nil
}

func (c *stubCombinationClient) TriggerExport(_ context.Context, _ []string) error {
	c.exportCalls++
	return c.exportErr
}

// stubDataClient — управляемый клиент Data API для тестов.
type stubDataClient struct {
	token         string
	authErr       error
	authCalls     int
	metadata      []upstream.GenericEntity
	metadataErr   error
	metadataCalls int
}

func (c *stubDataClient) Authenticate(_ context.Context, _ string, _ []string) (string, error) {
	c.authCalls++
	if c.authErr != nil {
		return "", c.authErr
	}
	return c.token, nil
}

func (c *stubDataClient) Search(_ context.Context, _ upstream.Auth, _ string, _, _ uint) (*upstream.SearchResultSet, error) {
	return &upstream.SearchResultSet{}, nil
}

func (c *stubDataClient) ItemIngredients(_ context.Context, _ upstream.Auth, _, _ string, _, _ uint) (*upstream.ItemRecipesResult, error) {
	return &upstream.ItemRecipesResult{}, nil
}

func (c *stubDataClient) ItemProducts(_ context.Context, _ upstream.Auth, _, _ string, _, _ uint) (*upstream.ItemRecipesResult, error) {
	return &upstream.ItemRecipesResult{}, nil
}

func (c *stubDataClient) RecipeDetails(_ context.Context, _ upstream.Auth, _ ...string) ([]upstream.Recipe, error) {
	return nil, nil
}

func (c *stubDataClient) RecipeMachines(_ context.Context, _ upstream.Auth, _ string, _, _ uint) (*upstream.MachinesResult, error) {
	return &upstream.MachinesResult{}, nil
}

func (c *stubDataClient) Metadata(_ context.Context, _ upstream.Auth, _ []upstream.EntityRef) ([]upstream.GenericEntity, error) {
	c.metadataCalls++
	if c.metadataErr != nil {
		return nil, c.metadataErr
	}
	return c.metadata, nil
}
