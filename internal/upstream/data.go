package upstream

import (
	"context"
	"net/http"
	"time"
)

// Auth — параметры авторизации запроса к Data API, привязанные к настройке.
type Auth struct {
	Token  string
	Locale string
}

// GenericEntity — предмет/жидкость/рецепт с переведённой подписью.
type GenericEntity struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// RecipeItem — ингредиент или продукт рецепта.
type RecipeItem struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Recipe — рецепт с переведёнными подписями.
type Recipe struct {
	Name         string       `json:"name"`
	Label        string       `json:"label"`
	Mode         string       `json:"mode,omitempty"`
	CraftingTime float64      `json:"craftingTime"`
	Ingredients  []RecipeItem `json:"ingredients"`
	Products     []RecipeItem `json:"products"`
}

// Machine — машина, способная крафтить рецепт.
type Machine struct {
	Name                     string  `json:"name"`
	Label                    string  `json:"label"`
	CraftingSpeed            float64 `json:"craftingSpeed"`
	NumberOfItemSlots        uint    `json:"numberOfItemSlots"`
	NumberOfFluidInputSlots  uint    `json:"numberOfFluidInputSlots"`
	NumberOfFluidOutputSlots uint    `json:"numberOfFluidOutputSlots"`
}

// SearchResultSet — страница результатов поиска.
type SearchResultSet struct {
	Results              []GenericEntity `json:"results"`
	TotalNumberOfResults uint            `json:"totalNumberOfResults"`
}

// ItemRecipesResult — рецепты, в которых участвует предмет.
type ItemRecipesResult struct {
	Item                 GenericEntity `json:"item"`
	Recipes              []Recipe      `json:"recipes"`
	TotalNumberOfResults uint          `json:"totalNumberOfResults"`
}

// MachinesResult — машины рецепта.
type MachinesResult struct {
	Machines             []Machine `json:"machines"`
	TotalNumberOfResults uint      `json:"totalNumberOfResults"`
}

// EntityRef — запрос подписи для конкретной сущности.
type EntityRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// DataClient — клиент Data API (предметы, рецепты, поиск, машины).
// Все вызовы параметризованы локалью и токеном настройки; 401/403 от
// upstream различимы через ErrInvalidAuthToken.
type DataClient interface {
	// Authenticate выпускает токен авторизации для комбинации.
	Authenticate(ctx context.Context, combinationID string, modNames []string) (string, error)

	// Search ищет сущности по строке запроса.
	Search(ctx context.Context, auth Auth, query string, first, count uint) (*SearchResultSet, error)

	// ItemIngredients возвращает рецепты, потребляющие предмет.
	ItemIngredients(ctx context.Context, auth Auth, entityType, name string, first, count uint) (*ItemRecipesResult, error)

	// ItemProducts возвращает рецепты, производящие предмет.
	ItemProducts(ctx context.Context, auth Auth, entityType, name string, first, count uint) (*ItemRecipesResult, error)

	// RecipeDetails возвращает детали рецептов по именам.
	RecipeDetails(ctx context.Context, auth Auth, names ...string) ([]Recipe, error)

	// RecipeMachines возвращает машины, способные крафтить рецепт.
	RecipeMachines(ctx context.Context, auth Auth, name string, first, count uint) (*MachinesResult, error)

	// Metadata возвращает актуальные подписи сущностей; используется для
	// обновления закэшированных подписей сайдбара.
	Metadata(ctx context.Context, auth Auth, refs []EntityRef) ([]GenericEntity, error)
}

type httpDataClient struct {
	baseURL string
	hc      *http.Client
}

// NewDataClient создаёт HTTP-клиент Data API с таймаутом на запрос.
func NewDataClient(baseURL string, timeout time.Duration) DataClient {
	return &httpDataClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *httpDataClient) headers(auth Auth) map[string]string {
	return map[string]string{
		"Authorization":   "Bearer " + auth.Token,
		"Accept-Language": auth.Locale,
	}
}

func (c *httpDataClient) Authenticate(ctx context.Context, combinationID string, modNames []string) (string, error) {
	in := struct {
		CombinationID string   `json:"combinationId"`
		ModNames      []string `json:"modNames"`
	}{CombinationID: combinationID, ModNames: modNames}
	var out struct {
		AuthorizationToken string `json:"authorizationToken"`
	}
	if err := postJSON(ctx, c.hc, "data.auth", c.baseURL+"/auth", nil, in, &out); err != nil {
		return "", err
	}
	return out.AuthorizationToken, nil
}

func (c *httpDataClient) Search(ctx context.Context, auth Auth, query string, first, count uint) (*SearchResultSet, error) {
	in := struct {
		Query              string `json:"query"`
		IndexOfFirstResult uint   `json:"indexOfFirstResult"`
		NumberOfResults    uint   `json:"numberOfResults"`
	}{Query: query, IndexOfFirstResult: first, NumberOfResults: count}
	var out SearchResultSet
	if err := postJSON(ctx, c.hc, "data.search", c.baseURL+"/search/query", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type itemRecipesRequest struct {
	Type               string `json:"type"`
	Name               string `json:"name"`
	IndexOfFirstResult uint   `json:"indexOfFirstResult"`
	NumberOfResults    uint   `json:"numberOfResults"`
}

func (c *httpDataClient) ItemIngredients(ctx context.Context, auth Auth, entityType, name string, first, count uint) (*ItemRecipesResult, error) {
	var out ItemRecipesResult
	in := itemRecipesRequest{Type: entityType, Name: name, IndexOfFirstResult: first, NumberOfResults: count}
	if err := postJSON(ctx, c.hc, "data.item.ingredients", c.baseURL+"/item/ingredients", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpDataClient) ItemProducts(ctx context.Context, auth Auth, entityType, name string, first, count uint) (*ItemRecipesResult, error) {
	var out ItemRecipesResult
	in := itemRecipesRequest{Type: entityType, Name: name, IndexOfFirstResult: first, NumberOfResults: count}
	if err := postJSON(ctx, c.hc, "data.item.products", c.baseURL+"/item/products", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpDataClient) RecipeDetails(ctx context.Context, auth Auth, names ...string) ([]Recipe, error) {
	in := struct {
		Names []string `json:"names"`
	}{Names: names}
	var out struct {
		Recipes []Recipe `json:"recipes"`
	}
	if err := postJSON(ctx, c.hc, "data.recipe.details", c.baseURL+"/recipe/details", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return out.Recipes, nil
}

func (c *httpDataClient) RecipeMachines(ctx context.Context, auth Auth, name string, first, count uint) (*MachinesResult, error) {
	in := struct {
		Name               string `json:"name"`
		IndexOfFirstResult uint   `json:"indexOfFirstResult"`
		NumberOfResults    uint   `json:"numberOfResults"`
	}{Name: name, IndexOfFirstResult: first, NumberOfResults: count}
	var out MachinesResult
	if err := postJSON(ctx, c.hc, "data.recipe.machines", c.baseURL+"/recipe/machines", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpDataClient) Metadata(ctx context.Context, auth Auth, refs []EntityRef) ([]GenericEntity, error) {
	in := struct {
		Entities []EntityRef `json:"entities"`
	}{Entities: refs}
	var out struct {
		Entities []GenericEntity `json:"entities"`
	}
	if err := postJSON(ctx, c.hc, "data.generic.details", c.baseURL+"/generic/details", c.headers(auth), in, &out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}
