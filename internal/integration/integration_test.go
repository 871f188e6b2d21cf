package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

// startServer serves the full application on a random local port
func startServer(t *testing.T, db *gorm.DB) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	engine, err := router.SetupRouter(router.Dependencies{
		DB:            db,
		Auth:          service.NewAuthService(db, "secret", time.Hour, nil, log),
		Users:         service.NewUserService(db, log),
		Catalog:       service.NewCatalogService(db, log),
		Recipes:       service.NewRecipeService(db, service.NewImageService(service.NewLocalStore(t.TempDir(), "/media"), log), log),
		RecipeLimiter: middleware.NewRecipeCreationLimiter(nil, 30),
		PageSize:      6,
		Log:           log,
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	srv := server.New(&config.Config{ServerHost: "127.0.0.1", ServerPort: "0"}, engine, log)
	go func() {
		if err := srv.Serve(ln); err != nil {
			t.Errorf("server stopped: %v", err)
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return "http://" + ln.Addr().String()
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body interface{}, want int) []byte {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		c.t.Fatalf("%s %s: got %d, want %d: %s", method, path, resp.StatusCode, want, data)
	}
	return data
}

func (c *client) decode(data []byte, out interface{}) {
	c.t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		c.t.Fatalf("failed to decode response %s: %v", data, err)
	}
}

func (c *client) login(email, password string) {
	c.t.Helper()
	var resp struct {
		AuthToken string `json:"auth_token"`
	}
	c.decode(c.do(http.MethodPost, "/api/auth/token/login", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK), &resp)
	if resp.AuthToken == "" {
		c.t.Fatalf("no token from login")
	}
	c.token = resp.AuthToken
}

func register(c *client, username string) uint {
	c.t.Helper()
	var user struct {
		ID uint `json:"id"`
	}
	c.decode(c.do(http.MethodPost, "/api/users", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  username,
		"password":   "password123",
	}, http.StatusCreated), &user)
	return user.ID
}

func runShoppingFlow(t *testing.T, db *gorm.DB) {
	base := startServer(t, db)
	lunch := testhelpers.CreateTestTag(t, db, "lunch")
	flour := testhelpers.CreateTestIngredient(t, db, "flour", "g")
	eggs := testhelpers.CreateTestIngredient(t, db, "eggs", "pcs")

	author := &client{t: t, base: base}
	authorID := register(author, "author")
	author.login("author@example.com", "password123")

	reader := &client{t: t, base: base}
	register(reader, "reader")
	reader.login("reader@example.com", "password123")

	var ids []uint
	for i, amount := range []int{100, 250} {
		var recipe struct {
			ID uint `json:"id"`
		}
		author.decode(author.do(http.MethodPost, "/api/recipes", map[string]interface{}{
			"ingredients": []map[string]interface{}{
				{"id": flour.ID, "amount": amount},
				{"id": eggs.ID, "amount": 1},
			},
			"tags":         []uint{lunch.ID},
			"image":        "dish.jpg",
			"name":         fmt.Sprintf("Dish %d", i+1),
			"text":         "Cook it.",
			"cooking_time": 30,
		}, http.StatusCreated), &recipe)
		ids = append(ids, recipe.ID)
	}

	reader.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe?recipes_limit=1", authorID), nil, http.StatusCreated)
	for _, id := range ids {
		reader.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), nil, http.StatusCreated)
		reader.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", id), nil, http.StatusCreated)
	}
	reader.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", ids[0]), nil, http.StatusConflict)

	var page struct {
		Count   int64 `json:"count"`
		Results []struct {
			ID               uint `json:"id"`
			IsFavorited      bool `json:"is_favorited"`
			IsInShoppingCart bool `json:"is_in_shopping_cart"`
			Author           struct {
				IsSubscribed bool `json:"is_subscribed"`
			} `json:"author"`
		} `json:"results"`
	}
	reader.decode(reader.do(http.MethodGet, "/api/recipes?is_in_shopping_cart=1&tags=lunch", nil, http.StatusOK), &page)
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("expected 2 recipes in cart, got %d", page.Count)
	}
	for _, r := range page.Results {
		if !r.IsFavorited || !r.IsInShoppingCart || !r.Author.IsSubscribed {
			t.Fatalf("recipe %d not annotated for the reader", r.ID)
		}
	}

	list := string(reader.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil, http.StatusOK))
	if want := "Shopping list:\neggs - 2pcs\nflour - 350g"; list != want {
		t.Fatalf("unexpected shopping list:\n%s\nwant:\n%s", list, want)
	}

	reader.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", ids[0]), nil, http.StatusForbidden)
	author.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", ids[0]), nil, http.StatusNoContent)

	list = string(reader.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil, http.StatusOK))
	if !strings.HasSuffix(list, "flour - 250g") {
		t.Fatalf("deleted recipe still in shopping list:\n%s", list)
	}

	reader.do(http.MethodPost, "/api/auth/token/logout", nil, http.StatusNoContent)
}

func TestIntegrationShoppingFlow(t *testing.T) {
	runShoppingFlow(t, testhelpers.NewTestDB(t))
}

func TestIntegrationShoppingFlowPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	runShoppingFlow(t, testhelpers.SetupPostgresDB(t))
}
