package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/fruitshop-backend/api/middleware"
	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	product "github.com/angelmondragon/fruitshop-backend/internal/products"
	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	"github.com/angelmondragon/fruitshop-backend/pkg/db"
	"github.com/angelmondragon/fruitshop-backend/pkg/db/models"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
	"github.com/angelmondragon/fruitshop-backend/pkg/storage/local"
)

type memorySessionStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memorySessionStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memorySessionStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memorySessionStore) SessionKey(id string) string { return "session:" + id }

type testEnv struct {
	conn     *gorm.DB
	products product.Service
	repo     *product.Repository
	carts    cart.Service
	sessions *session.Manager
	auth     auth.Service
	register auth.RegisterService
	hasher   *security.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(db.SQLiteDialector(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.User{}))

	images, err := local.New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), PublicBaseURL: "/media"})
	require.NoError(t, err)

	repo := product.NewRepository(conn)
	products, err := product.NewService(repo, images, 8, nil)
	require.NoError(t, err)
	carts, err := cart.NewService(products, nil)
	require.NoError(t, err)
	sessions, err := session.NewManagerWithStore(&memorySessionStore{data: map[string]string{}}, time.Hour)
	require.NoError(t, err)

	hasher := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16})
	authSvc, err := auth.NewService(auth.ServiceParams{UserRepo: users.NewRepository(conn), Hasher: hasher})
	require.NoError(t, err)
	register, err := auth.NewRegisterService(auth.RegisterServiceParams{TxRunner: db.NewFromGorm(conn), Hasher: hasher})
	require.NoError(t, err)

	return &testEnv{
		conn:     conn,
		products: products,
		repo:     repo,
		carts:    carts,
		sessions: sessions,
		auth:     authSvc,
		register: register,
		hasher:   hasher,
	}
}

func (e *testEnv) createProduct(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " description", Price: decimal.RequireFromString(price)}
	require.NoError(t, e.repo.Create(context.Background(), p))
	return p
}

// serve runs handler with sess attached and optional chi route params.
func serve(handler http.Handler, req *http.Request, sess *session.Session, params map[string]string) *httptest.ResponseRecorder {
	ctx := req.Context()
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func idParam(id uint) map[string]string {
	return map[string]string{"id": fmt.Sprint(id)}
}
