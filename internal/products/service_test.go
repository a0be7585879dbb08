package product

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, make([]byte, 64)...)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Put(_ context.Context, key, _ string, body io.Reader) error {
	if m.putErr != nil {
		return m.putErr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = raw
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memoryStore) URL(key string) string { return "/media/" + key }

func newTestService(t *testing.T, images *memoryStore) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	var svc Service
	var err error
	if images == nil {
		svc, err = NewService(repo, nil, 2, nil)
	} else {
		svc, err = NewService(repo, images, 2, nil)
	}
	require.NoError(t, err)
	return svc, repo
}

func price(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestServiceListPaginatesAndClamps(t *testing.T) {
	svc, repo := newTestService(t, nil)
	for _, name := range []string{"Apple", "Banana", "Cherry", "Date", "Elderberry"} {
		mustCreateProduct(t, repo, name, "", "1.00")
	}
	ctx := context.Background()

	res, err := svc.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page.TotalPages)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Elderberry", res.Products[0].Name)

	res, err = svc.List(ctx, "", 99)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page.Number)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Apple", res.Products[0].Name)

	res, err = svc.List(ctx, "  berry ", 1)
	require.NoError(t, err)
	assert.Equal(t, "berry", res.Query)
	require.Len(t, res.Products, 1)

	res, err = svc.List(ctx, "zzz", 4)
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Equal(t, 1, res.Page.Number)
}

func TestServiceCreateValidates(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	cases := []ProductInput{
		{Name: "  ", Price: price("1.00")},
		{Name: strings.Repeat("x", 201), Price: price("1.00")},
		{Name: "Fig", Price: price("-0.01")},
		{Name: "Fig", Price: price("1.005")},
		{Name: "Fig", Price: price("100000000")},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "input %+v: %v", input.Name, err)
	}

	created, err := svc.Create(ctx, ProductInput{Name: " Fig ", Description: " purple ", Price: price("0")})
	require.NoError(t, err)
	assert.Equal(t, "Fig", created.Name)
	assert.Equal(t, "purple", created.Description)
	assert.False(t, created.HasImage())
}

func TestServiceCreateWithImage(t *testing.T) {
	images := newMemoryStore()
	svc, _ := newTestService(t, images)

	created, err := svc.Create(context.Background(), ProductInput{
		Name:  "Pear",
		Price: price("0.75"),
		Image: bytes.NewReader(pngBytes),
	})
	require.NoError(t, err)
	require.True(t, created.HasImage())
	assert.True(t, strings.HasPrefix(created.ImageKey, "products/"))
	assert.Equal(t, "/media/"+created.ImageKey, created.ImageURL)
	assert.Equal(t, pngBytes, images.objects[created.ImageKey])
}

func TestServiceCreateRejectsNonImage(t *testing.T) {
	images := newMemoryStore()
	svc, _ := newTestService(t, images)

	_, err := svc.Create(context.Background(), ProductInput{
		Name:  "Pear",
		Price: price("0.75"),
		Image: strings.NewReader("hello world"),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, images.objects)
}

func TestServiceCreateImageWithoutStore(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Create(context.Background(), ProductInput{Name: "Pear", Price: price("1"), Image: bytes.NewReader(pngBytes)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceCreateStorageFailure(t *testing.T) {
	images := newMemoryStore()
	images.putErr = errors.New("bucket gone")
	svc, _ := newTestService(t, images)

	_, err := svc.Create(context.Background(), ProductInput{Name: "Pear", Price: price("1"), Image: bytes.NewReader(pngBytes)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestServiceUpdateReplacesImage(t *testing.T) {
	images := newMemoryStore()
	svc, _ := newTestService(t, images)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{Name: "Plum", Price: price("1.00"), Image: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	oldKey := created.ImageKey

	updated, err := svc.Update(ctx, created.ID, ProductInput{Name: "Plum", Price: price("1.10"), Image: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, updated.ImageKey)
	assert.True(t, updated.Price.Equal(price("1.1")))
	assert.Contains(t, images.deleted, oldKey)

	kept, err := svc.Update(ctx, created.ID, ProductInput{Name: "Plum", Price: price("1.20")})
	require.NoError(t, err)
	assert.Equal(t, updated.ImageKey, kept.ImageKey)

	cleared, err := svc.Update(ctx, created.ID, ProductInput{Name: "Plum", Price: price("1.20"), RemoveImage: true})
	require.NoError(t, err)
	assert.False(t, cleared.HasImage())
	assert.Contains(t, images.deleted, updated.ImageKey)
}

func TestServiceUpdateMissing(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Update(context.Background(), 404, ProductInput{Name: "Ghost", Price: price("1")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceDeleteRemovesImage(t *testing.T) {
	images := newMemoryStore()
	svc, _ := newTestService(t, images)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{Name: "Lime", Price: price("0.30"), Image: bytes.NewReader(pngBytes)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Contains(t, images.deleted, created.ImageKey)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.HasCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}

func TestServiceFindByIDsForCart(t *testing.T) {
	svc, repo := newTestService(t, nil)
	a := mustCreateProduct(t, repo, "Apple", "", "2.50")

	found, err := svc.FindByIDs(context.Background(), []uint{a.ID, 999})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Apple", found[a.ID].Name)
	assert.True(t, found[a.ID].Price.Equal(price("2.5")))
}
