package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/app"
	"github.com/shashiranjanraj/storeadmin/pkg/cache"
	"github.com/shashiranjanraj/storeadmin/pkg/storage"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
)

// setup points every command at a fake backend and a temp local disk.
func setup(t *testing.T) (*testkit.FakeAPI, string) {
	t.Helper()
	api := testkit.NewFakeAPI(t)
	api.SetSchema(5,
		models.SpecificationDefinition{ID: 1, Name: "Color"},
		models.SpecificationDefinition{ID: 2, Name: "Weight"},
	)
	api.AddProduct(models.Product{ID: 42, Name: "Phone", CategoryID: 5})
	api.SetValues(42, models.SpecificationValue{ID: 9, Name: "Color", Value: "Red"})

	root := t.TempDir()
	disks := storage.NewManager("local")
	disks.Register("local", storage.NewLocal(root))

	appOptions = []app.Option{
		app.WithClient(api.Client()),
		app.WithCache(cache.Nop{}),
		app.WithStorage(disks),
	}
	t.Cleanup(func() { appOptions = nil })
	return api, root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, root, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
}

func TestSpecShow(t *testing.T) {
	setup(t)
	out, err := run(t, "spec:show", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Product 42: Phone")
	assert.Regexp(t, `1\s+Color\s+Red`, out)
	assert.Regexp(t, `2\s+Weight`, out)
}

func TestSpecSetByNameAndID(t *testing.T) {
	api, _ := setup(t)
	out, err := run(t, "spec:set", "42", "Color=Blue", "2=2kg")
	require.NoError(t, err)
	assert.Regexp(t, `Color\s+update\s+ok`, out)
	assert.Regexp(t, `Weight\s+create\s+ok`, out)

	got := map[string]string{}
	for _, v := range api.Values(42) {
		got[v.Name] = v.Value
	}
	assert.Equal(t, map[string]string{"Color": "Blue", "Weight": "2kg"}, got)
}

func TestSpecSetReportsFailedWrites(t *testing.T) {
	api, _ := setup(t)
	api.Fail(http.MethodPost, "/p_specification", http.StatusInternalServerError)

	out, err := run(t, "spec:set", "42", "Color=Blue", "Weight=2kg")
	var partial *services.PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Regexp(t, `Color\s+update\s+ok`, out)
	assert.NotRegexp(t, `Weight\s+create\s+ok`, out)
}

func TestSpecSetUnknownDefinition(t *testing.T) {
	api, _ := setup(t)
	_, err := run(t, "spec:set", "42", "Size=XL")
	assert.ErrorContains(t, err, `unknown specification "Size"`)
	testkit.AssertNoWrites(t, api)
}

func TestSpecDelete(t *testing.T) {
	api, _ := setup(t)
	_, err := run(t, "spec:delete", "42", "1")
	require.NoError(t, err)
	assert.Empty(t, api.Values(42))
}

func TestInvalidID(t *testing.T) {
	setup(t)
	_, err := run(t, "spec:show", "abc")
	assert.ErrorContains(t, err, `invalid product id "abc"`)
}

func TestImagePrimaryFromDisk(t *testing.T) {
	api, root := setup(t)
	writeFile(t, root, "photos/front.jpg", "jpeg")

	out, err := run(t, "image:primary", "42", "photos/front.jpg", "--disk", "local")
	require.NoError(t, err)

	p, _ := api.Product(42)
	require.NotEmpty(t, p.PrimaryImageURL)
	assert.Contains(t, out, p.PrimaryImageURL)
	body, ok := api.Uploaded(p.PrimaryImageURL)
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(body))
}

func TestImageAddAndDelete(t *testing.T) {
	api, root := setup(t)
	writeFile(t, root, "a.jpg", "a")
	writeFile(t, root, "b.jpg", "b")

	_, err := run(t, "image:add", "42", "a.jpg", "b.jpg")
	require.NoError(t, err)
	imgs := api.Images(42)
	require.Len(t, imgs, 2)

	_, err = run(t, "image:delete", strconv.FormatInt(imgs[0].ID, 10))
	require.NoError(t, err)
	assert.Len(t, api.Images(42), 1)
}

func TestImageMissingDisk(t *testing.T) {
	setup(t)
	_, err := run(t, "image:primary", "42", "x.jpg", "--disk", "s3")
	assert.ErrorContains(t, err, `disk "s3" is not configured`)
}

func TestOrders(t *testing.T) {
	api, _ := setup(t)
	api.SetOrders(
		models.Order{ID: 1, Name: "Ada", Surname: "Lovelace", Status: models.OrderPending,
			OrderItems: []models.OrderItem{{ID: 1, ProductID: 42, Quantity: 2, PriceAtPurchase: 10}}},
		models.Order{ID: 2, Name: "Alan", Surname: "Turing", Status: models.OrderPending},
	)

	out, err := run(t, "orders:list", "--q", "turing")
	require.NoError(t, err)
	assert.Contains(t, out, "Alan Turing")
	assert.NotContains(t, out, "Ada Lovelace")

	out, err = run(t, "orders:show", "1")
	require.NoError(t, err)
	assert.Regexp(t, `42\s+Phone\s+2\s+10.00`, out)

	_, err = run(t, "orders:status", "2", "shipped")
	require.NoError(t, err)
	_, err = run(t, "orders:paid", "2")
	require.NoError(t, err)
	o := api.Orders()[1]
	assert.Equal(t, models.OrderShipped, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)

	_, err = run(t, "orders:status", "2", "lost")
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCategoryAndBrandAdd(t *testing.T) {
	api, _ := setup(t)
	out, err := run(t, "category:add", "1", "Phones", "--spec", "Color,Weight")
	require.NoError(t, err)
	assert.Contains(t, out, `"Phones"`)
	assert.Contains(t, out, `"Color"`)
	assert.Contains(t, out, `"Weight"`)

	out, err = run(t, "brand:add", "Acme")
	require.NoError(t, err)
	assert.Contains(t, out, `"Acme"`)
	testkit.AssertCalled(t, api, http.MethodPost, "/brands/add")

	out, err = run(t, "spec:add", "5", "Battery")
	require.NoError(t, err)
	assert.Contains(t, out, `"Battery"`)
}

func TestProductCreateWithResume(t *testing.T) {
	api, root := setup(t)
	writeFile(t, root, "front.jpg", "front")
	writeFile(t, root, "side.jpg", "side")
	logPath := filepath.Join(t.TempDir(), "creation.json")
	api.Fail(http.MethodPost, "/images/add", http.StatusInternalServerError, testkit.Times(1))

	args := []string{"product:create",
		"--name", "Tablet", "--category", "5", "--brand", "3", "--model", "T1",
		"--spec", "Color=Black", "--primary", "front.jpg", "--gallery", "side.jpg",
		"--log", logPath,
	}
	_, err := run(t, args...)
	var cerr *services.CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.StepImagesAttached, cerr.Step)

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var log services.CreationLog
	require.NoError(t, json.Unmarshal(b, &log))
	require.NotZero(t, log.ProductID)
	assert.True(t, log.Done(services.StepSpecificationsApplied))

	out, err := run(t, append(args, "--resume", logPath)...)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 gallery images)")
	assert.Len(t, api.CallsTo(http.MethodPost, "/products/add"), 1)
	assert.Len(t, api.Images(log.ProductID), 1)
}

func TestRouteList(t *testing.T) {
	setup(t)
	out, err := run(t, "route:list")
	require.NoError(t, err)
	assert.Regexp(t, `POST\s+/api/editor/\{id\}/submit\s+editor.submit`, out)
}
