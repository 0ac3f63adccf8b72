package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumPricesIsExact(t *testing.T) {
	assert.Equal(t, 0.3, SumPrices(0.1, 0.2))
	assert.Equal(t, 95.0, SumPrices(100, -5))
	assert.Equal(t, 100.0, SumPrices(100))
	assert.Equal(t, 0.3, LineTotal(0.1, 3))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(1001), ToMinorUnits(10.005))
	assert.Equal(t, "12.10 USD", FormatMoney(12.1, "usd"))
}

func TestSessionToken(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, expiresAt, err := GenerateSessionToken(id, "en", 1)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.SessionID)
	assert.Equal(t, "en", claims.Locale)

	_, err = ValidateSessionToken(token + "x")
	assert.Error(t, err)

	expired, _, err := GenerateSessionToken(id, "en", -1)
	require.NoError(t, err)
	_, err = ValidateSessionToken(expired)
	assert.Error(t, err)
}

func TestTokenHash(t *testing.T) {
	hash, err := HashToken("import-secret")
	require.NoError(t, err)
	assert.True(t, CheckToken(hash, "import-secret"))
	assert.False(t, CheckToken(hash, "wrong"))
	assert.False(t, CheckToken("", "import-secret"))
}

func TestSortKeyValidation(t *testing.T) {
	type request struct {
		Sort string `validate:"sort_key"`
	}
	assert.NoError(t, ValidateStruct(request{Sort: "price-asc"}))
	assert.NoError(t, ValidateStruct(request{}))

	err := ValidateStruct(request{Sort: "random"})
	require.Error(t, err)
	errs := GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "sort", errs[0].Field)
	assert.Equal(t, "sort_key", errs[0].Tag)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/products?category=3,x,7&price_min=50&page=2&limit=10&sort=price-asc", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, []int64{3, 7}, params.Categories)
	assert.Equal(t, 50.0, params.PriceMin)
	assert.Equal(t, 0.0, params.PriceMax)
	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "price-asc", params.Sort)
}

func TestCreatePaginationResult(t *testing.T) {
	res := CreatePaginationResult(nil, 23, PaginationParams{Page: 3, Limit: 10})
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 21, res.From)
	assert.Equal(t, 23, res.To)

	res = CreatePaginationResult(nil, 0, PaginationParams{Page: 1, Limit: 10})
	assert.Equal(t, 0, res.TotalPages)
	assert.Equal(t, 0, res.From)
	assert.Equal(t, 0, res.To)
}
