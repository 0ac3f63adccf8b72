package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledLocales(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "Out of stock", T("en", KeyProductOutOfStock))
	assert.Equal(t, "缺貨", T("zh_TW", KeyProductOutOfStock))
	assert.Equal(t, "Only 3 left in stock", T("en", KeyProductLimitedStock, 3))
	assert.Equal(t, "Product not found", T("fr", KeyProductNotFound), "unknown languages fall back to the default")
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.Equal(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}

func TestLocalesShareKeys(t *testing.T) {
	tr := New("en")
	require.NoError(t, tr.LoadTranslations(bundled, "locales"))

	for key := range tr.translations["en"] {
		assert.Contains(t, tr.translations["zh_TW"], key)
	}
}

func TestLoadTranslationsRejectsBadJSON(t *testing.T) {
	fsys := fstest.MapFS{"locales/en.json": {Data: []byte("{")}}
	err := New("en").LoadTranslations(fsys, "locales")
	assert.Error(t, err)
}
