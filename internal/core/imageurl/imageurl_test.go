package imageurl_test

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailsync/catalog-sync/internal/core/imageurl"
	"github.com/retailsync/catalog-sync/internal/core/product"
)

func TestRender_ThreeVariantsInFixedOrder(t *testing.T) {
	c := imageurl.NewComposer("https://img.example.com/render")
	sale := decimal.RequireFromString("8.00")

	out := c.Render("https://x/a.jpg", decimal.RequireFromString("9.00"), &sale, "Hat", "standard", "KM")
	require.Len(t, out, 3)

	require.Empty(t, out[0].Tags)
	require.Equal(t, []string{"ASPECT_RATIO_4_5_PREFERRED"}, out[1].Tags)
	require.Equal(t, []string{"STORY_PREFERRED", "REELS_PREFERRED"}, out[2].Tags)

	wantRatios := []string{"1:1", "4:5", "9:16"}
	for i, r := range out {
		u, err := url.Parse(r.URL)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, wantRatios[i], q.Get("aspect_ratio"))
		require.Equal(t, "9.00 KM", q.Get("price"))
		require.Equal(t, "8.00 KM", q.Get("discount_price"))
		require.Equal(t, "Hat", q.Get("name"))
		require.Equal(t, "standard", q.Get("style"))

		decoded, err := base64.URLEncoding.DecodeString(q.Get("img"))
		require.NoError(t, err)
		require.Equal(t, "https://x/a.jpg", string(decoded))
	}
}

func TestRender_NoSalePriceOmitsDiscount(t *testing.T) {
	c := imageurl.NewComposer("https://img.example.com/render")
	out := c.Render("https://x/a.jpg", decimal.RequireFromString("5.00"), nil, "Cap", "christmas", "KM")

	u, err := url.Parse(out[0].URL)
	require.NoError(t, err)
	q := u.Query()
	require.False(t, q.Has("discount_price"))
	require.Equal(t, "christmas", q.Get("style"))
}

func TestStyle_NormalizesUnknownToStandard(t *testing.T) {
	require.Equal(t, "standard", imageurl.Style(""))
	require.Equal(t, "standard", imageurl.Style("halloween"))
	require.Equal(t, "christmas", imageurl.Style("christmas"))
}

func TestFirstImageURL_FallsBackToParent(t *testing.T) {
	parent := product.Product{Images: []product.Image{{Src: "https://x/p.jpg"}}}
	v := product.Product{}

	src, ok := imageurl.FirstImageURL(v, &parent)
	require.True(t, ok)
	require.Equal(t, "https://x/p.jpg", src)

	_, ok = imageurl.FirstImageURL(product.Product{}, nil)
	require.False(t, ok)
}
