package syncapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		cfg := &Config{}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingBaseURL)
	})

	t.Run("defaults and trailing slash", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://shop.example.com/"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://shop.example.com", cfg.BaseURL)
		assert.Equal(t, 10, cfg.TimeoutSeconds)
	})
}

// newTestClient spins up a gin router as a fake sync endpoint and returns a
// client pointed at it.
func newTestClient(t *testing.T, register func(*gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{BaseURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)
	return client
}

func TestClient_MergeCart(t *testing.T) {
	ctx := context.Background()

	t.Run("sends local items and returns final cart", func(t *testing.T) {
		var gotBody struct {
			LocalCartItems []cartapp.SyncItem `json:"localCartItems"`
			SyncDirection  string             `json:"syncDirection"`
		}
		var gotUser string

		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				gotUser = c.GetHeader("X-User-ID")
				require.NoError(t, c.ShouldBindJSON(&gotBody))
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"finalCart": []gin.H{
						{
							"id":        "srv-1",
							"productId": "P1",
							"quantity":  4,
							"product": gin.H{
								"id":            "P1",
								"name":          "Shirt",
								"slug":          "shirt",
								"price":         "25.00",
								"stockQuantity": 8,
							},
						},
					},
				})
			})
		})

		result, err := client.MergeCart(ctx, "user-1", []cartapp.SyncItem{
			{ProductID: "P1", Quantity: 2, SelectedColor: "red"},
		})
		require.NoError(t, err)

		assert.Equal(t, "user-1", gotUser)
		assert.Equal(t, "merge", gotBody.SyncDirection)
		require.Len(t, gotBody.LocalCartItems, 1)
		assert.Equal(t, "red", gotBody.LocalCartItems[0].SelectedColor)

		assert.True(t, result.Success)
		require.Len(t, result.FinalCart, 1)
		assert.Equal(t, "P1", result.FinalCart[0].ProductID)
		assert.Equal(t, 4, result.FinalCart[0].Quantity)
		assert.Equal(t, "Shirt", result.FinalCart[0].Product.Name)
	})

	t.Run("omitted finalCart stays nil", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": true})
			})
		})

		result, err := client.MergeCart(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Nil(t, result.FinalCart, "absent field must not look like an empty cart")
	})

	t.Run("explicit empty finalCart decodes as empty", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": true, "finalCart": []gin.H{}})
			})
		})

		result, err := client.MergeCart(ctx, "user-1", nil)
		require.NoError(t, err)
		require.NotNil(t, result.FinalCart)
		assert.Empty(t, result.FinalCart)
	})

	t.Run("server error status", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false})
			})
		})

		_, err := client.MergeCart(ctx, "user-1", nil)
		assert.Error(t, err)
	})

	t.Run("non-json reply", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				c.String(http.StatusOK, "<html>maintenance</html>")
			})
		})

		_, err := client.MergeCart(ctx, "user-1", nil)
		assert.Error(t, err)
	})
}

func TestClient_PushCart(t *testing.T) {
	ctx := context.Background()

	t.Run("sends local_to_db direction", func(t *testing.T) {
		var gotDirection string
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				var body struct {
					SyncDirection string `json:"syncDirection"`
				}
				require.NoError(t, c.ShouldBindJSON(&body))
				gotDirection = body.SyncDirection
				c.JSON(http.StatusOK, gin.H{"success": true})
			})
		})

		require.NoError(t, client.PushCart(ctx, "user-1", []cartapp.SyncItem{{ProductID: "P1", Quantity: 1}}))
		assert.Equal(t, "local_to_db", gotDirection)
	})

	t.Run("rejected push surfaces an error", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.POST("/api/cart/sync", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "cart disabled"})
			})
		})

		err := client.PushCart(ctx, "user-1", nil)
		assert.ErrorIs(t, err, ErrServerRejected)
	})
}

func TestClient_FetchCart(t *testing.T) {
	ctx := context.Background()

	t.Run("returns server rows", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.GET("/api/cart", func(c *gin.Context) {
				assert.Equal(t, "user-9", c.GetHeader("X-User-ID"))
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"items": []gin.H{
						{"id": "srv-2", "productId": "P2", "quantity": 3, "product": gin.H{"id": "P2", "name": "Mug", "slug": "mug", "price": "9.50", "stockQuantity": 20}},
					},
				})
			})
		})

		items, err := client.FetchCart(ctx, "user-9")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "P2", items[0].ProductID)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("unsuccessful reply surfaces an error", func(t *testing.T) {
		client := newTestClient(t, func(r *gin.Engine) {
			r.GET("/api/cart", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "no session"})
			})
		})

		_, err := client.FetchCart(ctx, "user-9")
		assert.ErrorIs(t, err, ErrServerRejected)
	})
}
