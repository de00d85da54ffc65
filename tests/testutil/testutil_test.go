package testutil

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/interfaces/http/middleware"
)

func TestTestContext_SetActor(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetActor(identity.Actor{UserID: 7, Role: identity.RoleEmployee})

	actor, ok := middleware.GetActor(tc.Context)
	require.True(t, ok)
	assert.Equal(t, int64(7), actor.UserID)
	assert.Equal(t, identity.RoleEmployee, actor.Role)
}

func TestTestContext_SetParam(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetParam("id", "42")
	assert.Equal(t, "42", tc.Context.Param("id"))
}

func TestRunHTTPTestCases(t *testing.T) {
	echo := func(c *gin.Context) {
		if c.GetHeader("X-Fail") != "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "BAD_REQUEST", "message": "nope"},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"ok": true}})
	}

	var validated atomic.Int32
	RunHTTPTestCases(t, echo, []HTTPTestCase{
		{
			Name:           "success",
			Method:         http.MethodPost,
			Body:           map[string]int{"quantity": 1},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *TestContext) {
				validated.Add(1)
				AssertSuccessResponse(t, tc)
			},
		},
		{
			Name:           "failure envelope",
			Headers:        map[string]string{"X-Fail": "1"},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "BAD_REQUEST",
		},
	})
	assert.Equal(t, int32(1), validated.Load())
}

func TestRequireEventually(t *testing.T) {
	var n atomic.Int32
	RequireEventually(t, func() bool { return n.Add(1) >= 3 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, n.Load(), int32(3))
}

func TestNewSQLiteDB_SeedsFixtures(t *testing.T) {
	db := NewSQLiteDB(t)
	user := SeedUser(t, db, "duena@example.com", identity.RoleOwner)
	assert.NotZero(t, user.ID)

	product := SeedProduct(t, db, "Fideos 500g", 12, "9.90")
	assert.Equal(t, 12, ProductStock(t, db, product.ID))

	sale := SeedSale(t, db, user.ID)
	assert.Equal(t, "V000001", sale.SaleNumber)
}
