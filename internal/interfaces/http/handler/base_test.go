package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
	"github.com/minegocio/backend/tests/testutil"
)

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}
	handle := func(err error) gin.HandlerFunc {
		return func(c *gin.Context) { h.HandleError(c, err) }
	}

	testutil.RunHTTPTestCases(t, handle(shared.NewNotFoundError("product", 9)), []testutil.HTTPTestCase{{
		Name:           "not found",
		ExpectedStatus: http.StatusNotFound,
		ExpectedCode:   dto.ErrCodeNotFound,
	}})

	testutil.RunHTTPTestCases(t, handle(fmt.Errorf("create sale item: %w", &shared.InsufficientStockError{
		ProductID: 3, ProductName: "Yerba", Requested: 5, Available: 2,
	})), []testutil.HTTPTestCase{{
		Name:           "insufficient stock keeps details through wrapping",
		ExpectedStatus: http.StatusUnprocessableEntity,
		ExpectedCode:   dto.ErrCodeInsufficientStock,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			details := testutil.ErrorDetails(t, tc)
			assert.EqualValues(t, 2, details["available_stock"])
		},
	}})

	testutil.RunHTTPTestCases(t, handle(shared.NewValidationError("quantity", "must be greater than 0")), []testutil.HTTPTestCase{{
		Name:           "validation lists the failing fields",
		ExpectedStatus: http.StatusBadRequest,
		ExpectedCode:   dto.ErrCodeValidation,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			fields := testutil.ErrorDetails(t, tc)["fields"].(map[string]any)
			assert.Contains(t, fields, "quantity")
		},
	}})

	testutil.RunHTTPTestCases(t, handle(errors.New("pq: connection refused")), []testutil.HTTPTestCase{{
		Name:           "unexpected errors hide their text",
		ExpectedStatus: http.StatusInternalServerError,
		ExpectedCode:   dto.ErrCodeInternal,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			assert.NotContains(t, tc.Recorder.Body.String(), "connection refused")
		},
	}})
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}

	tc := testutil.NewTestContext(t)
	tc.SetParam("id", "15")
	id, ok := h.PathID(tc.Context)
	assert.True(t, ok)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"0", "-2", "abc"} {
		tc := testutil.NewTestContext(t)
		tc.SetParam("id", raw)
		_, ok := h.PathID(tc.Context)
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, tc.ResponseCode(), raw)
		testutil.AssertErrorResponse(t, tc, dto.ErrCodeValidation)
	}
}

func TestBaseHandler_Actor(t *testing.T) {
	h := &BaseHandler{}
	var got identity.Actor
	whoAmI := func(c *gin.Context) {
		actor, ok := h.Actor(c)
		if !ok {
			return
		}
		got = actor
		c.String(http.StatusOK, "ok")
	}

	testutil.RunHTTPTestCases(t, whoAmI, []testutil.HTTPTestCase{
		{
			Name:           "anonymous",
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedCode:   dto.ErrCodeUnauthorized,
		},
		{
			Name:           "owner",
			Actor:          &identity.Actor{UserID: 4, Role: identity.RoleOwner},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, _ *testutil.TestContext) {
				require.Equal(t, int64(4), got.UserID)
				assert.Equal(t, identity.RoleOwner, got.Role)
			},
		},
	})
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	testutil.RunHTTPTestCases(t, NewSystemHandler(stubPinger{}, "1.2.3").Health, []testutil.HTTPTestCase{{
		Name:           "database up",
		ExpectedStatus: http.StatusOK,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			data := testutil.ResponseData(t, tc)
			assert.Equal(t, "ok", data["status"])
			assert.Equal(t, "1.2.3", data["version"])
		},
	}})

	testutil.RunHTTPTestCases(t, NewSystemHandler(stubPinger{err: errors.New("down")}, "1.2.3").Health, []testutil.HTTPTestCase{{
		Name:           "database unreachable",
		ExpectedStatus: http.StatusServiceUnavailable,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			body := testutil.JSONResponse(t, tc)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "unreachable", body["data"].(map[string]any)["database"])
		},
	}})
}
