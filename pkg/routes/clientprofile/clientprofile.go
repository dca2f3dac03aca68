package clientprofile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/profiles"
)

// Register registers client profile routes
func Register(g *echo.Group) {
	g.GET("/:id", GetProfile)
	g.POST("/:id/merge-candidates", GetMergeCandidates)
	g.GET("/:id/family", GetFamily)
}

// GetProfile returns a client profile
func GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*profiles.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	profile, err := svc.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

// GetMergeCandidates ranks other profiles likely describing the same
// person
func GetMergeCandidates(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	var req models.ProfileMergeCandidatesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*profiles.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.MergeCandidates(ctx, tenantID, id, req.Force)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetFamily returns the family links projected around a client
func GetFamily(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, family, err := ectoinject.GetContext[*graph.FamilyService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "family graph unavailable")
	}

	links, err := family.GetFamily(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"client_id": id,
		"family":    links,
	})
}
