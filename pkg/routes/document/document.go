package document

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/documents"
	"github.com/Ramsey-B/fern/pkg/models"
)

var validate = validator.New()

// Register registers document routes
func Register(g *echo.Group) {
	g.POST("", CreateDocument)
	g.GET("/:id", GetDocument)
	g.DELETE("/:id", DeleteDocument)
	g.GET("/:id/candidates", GetCandidates)
	g.GET("/:id/step", ResolveStep)
	g.POST("/:id/client-match", ResolveClientMatch)
	g.POST("/:id/enrich-by-identity", EnrichByIdentity)
	g.POST("/:id/confirm", ConfirmDocument)
	g.POST("/:id/reprocess", ReprocessDocument)
}

// CreateDocument ingests one extracted document
func CreateDocument(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)

	var req models.CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	doc, err := svc.Create(ctx, tenantID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, doc)
}

// GetDocument returns a document record
func GetDocument(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	doc, err := svc.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document
func DeleteDocument(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"document_id": id,
		}).Info("Deleted document")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetCandidates recomputes and returns the merge candidate snapshot
func GetCandidates(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	candidates, err := svc.Candidates(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"document_id":      id,
		"merge_candidates": candidates,
	})
}

// ResolveStep answers a workflow navigation request. An unreachable
// stage redirects rather than failing.
func ResolveStep(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")
	requested := models.WorkflowStage(c.QueryParam("stage"))

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resolved, err := svc.ResolveStep(ctx, tenantID, id, requested)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"document_id": id,
		"requested":   requested,
		"stage":       resolved,
		"redirected":  requested != resolved,
	})
}

// ResolveClientMatch confirms or rejects the match stage decision
func ResolveClientMatch(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	var req models.ClientMatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.ClientMatch(ctx, tenantID, id, &req)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"document_id": id,
			"action":      req.Action,
			"stage":       resp.WorkflowStage,
		}).Info("Resolved client match")
	}

	return c.JSON(http.StatusOK, resp)
}

// EnrichByIdentity previews or applies enrichment from another document
func EnrichByIdentity(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	var req models.EnrichByIdentityRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.EnrichByIdentity(ctx, tenantID, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// ConfirmDocument accepts the reviewed payload as final
func ConfirmDocument(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	var req models.ConfirmDocumentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.Confirm(ctx, tenantID, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// ReprocessDocument recomputes derived document state
func ReprocessDocument(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := fernctx.GetTenantID(ctx)
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*documents.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	doc, err := svc.Reprocess(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}
