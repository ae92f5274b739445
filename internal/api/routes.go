package api

import (
	"github.com/docsearch/documenter-mcp/internal/api/middleware"
	"github.com/docsearch/documenter-mcp/internal/docsearch"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
)

// APIDocsPath serves the OpenAPI description of the routes below
const APIDocsPath = "/apidocs.json"

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check with index statistics").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}).
			Returns(503, "Index Unavailable", HealthResponse{}))

	ws.
		Route(ws.GET("/search").
			To(handler.Search).
			Doc("Search documentation fragments in source order").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.QueryParameter("q", "Query text; empty matches every fragment").DataType("string").Required(false)).
			Param(ws.QueryParameter("mode", "substring (default) or keyword").DataType("string").Required(false)).
			Param(ws.QueryParameter("limit", "Maximum number of results (default: max_results, capped at 50)").DataType("integer").Required(false)).
			Writes(docsearch.Results{}).
			Returns(200, "OK", docsearch.Results{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/fragments").
			To(handler.Fragments).
			Doc("Get every fragment stored at an exact location").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.QueryParameter("location", "Exact location, e.g. methods/#SpecialMatrices.Cauchy").DataType("string").Required(true)).
			Writes(FragmentsResponse{}).
			Returns(200, "OK", FragmentsResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Location Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/pages").
			To(handler.Pages).
			Doc("List documentation pages").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Writes(PagesResponse{}).
			Returns(200, "OK", PagesResponse{}))

	ws.
		Route(ws.POST("/refresh").
			To(handler.Refresh).
			Doc("Re-fetch and re-index the documentation").
			Metadata(restfulspec.KeyOpenAPITags, []string{"admin"}).
			Param(ws.QueryParameter("force", "Refresh even when the cache is fresh (default: false)").DataType("boolean").Required(false)).
			Writes(docsearch.RefreshResult{}).
			Returns(200, "OK", docsearch.RefreshResult{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(409, "No Source Configured", middleware.ErrorResponse{}).
			Returns(422, "Malformed Search Index", middleware.ErrorResponse{}).
			Returns(502, "Fetch Failed", middleware.ErrorResponse{}))

	container.Add(ws)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     APIDocsPath,
	}))
}
