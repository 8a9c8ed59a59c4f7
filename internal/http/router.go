package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/ground-catalog/internal/domain"
	httpH "github.com/yungbote/ground-catalog/internal/http/handlers"
	httpMW "github.com/yungbote/ground-catalog/internal/http/middleware"
	"github.com/yungbote/ground-catalog/internal/observability"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Log         *logger.Logger
	Metrics     *observability.Metrics

	ItemHandlers   []*httpH.ItemHandler
	VersionHandler *httpH.VersionHandler
	HealthHandler  *httpH.HealthHandler
}

// resourcePath is the plural path segment of a kind: "nodes", "lineage-edges".
var resourcePath = map[domain.Kind]string{
	domain.KindNode:        "nodes",
	domain.KindEdge:        "edges",
	domain.KindGraph:       "graphs",
	domain.KindStructure:   "structures",
	domain.KindLineageEdge: "lineage-edges",
}

// versionPath is the version resource segment of a kind: "node-versions".
var versionPath = map[domain.Kind]string{
	domain.KindNode:        "node-versions",
	domain.KindEdge:        "edge-versions",
	domain.KindGraph:       "graph-versions",
	domain.KindStructure:   "structure-versions",
	domain.KindLineageEdge: "lineage-edge-versions",
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Items
		for _, h := range cfg.ItemHandlers {
			base := "/" + resourcePath[h.Kind()]
			api.POST(base+"/:name", h.Create)
			api.GET(base+"/:name", h.Get)
			api.GET(base+"/:name/leaves", h.Leaves)
		}

		// Versions
		if v := cfg.VersionHandler; v != nil {
			api.POST("/"+versionPath[domain.KindNode], v.CreateNodeVersion)
			api.GET("/"+versionPath[domain.KindNode]+"/:id", v.GetNodeVersion)
			api.POST("/"+versionPath[domain.KindEdge], v.CreateEdgeVersion)
			api.GET("/"+versionPath[domain.KindEdge]+"/:id", v.GetEdgeVersion)
			api.POST("/"+versionPath[domain.KindGraph], v.CreateGraphVersion)
			api.GET("/"+versionPath[domain.KindGraph]+"/:id", v.GetGraphVersion)
			api.POST("/"+versionPath[domain.KindStructure], v.CreateStructureVersion)
			api.GET("/"+versionPath[domain.KindStructure]+"/:id", v.GetStructureVersion)
			api.POST("/"+versionPath[domain.KindLineageEdge], v.CreateLineageEdgeVersion)
			api.GET("/"+versionPath[domain.KindLineageEdge]+"/:id", v.GetLineageEdgeVersion)
			for _, k := range domain.Kinds {
				api.GET("/"+versionPath[k]+"/:id/closure", v.Closure(k))
			}
			api.GET("/versions/:id/reachable", v.Reachable)
		}
	}

	return r
}
