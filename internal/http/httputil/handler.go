package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is one resource of the quote API. Root names its route group;
// SetRoutes receives the public, private and admin groups already scoped to
// that root.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
