package dashboard

import (
	"net/http"

	_ "embed"

	"github.com/labstack/echo/v4"
)

//go:embed index.html
var indexPage []byte

func (s *Server) index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexPage)
}
