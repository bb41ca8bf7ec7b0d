package middleware

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"gstinvoice/internal/common"
)

var versionPrefix = regexp.MustCompile(`^/(v\d+)(/|$)`)

// VersionMiddleware tags responses with the API and build versions and
// rejects paths under an unknown /vN prefix.
type VersionMiddleware struct {
	supported map[string]bool
	build     string
}

func NewVersionMiddleware(build string, versions ...string) *VersionMiddleware {
	supported := make(map[string]bool, len(versions))
	for _, v := range versions {
		supported[v] = true
	}
	return &VersionMiddleware{supported: supported, build: build}
}

// VersionRoute creates a version-specific route group
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			c.Response().Header().Set("X-Build-Version", vm.build)
			return next(c)
		}
	})
	return group
}

// APIVersionResolver must run before routing (echo Pre).
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := versionPrefix.FindStringSubmatch(c.Request().URL.Path)
			if m != nil && !vm.supported[m[1]] {
				return c.JSON(http.StatusNotFound, common.CreateErrorResponse("UNSUPPORTED_VERSION",
					"Unsupported API version", map[string]string{"supported_versions": vm.supportedList()}))
			}
			return next(c)
		}
	}
}

func (vm *VersionMiddleware) supportedList() string {
	versions := make([]string, 0, len(vm.supported))
	for v := range vm.supported {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return strings.Join(versions, ", ")
}
