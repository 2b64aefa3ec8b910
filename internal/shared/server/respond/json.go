package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teambuilder-backend/internal/shared/util"
)

const fallbackFileName = "download"

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment writes data as a file download. Unsafe file names are replaced.
func Attachment(c *gin.Context, fileName, contentType string, data []byte) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		name = fallbackFileName
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}
