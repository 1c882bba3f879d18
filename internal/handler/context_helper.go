package handler

import (
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/response"
)

// bindJSON decodes the request body into dest and answers 400 when it is not valid JSON.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return false
	}
	return true
}

// deleted answers a successful delete with an empty envelope.
func deleted(c *gin.Context) {
	response.JSON(c, http.StatusOK, nil, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// streamFile writes file as an attachment and closes it.
func streamFile(c *gin.Context, file *os.File, filename, contentType string) {
	defer file.Close() //nolint:errcheck
	var size int64 = -1
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, contentType, io.Reader(file), map[string]string{
		"Content-Disposition": `attachment; filename="` + filename + `"`,
	})
}
