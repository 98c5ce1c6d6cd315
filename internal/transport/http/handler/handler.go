package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	resp "marketplace-api/internal/transport/http/response"
)

// parseUintParam reads a numeric path parameter, replying 400 itself when the
// value is not a positive integer.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "invalid "+name))
		return 0, false
	}
	return uint(v), true
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// readFormFile pulls an optional uploaded file out of a multipart form.
// A missing file is not an error; pictures are optional on most endpoints.
func readFormFile(c *gin.Context, field string) (data []byte, filename string, err error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}
