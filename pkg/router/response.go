package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goldenreel/backend/pkg/errorx"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

func writeEnvelope[Response any](c *gin.Context, resp *Response, err error) {
	if err != nil {
		c.JSON(http.StatusOK, newErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, newResponse(resp))
}

func writeRaw[Response any](fallback func(error) *Response) func(*gin.Context, *Response, error) {
	return func(c *gin.Context, resp *Response, err error) {
		if err != nil {
			c.JSON(http.StatusOK, fallback(err))
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
