package utils

import "github.com/gin-gonic/gin"

// Success writes a success JSON response.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes an error JSON response. Extra fields are merged into the body.
func Fail(c *gin.Context, status int, err error, extra gin.H) {
	body := gin.H{
		"code":  -1,
		"error": err.Error(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
