package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
)

// bindJSON binds the request body into dst. An empty body leaves dst zero
// and is left to the service validation. Wrongly typed fields are reported as
// 422 on that field; malformed bodies as 400. It returns false after writing
// the error response.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		field := typeErr.Field
		utils.ValidationFailed(c, utils.FieldError(field, fmt.Sprintf("The %s field must be %s.",
			strings.ReplaceAll(field, "_", " "), kindName(typeErr.Type))))
	case errors.Is(err, money.ErrInvalid):
		utils.ValidationFailed(c, utils.FieldError("price", "The price field must be a number."))
	default:
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
	}
	return false
}

func kindName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "valid"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Bool:
		return "true or false"
	default:
		return "valid"
	}
}

// pathID parses the :id route parameter. It writes 404 and returns false
// when the id cannot name a product.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		utils.Error(c, http.StatusNotFound, utils.ErrNotFound.Error(), "Product not found.")
		return 0, false
	}
	return id, true
}
