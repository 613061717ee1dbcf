package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// peekBody reads up to limit bytes of the request body and puts them back
// so that handlers can still bind it.
func peekBody(c echo.Context, limit int64) ([]byte, error) {
	r := c.Request()
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return nil, err
	}
	rest := r.Body
	r.Body = readCloser{io.MultiReader(bytes.NewReader(b), rest), rest}
	return b, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
