package client

import (
	"strconv"
	"strings"
)

// resolve replaces the ID path parameter.
func resolve(path string, id int32) string {
	return strings.Replace(path, "{id}", strconv.Itoa(int(id)), 1)
}
