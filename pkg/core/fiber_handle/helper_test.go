package fiber_handle

import (
	"net/http"

	json "github.com/json-iterator/go"
)

func jsonDecode(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
