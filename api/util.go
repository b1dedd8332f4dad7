package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/causewayhq/causeway"
)

func getFormInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	sid := r.FormValue(name)
	if sid == "" {
		errorData(w, fmt.Sprintf("Missing param %s", name), http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(sid)
	if err != nil {
		errorData(w, fmt.Sprintf("Param `%s` not int", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func returnData(w http.ResponseWriter, retData any) {
	statusData(w, "success", retData, 200)
}

func statusData(w http.ResponseWriter, status string, retData any, statusCode int) {
	if err, ok := retData.(error); ok {
		retData = err.Error()
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}{
		Status: status,
		Data:   retData,
	})
	if err != nil {
		slog.Warn("Couldn't send return data", slog.Any("err", err))
	}
}

func errorData(w http.ResponseWriter, retData any, errCode int) {
	statusData(w, "error", retData, errCode)
}

func statusError(w http.ResponseWriter, err error) {
	errorData(w, err, causeway.ErrorCode(err))
}

// isAJAX reports whether the submission came from the async client rather
// than a plain HTML form post.
func isAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// redirectBack sends the browser back to the page the form was posted from,
// with the given marker flag appended to the query string. The front-end
// reads the flag to show the right banner.
func redirectBack(w http.ResponseWriter, r *http.Request, flag string) {
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(flag, "1")
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
