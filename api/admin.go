package api

import (
	"net/http"
)

func (s *API) getAuditLogs(w http.ResponseWriter, r *http.Request) {
	count, ok := getFormInt(w, r, "count")
	if !ok {
		return
	}
	if count > 50 {
		errorData(w, "Max count is 50", http.StatusBadRequest)
		return
	}
	offset, ok := getFormInt(w, r, "offset")
	if !ok {
		return
	}

	logs, err := s.base.GetAuditLogs(r.Context(), count, offset)
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, logs)
}

func (s *API) getLogCount(w http.ResponseWriter, r *http.Request) {
	cnt, err := s.base.GetLogCount(r.Context())
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, cnt)
}
