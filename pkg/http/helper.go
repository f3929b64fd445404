package http

import (
	"net/http"
	"strconv"

	"labbook/pkg/config"
	apperrors "labbook/pkg/errors"
	"labbook/pkg/model"
)

// Headers set by the API gateway after authenticating the caller. The
// services never resolve identity themselves.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// ActorFromRequest builds the resolved actor from gateway headers. Missing
// headers mean the request bypassed the gateway and is rejected.
func ActorFromRequest(r *http.Request) (model.Actor, error) {
	id := r.Header.Get(HeaderActorID)
	role := model.Role(r.Header.Get(HeaderActorRole))

	if id == "" || role == "" {
		return model.Actor{}, apperrors.Unauthorized("missing actor identity headers")
	}
	if !role.IsValid() {
		return model.Actor{}, apperrors.Unauthorized("unknown actor role: " + string(role))
	}

	return model.Actor{ID: id, Role: role}, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}
