package handler

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/model"
)

// parseItemQuery reads the collection filters from the query string.
func parseItemQuery(values url.Values) (model.ItemQuery, error) {
	var q model.ItemQuery

	if values.Has("ids") {
		q.IDs = []string{}
		for _, id := range strings.Split(values.Get("ids"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.IDs = append(q.IDs, id)
			}
		}
	}
	if values.Has("parentid") {
		v := values.Get("parentid")
		q.ParentID = &v
	}
	if values.Has("predecessorid") {
		v := values.Get("predecessorid")
		q.PredecessorID = &v
	}

	var err error
	if q.Newer, err = parseFloat(values, "newer"); err != nil {
		return model.ItemQuery{}, err
	}
	if q.Older, err = parseFloat(values, "older"); err != nil {
		return model.ItemQuery{}, err
	}
	if q.IndexAbove, err = parseInt64(values, "index_above"); err != nil {
		return model.ItemQuery{}, err
	}
	if q.IndexBelow, err = parseInt64(values, "index_below"); err != nil {
		return model.ItemQuery{}, err
	}
	if q.Limit, err = parseCount(values, "limit"); err != nil {
		return model.ItemQuery{}, err
	}
	if q.Offset, err = parseCount(values, "offset"); err != nil {
		return model.ItemQuery{}, err
	}

	switch sort := values.Get("sort"); sort {
	case "", model.SortOldest, model.SortNewest, model.SortIndex:
		q.Sort = sort
	default:
		return model.ItemQuery{}, apierror.NewErrInvalidParameter("sort", sort)
	}

	q.Full = values.Has("full") && values.Get("full") != "0"
	return q, nil
}

func parseFloat(values url.Values, name string) (*float64, error) {
	if !values.Has(name) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(values.Get(name), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apierror.NewErrInvalidParameter(name, values.Get(name))
	}
	return &v, nil
}

func parseInt64(values url.Values, name string) (*int64, error) {
	if !values.Has(name) {
		return nil, nil
	}
	v, err := strconv.ParseInt(values.Get(name), 10, 64)
	if err != nil {
		return nil, apierror.NewErrInvalidParameter(name, values.Get(name))
	}
	return &v, nil
}

func parseCount(values url.Values, name string) (*int, error) {
	if !values.Has(name) {
		return nil, nil
	}
	v, err := strconv.Atoi(values.Get(name))
	if err != nil || v < 0 {
		return nil, apierror.NewErrInvalidParameter(name, values.Get(name))
	}
	return &v, nil
}
