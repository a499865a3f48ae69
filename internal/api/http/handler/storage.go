package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/api/http/middleware"
	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/format"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/service"
)

const invalidItemReason = "invalid item"

// ConfirmDeleteHeader must be present on a request deleting all of a user's data.
const ConfirmDeleteHeader = "X-Confirm-Delete"

// Storage serves /1.0/:username storage routes.
type Storage struct {
	service        *service.Storage
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewStorage creates a new storage handler.
func NewStorage(service *service.Storage, contextManager model.ContextManager, logger *logger.Logger) *Storage {
	return &Storage{service: service, contextManager: contextManager, logger: logger}
}

func (h *Storage) userID(c *gin.Context) (int64, bool) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleError(c, h.logger, apierror.NewErrUnauthorized())
	}
	return userID, ok
}

// CollectionTimestamps handles GET /info/collections.
func (h *Storage) CollectionTimestamps(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stamps, err := h.service.CollectionTimestamps(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stamps)
}

// CollectionCounts handles GET /info/collection_counts.
func (h *Storage) CollectionCounts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	counts, err := h.service.CollectionCounts(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Quota handles GET /info/quota with a [used, limit] pair in KiB. The limit
// is null when no quota is configured.
func (h *Storage) Quota(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	usage, err := h.service.Usage(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, []any{usage.UsedKB, usage.LimitKB})
}

// DeleteStorage handles DELETE on the user root. It refuses to run unless
// ConfirmDeleteHeader is sent.
func (h *Storage) DeleteStorage(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if _, present := c.Request.Header[http.CanonicalHeaderKey(ConfirmDeleteHeader)]; !present {
		handleError(c, h.logger, apierror.NewErrConfirmationRequired(ConfirmDeleteHeader))
		return
	}

	if err := h.service.DeleteStorage(c.Request.Context(), userID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, middleware.RequestTimestamp(c))
}

// GetCollection handles GET /storage/:collection in the negotiated format.
func (h *Storage) GetCollection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	query, err := parseItemQuery(c.Request.URL.Query())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	contentType, err := format.Negotiate(c.GetHeader("Accept"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	records, err := h.service.ListItems(c.Request.Context(), userID, c.Param("collection"), query)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if err := format.Encode(c.Writer, contentType, records); err != nil {
		h.logger.Error("Storage handler: failed to write response",
			"collection", c.Param("collection"),
			"error", err.Error())
	}
}

// GetItem handles GET /storage/:collection/:id.
func (h *Storage) GetItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), userID, c.Param("collection"), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// PutItem handles PUT /storage/:collection/:id and answers with the stored
// modification time.
func (h *Storage) PutItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var fields model.ItemFields
	if err := json.NewDecoder(c.Request.Body).Decode(&fields); err != nil {
		handleError(c, h.logger, apierror.NewErrInvalidJSON())
		return
	}

	modified, err := h.service.PutItem(c.Request.Context(), userID, c.Param("collection"), c.Param("id"), fields)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, modified)
}

// PostCollection handles POST /storage/:collection with a JSON array body.
func (h *Storage) PostCollection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil {
		handleError(c, h.logger, apierror.NewErrInvalidJSON())
		return
	}

	items := make([]model.ItemFields, 0, len(raw))
	rejected := make(map[string][]string)
	for _, r := range raw {
		var fields model.ItemFields
		if err := json.Unmarshal(r, &fields); err != nil {
			id := rawItemID(r)
			rejected[id] = append(rejected[id], invalidItemReason)
			continue
		}
		items = append(items, fields)
	}

	res, err := h.service.PostItems(c.Request.Context(), userID, c.Param("collection"), items, rejected)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteItem handles DELETE /storage/:collection/:id.
func (h *Storage) DeleteItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), userID, c.Param("collection"), c.Param("id")); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, middleware.RequestTimestamp(c))
}

// DeleteCollection handles DELETE /storage/:collection with the listing filters.
func (h *Storage) DeleteCollection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	query, err := parseItemQuery(c.Request.URL.Query())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	if err := h.service.DeleteItems(c.Request.Context(), userID, c.Param("collection"), query); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, middleware.RequestTimestamp(c))
}

// rawItemID extracts the id of an item that failed to decode, if it has one.
func rawItemID(r json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(r, &head)
	return head.ID
}
