// ABOUTME: HTTP handlers for item list, create, read, update, delete and sale
// ABOUTME: Translates JSON bodies and query parameters to inventory calls and maps errors to status codes

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ResourceTypeHeader carries the list or item content type of a response.
const ResourceTypeHeader = "X-Resource-Type"

// ItemRequest is the JSON body for POST /api/items and PATCH /api/items/{id}.
// Absent fields are left unchanged on update.
type ItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    *int64  `json:"quantity,omitempty"`
	Price       *int64  `json:"price,omitempty"`
}

// Values converts the request to inventory values. Text is trimmed the way
// form input is.
func (req ItemRequest) Values() inventory.Values {
	v := inventory.Values{Quantity: req.Quantity, Price: req.Price}
	if req.Name != nil {
		v.Name = store.String(strings.TrimSpace(*req.Name))
	}
	if req.Description != nil {
		v.Description = store.String(strings.TrimSpace(*req.Description))
	}
	return v
}

// ItemResponse is the JSON form of a full item row.
type ItemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
}

func itemResponse(item *store.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		Price:       item.Price,
	}
}

// ListItemsResponse is the JSON response for GET /api/items. Rows carry
// only the requested fields.
type ListItemsResponse struct {
	Items []map[string]any `json:"items"`
}

// jsonNames maps columns to JSON field names.
var jsonNames = map[string]string{
	contract.ColumnID:          "id",
	contract.ColumnName:        "name",
	contract.ColumnDescription: "description",
	contract.ColumnQuantity:    "quantity",
	contract.ColumnPrice:       "price",
}

// columnFor resolves a JSON field name or column name to a column.
func columnFor(name string) (string, bool) {
	for column, field := range jsonNames {
		if name == field || name == column {
			return column, true
		}
	}
	return "", false
}

func rowJSON(row inventory.Row) map[string]any {
	out := make(map[string]any, len(row))
	for column, v := range row {
		out[jsonNames[column]] = v
	}
	return out
}

// handleItems routes /api/items and /api/items/{id}[/sale|/description].
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	var action string
	for _, suffix := range []string{"/sale", "/description"} {
		if strings.HasPrefix(path, contract.PathItems+"/") && strings.HasSuffix(path, suffix) {
			action = strings.TrimPrefix(suffix, "/")
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}

	if strings.Count(path, "/") > 1 {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	res, err := contract.ParseResource(path)
	if err != nil || (action != "" && !res.IsItem()) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch action {
	case "sale":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleSale(w, r, res.ID())
		return
	case "description":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleDescription(w, r, res.ID())
		return
	}

	switch {
	case res.IsCollection():
		switch r.Method {
		case http.MethodGet:
			s.handleListItems(w, r, res)
		case http.MethodPost:
			s.handleCreateItem(w, r)
		case http.MethodDelete:
			s.handleDeleteItems(w, r, res)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		switch r.Method {
		case http.MethodGet:
			s.handleGetItem(w, r, res)
		case http.MethodPatch:
			s.handleUpdateItem(w, r, res)
		case http.MethodDelete:
			s.handleDeleteItems(w, r, res)
		case http.MethodPost:
			// Inserting into an item is not defined
			s.handleError(w, r, fmt.Errorf("%w: insert on %s", inventory.ErrUnsupportedOperation, res))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// parseListQuery builds a query from ?name=&min_quantity=&order=&fields=&limit=.
func parseListQuery(r *http.Request) (inventory.Query, error) {
	var q inventory.Query
	params := r.URL.Query()

	if name := params.Get("name"); name != "" {
		q.Filter = append(q.Filter, store.Where(contract.ColumnName, store.OpLike, "%"+name+"%"))
	}

	if raw := params.Get("min_quantity"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, errors.New("min_quantity must be an integer")
		}
		q.Filter = append(q.Filter, store.Where(contract.ColumnQuantity, store.OpGe, n))
	}

	if raw := params.Get("order"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			desc := strings.HasPrefix(part, "-")
			column, ok := columnFor(strings.TrimPrefix(part, "-"))
			if !ok {
				return q, fmt.Errorf("unknown order field %q", part)
			}
			q.Order = append(q.Order, store.Order{Column: column, Desc: desc})
		}
	}

	if raw := params.Get("fields"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			column, ok := columnFor(strings.TrimSpace(part))
			if !ok {
				return q, fmt.Errorf("unknown field %q", part)
			}
			q.Columns = append(q.Columns, column)
		}
	}

	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, errors.New("limit must be a positive integer")
		}
		q.Limit = n
	}

	return q, nil
}

// handleListItems handles GET /api/items.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request, res contract.Resource) {
	q, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.inventory.List(r.Context(), res, q)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	response := ListItemsResponse{Items: make([]map[string]any, 0, len(rows))}
	for _, row := range rows {
		response.Items = append(response.Items, rowJSON(row))
	}

	s.setResourceType(w, res)
	writeJSON(w, http.StatusOK, response)
}

// handleGetItem handles GET /api/items/{id}.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request, res contract.Resource) {
	item, err := s.inventory.Get(r.Context(), res.ID())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.setResourceType(w, res)
	writeJSON(w, http.StatusOK, itemResponse(item))
}

// handleCreateItem handles POST /api/items. A repeated Idempotency-Key
// returns the id from the first successful create.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeItemRequest(w, r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	create := func() (int64, error) {
		return s.inventory.Insert(r.Context(), contract.Collection(), req.Values())
	}

	var id int64
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		var replayed bool
		id, replayed, err = s.idempotency.Do(key, create)
		if replayed {
			w.Header().Set("Idempotent-Replayed", "true")
		}
	} else {
		id, err = create()
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/%s", contract.Item(id)))
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleUpdateItem handles PATCH /api/items/{id}.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, res contract.Resource) {
	req, err := decodeItemRequest(w, r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	values := req.Values()
	if values.Empty() {
		s.sendJSONError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	n, err := s.inventory.Update(r.Context(), res, values, nil)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if n == 0 {
		s.sendJSONError(w, http.StatusNotFound, "item not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// handleDeleteItems handles DELETE /api/items and DELETE /api/items/{id}.
func (s *Server) handleDeleteItems(w http.ResponseWriter, r *http.Request, res contract.Resource) {
	n, err := s.inventory.Delete(r.Context(), res, nil)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if res.IsItem() && n == 0 {
		s.sendJSONError(w, http.StatusNotFound, "item not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// handleSale handles POST /api/items/{id}/sale.
func (s *Server) handleSale(w http.ResponseWriter, r *http.Request, id int64) {
	item, err := s.inventory.Sell(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(item))
}

// handleDescription handles GET /api/items/{id}/description, rendering the
// description as Markdown. Raw HTML in the description is not passed through.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request, id int64) {
	item, err := s.inventory.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(item.DisplayDescription()), &buf); err != nil {
		s.logger.Error("failed to render description", "id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func decodeItemRequest(w http.ResponseWriter, r *http.Request) (ItemRequest, error) {
	var req ItemRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errors.New("invalid JSON body")
	}
	return req, nil
}

func (s *Server) setResourceType(w http.ResponseWriter, res contract.Resource) {
	if ct, err := s.inventory.ContentType(res); err == nil {
		w.Header().Set(ResourceTypeHeader, ct)
	}
}

// handleError maps inventory errors to HTTP status codes.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, inventory.ErrOutOfStock):
		s.sendJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrValidation):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, inventory.ErrUnsupportedOperation):
		s.sendJSONError(w, http.StatusMethodNotAllowed, "unsupported operation")
	case errors.Is(err, inventory.ErrInvalidResource):
		s.sendJSONError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
