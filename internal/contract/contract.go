// ABOUTME: Static metadata for the inventory: table, columns and addressable resources
// ABOUTME: Resource is a tagged variant (collection or item-by-id) parsed once at the boundary

package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidResource is returned when a resource identifier cannot be routed
var ErrInvalidResource = errors.New("invalid resource")

const (
	// Authority identifies the inventory in content:// style identifiers.
	Authority = "com.example.android.storeinventory"

	// PathItems is the collection path segment.
	PathItems = "items"

	// Scheme prefixes fully qualified identifiers.
	Scheme = "content://"
)

// Table and column identifiers
const (
	TableItems = "items"

	ColumnID          = "_id"
	ColumnName        = "name"
	ColumnDescription = "desc"
	ColumnQuantity    = "quantity"
	ColumnPrice       = "price"
)

// AllColumns lists every column of the items table in declaration order.
var AllColumns = []string{
	ColumnID,
	ColumnName,
	ColumnDescription,
	ColumnQuantity,
	ColumnPrice,
}

// DescriptionPlaceholder is shown in place of an empty description.
const DescriptionPlaceholder = "Unknown description"

// Content types for the two resource shapes
const (
	ContentListType = "vnd.android.cursor.dir/" + Authority + "/" + PathItems
	ContentItemType = "vnd.android.cursor.item/" + Authority + "/" + PathItems
)

// IsColumn reports whether name is a column of the items table.
func IsColumn(name string) bool {
	for _, c := range AllColumns {
		if c == name {
			return true
		}
	}
	return false
}

type resourceKind uint8

const (
	kindInvalid resourceKind = iota
	kindCollection
	kindItem
)

// Resource addresses either the whole item collection or one item by id.
// The zero value is not a valid resource.
type Resource struct {
	kind resourceKind
	id   int64
}

// Collection returns the resource for all items.
func Collection() Resource {
	return Resource{kind: kindCollection}
}

// Item returns the resource for the item with the given id.
func Item(id int64) Resource {
	return Resource{kind: kindItem, id: id}
}

// IsCollection reports whether r addresses the whole collection.
func (r Resource) IsCollection() bool { return r.kind == kindCollection }

// IsItem reports whether r addresses a single item.
func (r Resource) IsItem() bool { return r.kind == kindItem }

// Valid reports whether r is a collection or an item resource.
func (r Resource) Valid() bool { return r.kind == kindCollection || r.kind == kindItem }

// ID returns the item id. It is zero for the collection.
func (r Resource) ID() int64 { return r.id }

// Contains reports whether a change on other is visible to an observer of r.
// The collection contains every item; an item contains only itself.
func (r Resource) Contains(other Resource) bool {
	switch r.kind {
	case kindCollection:
		return other.Valid()
	case kindItem:
		return other.kind == kindItem && other.id == r.id
	default:
		return false
	}
}

// Overlaps reports whether a change on one resource concerns the other, in
// either direction.
func (r Resource) Overlaps(other Resource) bool {
	return r.Contains(other) || other.Contains(r)
}

// String returns the path form: "items" or "items/<id>".
func (r Resource) String() string {
	switch r.kind {
	case kindCollection:
		return PathItems
	case kindItem:
		return PathItems + "/" + strconv.FormatInt(r.id, 10)
	default:
		return "<invalid>"
	}
}

// URI returns the fully qualified content:// form of r.
func (r Resource) URI() string {
	return Scheme + Authority + "/" + r.String()
}

// ContentType returns the list or item content type for r.
func ContentType(r Resource) (string, error) {
	switch r.kind {
	case kindCollection:
		return ContentListType, nil
	case kindItem:
		return ContentItemType, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidResource, r)
	}
}

// ParseResource parses "items", "/items", "items/<id>" or the content://
// form. The id must be a non-negative decimal integer.
func ParseResource(s string) (Resource, error) {
	path := s
	if strings.HasPrefix(path, Scheme) {
		path = strings.TrimPrefix(path, Scheme)
		authority, rest, ok := strings.Cut(path, "/")
		if !ok || authority != Authority {
			return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResource, s)
		}
		path = rest
	}
	path = strings.TrimPrefix(path, "/")

	segments := strings.Split(path, "/")
	if segments[0] != PathItems {
		return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResource, s)
	}

	switch len(segments) {
	case 1:
		return Collection(), nil
	case 2:
		id, ok := parseID(segments[1])
		if !ok {
			return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResource, s)
		}
		return Item(id), nil
	default:
		return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResource, s)
	}
}

// parseID accepts only plain decimal digits, like a "#" path pattern.
func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
