package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/TurahWilson/TubesIAE/model"
)

// ErrInvalidInput wraps form values that could not be bound to a create payload.
var ErrInvalidInput = errors.New("invalid input")

// API is the slice of the gateway client the panels need.
type API interface {
	Do(ctx context.Context, sess *model.Session, method, path string, body, out interface{}) error
}

// Row is one rendered table row. Cells are plain text; escaping is left to
// the renderer.
type Row struct {
	ID    int      `json:"id"`
	Cells []string `json:"cells"`
}

// Field is one label/value pair of a detail view.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Detail is the read-only view of a single entity.
type Detail struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// FormField describes one input of a create or edit form. Value is only
// set on edit forms.
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Value    string   `json:"value,omitempty"`
}

// Schema parameterises a Panel: which entity, where it lives remotely and
// how it is displayed. T is the entity, C its create payload, which the
// remote API also takes as the full replacement on update.
type Schema[T any, C any] struct {
	Name    string
	Title   string
	Path    string
	Columns []string
	Form    []FormField
	ID      func(T) int
	Row     func(T) []string
	Detail  func(T) []Field
	// Values returns the current value of each form field, keyed by name.
	Values func(T) map[string]string
}

// EntityPanel is the type-erased view of a Panel used by the router and
// the HTTP layer.
type EntityPanel interface {
	Name() string
	Title() string
	Columns() []string
	Form() []FormField
	LoadRows(ctx context.Context, sess *model.Session) ([]Row, error)
	CreateFrom(ctx context.Context, sess *model.Session, bind func(interface{}) error) (Row, error)
	View(ctx context.Context, sess *model.Session, id int) (Detail, error)
	EditForm(ctx context.Context, sess *model.Session, id int) ([]FormField, error)
	UpdateFrom(ctx context.Context, sess *model.Session, id int, bind func(interface{}) error) (Row, error)
	Delete(ctx context.Context, sess *model.Session, id int) error
}

// Panel lists, creates, shows, updates and deletes one record type. It holds no
// copy of the data: every call goes to the remote API.
type Panel[T any, C any] struct {
	schema Schema[T, C]
	api    API
}

func NewPanel[T any, C any](api API, schema Schema[T, C]) *Panel[T, C] {
	return &Panel[T, C]{schema: schema, api: api}
}

func (p *Panel[T, C]) Name() string           { return p.schema.Name }
func (p *Panel[T, C]) Title() string          { return p.schema.Title }
func (p *Panel[T, C]) Columns() []string      { return p.schema.Columns }
func (p *Panel[T, C]) Form() []FormField      { return p.schema.Form }
func (p *Panel[T, C]) itemPath(id int) string { return p.schema.Path + "/" + strconv.Itoa(id) }

// Load fetches the whole collection.
func (p *Panel[T, C]) Load(ctx context.Context, sess *model.Session) ([]T, error) {
	var items []T
	if err := p.api.Do(ctx, sess, http.MethodGet, p.schema.Path, nil, &items); err != nil {
		return nil, fmt.Errorf("load %s: %w", p.schema.Name, err)
	}
	return items, nil
}

// Rows maps entities to table rows.
func (p *Panel[T, C]) Rows(items []T) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, p.row(item))
	}
	return rows
}

func (p *Panel[T, C]) row(item T) Row {
	return Row{ID: p.schema.ID(item), Cells: p.schema.Row(item)}
}

func (p *Panel[T, C]) LoadRows(ctx context.Context, sess *model.Session) ([]Row, error) {
	items, err := p.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return p.Rows(items), nil
}

// Create posts a new entity and returns it as the server stored it.
func (p *Panel[T, C]) Create(ctx context.Context, sess *model.Session, input C) (T, error) {
	var created T
	if err := p.api.Do(ctx, sess, http.MethodPost, p.schema.Path, input, &created); err != nil {
		return created, fmt.Errorf("create %s: %w", p.schema.Name, err)
	}
	return created, nil
}

func (p *Panel[T, C]) CreateFrom(ctx context.Context, sess *model.Session, bind func(interface{}) error) (Row, error) {
	var input C
	if err := bind(&input); err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	created, err := p.Create(ctx, sess, input)
	if err != nil {
		return Row{}, err
	}
	return p.row(created), nil
}

// Get fetches one entity by id.
func (p *Panel[T, C]) Get(ctx context.Context, sess *model.Session, id int) (T, error) {
	var item T
	if err := p.api.Do(ctx, sess, http.MethodGet, p.itemPath(id), nil, &item); err != nil {
		return item, fmt.Errorf("view %s %d: %w", p.schema.Name, id, err)
	}
	return item, nil
}

func (p *Panel[T, C]) View(ctx context.Context, sess *model.Session, id int) (Detail, error) {
	item, err := p.Get(ctx, sess, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{ID: p.schema.ID(item), Title: p.schema.Title, Fields: p.schema.Detail(item)}, nil
}

// EditForm returns the form fields filled with the entity's current values.
func (p *Panel[T, C]) EditForm(ctx context.Context, sess *model.Session, id int) ([]FormField, error) {
	item, err := p.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	values := p.schema.Values(item)
	fields := make([]FormField, len(p.schema.Form))
	for i, f := range p.schema.Form {
		f.Value = values[f.Name]
		fields[i] = f
	}
	return fields, nil
}

// Update replaces entity id with input and returns it as the server stored it.
func (p *Panel[T, C]) Update(ctx context.Context, sess *model.Session, id int, input C) (T, error) {
	var updated T
	if err := p.api.Do(ctx, sess, http.MethodPut, p.itemPath(id), input, &updated); err != nil {
		return updated, fmt.Errorf("update %s %d: %w", p.schema.Name, id, err)
	}
	return updated, nil
}

func (p *Panel[T, C]) UpdateFrom(ctx context.Context, sess *model.Session, id int, bind func(interface{}) error) (Row, error) {
	var input C
	if err := bind(&input); err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	updated, err := p.Update(ctx, sess, id, input)
	if err != nil {
		return Row{}, err
	}
	return p.row(updated), nil
}

func (p *Panel[T, C]) Delete(ctx context.Context, sess *model.Session, id int) error {
	if err := p.api.Do(ctx, sess, http.MethodDelete, p.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", p.schema.Name, id, err)
	}
	return nil
}
