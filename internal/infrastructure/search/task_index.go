// Package search mirrors tasks into Elasticsearch for owner-scoped text search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const (
	requestTimeout = 3 * time.Second
	defaultSize    = 20
	maxSize        = 100
)

type TaskIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewTaskIndex(es *elasticsearch.Client, index string) *TaskIndex {
	return &TaskIndex{es: es, index: index}
}

// mapping keeps owner and status exact-match so the owner filter is a term query.
var mapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":          map[string]any{"type": "keyword"},
			"user_id":     map[string]any{"type": "keyword"},
			"title":       map[string]any{"type": "text"},
			"description": map[string]any{"type": "text"},
			"status":      map[string]any{"type": "keyword"},
			"created_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *TaskIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}
	if exists.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es exists %s: %s", x.index, exists.Status())
	}

	b, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	res, err := esapi.IndicesCreateRequest{Index: x.index, Body: bytes.NewReader(b)}.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// a concurrent starter may have won the race
	if res.IsError() && !strings.Contains(readAll(res.Body), "resource_already_exists_exception") {
		return fmt.Errorf("es create %s: %s", x.index, res.Status())
	}
	return nil
}

func readAll(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	return string(b)
}

type taskDoc struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func toDoc(t entity.Task) taskDoc {
	d := taskDoc{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.Description != nil {
		d.Description = *t.Description
	}
	return d
}

func (x *TaskIndex) Index(ctx context.Context, t entity.Task) error {
	b, err := json.Marshal(toDoc(t))
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{Index: x.index, DocumentID: t.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Remove treats a missing document as success.
func (x *TaskIndex) Remove(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

// Search returns matching task ids in relevance order.
func (x *TaskIndex) Search(ctx context.Context, userID, query string, size int) ([]string, error) {
	if userID == "" {
		return nil, repository.ErrUnscopedQuery
	}
	b, err := json.Marshal(buildQuery(userID, query, size))
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// buildQuery filters on the owner and matches title (boosted) and description.
func buildQuery(userID, q string, size int) map[string]any {
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":     q,
						"fields":    []string{"title^2", "description"},
						"fuzziness": "AUTO",
					}},
				},
			},
		},
	}
}

var _ repository.TaskIndex = (*TaskIndex)(nil)
