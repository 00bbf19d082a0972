package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/glowshop/internal/models"
)

// Engine is a full-text product index. Hits carry ids only; product data is
// always re-read from the catalog store.
type Engine interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

type ESEngine struct {
	Client    *elasticsearch.Client
	IndexName string
}

func NewESEngine(client *elasticsearch.Client, index string) *ESEngine {
	return &ESEngine{Client: client, IndexName: index}
}

// Ping checks that the cluster answers.
func (e *ESEngine) Ping(ctx context.Context) error {
	res, err := e.Client.Info(e.Client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}

type document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

func (e *ESEngine) Index(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(document{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
	})
	if err != nil {
		return err
	}

	res, err := e.Client.Index(
		e.IndexName,
		bytes.NewReader(body),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product: %s", readError(res.Body, res.Status()))
	}
	return nil
}

func (e *ESEngine) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := e.Client.Delete(e.IndexName, id.String(), e.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product: %s", readError(res.Body, res.Status()))
	}
	return nil
}

func (e *ESEngine) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.IndexName),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", readError(res.Body, res.Status()))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func readError(body io.Reader, status string) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return status + ": " + msg
	}
	return status
}
