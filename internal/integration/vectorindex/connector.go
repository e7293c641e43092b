// Package vectorindex adapts the hosted nearest-neighbor service. Each tenant
// owns one index sized for all its bots; each bot owns one namespace inside
// it. That split is what isolates tenants without provisioning an index per
// bot.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/config"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/integration/common"
	pkghttp "github.com/snobbots/chatbot-backend/pkg/http"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.VectorIndexConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.VectorIndexConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// IndexName derives the tenant's index name from the configured prefix.
func (c *Connector) IndexName(tenantID string) string {
	normalized := strings.ReplaceAll(strings.ToLower(tenantID), " ", "_")
	return c.config.IndexPrefix + "-" + normalized
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// EnsureIndex idempotently provisions the tenant's index with cosine metric
// and the configured dimension.
func (c *Connector) EnsureIndex(ctx context.Context, tenantID string) error {
	name := c.IndexName(tenantID)

	err := c.connector.DoRequest(ctx, http.MethodGet, "/indexes/"+name, nil, nil)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("describe index %s: %w", name, err)
	}

	req := &createIndexRequest{
		Name:      name,
		Dimension: c.config.Dimension,
		Metric:    "cosine",
		Spec: indexSpec{
			Serverless: serverlessSpec{Cloud: c.config.Cloud, Region: c.config.Region},
		},
	}
	if err := c.connector.DoRequest(ctx, http.MethodPost, "/indexes", req, nil); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}

	ctxzap.Info(ctx, "vector index created",
		zap.String("index", name),
		zap.Int("dimension", c.config.Dimension),
	)

	return nil
}

type upsertRequest struct {
	Namespace string                `json:"namespace"`
	Vectors   []entity.VectorRecord `json:"vectors"`
}

// Upsert writes records into the bot's namespace in one batch call. Records
// in other namespaces of the same index are untouched.
func (c *Connector) Upsert(ctx context.Context, tenantID, namespace string, records []entity.VectorRecord) error {
	name := c.IndexName(tenantID)

	req := &upsertRequest{Namespace: namespace, Vectors: records}
	endpoint := fmt.Sprintf("/indexes/%s/vectors/upsert", name)
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("upsert %d vectors into %s/%s: %w", len(records), name, namespace, err)
	}

	ctxzap.Info(ctx, "vectors upserted",
		zap.String("index", name),
		zap.String("namespace", namespace),
		zap.Int("vector_count", len(records)),
	)

	return nil
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"top_k"`
	IncludeMetadata bool      `json:"include_metadata"`
}

type queryResponse struct {
	Matches []entity.VectorMatch `json:"matches"`
}

// Query returns up to topK nearest neighbors by cosine similarity, descending.
// A missing index and an empty namespace both come back as an empty slice:
// the caller treats either as "no knowledge base yet".
func (c *Connector) Query(ctx context.Context, tenantID, namespace string, vector []float32, topK int) ([]entity.VectorMatch, error) {
	name := c.IndexName(tenantID)

	req := &queryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	var resp queryResponse
	endpoint := fmt.Sprintf("/indexes/%s/query", name)
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s/%s: %w", name, namespace, err)
	}

	return resp.Matches, nil
}

type deleteRequest struct {
	Namespace string `json:"namespace"`
	DeleteAll bool   `json:"delete_all"`
}

// DeleteNamespace removes every vector under the namespace. Unlike Query,
// deleting against a tenant that never had an index is a client error.
func (c *Connector) DeleteNamespace(ctx context.Context, tenantID, namespace string) error {
	name := c.IndexName(tenantID)

	req := &deleteRequest{Namespace: namespace, DeleteAll: true}
	endpoint := fmt.Sprintf("/indexes/%s/vectors/delete", name)
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: tenant %s", entity.ErrIndexNotFound, tenantID)
		}
		return fmt.Errorf("delete namespace %s/%s: %w", name, namespace, err)
	}

	ctxzap.Info(ctx, "namespace deleted",
		zap.String("index", name),
		zap.String("namespace", namespace),
	)

	return nil
}

func isNotFound(err error) bool {
	var httpErr *pkghttp.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
