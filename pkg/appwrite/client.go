package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/query"
	"github.com/appwrite/sdk-for-go/storage"
	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/common/httpclient"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 200 * time.Millisecond
	// maxDownload bounds artifact downloads.
	maxDownload = 64 << 20
)

type Config struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	DatabaseID string
}

// Client is the record source and blob store backed by an Appwrite project,
// authenticated with a server API key.
type Client struct {
	cfg       Config
	databases *databases.Databases
	storage   *storage.Storage
}

type documentList struct {
	Total     int                      `json:"total"`
	Documents []map[string]interface{} `json:"documents"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.ProjectID == "" || cfg.APIKey == "" {
		return nil, errors.New("appwrite endpoint, project and api key are required")
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	client := sdk.NewClient(
		sdk.WithEndpoint(cfg.Endpoint),
		sdk.WithProject(cfg.ProjectID),
		sdk.WithKey(cfg.APIKey),
	)
	return &Client{
		cfg:       cfg,
		databases: sdk.NewDatabases(client),
		storage:   sdk.NewStorage(client),
	}, nil
}

// ListLatest returns up to limit documents ordered by $createdAt descending.
func (c *Client) ListLatest(ctx context.Context, collection string, limit int) ([]appointment.Record, error) {
	if c.cfg.DatabaseID == "" {
		return nil, errors.New("appwrite database id is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	queries := []string{query.OrderDesc("$createdAt"), query.Limit(limit)}

	var list documentList
	err := withRetry(ctx, func() error {
		res, err := call(ctx, http.MethodGet, c.documentsPath(collection), func() (*documentList, error) {
			resp, err := c.databases.ListDocuments(c.cfg.DatabaseID, collection,
				c.databases.WithListDocumentsQueries(queries))
			if err != nil {
				return nil, err
			}
			var decoded documentList
			if err := resp.Decode(&decoded); err != nil {
				return nil, fmt.Errorf("decoding document list: %w", err)
			}
			return &decoded, nil
		})
		if err != nil {
			return err
		}
		list = *res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	records := make([]appointment.Record, 0, len(list.Documents))
	for _, doc := range list.Documents {
		records = append(records, appointment.Record(doc))
	}
	logger.Log.WithFields(map[string]interface{}{
		"collection": collection,
		"total":      list.Total,
		"returned":   len(records),
	}).Debug("Listed appwrite documents")
	return records, nil
}

// Update applies a partial update and returns the stored document.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]interface{}) (appointment.Record, error) {
	if c.cfg.DatabaseID == "" {
		return nil, errors.New("appwrite database id is not configured")
	}

	var doc map[string]interface{}
	err := withRetry(ctx, func() error {
		res, err := call(ctx, http.MethodPatch, c.documentsPath(collection)+"/"+id, func() (map[string]interface{}, error) {
			resp, err := c.databases.UpdateDocument(c.cfg.DatabaseID, collection, id,
				c.databases.WithUpdateDocumentData(fields))
			if err != nil {
				return nil, err
			}
			var decoded map[string]interface{}
			if err := resp.Decode(&decoded); err != nil {
				return nil, fmt.Errorf("decoding document: %w", err)
			}
			return decoded, nil
		})
		doc = res
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	return appointment.Record(doc), nil
}

// Download fetches the raw bytes of a storage file.
func (c *Client) Download(ctx context.Context, bucket, fileID string) ([]byte, error) {
	var data []byte
	err := withRetry(ctx, func() error {
		res, err := call(ctx, http.MethodGet, "/storage/buckets/"+bucket+"/files/"+fileID+"/download", func() (*[]byte, error) {
			return c.storage.GetFileDownload(bucket, fileID)
		})
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("file %s/%s returned no content", bucket, fileID)
		}
		data = *res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("downloading %s/%s: %w", bucket, fileID, err)
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("file %s/%s exceeds %d bytes", bucket, fileID, maxDownload)
	}
	return data, nil
}

func (c *Client) documentsPath(collection string) string {
	return "/databases/" + c.cfg.DatabaseID + "/collections/" + collection + "/documents"
}

// Ping checks that the configured database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := call(ctx, http.MethodGet, "/databases/"+c.cfg.DatabaseID, func() (struct{}, error) {
		_, err := c.databases.Get(c.cfg.DatabaseID)
		return struct{}{}, err
	})
	return err
}

// call runs a blocking SDK request and abandons it when ctx is done. The SDK
// takes no context, so the request itself finishes in the background.
func call[T any](ctx context.Context, method, path string, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: normalize(method, path, err)}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func withRetry(ctx context.Context, fn func() error) error {
	return httpclient.Retry(ctx, retryAttempts, retryBaseDelay, fn)
}

// statusCoder matches the SDK's API error.
type statusCoder interface {
	GetStatusCode() int
}

// normalize turns SDK API errors into *httpclient.StatusError so retries and
// callers classify them like any other HTTP failure.
func normalize(method, path string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr statusCoder
	if errors.As(err, &apiErr) && apiErr.GetStatusCode() > 0 {
		return &httpclient.StatusError{Method: method, URL: path, StatusCode: apiErr.GetStatusCode(), Body: err.Error()}
	}
	return err
}
